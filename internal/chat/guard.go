package chat

import (
	"sync"

	"github.com/google/uuid"
)

// guard enforces at most one active generation per conversation.
type guard struct {
	active sync.Map // conversation ID -> struct{}
}

// acquire claims the conversation. Returns false if a run is already active.
func (g *guard) acquire(id uuid.UUID) bool {
	_, loaded := g.active.LoadOrStore(id, struct{}{})
	return !loaded
}

// release frees the conversation for the next run.
func (g *guard) release(id uuid.UUID) {
	g.active.Delete(id)
}
