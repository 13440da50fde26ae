package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrSinkClosed is returned by a RecordingSink after its failure point.
var ErrSinkClosed = errors.New("sink closed")

// RecordingSink captures streamed fragments. Setting FailAfter > 0 makes
// the sink fail once that many writes have succeeded, simulating a client
// that disconnects mid-stream.
type RecordingSink struct {
	mu        sync.Mutex
	chunks    []string
	FailAfter int
}

// Write records the chunk, or fails if the failure point was reached.
func (s *RecordingSink) Write(_ context.Context, chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAfter > 0 && len(s.chunks) >= s.FailAfter {
		return ErrSinkClosed
	}
	s.chunks = append(s.chunks, chunk)
	return nil
}

// Chunks returns the recorded fragments.
func (s *RecordingSink) Chunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.chunks...)
}

// Text returns the concatenation of all recorded fragments.
func (s *RecordingSink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.chunks, "")
}
