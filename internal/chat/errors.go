package chat

import "errors"

// Sentinel errors for orchestrator operations, checked with errors.Is().
var (
	// ErrEmptyMessage indicates the user message was empty or whitespace.
	ErrEmptyMessage = errors.New("empty message")

	// ErrConversationBusy indicates a generation is already running for the
	// conversation. Callers should retry after the active run finishes.
	ErrConversationBusy = errors.New("conversation busy")

	// ErrClientDisconnected indicates the caller went away mid-stream. Any
	// output produced before the disconnect is still persisted.
	ErrClientDisconnected = errors.New("client disconnected")

	// ErrVenueSearchUnavailable indicates the venue source failed during a
	// tool call; the generation is terminated rather than letting the model
	// improvise venues.
	ErrVenueSearchUnavailable = errors.New("venue search unavailable")
)
