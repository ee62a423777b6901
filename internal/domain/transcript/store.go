// Package transcript owns the per-conversation message lists. The stream
// path (Reconciler) mutates individual messages; the fallback poller
// replaces whole transcripts. Consistency between the two is last-write-wins
// at each path's granularity, except that a poll result is never applied to
// a conversation whose stream is currently active.
package transcript

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/session"
)

// ErrConversationNotFound is returned when a conversation is not tracked.
var ErrConversationNotFound = errors.New("conversation not found")

type entry struct {
	conv   chat.Conversation
	window session.Window

	// Handle of the stream currently open for this conversation, zero when
	// none. Only the holder of the handle may clear it.
	streamOwner uint64
}

// Store is a mutex-based in-memory transcript store.
// Thread-safe via sync.RWMutex.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	nextStream uint64
	log        zerolog.Logger
}

// NewStore creates an empty transcript store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		log:     log.With().Str("component", "transcript-store").Logger(),
	}
}

// Ensure registers a conversation if it is not tracked yet.
func (s *Store) Ensure(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(id)
}

func (s *Store) ensureLocked(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		now := time.Now()
		e = &entry{
			conv:   chat.Conversation{ID: id, CreatedAt: now, UpdatedAt: now},
			window: session.Window{State: session.StateUnknown},
		}
		s.entries[id] = e
	}
	return e
}

// IDs returns the tracked conversation ids.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns a deep copy of the conversation and its session window.
func (s *Store) Snapshot(id string) (chat.Conversation, session.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return chat.Conversation{}, session.Window{}, ErrConversationNotFound
	}

	conv := e.conv
	conv.Messages = make([]chat.Message, len(e.conv.Messages))
	copy(conv.Messages, e.conv.Messages)
	return conv, e.window, nil
}

// Window returns the last known session window for a conversation.
func (s *Store) Window(id string) (session.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return session.Window{}, ErrConversationNotFound
	}
	return e.window, nil
}

// LastInbound returns the content of the most recent user message.
func (s *Store) LastInbound(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return ""
	}
	return e.conv.LastInbound()
}

// BeginStream marks a send stream open for the conversation and returns an
// ownership handle. While a stream is open, poll results are not applied.
// A second BeginStream takes over the mark from the stream it replaced.
func (s *Store) BeginStream(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStream++
	s.ensureLocked(id).streamOwner = s.nextStream
	return s.nextStream
}

// EndStream clears the stream mark, but only when handle still owns it. A
// replaced stream's late cleanup never clears the mark of its replacement.
func (s *Store) EndStream(id string, handle uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.streamOwner != handle {
		return
	}
	e.streamOwner = 0
}

// StreamActive reports whether a send stream is open for the conversation.
func (s *Store) StreamActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	return ok && e.streamOwner != 0
}

// Replace overwrites the transcript and session window with server truth.
// This is a bulk, undiffed replace. It reports false without touching
// anything when a stream is active for the conversation.
func (s *Store) Replace(id string, messages []chat.Message, window session.Window) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensureLocked(id)
	if e.streamOwner != 0 {
		return false
	}

	e.conv.Messages = make([]chat.Message, len(messages))
	copy(e.conv.Messages, messages)
	e.conv.UpdatedAt = time.Now()
	e.window = window
	return true
}
