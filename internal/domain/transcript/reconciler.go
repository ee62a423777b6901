package transcript

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/domain/chat"
)

// Reconciler applies stream-side mutations to the store: optimistic
// inserts, id remaps, content deltas, and terminal status.
//
// Per-message state machine: pending -> streaming -> {done | error |
// cancelled}. The meta remap is a side-channel identifier swap that never
// changes status or position.
type Reconciler struct {
	store *Store
	log   zerolog.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store *Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store: store,
		log:   log.With().Str("component", "reconciler").Logger(),
	}
}

func newLocalID() string {
	return fmt.Sprintf("local_%s", uuid.NewString())
}

// StartSend inserts a user message and an assistant placeholder as an
// atomic pair, placeholder last. Any message still streaming for the
// conversation is finalized as cancelled first, matching the
// cancel-and-replace policy for overlapping sends.
func (r *Reconciler) StartSend(convID, text, provider string) (userID, assistantID string) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e := r.store.ensureLocked(convID)
	now := time.Now()

	for i := range e.conv.Messages {
		m := &e.conv.Messages[i]
		if !m.Status.IsTerminal() {
			m.Status = chat.StatusCancelled
		}
	}

	userID = newLocalID()
	assistantID = newLocalID()
	e.conv.Messages = append(e.conv.Messages,
		chat.Message{
			ID:        userID,
			Origin:    chat.OriginPending,
			Role:      chat.RoleUser,
			Content:   text,
			Status:    chat.StatusPending,
			Provider:  provider,
			CreatedAt: now,
		},
		chat.Message{
			ID:        assistantID,
			Origin:    chat.OriginPending,
			Role:      chat.RoleAssistant,
			Status:    chat.StatusPending,
			Provider:  provider,
			CreatedAt: now,
		},
	)
	e.conv.UpdatedAt = now
	return userID, assistantID
}

// ApplyMeta swaps optimistic ids for durable server ids in place, without
// reordering or content change. Idempotent: reapplying the same mapping has
// no further effect, and a durable id is never handed back to a later
// optimistic message.
func (r *Reconciler) ApplyMeta(convID string, remap map[string]string) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.entries[convID]
	if !ok {
		return
	}

	for localID, durableID := range remap {
		if durableID == "" || localID == durableID {
			continue
		}
		if r.findLocked(e, durableID) != nil {
			// Mapping already applied.
			continue
		}
		m := r.findLocked(e, localID)
		if m == nil {
			r.log.Debug().Str("conversation_id", convID).Str("id", localID).Msg("meta remap target missing")
			continue
		}
		m.ID = durableID
		m.Origin = chat.OriginDurable
	}
}

// ApplyDelta appends a content fragment to the message addressed by id.
// Fragments for unknown or already-finalized messages are dropped silently.
func (r *Reconciler) ApplyDelta(convID, id, fragment string) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.entries[convID]
	if !ok {
		return
	}

	m := r.findLocked(e, id)
	if m == nil || m.Status.IsTerminal() {
		r.log.Debug().Str("conversation_id", convID).Str("id", id).Msg("delta dropped")
		return
	}

	if m.Status == chat.StatusPending {
		m.Status = chat.StatusStreaming
	}
	m.Content += fragment
	e.conv.UpdatedAt = time.Now()
}

// Finalize sets a terminal status exactly once. A second call on an
// already-terminal message is a no-op that alters nothing. When a message
// finalizes as error with no accumulated content, fallback becomes its
// content; cancellation preserves whatever partial content exists.
func (r *Reconciler) Finalize(convID, id string, status chat.Status, fallback, provider string) {
	if !status.IsTerminal() {
		return
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.entries[convID]
	if !ok {
		return
	}

	m := r.findLocked(e, id)
	if m == nil || m.Status.IsTerminal() {
		return
	}

	m.Status = status
	if provider != "" {
		m.Provider = provider
	}
	if status == chat.StatusError && m.Content == "" {
		m.Content = fallback
	}
	e.conv.UpdatedAt = time.Now()
}

func (r *Reconciler) findLocked(e *entry, id string) *chat.Message {
	for i := range e.conv.Messages {
		if e.conv.Messages[i].ID == id {
			return &e.conv.Messages[i]
		}
	}
	return nil
}
