// ABOUTME: In-memory conversation store with kind-specific event merge policy.
// ABOUTME: Single canonical record per (conversation, event id); append-/merge-only transcripts.

package transcript

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lucyonegit/agent-web-client/internal/event"
)

// Conversation is a read-only snapshot of one logical exchange. Events hold
// value types, so callers may retain snapshots across merges.
type Conversation struct {
	ID     string
	Events []event.Event
}

// conversationState is the mutable record behind a conversation. planIndex
// tracks the single live task plan slot (-1 when no plan has been seen).
type conversationState struct {
	id        string
	events    []event.Event
	index     map[string]int
	planIndex int
}

// Store owns all conversation and event records for the process lifetime.
// Conversations are created on first reference and never deleted. All writes
// are serialized by the store mutex; in practice only the active stream
// connection's read loop writes, in frame-arrival order.
type Store struct {
	mu          sync.Mutex
	sessionID   string
	order       []*conversationState
	byID        map[string]*conversationState
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewStore creates an empty store. Pass nil logger for the default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		byID:        make(map[string]*conversationState),
		broadcaster: NewBroadcaster(logger),
		logger:      logger.With("component", "transcript"),
	}
}

// Broadcaster returns the store's event fan-out for live renderers.
func (s *Store) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// PinSession records the server-assigned session id. The first non-empty id
// wins for the process lifetime; later values are ignored. Returns true if
// this call pinned the id.
func (s *Store) PinSession(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID != "" {
		return false
	}
	s.sessionID = id
	return true
}

// SessionID returns the pinned session id, or "" if none has been assigned.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// EnsureConversation creates the conversation if it does not exist. When the
// conversation is created and prompt is non-empty, a synthetic non-streaming
// user text event with a minted id is seeded as the first record, so the
// user's own submission always opens the transcript. Returns true if the
// conversation was created by this call.
func (s *Store) EnsureConversation(conversationID, prompt string) bool {
	if conversationID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[conversationID]; ok {
		return false
	}
	conv := s.createLocked(conversationID)
	if prompt != "" {
		seed := event.Text{
			ID:      uuid.New().String(),
			Role:    event.RoleUser,
			Content: prompt,
		}
		s.appendLocked(conv, seed)
	}
	return true
}

// AppendUserMessage appends the user's submitted text to an existing
// conversation. Used when resuming a paused conversation, where the
// transcript already exists and seeding does not apply. A no-op if the
// conversation is unknown.
func (s *Store) AppendUserMessage(conversationID, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[conversationID]
	if !ok {
		s.logger.Debug("user message for unknown conversation dropped",
			"conversation_id", conversationID)
		return
	}
	s.appendLocked(conv, event.Text{
		ID:      uuid.New().String(),
		Role:    event.RoleUser,
		Content: text,
	})
}

// Reconcile folds ev into the conversation's transcript under the
// kind-specific merge policy. The conversation is created if it does not
// exist yet. Merged events are published to the broadcaster.
func (s *Store) Reconcile(conversationID string, ev event.Event) {
	if conversationID == "" || ev == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[conversationID]
	if !ok {
		conv = s.createLocked(conversationID)
	}
	s.mergeLocked(conv, ev)
}

// Snapshot returns copies of all conversations in creation order.
func (s *Store) Snapshot() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.order))
	for _, conv := range s.order {
		out = append(out, Conversation{
			ID:     conv.id,
			Events: append([]event.Event(nil), conv.events...),
		})
	}
	return out
}

// Events returns a copy of one conversation's ordered event list.
func (s *Store) Events(conversationID string) ([]event.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[conversationID]
	if !ok {
		return nil, false
	}
	return append([]event.Event(nil), conv.events...), true
}

func (s *Store) createLocked(conversationID string) *conversationState {
	conv := &conversationState{
		id:        conversationID,
		index:     make(map[string]int),
		planIndex: -1,
	}
	s.byID[conversationID] = conv
	s.order = append(s.order, conv)
	s.logger.Debug("conversation created", "conversation_id", conversationID)
	return conv
}

// appendLocked appends ev as a new record and publishes it.
func (s *Store) appendLocked(conv *conversationState, ev event.Event) {
	conv.events = append(conv.events, ev)
	conv.index[ev.EventID()] = len(conv.events) - 1
	s.broadcaster.Publish(conv.id, ev)
}

// replaceLocked replaces the record at idx and publishes the merged event.
func (s *Store) replaceLocked(conv *conversationState, idx int, ev event.Event) {
	conv.events[idx] = ev
	s.broadcaster.Publish(conv.id, ev)
}
