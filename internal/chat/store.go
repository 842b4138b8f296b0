// Package chat owns the conversational session state: the conversation list
// projection, the active conversation's message sequence, the per-question
// state machine, and the compact-layout coordinator. All mutation is
// synchronous and happens on the UI event loop; network calls run off-loop as
// Cmd closures whose results are applied back through the controller.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/loicSchussler/PaperChat/internal/api"
)

// Handle identifies an optimistic message for later confirm or rollback.
type Handle = uuid.UUID

// Store holds the conversation list and the active conversation. The active
// conversation is a draft (no server id yet) while ID is zero; it graduates
// to a persisted conversation when the first answer arrives.
type Store struct {
	list     []api.ConversationListItem
	activeID int64
	messages []api.Message

	// pending is the handle of the one unconfirmed optimistic message, if
	// any. Rollback only ever removes the message matching this handle.
	pending *Handle
}

// NewStore creates an empty store positioned on a draft conversation.
func NewStore() *Store {
	return &Store{}
}

// List returns the current conversation list projection.
func (s *Store) List() []api.ConversationListItem {
	return s.list
}

// SetList replaces the conversation list wholesale.
func (s *Store) SetList(items []api.ConversationListItem) {
	s.list = items
}

// ActiveID returns the active conversation's server id, zero for a draft.
func (s *Store) ActiveID() int64 {
	return s.activeID
}

// IsDraft reports whether the active conversation has no server id yet.
func (s *Store) IsDraft() bool {
	return s.activeID == 0
}

// Messages returns the active conversation's message sequence in
// chronological order.
func (s *Store) Messages() []api.Message {
	return s.messages
}

// SelectActive replaces the active conversation with a fetched one.
func (s *Store) SelectActive(conv *api.Conversation) {
	s.activeID = conv.ID
	s.messages = append([]api.Message(nil), conv.Messages...)
	s.pending = nil
}

// StartDraft resets the active conversation to an empty draft.
func (s *Store) StartDraft() {
	s.activeID = 0
	s.messages = nil
	s.pending = nil
}

// AppendOptimistic appends a message before its network round trip resolves
// and returns the handle used to confirm or roll it back. The caller has
// already validated the content.
func (s *Store) AppendOptimistic(msg api.Message) Handle {
	handle := uuid.New()
	msg.ID = 0
	msg.ConversationID = s.activeID
	s.messages = append(s.messages, msg)
	s.pending = &handle
	return handle
}

// ConfirmAssistantReply appends the assistant message built from a gateway
// response and settles the pending optimistic message. If the active
// conversation was a draft it adopts the response's conversation id, which
// is also stamped onto messages appended while the draft had no id.
func (s *Store) ConfirmAssistantReply(resp *api.ChatResponse) {
	if s.activeID == 0 {
		s.activeID = resp.ConversationID
		for i := range s.messages {
			if s.messages[i].ConversationID == 0 {
				s.messages[i].ConversationID = resp.ConversationID
			}
		}
	}

	s.messages = append(s.messages, api.Message{
		ConversationID: resp.ConversationID,
		Role:           api.RoleAssistant,
		Content:        resp.Answer,
		Sources:        resp.Sources,
		CostUSD:        resp.CostUSD,
		ResponseTimeMS: resp.ResponseTimeMS,
		CreatedAt:      time.Now(),
	})
	s.pending = nil
}

// Rollback removes the most recently appended optimistic message iff the
// handle matches the pending one. Confirmed messages are never removed; a
// stale handle is a no-op.
func (s *Store) Rollback(handle Handle) bool {
	if s.pending == nil || *s.pending != handle || len(s.messages) == 0 {
		return false
	}
	s.messages = s.messages[:len(s.messages)-1]
	s.pending = nil
	return true
}
