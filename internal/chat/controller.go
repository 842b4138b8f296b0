package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/loicSchussler/PaperChat/internal/api"
)

// MaxQuestionLength bounds a single question; the backend truncates context
// well below this, so longer input is almost certainly a paste mistake.
const MaxQuestionLength = 4096

// DefaultListLimit is the page size used for background list refreshes.
const DefaultListLimit = 20

// ErrAskInFlight is returned when a question is asked while another is still
// pending. The second ask is rejected, not queued.
var ErrAskInFlight = errors.New("a question is already in flight")

// Gateway is the slice of the backend client the controller needs.
// *api.Client satisfies it.
type Gateway interface {
	AskQuestion(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	ListConversations(ctx context.Context, skip, limit int) ([]api.ConversationListItem, error)
	GetConversation(ctx context.Context, id int64) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id int64) error
	UpdateConversationTitle(ctx context.Context, id int64, title string) error
}

// Cmd is a deferred gateway call. Controller methods mutate state on the UI
// loop and hand back a Cmd; the frontend runs it off-loop and feeds the
// resulting event back through the matching Handle method.
type Cmd func(ctx context.Context) Event

// Event is a completed gateway call's outcome.
type Event any

// Completion events.
type (
	// AskResolved carries the outcome of an AskQuestion call together with
	// the handle of the optimistic message it must confirm or roll back.
	AskResolved struct {
		Handle Handle
		Asked  int64 // conversation id the question was asked against, zero for draft
		Resp   *api.ChatResponse
		Err    error
	}

	// ConversationFetched is the outcome of a Select.
	ConversationFetched struct {
		ID   int64
		Conv *api.Conversation
		Err  error
	}

	// ListRefreshed is the outcome of a conversation list refresh.
	ListRefreshed struct {
		Items []api.ConversationListItem
		Err   error
	}

	// ConversationDeleted is the outcome of a Delete.
	ConversationDeleted struct {
		ID  int64
		Err error
	}

	// TitleUpdated is the outcome of a Rename.
	TitleUpdated struct {
		ID  int64
		Err error
	}
)

// Controller orchestrates user intents against the store and gateway. It
// holds no conversation state of its own beyond the in-flight flag and the
// last user-visible error.
type Controller struct {
	store    *Store
	gateway  Gateway
	viewport *Viewport
	logger   *zap.Logger

	inFlight  bool
	lastError string

	// Optional question scoping, forwarded verbatim to the backend.
	paperScope []int64
	maxSources int
}

// NewController wires a controller to its store, gateway and viewport. The
// viewport may be nil for frontends without a collapsible list.
func NewController(store *Store, gateway Gateway, viewport *Viewport, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		gateway:  gateway,
		viewport: viewport,
		logger:   logger,
	}
}

// InFlight reports whether a question is currently pending.
func (c *Controller) InFlight() bool { return c.inFlight }

// LastError returns the current user-visible error, empty when none.
func (c *Controller) LastError() string { return c.lastError }

// ClearError resets the user-visible error.
func (c *Controller) ClearError() { c.lastError = "" }

// ScopeToPapers restricts subsequent questions to the given papers. An empty
// scope means the whole library.
func (c *Controller) ScopeToPapers(ids []int64) { c.paperScope = ids }

// SetMaxSources overrides the number of citations requested per answer.
// Zero keeps the server default.
func (c *Controller) SetMaxSources(n int) { c.maxSources = n }

// Ask validates the question, appends the optimistic user message and
// returns the gateway call. A second ask while one is pending returns
// ErrAskInFlight with no state change; an empty question surfaces a
// validation message and returns the underlying error.
func (c *Controller) Ask(question string) (Cmd, error) {
	if c.inFlight {
		return nil, ErrAskInFlight
	}

	question = strings.TrimSpace(question)
	if err := validation.Validate(question,
		validation.Required.Error("Please enter a question"),
		validation.Length(1, MaxQuestionLength).Error("Question is too long"),
	); err != nil {
		c.lastError = err.Error()
		return nil, &api.ValidationError{Message: c.lastError}
	}

	c.lastError = ""
	handle := c.store.AppendOptimistic(api.Message{
		Role:      api.RoleUser,
		Content:   question,
		CreatedAt: time.Now(),
	})
	c.inFlight = true

	req := api.ChatRequest{
		Question:       question,
		ConversationID: c.store.ActiveID(),
		PaperIDs:       c.paperScope,
		MaxSources:     c.maxSources,
	}
	return func(ctx context.Context) Event {
		resp, err := c.gateway.AskQuestion(ctx, req)
		return AskResolved{Handle: handle, Asked: req.ConversationID, Resp: resp, Err: err}
	}, nil
}

// HandleAskResolved applies an ask outcome. On failure the optimistic user
// message is rolled back and the error surfaced; on success the assistant
// reply is confirmed, and a draft that just received its server id triggers
// a single list refresh, returned as a follow-up Cmd.
func (c *Controller) HandleAskResolved(ev AskResolved) Cmd {
	c.inFlight = false

	if ev.Err != nil {
		c.store.Rollback(ev.Handle)
		c.lastError = api.UserMessage(ev.Err)
		c.logger.Warn("ask failed", zap.Int64("conversation_id", ev.Asked), zap.Error(ev.Err))
		return nil
	}

	if ev.Asked != c.store.ActiveID() {
		// Accepted race: the user switched conversations while the answer
		// was in flight. Last writer wins on the active conversation.
		c.logger.Info("ask resolved against a different active conversation",
			zap.Int64("asked", ev.Asked),
			zap.Int64("active", c.store.ActiveID()))
	}

	wasDraft := c.store.IsDraft()
	c.store.ConfirmAssistantReply(ev.Resp)
	c.logger.Debug("ask fulfilled",
		zap.Int64("conversation_id", ev.Resp.ConversationID),
		zap.Float64("cost_usd", ev.Resp.CostUSD),
		zap.Int("response_time_ms", ev.Resp.ResponseTimeMS))

	if wasDraft {
		return c.RefreshList()
	}
	return nil
}

// Select fetches a conversation's full history for activation.
func (c *Controller) Select(id int64) Cmd {
	return func(ctx context.Context) Event {
		conv, err := c.gateway.GetConversation(ctx, id)
		return ConversationFetched{ID: id, Conv: conv, Err: err}
	}
}

// HandleConversationFetched activates a fetched conversation. On failure the
// previous active conversation is left untouched.
func (c *Controller) HandleConversationFetched(ev ConversationFetched) {
	if ev.Err != nil {
		c.lastError = api.UserMessage(ev.Err)
		return
	}
	c.lastError = ""
	c.store.SelectActive(ev.Conv)
}

// StartNew resets the session to an empty draft. On a compact layout the
// conversation list is hidden so the user lands on the empty composer.
func (c *Controller) StartNew() {
	c.store.StartDraft()
	c.lastError = ""
	if c.viewport != nil {
		c.viewport.CollapseList()
	}
}

// Delete removes a conversation. The caller must have obtained explicit user
// confirmation before invoking this; a declined confirmation never reaches
// the gateway.
func (c *Controller) Delete(id int64) Cmd {
	return func(ctx context.Context) Event {
		return ConversationDeleted{ID: id, Err: c.gateway.DeleteConversation(ctx, id)}
	}
}

// HandleConversationDeleted applies a delete outcome. Deleting the active
// conversation resets to a draft; any successful delete refreshes the list.
func (c *Controller) HandleConversationDeleted(ev ConversationDeleted) Cmd {
	if ev.Err != nil {
		c.lastError = api.UserMessage(ev.Err)
		return nil
	}
	if ev.ID == c.store.ActiveID() {
		c.StartNew()
	}
	return c.RefreshList()
}

// Rename updates a conversation title.
func (c *Controller) Rename(id int64, title string) (Cmd, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, validation.Required.Error("Title must not be empty")); err != nil {
		c.lastError = "Title must not be empty"
		return nil, &api.ValidationError{Message: c.lastError}
	}
	return func(ctx context.Context) Event {
		return TitleUpdated{ID: id, Err: c.gateway.UpdateConversationTitle(ctx, id, title)}
	}, nil
}

// HandleTitleUpdated applies a rename outcome and refreshes the list so the
// new title shows up in the projection.
func (c *Controller) HandleTitleUpdated(ev TitleUpdated) Cmd {
	if ev.Err != nil {
		c.lastError = api.UserMessage(ev.Err)
		return nil
	}
	return c.RefreshList()
}

// RefreshList fetches the first page of the conversation list projection.
func (c *Controller) RefreshList() Cmd {
	return func(ctx context.Context) Event {
		items, err := c.gateway.ListConversations(ctx, 0, DefaultListLimit)
		return ListRefreshed{Items: items, Err: err}
	}
}

// HandleListRefreshed replaces the list projection.
func (c *Controller) HandleListRefreshed(ev ListRefreshed) {
	if ev.Err != nil {
		c.lastError = api.UserMessage(ev.Err)
		c.logger.Warn("list refresh failed", zap.Error(ev.Err))
		return
	}
	c.store.SetList(ev.Items)
}
