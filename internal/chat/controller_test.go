package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/loicSchussler/PaperChat/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestController(gw *fakeGateway) (*Controller, *Store) {
	store := NewStore()
	ctrl := NewController(store, gw, nil, zap.NewNop())
	return ctrl, store
}

// run executes a Cmd synchronously and applies its event, returning any
// follow-up Cmds until none remain. This mirrors the frontend loop: one
// completion applied at a time.
func run(t *testing.T, ctrl *Controller, cmd Cmd) {
	t.Helper()
	for cmd != nil {
		switch ev := cmd(context.Background()).(type) {
		case AskResolved:
			cmd = ctrl.HandleAskResolved(ev)
		case ConversationFetched:
			ctrl.HandleConversationFetched(ev)
			cmd = nil
		case ListRefreshed:
			ctrl.HandleListRefreshed(ev)
			cmd = nil
		case ConversationDeleted:
			cmd = ctrl.HandleConversationDeleted(ev)
		case TitleUpdated:
			cmd = ctrl.HandleTitleUpdated(ev)
		default:
			t.Fatalf("unexpected event type %T", ev)
		}
	}
}

func TestAsk_EmptyQuestionRejectedLocally(t *testing.T) {
	gw := &fakeGateway{}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask("   ")

	assert.Nil(t, cmd)
	var validationErr *api.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Please enter a question", ctrl.LastError())
	assert.Empty(t, store.Messages(), "no optimistic message on validation failure")
	assert.Empty(t, gw.askReqs, "validation never reaches the network")
}

func TestAsk_OverlongQuestionGetsLengthMessage(t *testing.T) {
	gw := &fakeGateway{}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask(strings.Repeat("x", MaxQuestionLength+1))

	assert.Nil(t, cmd)
	var validationErr *api.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Question is too long", ctrl.LastError())
	assert.Empty(t, store.Messages())
	assert.Empty(t, gw.askReqs)
}

// A draft conversation graduates on the first successful answer.
func TestAsk_DraftGraduation(t *testing.T) {
	gw := &fakeGateway{
		askResp: &api.ChatResponse{
			Answer:         "X is...",
			CostUSD:        0.002,
			ResponseTimeMS: 850,
			ConversationID: 42,
		},
		items: []api.ConversationListItem{{ID: 42, Title: "What is X?"}},
	}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask("What is X?")
	require.NoError(t, err)
	assert.True(t, ctrl.InFlight())
	run(t, ctrl, cmd)

	assert.False(t, ctrl.InFlight())
	assert.EqualValues(t, 42, store.ActiveID())
	require.Len(t, store.Messages(), 2)
	assert.Equal(t, api.RoleUser, store.Messages()[0].Role)
	assert.Equal(t, "What is X?", store.Messages()[0].Content)
	assert.Equal(t, api.RoleAssistant, store.Messages()[1].Role)
	assert.Equal(t, "X is...", store.Messages()[1].Content)

	// Exactly one list refresh was triggered by graduation.
	assert.Equal(t, 1, gw.listCalls)
	assert.Len(t, store.List(), 1)
}

func TestAsk_NoRefreshForPersistedConversation(t *testing.T) {
	gw := &fakeGateway{askResp: &api.ChatResponse{Answer: "more", ConversationID: 42}}
	ctrl, store := newTestController(gw)
	store.SelectActive(&api.Conversation{ID: 42})

	cmd, err := ctrl.Ask("And Y?")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	assert.Zero(t, gw.listCalls, "only draft graduation refreshes the list")
}

// A failed ask restores the exact prior message sequence.
func TestAsk_FailureRollsBackOptimisticMessage(t *testing.T) {
	gw := &fakeGateway{askResp: &api.ChatResponse{Answer: "X is...", ConversationID: 42}}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask("What is X?")
	require.NoError(t, err)
	run(t, ctrl, cmd)
	before := append([]api.Message(nil), store.Messages()...)

	gw.askErr = &api.ServerError{Status: 429, Detail: "rate limited"}
	cmd, err = ctrl.Ask("And Y?")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	assert.False(t, ctrl.InFlight())
	assert.Equal(t, "rate limited", ctrl.LastError())
	if diff := cmp.Diff(before, append([]api.Message(nil), store.Messages()...)); diff != "" {
		t.Errorf("messages after failed ask differ from before (-want +got):\n%s", diff)
	}
}

func TestAsk_TransportErrorMessageFallback(t *testing.T) {
	gw := &fakeGateway{askErr: &api.NetworkError{Err: errors.New("connection refused")}}
	ctrl, _ := newTestController(gw)

	cmd, err := ctrl.Ask("q")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	assert.Equal(t, "connection refused", ctrl.LastError())
}

// A second ask while one is pending is rejected with no side effects.
func TestAsk_MutualExclusion(t *testing.T) {
	gw := &fakeGateway{askResp: &api.ChatResponse{Answer: "a", ConversationID: 1}}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask("first")
	require.NoError(t, err)

	second, err := ctrl.Ask("second")
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrAskInFlight)
	assert.Len(t, store.Messages(), 1, "no second optimistic message")

	run(t, ctrl, cmd)
	assert.Len(t, gw.askReqs, 1, "no second gateway call")
}

// Successive successful asks keep strict call order, alternating roles.
func TestAsk_OrderingAcrossSuccessiveAsks(t *testing.T) {
	gw := &fakeGateway{askResp: &api.ChatResponse{Answer: "answer 1", ConversationID: 9}}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Ask("question 1")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	gw.askResp = &api.ChatResponse{Answer: "answer 2", ConversationID: 9}
	cmd, err = ctrl.Ask("question 2")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	contents := make([]string, 0, 4)
	for _, msg := range store.Messages() {
		contents = append(contents, msg.Role+":"+msg.Content)
	}
	assert.Equal(t, []string{
		"user:question 1",
		"assistant:answer 1",
		"user:question 2",
		"assistant:answer 2",
	}, contents)
}

func TestSelect_SuccessReplacesActive(t *testing.T) {
	gw := &fakeGateway{conv: &api.Conversation{
		ID:       7,
		Messages: []api.Message{{ID: 1, ConversationID: 7, Role: api.RoleUser, Content: "hi"}},
	}}
	ctrl, store := newTestController(gw)

	run(t, ctrl, ctrl.Select(7))

	assert.EqualValues(t, 7, store.ActiveID())
	assert.Len(t, store.Messages(), 1)
}

func TestSelect_FailureLeavesActiveUntouched(t *testing.T) {
	gw := &fakeGateway{askResp: &api.ChatResponse{Answer: "a", ConversationID: 3}}
	ctrl, store := newTestController(gw)
	cmd, err := ctrl.Ask("q")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	gw.convErr = &api.NotFoundError{Resource: "conversation", ID: 99}
	run(t, ctrl, ctrl.Select(99))

	assert.EqualValues(t, 3, store.ActiveID())
	assert.Len(t, store.Messages(), 2)
	assert.NotEmpty(t, ctrl.LastError())
}

// A select can resolve before a pending ask; the later ask
// completion still lands on the store's current active conversation.
func TestSelectAskRace_LastWriterWins(t *testing.T) {
	gw := &fakeGateway{
		askResp: &api.ChatResponse{Answer: "late answer", ConversationID: 42},
		conv:    &api.Conversation{ID: 7, Messages: []api.Message{{ID: 1, ConversationID: 7}}},
	}
	ctrl, store := newTestController(gw)

	askCmd, err := ctrl.Ask("draft question")
	require.NoError(t, err)
	askEvent := askCmd(context.Background())

	// Select resolves first.
	run(t, ctrl, ctrl.Select(7))
	assert.EqualValues(t, 7, store.ActiveID())

	// The stale ask completion applies against the new active conversation
	// without crashing; its rollback handle is stale so nothing is removed.
	if followUp := ctrl.HandleAskResolved(askEvent.(AskResolved)); followUp != nil {
		run(t, ctrl, followUp)
	}
	assert.False(t, ctrl.InFlight())
	assert.EqualValues(t, 7, store.ActiveID())
}

// Deleting the active conversation resets to a draft and
// refreshes the list.
func TestDelete_ActiveConversationResetsToDraft(t *testing.T) {
	gw := &fakeGateway{
		conv:  &api.Conversation{ID: 42, Messages: []api.Message{{ID: 1, ConversationID: 42}}},
		items: []api.ConversationListItem{{ID: 7}},
	}
	ctrl, store := newTestController(gw)
	run(t, ctrl, ctrl.Select(42))

	run(t, ctrl, ctrl.Delete(42))

	assert.True(t, store.IsDraft())
	assert.Empty(t, store.Messages())
	assert.Equal(t, []int64{42}, gw.deleted)
	require.Len(t, store.List(), 1)
	assert.EqualValues(t, 7, store.List()[0].ID)
}

func TestDelete_InactiveConversationKeepsActive(t *testing.T) {
	gw := &fakeGateway{
		conv:  &api.Conversation{ID: 42},
		items: []api.ConversationListItem{{ID: 42}},
	}
	ctrl, store := newTestController(gw)
	run(t, ctrl, ctrl.Select(42))

	run(t, ctrl, ctrl.Delete(7))

	assert.EqualValues(t, 42, store.ActiveID())
	assert.Equal(t, 1, gw.listCalls, "list refreshed even when the deleted item was not active")
}

func TestDelete_FailureSurfacesErrorAndLeavesState(t *testing.T) {
	gw := &fakeGateway{deleteErr: &api.ServerError{Status: 500, Detail: "boom"}}
	ctrl, store := newTestController(gw)

	run(t, ctrl, ctrl.Delete(42))

	assert.Equal(t, "boom", ctrl.LastError())
	assert.Zero(t, gw.listCalls)
	assert.True(t, store.IsDraft())
}

func TestRename_RefreshesList(t *testing.T) {
	gw := &fakeGateway{items: []api.ConversationListItem{{ID: 5, Title: "renamed"}}}
	ctrl, store := newTestController(gw)

	cmd, err := ctrl.Rename(5, "renamed")
	require.NoError(t, err)
	run(t, ctrl, cmd)

	assert.Equal(t, "renamed", gw.renamed[5])
	require.Len(t, store.List(), 1)
	assert.Equal(t, "renamed", store.List()[0].Title)
}

func TestRename_EmptyTitleRejected(t *testing.T) {
	ctrl, _ := newTestController(&fakeGateway{})

	cmd, err := ctrl.Rename(5, "  ")

	assert.Nil(t, cmd)
	var validationErr *api.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestStartNew_CollapsesListOnCompactLayout(t *testing.T) {
	width := 80
	vp := NewViewport(func() int { return width }, 100)
	store := NewStore()
	ctrl := NewController(store, &fakeGateway{}, vp, zap.NewNop())

	ctrl.StartNew()

	assert.True(t, store.IsDraft())
	assert.False(t, vp.ListVisible())
}
