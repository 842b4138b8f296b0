package chat

import (
	"context"

	"github.com/loicSchussler/PaperChat/internal/api"
)

// fakeGateway implements Gateway for testing. Each method returns the queued
// response or error and records its calls for verification.
type fakeGateway struct {
	askResp *api.ChatResponse
	askErr  error
	askReqs []api.ChatRequest

	conv     *api.Conversation
	convErr  error
	getCalls []int64

	items     []api.ConversationListItem
	listErr   error
	listCalls int

	deleteErr  error
	deleted    []int64
	renameErr  error
	renamed    map[int64]string
}

func (f *fakeGateway) AskQuestion(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.askReqs = append(f.askReqs, req)
	if f.askErr != nil {
		return nil, f.askErr
	}
	return f.askResp, nil
}

func (f *fakeGateway) ListConversations(_ context.Context, _, _ int) ([]api.ConversationListItem, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeGateway) GetConversation(_ context.Context, id int64) (*api.Conversation, error) {
	f.getCalls = append(f.getCalls, id)
	if f.convErr != nil {
		return nil, f.convErr
	}
	return f.conv, nil
}

func (f *fakeGateway) DeleteConversation(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) UpdateConversationTitle(_ context.Context, id int64, title string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	if f.renamed == nil {
		f.renamed = make(map[int64]string)
	}
	f.renamed[id] = title
	return nil
}
