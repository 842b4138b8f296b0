// Package api is the HTTP/JSON gateway to the PaperChat backend. The client
// is stateless: every method is a single request/response exchange with no
// retries and no caching, returning either a typed result or one of the error
// types in errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// Client talks to the PaperChat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client (tests, custom
// transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for request-level debug logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a gateway client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AskQuestion submits a question. A zero req.ConversationID starts a new
// conversation; the response's ConversationID is authoritative either way.
func (c *Client) AskQuestion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, &ValidationError{Message: "Please enter a question"}
	}

	var resp ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations fetches the conversation list projection.
func (c *Client) ListConversations(ctx context.Context, skip, limit int) ([]ConversationListItem, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	var items []ConversationListItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetConversation fetches a conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var conv Conversation
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/conversations/%d", id), nil, nil, &conv)
	if err != nil {
		return nil, notFoundAs(err, "conversation", id)
	}
	return &conv, nil
}

// CreateConversation creates an empty conversation, optionally titled.
func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	body := map[string]string{}
	if title != "" {
		body["title"] = title
	}

	var conv Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", nil, body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	var ack struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", id), nil, nil, &ack)
	return notFoundAs(err, "conversation", id)
}

// UpdateConversationTitle renames a conversation. The title travels as a
// query parameter, matching the backend's PATCH contract.
func (c *Client) UpdateConversationTitle(ctx context.Context, id int64, title string) error {
	query := url.Values{}
	query.Set("title", title)

	var ack struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/conversations/%d/title", id), query, nil, &ack)
	return notFoundAs(err, "conversation", id)
}

// ListPapers fetches indexed papers, optionally filtered by search text and
// publication year.
func (c *Client) ListPapers(ctx context.Context, params ListPapersParams) ([]Paper, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(params.Skip))
	query.Set("limit", strconv.Itoa(params.Limit))
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.Year != 0 {
		query.Set("year", strconv.Itoa(params.Year))
	}

	var papers []Paper
	if err := c.doJSON(ctx, http.MethodGet, "/api/papers", query, nil, &papers); err != nil {
		return nil, err
	}
	return papers, nil
}

// GetPaper fetches a single paper's metadata.
func (c *Client) GetPaper(ctx context.Context, id int64) (*Paper, error) {
	var paper Paper
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/papers/%d", id), nil, nil, &paper)
	if err != nil {
		return nil, notFoundAs(err, "paper", id)
	}
	return &paper, nil
}

// DeletePaper removes a paper and its chunks from the index.
func (c *Client) DeletePaper(ctx context.Context, id int64) error {
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/papers/%d", id), nil, nil, nil)
	return notFoundAs(err, "paper", id)
}

// UploadPaper uploads a PDF for indexing and returns the extracted metadata.
func (c *Client) UploadPaper(ctx context.Context, filename string, r io.Reader) (*Paper, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &NetworkError{Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &NetworkError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/papers/upload", &buf)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var paper Paper
	if err := c.send(req, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}

// GetStats fetches the backend's aggregate monitoring numbers.
func (c *Client) GetStats(ctx context.Context) (*MonitoringStats, error) {
	var stats MonitoringStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/monitoring/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// doJSON performs a JSON request/response round trip. A nil out discards the
// response body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServerError{Status: resp.StatusCode, Detail: "malformed response body"}
	}
	return nil
}

// decodeError maps a non-2xx response to a typed error, extracting the
// server's {"detail": "..."} message when present.
func decodeError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &payload)

	return &ServerError{Status: resp.StatusCode, Detail: payload.Detail}
}

// notFoundAs rewrites a 404 ServerError into a NotFoundError for the given
// resource; any other error passes through unchanged.
func notFoundAs(err error, resource string, id int64) error {
	if err == nil {
		return nil
	}
	if serverErr, ok := err.(*ServerError); ok && serverErr.Status == http.StatusNotFound {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
