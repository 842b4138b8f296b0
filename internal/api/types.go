package api

import "time"

// Paper is an indexed document in the library.
type Paper struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Year      int       `json:"year"`
	Abstract  string    `json:"abstract"`
	Keywords  []string  `json:"keywords"`
	NbChunks  int       `json:"nb_chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceCitation is a passage supporting an assistant answer. The server
// returns citations ranked by relevance; the order must be preserved.
type SourceCitation struct {
	PaperTitle     string  `json:"paper_title"`
	PaperYear      int     `json:"paper_year"`
	SectionName    string  `json:"section_name"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ChatRequest asks a question about indexed papers. A zero ConversationID
// asks the server to start a new conversation.
type ChatRequest struct {
	Question       string  `json:"question"`
	ConversationID int64   `json:"conversation_id,omitempty"`
	PaperIDs       []int64 `json:"paper_ids,omitempty"`
	MaxSources     int     `json:"max_sources,omitempty"`
}

// ChatResponse is the answer to a single question. ConversationID is
// authoritative: the server decides whether a new conversation was created.
type ChatResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceCitation `json:"sources"`
	CostUSD        float64          `json:"cost_usd"`
	ResponseTimeMS int              `json:"response_time_ms"`
	ConversationID int64            `json:"conversation_id"`
}

// Message roles as the server reports them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single exchange entry in a conversation. An optimistic
// (not yet confirmed) user message has ID zero.
type Message struct {
	ID             int64            `json:"id"`
	ConversationID int64            `json:"conversation_id"`
	Role           string           `json:"role"`
	Content        string           `json:"content"`
	Sources        []SourceCitation `json:"sources,omitempty"`
	CostUSD        float64          `json:"cost_usd"`
	ResponseTimeMS int              `json:"response_time_ms"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Conversation is a full conversation with its message history.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// ConversationListItem is the lightweight list projection of a conversation.
type ConversationListItem struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
}

// MonitoringStats are the backend's aggregate usage numbers.
type MonitoringStats struct {
	TotalPapers       int     `json:"total_papers"`
	TotalChunks       int     `json:"total_chunks"`
	TotalQueries      int     `json:"total_queries"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
	QueriesToday      int     `json:"queries_today"`
}

// ListPapersParams filter the paper listing.
type ListPapersParams struct {
	Skip   int
	Limit  int
	Search string
	Year   int
}
