package usage

import "time"

// UsageData is the root structure stored in persistence.
type UsageData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// QueryEvent is a single answered question.
type QueryEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	ConversationID int64     `json:"conversation_id"`
	CostUSD        float64   `json:"cost_usd"`
	ResponseTimeMS int       `json:"response_time_ms"`
}

// AggregatedStats holds counters broken down by dimension.
type AggregatedStats struct {
	Total          QueryCounts            `json:"total"`
	BySession      map[string]QueryCounts `json:"by_session"`
	ByConversation map[string]QueryCounts `json:"by_conversation"`
}

// QueryCounts accumulates query cost and latency.
type QueryCounts struct {
	Queries        int64   `json:"queries"`
	CostUSD        float64 `json:"cost_usd"`
	ResponseTimeMS int64   `json:"response_time_ms"`
}

func (qc *QueryCounts) Add(costUSD float64, responseTimeMS int) {
	qc.Queries++
	qc.CostUSD += costUSD
	qc.ResponseTimeMS += int64(responseTimeMS)
}

// AvgResponseTimeMS returns the mean latency across recorded queries.
func (qc QueryCounts) AvgResponseTimeMS() float64 {
	if qc.Queries == 0 {
		return 0
	}
	return float64(qc.ResponseTimeMS) / float64(qc.Queries)
}
