// Package usage accumulates per-question cost and latency on the client
// side, independent of the backend's own monitoring stats. Data is persisted
// as JSON in the config directory with a debounced autosave.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const autosaveDelay = 5 * time.Second

// Tracker records answered questions and persists aggregate counters.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisting under configDir/usage.json,
// loading any previously saved aggregates.
func NewTracker(configDir string) (*Tracker, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(configDir, "usage.json"),
		data: UsageData{
			Version: "1.0",
			Aggregate: AggregatedStats{
				BySession:      make(map[string]QueryCounts),
				ByConversation: make(map[string]QueryCounts),
			},
		},
	}

	// A corrupt or missing file starts the tracker empty.
	_ = t.Load()

	return t, nil
}

// Load reads previously saved usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}

	if t.data.Aggregate.BySession == nil {
		t.data.Aggregate.BySession = make(map[string]QueryCounts)
	}
	if t.data.Aggregate.ByConversation == nil {
		t.data.Aggregate.ByConversation = make(map[string]QueryCounts)
	}

	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0o644)
}

// Track records one answered question.
func (t *Tracker) Track(ev QueryEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate.Total.Add(ev.CostUSD, ev.ResponseTimeMS)
	if ev.SessionID != "" {
		addToMap(t.data.Aggregate.BySession, ev.SessionID, ev)
	}
	if ev.ConversationID != 0 {
		addToMap(t.data.Aggregate.ByConversation, strconv.FormatInt(ev.ConversationID, 10), ev)
	}

	if !t.dirty {
		t.dirty = true
		time.AfterFunc(autosaveDelay, t.autosave)
	}
}

// autosave flushes the counters once. Clearing dirty before releasing the
// lock means any Track arriving after the flush arms a fresh timer instead
// of assuming its event was covered by this one.
func (t *Tracker) autosave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = false
	_ = t.saveLocked()
}

// Stats returns a copy of the aggregated counters.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.data.Aggregate
	stats.BySession = copyCountsMap(stats.BySession)
	stats.ByConversation = copyCountsMap(stats.ByConversation)
	return stats
}

func copyCountsMap(src map[string]QueryCounts) map[string]QueryCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]QueryCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]QueryCounts, key string, ev QueryEvent) {
	entry := m[key]
	entry.Add(ev.CostUSD, ev.ResponseTimeMS)
	m[key] = entry
}
