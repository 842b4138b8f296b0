package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTracker_TrackAggregatesAndPersists(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	// Avoid background autosave during the test (debounce uses AfterFunc).
	tracker.dirty = true

	tracker.Track(QueryEvent{
		Timestamp:      time.Now(),
		SessionID:      "sess_1",
		ConversationID: 42,
		CostUSD:        0.002,
		ResponseTimeMS: 850,
	})
	tracker.Track(QueryEvent{
		Timestamp:      time.Now(),
		SessionID:      "sess_1",
		ConversationID: 42,
		CostUSD:        0.003,
		ResponseTimeMS: 150,
	})

	stats := tracker.Stats()
	if stats.Total.Queries != 2 {
		t.Fatalf("Total.Queries=%d, want 2", stats.Total.Queries)
	}
	if stats.Total.CostUSD != 0.005 {
		t.Fatalf("Total.CostUSD=%v, want 0.005", stats.Total.CostUSD)
	}
	if got := stats.Total.AvgResponseTimeMS(); got != 500 {
		t.Fatalf("AvgResponseTimeMS=%v, want 500", got)
	}
	if got := stats.BySession["sess_1"]; got.Queries != 2 {
		t.Fatalf("BySession[sess_1]=%+v, want 2 queries", got)
	}
	if got := stats.ByConversation["42"]; got.Queries != 2 {
		t.Fatalf("ByConversation[42]=%+v, want 2 queries", got)
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "usage.json"))
	if err != nil {
		t.Fatalf("read usage.json: %v", err)
	}
	var persisted UsageData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal usage.json: %v", err)
	}
	if persisted.Aggregate.Total.Queries != 2 {
		t.Fatalf("persisted queries=%d, want 2", persisted.Aggregate.Total.Queries)
	}
}

func TestTracker_TrackAfterFlushReArmsAutosave(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	tracker.dirty = true
	tracker.Track(QueryEvent{SessionID: "sess_1", CostUSD: 0.01, ResponseTimeMS: 100})

	tracker.autosave()

	tracker.Track(QueryEvent{SessionID: "sess_1", CostUSD: 0.02, ResponseTimeMS: 200})

	tracker.mu.Lock()
	rearmed := tracker.dirty
	tracker.mu.Unlock()
	if !rearmed {
		t.Fatalf("an event tracked after a flush must mark the tracker dirty again")
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "usage.json"))
	if err != nil {
		t.Fatalf("read usage.json: %v", err)
	}
	var persisted UsageData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal usage.json: %v", err)
	}
	if persisted.Aggregate.Total.Queries != 2 {
		t.Fatalf("persisted queries=%d, want 2", persisted.Aggregate.Total.Queries)
	}
}

func TestTracker_LoadsExistingData(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tracker.dirty = true
	tracker.Track(QueryEvent{SessionID: "sess_1", ConversationID: 7, CostUSD: 0.01, ResponseTimeMS: 100})
	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker (reload): %v", err)
	}
	if got := reloaded.Stats().Total.Queries; got != 1 {
		t.Fatalf("reloaded queries=%d, want 1", got)
	}
}
