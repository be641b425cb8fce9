package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"outfit-planner/internal/database"
	"outfit-planner/internal/llm"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	records := []ExecutionMetric{
		{AgentName: "Stylist", Model: "m", PromptTokens: 100, CompletionTokens: 10, Timestamp: now},
		{AgentName: "Stylist", Model: "m", PromptTokens: 50, CompletionTokens: 5, Timestamp: now},
		{AgentName: "Stylist", Model: "m", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -40)},
	}
	for _, r := range records {
		if err := store.Record(r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	t.Run("DailyUsage", func(t *testing.T) {
		usage, err := store.GetDailyUsage(7)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 1 {
			t.Fatalf("Expected 1 day, got %d", len(usage))
		}
		u := usage[0]
		if u.Date != now.Format("2006-01-02") || u.TotalPrompt != 150 || u.TotalCompletion != 15 || u.TotalExecution != 2 {
			t.Errorf("Unexpected usage %+v", u)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		n, err := store.Cleanup(30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row deleted, got %d", n)
		}
	})
}

func TestRecordMeta(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordMeta(llm.AgentMeta{AgentName: "Stylist"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	usage, _ := store.GetDailyUsage(1)
	if len(usage) != 0 {
		t.Errorf("Expected empty usage to be skipped, got %+v", usage)
	}

	before := testutil.ToFloat64(Tokens.WithLabelValues("meta-model", "prompt"))
	err := store.RecordMeta(llm.AgentMeta{
		AgentName: "Stylist",
		Usage:     llm.TokenUsage{PromptTokens: 12, CompletionTokens: 3, Model: "meta-model"},
		Latency:   1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	if got := testutil.ToFloat64(Tokens.WithLabelValues("meta-model", "prompt")) - before; got != 12 {
		t.Errorf("Expected 12 prompt tokens counted, got %v", got)
	}
	usage, _ = store.GetDailyUsage(1)
	if len(usage) != 1 || usage[0].TotalPrompt != 12 {
		t.Errorf("Expected the execution to be stored, got %+v", usage)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	h := GetSysHealth(dir, "")
	if len(h.Storage) != 1 {
		t.Fatalf("Expected one measured directory, got %+v", h.Storage)
	}
	if h.Storage[0].Size != "2.0 KB" {
		t.Errorf("Expected 2.0 KB, got %q", h.Storage[0].Size)
	}
	if h.Goroutines == 0 {
		t.Error("Expected a goroutine count")
	}
}
