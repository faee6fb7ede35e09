package tracker

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/elunari/cascade/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recs := []models.AttemptRecord{
		{RequestID: "req-1", Model: "model-a", Outcome: models.OutcomeRetryable, StatusCode: 429, ErrorText: "rate limit", LatencyMs: 120, CreatedAt: now},
		{RequestID: "req-1", Model: "model-b", Outcome: models.OutcomeSuccess, StatusCode: 200, LatencyMs: 800, CreatedAt: now.Add(time.Second)},
	}
	for _, r := range recs {
		if err := tr.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := tr.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Model != "model-b" || got[0].Outcome != models.OutcomeSuccess {
		t.Errorf("expected newest first, got %+v", got[0])
	}
	if got[1].StatusCode != 429 || got[1].ErrorText != "rate limit" {
		t.Errorf("unexpected second record: %+v", got[1])
	}
}

func TestRecentLimit(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_ = tr.Record(ctx, models.AttemptRecord{
			Model: "model-a", Outcome: models.OutcomeSuccess,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}

	got, err := tr.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 records, got %d", len(got))
	}
}

func TestRecordTruncatesErrorText(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.Record(ctx, models.AttemptRecord{
		Model: "model-a", Outcome: models.OutcomeFatal, StatusCode: 500,
		ErrorText: strings.Repeat("x", 2000),
	})

	got, err := tr.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got[0].ErrorText) != maxErrorText {
		t.Errorf("expected error text truncated to %d, got %d", maxErrorText, len(got[0].ErrorText))
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected created_at to default to now")
	}
}

func TestRecordTruncatesOnRuneBoundary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	// One ASCII byte then two-byte runes puts byte 512 mid-rune.
	_ = tr.Record(ctx, models.AttemptRecord{
		Model: "model-a", Outcome: models.OutcomeRetryable, StatusCode: 429,
		ErrorText: "x" + strings.Repeat("é", 400),
	})

	got, err := tr.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	text := got[0].ErrorText
	if !utf8.ValidString(text) {
		t.Errorf("stored error text is not valid UTF-8")
	}
	if len(text) != maxErrorText-1 {
		t.Errorf("expected %d bytes, got %d", maxErrorText-1, len(text))
	}
}

func TestSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	add := func(model string, outcome models.AttemptOutcome, latency int64) {
		t.Helper()
		if err := tr.Record(ctx, models.AttemptRecord{Model: model, Outcome: outcome, LatencyMs: latency, CreatedAt: now}); err != nil {
			t.Fatal(err)
		}
	}
	add("model-a", models.OutcomeRetryable, 100)
	add("model-a", models.OutcomeRetryable, 300)
	add("model-a", models.OutcomeSuccess, 500)
	add("model-b", models.OutcomeFatal, 50)

	// Old attempt outside the window.
	_ = tr.Record(ctx, models.AttemptRecord{Model: "model-c", Outcome: models.OutcomeSuccess, CreatedAt: now.Add(-48 * time.Hour)})

	summaries, err := tr.Summary(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	a := summaries[0]
	if a.Model != "model-a" || a.Attempts != 3 || a.Successes != 1 || a.Retryable != 2 || a.Fatal != 0 {
		t.Errorf("unexpected model-a summary: %+v", a)
	}
	if a.AvgLatencyMs != 300 {
		t.Errorf("expected avg latency 300, got %v", a.AvgLatencyMs)
	}
	if summaries[1].Model != "model-b" || summaries[1].Fatal != 1 {
		t.Errorf("unexpected model-b summary: %+v", summaries[1])
	}
}

func TestPrune(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = tr.Record(ctx, models.AttemptRecord{Model: "old", Outcome: models.OutcomeSuccess, CreatedAt: now.Add(-72 * time.Hour)})
	_ = tr.Record(ctx, models.AttemptRecord{Model: "new", Outcome: models.OutcomeSuccess, CreatedAt: now})

	n, err := tr.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}

	got, _ := tr.Recent(ctx, 10)
	if len(got) != 1 || got[0].Model != "new" {
		t.Errorf("unexpected remaining records: %+v", got)
	}
}
