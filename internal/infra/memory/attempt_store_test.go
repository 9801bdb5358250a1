package memory

import (
	"context"
	"testing"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	store := NewAttemptStore()
	first := app.NewAttempt(sampleQuiz(), "u1", nil, nil, app.AttemptConfig{}, nil)
	second := app.NewAttempt(sampleQuiz(), "u1", nil, nil, app.AttemptConfig{}, nil)

	if prev := store.Put("u1:quiz-1", first); prev != nil {
		t.Fatalf("expected no previous attempt")
	}
	if got, ok := store.Get("u1:quiz-1"); !ok || got != first {
		t.Fatalf("expected first attempt present")
	}
	if prev := store.Put("u1:quiz-1", second); prev != first {
		t.Fatalf("expected first attempt to be replaced")
	}

	// a stale owner must not remove its successor
	store.Delete("u1:quiz-1", first)
	if _, ok := store.Get("u1:quiz-1"); !ok {
		t.Fatalf("expected second attempt to survive stale delete")
	}
	if n := len(store.List()); n != 1 {
		t.Fatalf("expected one live attempt, got %d", n)
	}

	store.Delete("u1:quiz-1", second)
	if _, ok := store.Get("u1:quiz-1"); ok {
		t.Fatalf("expected attempt removed")
	}
}

func TestJournalListsNewestFirstWithoutDuplicates(t *testing.T) {
	journal := NewJournal()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r2"} {
		err := journal.SaveAttempt(ctx, domain.CompletedAttempt{
			AttemptID: "a-" + id,
			UserID:    "u1",
			QuizID:    "quiz-1",
			QuizTitle: "Sums",
			Record:    domain.AttemptRecord{Score: 10 * (i + 1), Percentage: 50, TimeSpent: 30, CompletedAt: base.Add(time.Duration(i) * time.Hour)},
			Receipt:   domain.AttemptReceipt{ID: id},
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	entries, err := journal.ListAttempts(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "r2" || entries[0].Score != 20 {
		t.Fatalf("expected newest first, got %+v", entries[0])
	}

	other, _ := journal.ListAttempts(ctx, "u2")
	if other == nil || len(other) != 0 {
		t.Fatalf("expected empty non-nil history for unknown user, got %#v", other)
	}
}

func TestEventLogRecords(t *testing.T) {
	log := NewEventLog(nil)
	_ = log.Publish(context.Background(), domain.AttemptEvent{Type: domain.EventAttemptAbandoned, AttemptID: "a1"})

	events := log.Events()
	if len(events) != 1 || events[0].Type != domain.EventAttemptAbandoned {
		t.Fatalf("unexpected events %+v", events)
	}
}
