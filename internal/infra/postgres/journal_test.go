package postgres

import (
	"testing"
	"time"

	"quiz-client/internal/domain"
)

func TestAttemptRowFallsBackToAttemptID(t *testing.T) {
	completedAt := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	row := newAttemptRow(domain.CompletedAttempt{
		AttemptID: "a-1",
		UserID:    "u1",
		QuizID:    "quiz-1",
		QuizTitle: "Sums",
		Record:    domain.AttemptRecord{Score: 12, Percentage: 40, TimeSpent: 33, CompletedAt: completedAt},
	})

	if row.ID != "a-1" {
		t.Fatalf("expected attempt id as row id without a receipt, got %q", row.ID)
	}
	if row.Answers == nil {
		t.Fatalf("answers must never be stored as null")
	}

	entry := row.entry()
	want := domain.HistoryEntry{ID: "a-1", QuizID: "quiz-1", QuizTitle: "Sums", Score: 12, Percentage: 40, TimeSpent: 33, CompletedAt: completedAt}
	if entry != want {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestAttemptRowPrefersReceiptID(t *testing.T) {
	row := newAttemptRow(domain.CompletedAttempt{AttemptID: "a-1", Receipt: domain.AttemptReceipt{ID: "srv-9"}})
	if row.ID != "srv-9" || row.AttemptID != "a-1" {
		t.Fatalf("unexpected ids %q / %q", row.ID, row.AttemptID)
	}
}
