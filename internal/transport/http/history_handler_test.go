package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-client/internal/domain"
)

func TestHistoryListsJournaledAttempts(t *testing.T) {
	service, journal := newTestService(alice)
	err := journal.SaveAttempt(context.Background(), domain.CompletedAttempt{
		AttemptID: "a-1",
		UserID:    "u1",
		QuizID:    "quiz-1",
		QuizTitle: "Colors",
		Record:    domain.AttemptRecord{Score: 15, Percentage: 75, TimeSpent: 42, CompletedAt: time.Now()},
		Receipt:   domain.AttemptReceipt{ID: "srv-1"},
	})
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}

	rec := httptest.NewRecorder()
	NewHistoryHandler(service, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].QuizTitle != "Colors" || entries[0].Percentage != 75 {
		t.Fatalf("unexpected history: %+v", entries)
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	service, _ := newTestService(staticUser{})

	rec := httptest.NewRecorder()
	NewHistoryHandler(service, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHistoryHandler(service, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/history", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
