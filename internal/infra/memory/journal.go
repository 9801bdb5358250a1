package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"quiz-client/internal/domain"
)

// Journal keeps completed attempts in process memory.
type Journal struct {
	mu      sync.RWMutex
	entries map[string][]domain.HistoryEntry
}

func NewJournal() *Journal {
	return &Journal{entries: make(map[string][]domain.HistoryEntry)}
}

func (j *Journal) SaveAttempt(_ context.Context, completed domain.CompletedAttempt) error {
	entry := domain.HistoryEntry{
		ID:          completed.Receipt.ID,
		QuizID:      completed.QuizID,
		QuizTitle:   completed.QuizTitle,
		Score:       completed.Record.Score,
		Percentage:  completed.Record.Percentage,
		TimeSpent:   completed.Record.TimeSpent,
		CompletedAt: completed.Record.CompletedAt,
	}
	if entry.ID == "" {
		entry.ID = completed.AttemptID
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, existing := range j.entries[completed.UserID] {
		if existing.ID == entry.ID {
			return nil
		}
	}
	j.entries[completed.UserID] = append(j.entries[completed.UserID], entry)
	return nil
}

// ListAttempts returns the user's attempts, newest first.
func (j *Journal) ListAttempts(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	j.mu.RLock()
	out := append([]domain.HistoryEntry{}, j.entries[userID]...)
	j.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CompletedAt.After(out[b].CompletedAt)
	})
	return out, nil
}

// EventLog is the publisher used when no broker is configured: it logs each
// event and keeps it for inspection.
type EventLog struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []domain.AttemptEvent
}

func NewEventLog(logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLog{logger: logger}
}

func (l *EventLog) Publish(_ context.Context, event domain.AttemptEvent) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	l.logger.Info("attempt event", "type", event.Type, "attempt", event.AttemptID, "quiz", event.QuizID, "score", event.Score)
	return nil
}

// Events returns the events published so far.
func (l *EventLog) Events() []domain.AttemptEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AttemptEvent(nil), l.events...)
}
