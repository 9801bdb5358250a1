package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quiz-client/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID          string                `bun:"id,pk"`
	AttemptID   string                `bun:"attempt_id,notnull"`
	UserID      string                `bun:"user_id,notnull"`
	QuizID      string                `bun:"quiz_id,notnull"`
	QuizTitle   string                `bun:"quiz_title,notnull"`
	Score       int                   `bun:"score,notnull"`
	Percentage  int                   `bun:"percentage,notnull"`
	TimeSpent   int                   `bun:"time_spent,notnull"`
	Answers     []domain.AnswerRecord `bun:"answers,type:jsonb,notnull"`
	CompletedAt time.Time             `bun:"completed_at,notnull"`
	CreatedAt   time.Time             `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newAttemptRow(completed domain.CompletedAttempt) attemptRow {
	row := attemptRow{
		ID:          completed.Receipt.ID,
		AttemptID:   completed.AttemptID,
		UserID:      completed.UserID,
		QuizID:      completed.QuizID,
		QuizTitle:   completed.QuizTitle,
		Score:       completed.Record.Score,
		Percentage:  completed.Record.Percentage,
		TimeSpent:   completed.Record.TimeSpent,
		Answers:     completed.Record.Answers,
		CompletedAt: completed.Record.CompletedAt,
	}
	if row.ID == "" {
		row.ID = completed.AttemptID
	}
	if row.Answers == nil {
		row.Answers = []domain.AnswerRecord{}
	}
	return row
}

func (r attemptRow) entry() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:          r.ID,
		QuizID:      r.QuizID,
		QuizTitle:   r.QuizTitle,
		Score:       r.Score,
		Percentage:  r.Percentage,
		TimeSpent:   r.TimeSpent,
		CompletedAt: r.CompletedAt.UTC(),
	}
}

// Journal stores completed attempts in the attempts table.
type Journal struct {
	db *bun.DB
}

func NewJournal(db *bun.DB) *Journal {
	return &Journal{db: db}
}

// OpenDB opens a bun handle over pgdriver for dsn.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// SaveAttempt records a completed attempt once; replays of the same attempt
// are ignored.
func (j *Journal) SaveAttempt(ctx context.Context, completed domain.CompletedAttempt) error {
	row := newAttemptRow(completed)
	_, err := j.db.NewInsert().
		Model(&row).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("journal attempt %s: %w", completed.AttemptID, err)
	}
	return nil
}

// ListAttempts returns the user's attempts, newest first.
func (j *Journal) ListAttempts(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	var rows []attemptRow
	err := j.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	out := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry())
	}
	return out, nil
}
