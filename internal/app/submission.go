package app

import (
	"sort"
	"time"

	"quiz-client/internal/domain"
	"quiz-client/internal/scoring"
)

// BuildRecord assembles the submission payload from the attempt state at the
// moment a submission is triggered.
func BuildRecord(attemptID string, quiz domain.Quiz, answers map[int]domain.AnswerRecord, score, totalRemaining int, now time.Time) domain.AttemptRecord {
	ordered := make([]domain.AnswerRecord, 0, len(answers))
	for _, rec := range answers {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].QuestionIndex < ordered[j].QuestionIndex
	})

	if score < 0 {
		score = 0
	}
	timeSpent := quiz.TimeLimitSeconds() - totalRemaining
	if timeSpent < 1 {
		timeSpent = 1
	}

	return domain.AttemptRecord{
		AttemptID:   attemptID,
		QuizID:      quiz.ID,
		Answers:     ordered,
		Score:       score,
		TimeSpent:   timeSpent,
		Percentage:  scoring.Percentage(score, len(quiz.Questions)),
		CompletedAt: now.UTC(),
	}
}
