package app

import (
	"testing"
	"time"

	"quiz-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecordOrdersAnswersAndFloorsTimeSpent(t *testing.T) {
	quiz := threeQuestionQuiz()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.FixedZone("X", 3600))
	answers := map[int]domain.AnswerRecord{
		2: {QuestionIndex: 2, SelectedOption: 0, IsCorrect: true},
		0: {QuestionIndex: 0, SelectedOption: 1, IsCorrect: true},
	}

	record := BuildRecord("a-1", quiz, answers, 25, quiz.TimeLimitSeconds(), now)

	require.Len(t, record.Answers, 2)
	assert.Equal(t, 0, record.Answers[0].QuestionIndex)
	assert.Equal(t, 2, record.Answers[1].QuestionIndex)
	assert.Equal(t, 1, record.TimeSpent, "instant submission still counts one second")
	assert.Equal(t, 83, record.Percentage)
	assert.Equal(t, "quiz-1", record.QuizID)
	assert.Equal(t, "a-1", record.AttemptID)
	assert.Equal(t, time.UTC, record.CompletedAt.Location())
}

func TestBuildRecordClampsScore(t *testing.T) {
	quiz := threeQuestionQuiz()
	record := BuildRecord("a-2", quiz, nil, -7, 1000, time.Now())

	assert.Equal(t, 0, record.Score)
	assert.Equal(t, 0, record.Percentage)
	assert.Equal(t, 800, record.TimeSpent)
	assert.Empty(t, record.Answers)
}
