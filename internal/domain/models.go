package domain

import "time"

// Option is one selectable answer. IsCorrect is ground truth supplied by the
// server and must not reach the player before an answer is chosen.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a multiple choice prompt. Authoring guarantees exactly one
// correct option; the attempt engine trusts that and does not re-check it.
type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Quiz is the immutable snapshot an attempt is played against.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"timeLimit"`
	Questions        []Question `json:"questions"`
}

// TimeLimitSeconds is the initial value of the total countdown.
func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimitMinutes * 60
}

// QuizSummary is the list view of a quiz.
type QuizSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	TimeLimit     int    `json:"timeLimit"`
	QuestionCount int    `json:"questionCount"`
}

// User is the authenticated player.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AnswerRecord is the single answer kept for a question.
type AnswerRecord struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"`
	IsCorrect      bool `json:"isCorrect"`
}

// AnswerResult is what the player learns right after answering.
type AnswerResult struct {
	QuestionIndex int  `json:"questionIndex"`
	Correct       bool `json:"correct"`
	Awarded       int  `json:"awarded"`
	TotalScore    int  `json:"totalScore"`
}

// AttemptRecord is the submission payload. It is built once per submission
// trigger and never modified afterwards. AttemptID travels as the
// Idempotency-Key header, not in the body.
type AttemptRecord struct {
	AttemptID   string         `json:"-"`
	QuizID      string         `json:"quizId"`
	Answers     []AnswerRecord `json:"answers"`
	Score       int            `json:"score"`
	TimeSpent   int            `json:"timeSpent"`
	Percentage  int            `json:"percentage"`
	CompletedAt time.Time      `json:"completedAt"`
}

// AttemptReceipt is the server acknowledgement of a submitted attempt.
type AttemptReceipt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// CompletedAttempt ties a successful submission to the player and quiz.
type CompletedAttempt struct {
	AttemptID string         `json:"attemptId"`
	UserID    string         `json:"userId"`
	QuizID    string         `json:"quizId"`
	QuizTitle string         `json:"quizTitle"`
	Record    AttemptRecord  `json:"record"`
	Receipt   AttemptReceipt `json:"receipt"`
}

// HistoryEntry is one row of a player's score history.
type HistoryEntry struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	Percentage  int       `json:"percentage"`
	TimeSpent   int       `json:"timeSpent"`
	CompletedAt time.Time `json:"completedAt"`
}

// Attempt event types.
const (
	EventAttemptCompleted = "attempt.completed"
	EventAttemptAbandoned = "attempt.abandoned"
)

// AttemptEvent announces how an attempt ended.
type AttemptEvent struct {
	Type       string    `json:"type"`
	AttemptID  string    `json:"attemptId"`
	UserID     string    `json:"userId"`
	QuizID     string    `json:"quizId"`
	Score      int       `json:"score,omitempty"`
	Percentage int       `json:"percentage,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Cue is the audible feedback played after an answer.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CueIncorrect Cue = "incorrect"
)

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	StatusLoading          AttemptStatus = "loading"
	StatusInProgress       AttemptStatus = "in_progress"
	StatusSubmitting       AttemptStatus = "submitting"
	StatusCompleted        AttemptStatus = "completed"
	StatusSubmissionFailed AttemptStatus = "submission_failed"
	StatusAbandoned        AttemptStatus = "abandoned"
)

// Terminal reports whether no further transition can happen.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// QuestionView is the player-facing projection of a question.
type QuestionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// AttemptSnapshot is a copy of the attempt state at one instant.
type AttemptSnapshot struct {
	QuizID               string         `json:"quizId"`
	Title                string         `json:"title"`
	Status               AttemptStatus  `json:"status"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	QuestionCount        int            `json:"questionCount"`
	Question             QuestionView   `json:"question"`
	Answers              []AnswerRecord `json:"answers"`
	Score                int            `json:"score"`
	TotalRemaining       int            `json:"totalRemaining"`
	QuestionRemaining    int            `json:"questionRemaining"`
	TotalClock           string         `json:"totalClock"`
	TotalWarning         bool           `json:"totalWarning"`
	QuestionWarning      bool           `json:"questionWarning"`
	Submitted            bool           `json:"submitted"`
	Message              string         `json:"message,omitempty"`
}
