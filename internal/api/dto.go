package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"quiz-client/internal/domain"
	"quiz-client/internal/scoring"
)

const untitledQuiz = "Untitled quiz"

type optionDTO struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type questionDTO struct {
	Text    string      `json:"text"`
	Options []optionDTO `json:"options"`
}

type quizDTO struct {
	MongoID     string        `json:"_id"`
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Difficulty  string        `json:"difficulty"`
	TimeLimit   flexNumber    `json:"timeLimit"`
	Questions   []questionDTO `json:"questions"`
}

func (d quizDTO) id() string {
	if d.MongoID != "" {
		return d.MongoID
	}
	return d.ID
}

func (d quizDTO) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:               d.id(),
		Title:            d.Title,
		Description:      d.Description,
		TimeLimitMinutes: d.TimeLimit.toInt(),
		Questions:        make([]domain.Question, 0, len(d.Questions)),
	}
	for _, q := range d.Questions {
		question := domain.Question{Text: q.Text, Options: make([]domain.Option, 0, len(q.Options))}
		for _, o := range q.Options {
			question.Options = append(question.Options, domain.Option{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func (d quizDTO) toSummary() domain.QuizSummary {
	return domain.QuizSummary{
		ID:            d.id(),
		Title:         d.Title,
		Description:   d.Description,
		Category:      d.Category,
		Difficulty:    d.Difficulty,
		TimeLimit:     d.TimeLimit.toInt(),
		QuestionCount: len(d.Questions),
	}
}

type receiptDTO struct {
	MongoID     string     `json:"_id"`
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	Quiz        quizRef    `json:"quiz"`
	Score       flexNumber `json:"score"`
	Percentage  flexNumber `json:"percentage"`
	CompletedAt time.Time  `json:"completedAt"`
}

// toDomain fills anything the server left out from the submitted record.
func (d receiptDTO) toDomain(record domain.AttemptRecord) domain.AttemptReceipt {
	receipt := domain.AttemptReceipt{
		ID:          d.MongoID,
		QuizID:      d.QuizID,
		Score:       d.Score.toInt(),
		Percentage:  d.Percentage.toInt(),
		CompletedAt: d.CompletedAt,
	}
	if receipt.ID == "" {
		receipt.ID = d.ID
	}
	if receipt.ID == "" {
		receipt.ID = record.AttemptID
	}
	if receipt.QuizID == "" {
		receipt.QuizID = d.Quiz.ID
	}
	if receipt.QuizID == "" {
		receipt.QuizID = record.QuizID
	}
	if !d.Score.set {
		receipt.Score = record.Score
	}
	if !d.Percentage.set {
		receipt.Percentage = record.Percentage
	}
	if receipt.CompletedAt.IsZero() {
		receipt.CompletedAt = record.CompletedAt
	}
	return receipt
}

type attemptDTO struct {
	MongoID     string     `json:"_id"`
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	Quiz        quizRef    `json:"quiz"`
	QuizTitle   string     `json:"quizTitle"`
	QuizName    string     `json:"quizName"`
	Score       flexNumber `json:"score"`
	Percentage  flexNumber `json:"percentage"`
	TimeSpent   flexNumber `json:"timeSpent"`
	CompletedAt time.Time  `json:"completedAt"`
}

// toHistory clamps what the server reports: percentage within 0..100, score
// non-negative, time spent at least one second, a title always present.
func (d attemptDTO) toHistory() domain.HistoryEntry {
	entry := domain.HistoryEntry{
		ID:          d.MongoID,
		QuizID:      d.QuizID,
		QuizTitle:   d.Quiz.Title,
		Score:       max(0, d.Score.toInt()),
		Percentage:  scoring.ClampPercentage(d.Percentage.toInt()),
		TimeSpent:   max(1, d.TimeSpent.toInt()),
		CompletedAt: d.CompletedAt,
	}
	if entry.ID == "" {
		entry.ID = d.ID
	}
	if entry.QuizID == "" {
		entry.QuizID = d.Quiz.ID
	}
	for _, title := range []string{d.QuizTitle, d.QuizName, untitledQuiz} {
		if entry.QuizTitle != "" {
			break
		}
		entry.QuizTitle = title
	}
	return entry
}

type userDTO struct {
	MongoID  string `json:"_id"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (d userDTO) toDomain() domain.User {
	user := domain.User{ID: d.MongoID, Username: d.Username, Email: d.Email, Role: d.Role}
	if user.ID == "" {
		user.ID = d.ID
	}
	if user.Username == "" {
		user.Username = d.Name
	}
	return user
}

// quizRef is a populated quiz object or a bare quiz id.
type quizRef struct {
	ID    string
	Title string
}

func (r *quizRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID, r.Title = obj.MongoID, obj.Title
	if r.ID == "" {
		r.ID = obj.ID
	}
	return nil
}

// flexNumber accepts a JSON number, a numeric string or null. Anything
// unparseable reads as zero.
type flexNumber struct {
	value float64
	set   bool
}

func (n flexNumber) toInt() int { return int(n.value) }

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	n.set = true
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.value, _ = strconv.ParseFloat(s, 64)
		return nil
	}
	return json.Unmarshal(data, &n.value)
}

// unwrap returns the payload under the first present envelope key, or the
// body itself when it is not wrapped.
func unwrap(body []byte, keys ...string) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		return bytes.TrimSpace(raw)
	}
	return trimmed
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
