package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL: srv.URL + "/api",
		Timeout: 2 * time.Second,
		Tokens:  func() string { return "tok-1" },
	}, nil)
}

func TestFetchQuizMapsDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quizzes/q-42", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"_id": "q-42", "title": "Go basics", "description": "warm up", "timeLimit": "10",
			"questions": [{"text": "gofmt?", "options": [{"text": "yes", "isCorrect": true}, {"text": "no", "isCorrect": false}]}]
		}`)
	})

	quiz, err := client.FetchQuiz(context.Background(), "q-42")
	require.NoError(t, err)
	assert.Equal(t, "q-42", quiz.ID)
	assert.Equal(t, "Go basics", quiz.Title)
	assert.Equal(t, 10, quiz.TimeLimitMinutes)
	require.Len(t, quiz.Questions, 1)
	assert.True(t, quiz.Questions[0].Options[0].IsCorrect)
	assert.False(t, quiz.Questions[0].Options[1].IsCorrect)
}

func TestFetchQuizErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"message":"Quiz not found"}`, domain.ErrQuizNotFound, domain.MsgQuizNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"message":"No token"}`, domain.ErrUnauthenticated, domain.MsgLoginRequired},
		{"server error", http.StatusInternalServerError, `{"message":"db down"}`, domain.ErrTransport, domain.MsgLoadFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.FetchQuiz(context.Background(), "q-1")
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.msg, domain.UserMessage(err))
		})
	}
}

func TestFetchQuizUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(Options{BaseURL: srv.URL, Timeout: time.Second}, nil)

	_, err := client.FetchQuiz(context.Background(), "q-1")
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestSubmitAttemptSendsRecordWithIdempotencyKey(t *testing.T) {
	completed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/attempts", r.URL.Path)
		assert.Equal(t, "attempt-7", r.Header.Get(IdempotencyHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success": true, "data": {"_id": "srv-1", "quiz": "q-1", "score": 25}}`)
	})

	record := domain.AttemptRecord{
		AttemptID:   "attempt-7",
		QuizID:      "q-1",
		Answers:     []domain.AnswerRecord{{QuestionIndex: 0, SelectedOption: 2, IsCorrect: true}},
		Score:       25,
		TimeSpent:   41,
		Percentage:  83,
		CompletedAt: completed,
	}
	receipt, err := client.SubmitAttempt(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, "q-1", body["quizId"])
	assert.EqualValues(t, 41, body["timeSpent"])
	assert.NotContains(t, body, "AttemptID")
	answers := body["answers"].([]any)
	require.Len(t, answers, 1)
	assert.EqualValues(t, 2, answers[0].(map[string]any)["selectedOption"])

	assert.Equal(t, "srv-1", receipt.ID)
	assert.Equal(t, "q-1", receipt.QuizID)
	assert.Equal(t, 25, receipt.Score)
	assert.Equal(t, 83, receipt.Percentage, "missing fields fall back to the record")
	assert.Equal(t, completed, receipt.CompletedAt)
}

func TestSubmitAttemptFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.SubmitAttempt(context.Background(), domain.AttemptRecord{QuizID: "q-1"})
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "502")
}

func TestUserAttemptsNormalizes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attempts/user", r.URL.Path)
		_, _ = io.WriteString(w, `{"data": [
			{"_id": "a1", "quiz": {"_id": "q-1", "title": "Go basics"}, "score": 30, "percentage": 140, "timeSpent": 0},
			{"_id": "a2", "quiz": "q-2", "quizTitle": "Channels", "score": -5, "percentage": "-3", "timeSpent": 12},
			{"_id": "a3", "quizName": "Legacy", "score": null},
			{"_id": "a4"}
		]}`)
	})

	entries, err := client.UserAttempts(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, domain.HistoryEntry{ID: "a1", QuizID: "q-1", QuizTitle: "Go basics", Score: 30, Percentage: 100, TimeSpent: 1}, entries[0])
	assert.Equal(t, domain.HistoryEntry{ID: "a2", QuizID: "q-2", QuizTitle: "Channels", Score: 0, Percentage: 0, TimeSpent: 12}, entries[1])
	assert.Equal(t, "Legacy", entries[2].QuizTitle)
	assert.Equal(t, untitledQuiz, entries[3].QuizTitle)
}

func TestUserAttemptsUnexpectedShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"total": 0}}`)
	})
	entries, err := client.UserAttempts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListQuizzesAndProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/quizzes":
			_, _ = io.WriteString(w, `[{"_id": "q-1", "title": "Go basics", "difficulty": "easy", "timeLimit": 5, "questions": [{"text": "a"}, {"text": "b"}]}]`)
		case "/api/auth/me":
			_, _ = io.WriteString(w, `{"user": {"_id": "u-9", "username": "gopher", "email": "g@example.com", "role": "user"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	quizzes, err := client.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, domain.QuizSummary{ID: "q-1", Title: "Go basics", Difficulty: "easy", TimeLimit: 5, QuestionCount: 2}, quizzes[0])

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "u-9", Username: "gopher", Email: "g@example.com", Role: "user"}, user)
}

func TestAnonymousRequestsHaveNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, Tokens: func() string { return "" }}, nil)
	quizzes, err := client.ListQuizzes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}
