package domain

import "errors"

var (
	// ErrUnauthenticated is returned when no player is signed in.
	ErrUnauthenticated = errors.New("no authenticated user")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty is returned for a quiz without questions.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrTransport wraps any failure talking to the quiz API.
	ErrTransport = errors.New("quiz api transport failure")

	// ErrAttemptNotFound is returned when no live attempt matches.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptNotInProgress rejects answers outside the in-progress state.
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	// ErrQuestionMismatch rejects answers for a question other than the current one.
	ErrQuestionMismatch = errors.New("question is not the current question")
	// ErrAlreadyAnswered rejects a second answer to the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOptionNotFound indicates a submitted option index is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrIncompleteAttempt rejects a manual submit with unanswered questions.
	ErrIncompleteAttempt = errors.New("answer all questions before submitting")
	// ErrAlreadySubmitted is returned when a submission is in flight or done.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

// Player-facing messages.
const (
	MsgLoginRequired    = "Please log in to take the quiz"
	MsgQuizNotFound     = "Quiz not found"
	MsgLoadFailed       = "Failed to load quiz. Please try again later."
	MsgAnswerAll        = "Please answer all questions before submitting."
	MsgSubmissionFailed = "Failed to submit quiz. Please try again."
)

// UserMessage maps an attempt error to the text shown to the player.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return MsgLoginRequired
	case errors.Is(err, ErrQuizNotFound):
		return MsgQuizNotFound
	case errors.Is(err, ErrIncompleteAttempt):
		return MsgAnswerAll
	case errors.Is(err, ErrQuizEmpty), errors.Is(err, ErrTransport):
		return MsgLoadFailed
	default:
		return err.Error()
	}
}
