// Package api is the REST client for the quiz backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"quiz-client/internal/domain"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 10 * time.Second
	// IdempotencyHeader carries the attempt id so a retried submission is
	// recognised by the server.
	IdempotencyHeader = "Idempotency-Key"
)

// TokenSource returns the bearer token for the next request; empty means
// anonymous.
type TokenSource func() string

// Options configure a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
}

// Client talks to the quiz backend.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	logger = logger.With("component", "api")

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	tokens := opts.Tokens
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if tokens == nil {
			return nil
		}
		if token := tokens(); token != "" {
			r.SetAuthToken(token)
		}
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		logger.Debug("api response",
			"method", r.Request.Method,
			"url", r.Request.URL,
			"status", r.StatusCode(),
			"took", r.Time(),
		)
		return nil
	})

	return &Client{http: rc, logger: logger}
}

// FetchQuiz loads the full quiz, including correctness flags.
func (c *Client) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", quizID).
		Get("/quizzes/{id}")
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: fetch quiz %s: %w", domain.ErrTransport, quizID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err := statusError(resp); err != nil {
		return domain.Quiz{}, err
	}

	var dto quizDTO
	if err := json.Unmarshal(unwrap(resp.Body(), "data", "quiz"), &dto); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: decode quiz %s: %w", domain.ErrTransport, quizID, err)
	}
	quiz := dto.toDomain()
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

// LoadQuiz lets the client act as the loader behind a quiz cache.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.FetchQuiz(ctx, quizID)
}

// ListQuizzes returns the published quizzes.
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/quizzes")
	if err != nil {
		return nil, fmt.Errorf("%w: list quizzes: %w", domain.ErrTransport, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var dtos []quizDTO
	if err := json.Unmarshal(unwrap(resp.Body(), "data", "quizzes"), &dtos); err != nil {
		return nil, fmt.Errorf("%w: decode quizzes: %w", domain.ErrTransport, err)
	}
	out := make([]domain.QuizSummary, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toSummary())
	}
	return out, nil
}

// SubmitAttempt posts a finished attempt. The attempt id goes in the
// idempotency header so a resend of the same record is not double counted.
func (c *Client) SubmitAttempt(ctx context.Context, record domain.AttemptRecord) (domain.AttemptReceipt, error) {
	req := c.http.R().
		SetContext(ctx).
		SetBody(record)
	if record.AttemptID != "" {
		req.SetHeader(IdempotencyHeader, record.AttemptID)
	}
	resp, err := req.Post("/attempts")
	if err != nil {
		return domain.AttemptReceipt{}, fmt.Errorf("%w: submit attempt: %w", domain.ErrTransport, err)
	}
	if err := statusError(resp); err != nil {
		return domain.AttemptReceipt{}, err
	}

	var dto receiptDTO
	if body := unwrap(resp.Body(), "data", "attempt"); len(body) > 0 {
		if err := json.Unmarshal(body, &dto); err != nil {
			return domain.AttemptReceipt{}, fmt.Errorf("%w: decode receipt: %w", domain.ErrTransport, err)
		}
	}
	return dto.toDomain(record), nil
}

// UserAttempts returns the signed-in user's attempts, normalized.
func (c *Client) UserAttempts(ctx context.Context) ([]domain.HistoryEntry, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/attempts/user")
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %w", domain.ErrTransport, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	body := unwrap(resp.Body(), "data", "attempts")
	if len(body) == 0 || body[0] != '[' {
		c.logger.Warn("unexpected attempts payload", "bytes", len(resp.Body()))
		return []domain.HistoryEntry{}, nil
	}
	var dtos []attemptDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("%w: decode attempts: %w", domain.ErrTransport, err)
	}
	out := make([]domain.HistoryEntry, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toHistory())
	}
	return out, nil
}

// Profile returns the user the token belongs to.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/auth/me")
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: profile: %w", domain.ErrTransport, err)
	}
	if err := statusError(resp); err != nil {
		return domain.User{}, err
	}

	var dto userDTO
	if err := json.Unmarshal(unwrap(resp.Body(), "data", "user"), &dto); err != nil {
		return domain.User{}, fmt.Errorf("%w: decode profile: %w", domain.ErrTransport, err)
	}
	return dto.toDomain(), nil
}

// statusError maps a non-2xx response to a domain error.
func statusError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return domain.ErrUnauthenticated
	}
	msg := serverMessage(resp.Body())
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode(), msg)
}
