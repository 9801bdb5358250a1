package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quiz-client/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizInvalidator is implemented by caching repositories.
type QuizInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// UserSource reports the signed-in player, if any.
type UserSource interface {
	CurrentUser(ctx context.Context) (domain.User, bool)
}

// AttemptRepository abstracts where live attempts are registered (in-memory, Redis, etc).
type AttemptRepository interface {
	// Put registers attempt under key and returns the attempt it replaced.
	Put(key string, attempt *Attempt) *Attempt
	Get(key string) (*Attempt, bool)
	// Delete removes key only while it still maps to attempt.
	Delete(key string, attempt *Attempt)
	List() []*Attempt
}

// ResultJournal keeps completed attempts for the player's history.
type ResultJournal interface {
	SaveAttempt(ctx context.Context, completed domain.CompletedAttempt) error
	ListAttempts(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}

// EventPublisher announces attempt outcomes to other consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AttemptEvent) error
}

// Dependencies groups the collaborators of AttemptService.
type Dependencies struct {
	Users     UserSource
	Quizzes   QuizRepository
	Attempts  AttemptRepository
	Submitter Submitter
	Journal   ResultJournal
	Events    EventPublisher
}

// AttemptService contains the attempt use cases: start, play, leave, history.
type AttemptService struct {
	deps   Dependencies
	cfg    AttemptConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewAttemptService(deps Dependencies, cfg AttemptConfig, logger *slog.Logger) *AttemptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttemptService{deps: deps, cfg: cfg, logger: logger}
}

// AttemptKey identifies the live attempt of a user on a quiz.
func AttemptKey(userID, quizID string) string {
	return userID + ":" + quizID
}

// Begin starts a new attempt for the current user. An attempt the user
// already had running on the same quiz is abandoned.
func (s *AttemptService) Begin(ctx context.Context, quizID string, cues CuePlayer) (*Attempt, error) {
	user, ok := s.deps.Users.CurrentUser(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	quiz, err := s.deps.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	if len(quiz.Questions) == 0 {
		// do not keep serving an empty quiz until the cache expires
		if cache, ok := s.deps.Quizzes.(QuizInvalidator); ok {
			if err := cache.Invalidate(ctx, quizID); err != nil {
				s.logger.Warn("invalidate empty quiz failed", "quiz", quizID, "err", err)
			}
		}
		return nil, domain.ErrQuizEmpty
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}

	key := AttemptKey(user.ID, quizID)
	attempt := NewAttempt(quiz, user.ID, s.deps.Submitter, cues, s.cfg, s.logger)
	if previous := s.deps.Attempts.Put(key, attempt); previous != nil {
		previous.Close()
	}
	if err := attempt.Start(); err != nil {
		s.deps.Attempts.Delete(key, attempt)
		return nil, err
	}

	s.wg.Add(1)
	go s.watch(user, key, attempt)
	return attempt, nil
}

// Get returns the current user's live attempt on quizID.
func (s *AttemptService) Get(ctx context.Context, quizID string) (*Attempt, error) {
	user, ok := s.deps.Users.CurrentUser(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	attempt, ok := s.deps.Attempts.Get(AttemptKey(user.ID, quizID))
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Answer records an answer on the current user's live attempt.
func (s *AttemptService) Answer(ctx context.Context, quizID string, questionIndex, optionIndex int) (domain.AnswerResult, error) {
	attempt, err := s.Get(ctx, quizID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return attempt.Answer(ctx, questionIndex, optionIndex)
}

// Submit submits the current user's live attempt.
func (s *AttemptService) Submit(ctx context.Context, quizID string) (domain.AttemptReceipt, error) {
	attempt, err := s.Get(ctx, quizID)
	if err != nil {
		return domain.AttemptReceipt{}, err
	}
	return attempt.Submit(ctx)
}

// Leave tears down the current user's attempt without submitting.
func (s *AttemptService) Leave(ctx context.Context, quizID string) {
	attempt, err := s.Get(ctx, quizID)
	if err != nil {
		return
	}
	attempt.Close()
}

// History lists the current user's journaled attempts, newest first.
func (s *AttemptService) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	user, ok := s.deps.Users.CurrentUser(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if s.deps.Journal == nil {
		return []domain.HistoryEntry{}, nil
	}
	return s.deps.Journal.ListAttempts(ctx, user.ID)
}

// Shutdown abandons every live attempt and waits for their bookkeeping.
func (s *AttemptService) Shutdown(ctx context.Context) error {
	for _, attempt := range s.deps.Attempts.List() {
		attempt.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watch waits for the attempt to end, then unregisters it and records the
// outcome.
func (s *AttemptService) watch(user domain.User, key string, attempt *Attempt) {
	defer s.wg.Done()
	<-attempt.Done()

	quiz := attempt.Quiz()
	s.deps.Attempts.Delete(key, attempt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	receipt, completed := attempt.Receipt()
	event := domain.AttemptEvent{
		Type:       domain.EventAttemptAbandoned,
		AttemptID:  attempt.ID(),
		UserID:     user.ID,
		QuizID:     quiz.ID,
		OccurredAt: time.Now().UTC(),
	}
	if completed {
		record, _ := attempt.Record()
		result := domain.CompletedAttempt{
			AttemptID: attempt.ID(),
			UserID:    user.ID,
			QuizID:    quiz.ID,
			QuizTitle: quiz.Title,
			Record:    record,
			Receipt:   receipt,
		}
		if s.deps.Journal != nil {
			if err := s.deps.Journal.SaveAttempt(ctx, result); err != nil {
				s.logger.Warn("journal attempt failed", "attempt", attempt.ID(), "err", err)
			}
		}
		event.Type = domain.EventAttemptCompleted
		event.Score = record.Score
		event.Percentage = record.Percentage
	}

	if s.deps.Events != nil {
		if err := s.deps.Events.Publish(ctx, event); err != nil {
			s.logger.Warn("publish attempt event failed", "attempt", attempt.ID(), "type", event.Type, "err", err)
		}
	}
}
