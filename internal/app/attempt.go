package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"quiz-client/internal/domain"
	"quiz-client/internal/scoring"
	"quiz-client/internal/timer"

	"github.com/google/uuid"
)

const (
	// DefaultQuestionSeconds is the per-question countdown.
	DefaultQuestionSeconds = 20
	// DefaultFeedbackDelay is how long answer feedback stays up before advancing.
	DefaultFeedbackDelay = time.Second

	totalWarningSeconds    = 30
	questionWarningSeconds = 5
)

// Submitter sends a finished attempt to the system of record.
type Submitter interface {
	SubmitAttempt(ctx context.Context, record domain.AttemptRecord) (domain.AttemptReceipt, error)
}

// CuePlayer plays answer feedback. Failures are never fatal.
type CuePlayer interface {
	PlayCue(ctx context.Context, cue domain.Cue) error
}

// AttemptConfig tunes an attempt. Zero values fall back to defaults.
type AttemptConfig struct {
	QuestionSeconds int
	FeedbackDelay   time.Duration
	TotalTicker     timer.TickerFunc
	QuestionTicker  timer.TickerFunc
	Now             func() time.Time
}

func (c AttemptConfig) withDefaults() AttemptConfig {
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = DefaultQuestionSeconds
	}
	if c.FeedbackDelay < 0 {
		c.FeedbackDelay = 0
	} else if c.FeedbackDelay == 0 {
		c.FeedbackDelay = DefaultFeedbackDelay
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Attempt is one player's timed run through a quiz. All transitions are
// serialized by mu; timer callbacks carry a generation so that callbacks of
// a cancelled or replaced countdown are ignored.
type Attempt struct {
	id        string
	userID    string
	quiz      domain.Quiz
	cfg       AttemptConfig
	submitter Submitter
	cues      CuePlayer
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	total    *timer.Countdown
	question *timer.Countdown

	mu                sync.RWMutex
	status            domain.AttemptStatus
	current           int
	answers           map[int]domain.AnswerRecord
	score             int
	totalRemaining    int
	questionRemaining int
	submitted         bool
	message           string
	questionGen       uint64
	advance           *time.Timer
	pending           *domain.AttemptRecord
	receipt           domain.AttemptReceipt
	subscribers       map[chan domain.AttemptSnapshot]struct{}
}

// NewAttempt prepares an attempt in the loading state. Call Start to run the
// clocks. cues may be nil.
func NewAttempt(quiz domain.Quiz, userID string, submitter Submitter, cues CuePlayer, cfg AttemptConfig, logger *slog.Logger) *Attempt {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Attempt{
		id:                id,
		userID:            userID,
		quiz:              quiz,
		cfg:               cfg,
		submitter:         submitter,
		cues:              cues,
		logger:            logger.With("component", "attempt", "attempt", id, "quiz", quiz.ID),
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
		total:             timer.NewCountdown(cfg.TotalTicker),
		question:          timer.NewCountdown(cfg.QuestionTicker),
		status:            domain.StatusLoading,
		answers:           make(map[int]domain.AnswerRecord),
		totalRemaining:    quiz.TimeLimitSeconds(),
		questionRemaining: cfg.QuestionSeconds,
		subscribers:       make(map[chan domain.AttemptSnapshot]struct{}),
	}
}

func (a *Attempt) ID() string        { return a.id }
func (a *Attempt) UserID() string    { return a.userID }
func (a *Attempt) Quiz() domain.Quiz { return a.quiz }

// Done is closed once the attempt is completed or abandoned.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Start moves the attempt to in progress and starts both clocks.
func (a *Attempt) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusLoading {
		return domain.ErrAttemptNotInProgress
	}
	if len(a.quiz.Questions) == 0 {
		return domain.ErrQuizEmpty
	}
	a.status = domain.StatusInProgress
	a.totalRemaining = a.quiz.TimeLimitSeconds()
	a.total.Start(a.totalRemaining, a.onTotalTick, a.onTotalExpire)
	a.restartQuestionLocked()
	a.logger.Info("attempt started", "questions", len(a.quiz.Questions), "time_limit_s", a.totalRemaining)
	a.broadcastLocked()
	return nil
}

// Answer records the player's choice for the current question.
func (a *Attempt) Answer(ctx context.Context, questionIndex, optionIndex int) (domain.AnswerResult, error) {
	a.mu.Lock()
	if a.status != domain.StatusInProgress {
		a.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrAttemptNotInProgress
	}
	if questionIndex != a.current {
		a.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrQuestionMismatch
	}
	if _, ok := a.answers[questionIndex]; ok {
		a.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}
	question := a.quiz.Questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		a.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrOptionNotFound
	}

	correct := question.Options[optionIndex].IsCorrect
	a.answers[questionIndex] = domain.AnswerRecord{
		QuestionIndex:  questionIndex,
		SelectedOption: optionIndex,
		IsCorrect:      correct,
	}
	awarded := scoring.Points(correct, a.questionRemaining)
	a.score += awarded
	a.message = ""
	if questionIndex < len(a.quiz.Questions)-1 {
		a.scheduleAdvanceLocked(questionIndex)
	}
	result := domain.AnswerResult{
		QuestionIndex: questionIndex,
		Correct:       correct,
		Awarded:       awarded,
		TotalScore:    a.score,
	}
	a.broadcastLocked()
	a.mu.Unlock()

	cue := domain.CueIncorrect
	if correct {
		cue = domain.CueCorrect
	}
	a.playCue(ctx, cue)
	return result, nil
}

// Submit is the player-initiated submission. It requires every question to
// be answered, except when retrying a failed submission, which resends the
// record built the first time.
func (a *Attempt) Submit(ctx context.Context) (domain.AttemptReceipt, error) {
	a.mu.Lock()
	var record domain.AttemptRecord
	switch a.status {
	case domain.StatusInProgress:
		if len(a.answers) < len(a.quiz.Questions) {
			a.message = domain.MsgAnswerAll
			a.broadcastLocked()
			a.mu.Unlock()
			return domain.AttemptReceipt{}, domain.ErrIncompleteAttempt
		}
		record = a.buildRecordLocked()
	case domain.StatusSubmissionFailed:
		record = *a.pending
	case domain.StatusLoading:
		a.mu.Unlock()
		return domain.AttemptReceipt{}, domain.ErrAttemptNotInProgress
	default:
		a.mu.Unlock()
		return domain.AttemptReceipt{}, domain.ErrAlreadySubmitted
	}
	a.beginSubmitLocked(record)
	a.mu.Unlock()

	return a.deliver(ctx, record)
}

// Close tears the attempt down without submitting. Safe to call repeatedly
// and after completion.
func (a *Attempt) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status.Terminal() {
		return
	}
	a.status = domain.StatusAbandoned
	a.stopClocksLocked()
	a.finishLocked()
	a.logger.Info("attempt abandoned", "answered", len(a.answers))
	a.broadcastLocked()
}

// Status returns the lifecycle state.
func (a *Attempt) Status() domain.AttemptStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Receipt returns the server receipt once the attempt is completed.
func (a *Attempt) Receipt() (domain.AttemptReceipt, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.receipt, a.status == domain.StatusCompleted
}

// Record returns the record most recently handed to the submitter.
func (a *Attempt) Record() (domain.AttemptRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.pending == nil {
		return domain.AttemptRecord{}, false
	}
	return *a.pending, true
}

// Snapshot returns a copy of the current state.
func (a *Attempt) Snapshot() domain.AttemptSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot on every change,
// starting with the current one. The caller must invoke cancel.
func (a *Attempt) Subscribe() (<-chan domain.AttemptSnapshot, func()) {
	ch := make(chan domain.AttemptSnapshot, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	ch <- a.snapshotLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) onTotalTick(remaining int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusInProgress {
		return
	}
	a.totalRemaining = remaining
	a.broadcastLocked()
}

// onTotalExpire forces submission with whatever has been answered.
func (a *Attempt) onTotalExpire() {
	a.mu.Lock()
	if a.status != domain.StatusInProgress {
		a.mu.Unlock()
		return
	}
	a.totalRemaining = 0
	record := a.buildRecordLocked()
	a.beginSubmitLocked(record)
	a.logger.Info("time limit reached, submitting", "answered", len(record.Answers))
	a.mu.Unlock()

	_, _ = a.deliver(a.ctx, record)
}

func (a *Attempt) restartQuestionLocked() {
	a.questionGen++
	gen := a.questionGen
	a.questionRemaining = a.cfg.QuestionSeconds
	a.question.Start(a.cfg.QuestionSeconds,
		func(remaining int) { a.onQuestionTick(gen, remaining) },
		func() { a.onQuestionExpire(gen) },
	)
}

func (a *Attempt) onQuestionTick(gen uint64, remaining int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.questionGen || a.status != domain.StatusInProgress {
		return
	}
	a.questionRemaining = remaining
	a.broadcastLocked()
}

// onQuestionExpire moves on without recording an answer. In the final
// second of the total clock the two expiries may be handled in either
// order, so the question stays put and total expiry submits.
func (a *Attempt) onQuestionExpire(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.questionGen || a.status != domain.StatusInProgress {
		return
	}
	a.questionRemaining = 0
	if a.totalRemaining <= 1 {
		a.broadcastLocked()
		return
	}
	skipped := a.current
	if a.advanceLocked() {
		a.logger.Debug("question timed out", "question", skipped)
	}
	a.broadcastLocked()
}

// advanceLocked moves to the next question. Past the last question it is a
// no-op; only Submit or the total timer end the attempt.
func (a *Attempt) advanceLocked() bool {
	if a.current >= len(a.quiz.Questions)-1 {
		return false
	}
	a.stopAdvanceLocked()
	a.current++
	a.restartQuestionLocked()
	return true
}

func (a *Attempt) scheduleAdvanceLocked(from int) {
	a.stopAdvanceLocked()
	a.advance = time.AfterFunc(a.cfg.FeedbackDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.status != domain.StatusInProgress || a.current != from {
			return
		}
		a.advanceLocked()
		a.broadcastLocked()
	})
}

func (a *Attempt) stopAdvanceLocked() {
	if a.advance != nil {
		a.advance.Stop()
		a.advance = nil
	}
}

func (a *Attempt) stopClocksLocked() {
	a.total.Cancel()
	a.question.Cancel()
	a.questionGen++
	a.stopAdvanceLocked()
}

func (a *Attempt) buildRecordLocked() domain.AttemptRecord {
	return BuildRecord(a.id, a.quiz, a.answers, a.score, a.totalRemaining, a.cfg.Now())
}

func (a *Attempt) beginSubmitLocked(record domain.AttemptRecord) {
	a.status = domain.StatusSubmitting
	a.submitted = true
	a.message = ""
	a.pending = &record
	a.stopClocksLocked()
	a.broadcastLocked()
}

// deliver hands the record to the submitter and applies the result. The
// call is cancelled if the attempt is closed meanwhile.
func (a *Attempt) deliver(ctx context.Context, record domain.AttemptRecord) (domain.AttemptReceipt, error) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(a.ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	receipt, err := a.submitter.SubmitAttempt(ctx, record)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusSubmitting {
		return domain.AttemptReceipt{}, fmt.Errorf("attempt %s closed during submission: %w", a.id, domain.ErrAttemptNotInProgress)
	}
	if err != nil {
		a.status = domain.StatusSubmissionFailed
		a.submitted = false
		a.message = domain.MsgSubmissionFailed
		a.logger.Warn("submission failed", "err", err)
		a.broadcastLocked()
		return domain.AttemptReceipt{}, fmt.Errorf("submit attempt: %w", err)
	}

	if receipt.QuizID == "" {
		receipt.QuizID = record.QuizID
	}
	if receipt.CompletedAt.IsZero() {
		receipt.CompletedAt = record.CompletedAt
	}
	a.receipt = receipt
	a.status = domain.StatusCompleted
	a.finishLocked()
	a.logger.Info("attempt submitted", "score", record.Score, "percentage", record.Percentage, "time_spent_s", record.TimeSpent)
	a.broadcastLocked()
	return receipt, nil
}

func (a *Attempt) finishLocked() {
	a.cancel()
	close(a.done)
}

func (a *Attempt) playCue(ctx context.Context, cue domain.Cue) {
	if a.cues == nil {
		return
	}
	if err := a.cues.PlayCue(ctx, cue); err != nil {
		a.logger.Debug("cue playback failed", "cue", cue, "err", err)
	}
}

func (a *Attempt) broadcastLocked() {
	snap := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (a *Attempt) snapshotLocked() domain.AttemptSnapshot {
	answers := make([]domain.AnswerRecord, 0, len(a.answers))
	for _, rec := range a.answers {
		answers = append(answers, rec)
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].QuestionIndex < answers[j].QuestionIndex
	})

	var view domain.QuestionView
	if a.current < len(a.quiz.Questions) {
		q := a.quiz.Questions[a.current]
		view = domain.QuestionView{Index: a.current, Text: q.Text, Options: make([]string, len(q.Options))}
		for i, opt := range q.Options {
			view.Options[i] = opt.Text
		}
	}

	return domain.AttemptSnapshot{
		QuizID:               a.quiz.ID,
		Title:                a.quiz.Title,
		Status:               a.status,
		CurrentQuestionIndex: a.current,
		QuestionCount:        len(a.quiz.Questions),
		Question:             view,
		Answers:              answers,
		Score:                a.score,
		TotalRemaining:       a.totalRemaining,
		QuestionRemaining:    a.questionRemaining,
		TotalClock:           timer.FormatClock(a.totalRemaining),
		TotalWarning:         a.totalRemaining <= totalWarningSeconds,
		QuestionWarning:      a.questionRemaining <= questionWarningSeconds,
		Submitted:            a.submitted,
		Message:              a.message,
	}
}
