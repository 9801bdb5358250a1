package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/config"
	"quiz-client/internal/domain"
	"quiz-client/internal/infra/memory"
	"quiz-client/internal/infra/postgres"
	"quiz-client/internal/infra/rabbit"
	rediscache "quiz-client/internal/infra/redis"
	"quiz-client/internal/logging"
	transport "quiz-client/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Env)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	client, session := newAPIClient(cfg)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader
	switch cfg.Quiz.Source {
	case config.SourcePostgres:
		loader = postgres.NewQuizLoader(pool)
	case config.SourceStatic:
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
	default:
		loader = client
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL, logger)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = rediscache.NewAttemptStore(redisClient, redisTTL, logger)
	} else {
		attempts = memory.NewAttemptStore()
	}

	var journal app.ResultJournal = memory.NewJournal()
	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		journal = postgres.NewJournal(db)
	}

	var events app.EventPublisher = memory.NewEventLog(logger)
	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.Dial(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
	}

	service := app.NewAttemptService(app.Dependencies{
		Users:     session,
		Quizzes:   quizRepo,
		Attempts:  attempts,
		Submitter: client,
		Journal:   journal,
		Events:    events,
	}, app.AttemptConfig{
		QuestionSeconds: cfg.Attempt.QuestionSeconds,
		FeedbackDelay:   config.TTLDuration(cfg.Attempt.FeedbackDelay, app.DefaultFeedbackDelay),
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.Healthz)
	mux.HandleFunc("/ws", transport.NewWSHandler(service, logger).ServeWS)
	mux.Handle("/history", transport.NewHistoryHandler(service, logger))

	// no WriteTimeout: attempts hold the socket for the whole time limit
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting attempt server", "port", finalPort, "quiz_source", cfg.Quiz.Source)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	return service.Shutdown(shutdownCtx)
}

// sampleQuizzes backs the "static" quiz source for offline demos.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Arithmetic warm-up",
			Description:      "Three quick sums.",
			TimeLimitMinutes: 2,
			Questions: []domain.Question{
				{Text: "What is 2 + 2?", Options: []domain.Option{{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}}},
				{Text: "What is 7 x 6?", Options: []domain.Option{{Text: "42", IsCorrect: true}, {Text: "36"}, {Text: "48"}}},
				{Text: "What is 15 - 9?", Options: []domain.Option{{Text: "5"}, {Text: "7"}, {Text: "6", IsCorrect: true}}},
			},
		},
	}
}
