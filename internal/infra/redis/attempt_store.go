package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/infra/memory"

	"github.com/redis/go-redis/v9"
)

const livenessTimeout = 2 * time.Second

// AttemptStore keeps live attempts in process (timers and subscribers cannot
// leave it) and mirrors each registration as a liveness key, so other
// tooling can see which players are mid-attempt:
//
//	SET quiz:attempt:{user}:{quiz} {attemptID} EX ttl
//
// The marker is best effort: Redis failures are logged and never block an
// attempt.
type AttemptStore struct {
	*memory.AttemptStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAttemptStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *AttemptStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttemptStore{
		AttemptStore: memory.NewAttemptStore(),
		client:       client,
		ttl:          ttl,
		logger:       logger.With("component", "redis_attempt_store"),
	}
}

func (s *AttemptStore) Put(key string, attempt *app.Attempt) *app.Attempt {
	previous := s.AttemptStore.Put(key, attempt)

	ctx, cancel := context.WithTimeout(context.Background(), livenessTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), attempt.ID(), s.ttl).Err(); err != nil {
		s.logger.Debug("set liveness key failed", "key", key, "err", err)
	}
	return previous
}

func (s *AttemptStore) Delete(key string, attempt *app.Attempt) {
	s.AttemptStore.Delete(key, attempt)
	if _, ok := s.AttemptStore.Get(key); ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), livenessTimeout)
	defer cancel()
	// only clear the marker while it still names this attempt
	id, err := s.client.Get(ctx, s.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return
	case err != nil:
		s.logger.Debug("read liveness key failed", "key", key, "err", err)
		return
	case id != attempt.ID():
		return
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.logger.Debug("clear liveness key failed", "key", key, "err", err)
	}
}

// Live reports whether any process has registered an attempt under key.
func (s *AttemptStore) Live(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *AttemptStore) key(key string) string {
	return "quiz:attempt:" + key
}
