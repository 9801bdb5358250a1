package memory

import (
	"sync"

	"quiz-client/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(key string, attempt *app.Attempt) *app.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.attempts[key]
	s.attempts[key] = attempt
	if previous == attempt {
		return nil
	}
	return previous
}

func (s *AttemptStore) Get(key string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[key]
	return attempt, ok
}

func (s *AttemptStore) Delete(key string, attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.attempts[key]; ok && current == attempt {
		delete(s.attempts, key)
	}
}

func (s *AttemptStore) List() []*app.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Attempt, 0, len(s.attempts))
	for _, attempt := range s.attempts {
		out = append(out, attempt)
	}
	return out
}
