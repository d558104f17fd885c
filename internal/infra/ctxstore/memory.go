package ctxstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/campusbot/internal/domain/faqflow"
)

// MemoryStore keeps FAQ session markers in process memory. Sessions are
// pinned to this process; use the Valkey store for replicated deployments.
type MemoryStore struct {
	mu       sync.Mutex
	contexts map[string]faqflow.UserContext
	timeout  time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs a store with the given idle timeout.
func NewMemoryStore(timeout time.Duration) *MemoryStore {
	if timeout <= 0 {
		timeout = faqflow.DefaultTimeout
	}
	return &MemoryStore{
		contexts: make(map[string]faqflow.UserContext),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Begin marks the user as awaiting a selection.
func (s *MemoryStore) Begin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[userID] = faqflow.UserContext{Active: true, LastInteraction: s.now()}
	return nil
}

// Touch refreshes the timestamp of an existing active context.
func (s *MemoryStore) Touch(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.contexts[userID]
	if !ok || !uc.Active {
		return nil
	}
	uc.LastInteraction = s.now()
	s.contexts[userID] = uc
	return nil
}

// Get applies expiry-on-read: a context idle past the timeout reads as absent
// and is removed as a side effect.
func (s *MemoryStore) Get(_ context.Context, userID string) (faqflow.UserContext, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.contexts[userID]
	if !ok || !uc.Active {
		return faqflow.UserContext{}, false, nil
	}
	if s.now().Sub(uc.LastInteraction) > s.timeout {
		delete(s.contexts, userID)
		return faqflow.UserContext{}, false, nil
	}
	return uc, true, nil
}

// End removes the context.
func (s *MemoryStore) End(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, userID)
	return nil
}

// SetClock overrides the time source for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

var _ faqflow.ContextStore = (*MemoryStore)(nil)
