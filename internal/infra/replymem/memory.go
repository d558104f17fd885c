// Package replymem stores per-user last answers for elaboration follow-ups.
package replymem

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/campusbot/internal/domain/chat"
)

// MemoryStore keeps last replies in process memory. Entries past the window
// are dropped on read.
type MemoryStore struct {
	mu      sync.Mutex
	replies map[string]chat.LastReply
	window  time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs an in-memory reply store.
func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = chat.DefaultExplainWindow
	}
	return &MemoryStore{
		replies: make(map[string]chat.LastReply),
		window:  window,
		now:     time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Store(_ context.Context, userID string, reply chat.LastReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[userID] = reply
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (chat.LastReply, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, ok := s.replies[userID]
	if !ok {
		return chat.LastReply{}, false, nil
	}
	if s.now().Sub(reply.StoredAt) > s.window {
		delete(s.replies, userID)
		return chat.LastReply{}, false, nil
	}
	return reply, true, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replies, userID)
	return nil
}

var _ chat.ReplyMemory = (*MemoryStore)(nil)
