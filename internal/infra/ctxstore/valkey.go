package ctxstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/campusbot/internal/domain/faqflow"
)

// ValkeyStore shares FAQ session markers across replicas. Expiry rides on the
// key TTL, which Begin and Touch reset, so a read after the idle window
// naturally sees no context.
type ValkeyStore struct {
	client  valkey.Client
	prefix  string
	timeout time.Duration
}

// NewValkeyStore constructs a store backed by a Valkey-compatible database.
func NewValkeyStore(client valkey.Client, prefix string, timeout time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "faqctx"
	}
	if timeout <= 0 {
		timeout = faqflow.DefaultTimeout
	}
	return &ValkeyStore{client: client, prefix: prefix, timeout: timeout}
}

func (s *ValkeyStore) Begin(ctx context.Context, userID string) error {
	payload, err := json.Marshal(faqflow.UserContext{Active: true, LastInteraction: time.Now().UTC()})
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(userID)).Value(string(payload)).Ex(s.timeout).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Touch(ctx context.Context, userID string) error {
	_, ok, err := s.Get(ctx, userID)
	if err != nil || !ok {
		return err
	}
	return s.Begin(ctx, userID)
}

func (s *ValkeyStore) Get(ctx context.Context, userID string) (faqflow.UserContext, bool, error) {
	cmd := s.client.B().Get().Key(s.key(userID)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return faqflow.UserContext{}, false, nil
		}
		return faqflow.UserContext{}, false, err
	}
	var uc faqflow.UserContext
	if err := json.Unmarshal([]byte(payload), &uc); err != nil {
		return faqflow.UserContext{}, false, err
	}
	if !uc.Active {
		return faqflow.UserContext{}, false, nil
	}
	return uc, true, nil
}

func (s *ValkeyStore) End(ctx context.Context, userID string) error {
	cmd := s.client.B().Del().Key(s.key(userID)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(userID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

var _ faqflow.ContextStore = (*ValkeyStore)(nil)
