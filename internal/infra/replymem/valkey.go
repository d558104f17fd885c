package replymem

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/campusbot/internal/domain/chat"
)

// ValkeyStore shares last replies across replicas. The key TTL handles
// expiry.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	window time.Duration
}

// NewValkeyStore constructs a store backed by a Valkey-compatible database.
func NewValkeyStore(client valkey.Client, prefix string, window time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "lastreply"
	}
	if window <= 0 {
		window = chat.DefaultExplainWindow
	}
	return &ValkeyStore{client: client, prefix: prefix, window: window}
}

func (s *ValkeyStore) Store(ctx context.Context, userID string, reply chat.LastReply) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(userID)).Value(string(payload)).Ex(s.window).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, userID string) (chat.LastReply, bool, error) {
	cmd := s.client.B().Get().Key(s.key(userID)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return chat.LastReply{}, false, nil
		}
		return chat.LastReply{}, false, err
	}
	var reply chat.LastReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return chat.LastReply{}, false, err
	}
	return reply, true, nil
}

func (s *ValkeyStore) Clear(ctx context.Context, userID string) error {
	cmd := s.client.B().Del().Key(s.key(userID)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(userID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

var _ chat.ReplyMemory = (*ValkeyStore)(nil)
