package redis_repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const conversationKeyPrefix = "conversation:"

// redisConversationStore keeps append-only oracle transcripts under
// conversation:<kind>:<company>.
type redisConversationStore struct {
	client *redis.Client
}

func NewConversationStore(client *redis.Client) *redisConversationStore {
	return &redisConversationStore{client: client}
}

func conversationKey(company, kind string) string {
	return conversationKeyPrefix + kind + ":" + company
}

func (s *redisConversationStore) AppendConversation(ctx context.Context, company, kind, content string) error {
	return s.client.RPush(ctx, conversationKey(company, kind), content).Err()
}

func (s *redisConversationStore) Conversation(ctx context.Context, company, kind string) ([]string, error) {
	return s.client.LRange(ctx, conversationKey(company, kind), 0, -1).Result()
}
