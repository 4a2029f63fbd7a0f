package redis_repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/findexa/repscout/models"
	"github.com/redis/go-redis/v9"
)

const (
	actionKeyPrefix   = "action:"
	navStackKeyPrefix = "navstack:"
	doneKeyPrefix     = "action_final:"
)

// redisActionLedger implements repository.ActionLedger on Redis. Records live
// under action:<company>:<url>, the navigation stack is a list under
// navstack:<company>, and the done marker under action_final:<company>.
type redisActionLedger struct {
	client *redis.Client
}

func NewActionLedger(client *redis.Client) *redisActionLedger {
	return &redisActionLedger{client: client}
}

func actionKey(company, url string) string { return actionKeyPrefix + company + ":" + url }

func (l *redisActionLedger) StoreAction(ctx context.Context, company, url string, record models.ActionRecord, final bool) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := l.client.Set(ctx, actionKey(company, url), data, 0).Err(); err != nil {
		return err
	}
	if err := l.client.RPush(ctx, navStackKeyPrefix+company, url).Err(); err != nil {
		return err
	}
	if final {
		if err := l.client.Set(ctx, doneKeyPrefix+company, data, 0).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (l *redisActionLedger) Action(ctx context.Context, company, url string) (*models.ActionRecord, error) {
	return l.getRecord(ctx, actionKey(company, url))
}

func (l *redisActionLedger) AllActions(ctx context.Context, company string) ([]models.ActionRecord, error) {
	keys, err := l.client.Keys(ctx, actionKeyPrefix+company+":*").Result()
	if err != nil {
		return nil, err
	}
	records := make([]models.ActionRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := l.getRecord(ctx, key)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (l *redisActionLedger) DeleteAll(ctx context.Context, company string) error {
	keys, err := l.client.Keys(ctx, actionKeyPrefix+company+":*").Result()
	if err != nil {
		return err
	}
	keys = append(keys, navStackKeyPrefix+company, doneKeyPrefix+company)
	return l.client.Del(ctx, keys...).Err()
}

func (l *redisActionLedger) CurrentURL(ctx context.Context, company string) (string, error) {
	url, err := l.client.LIndex(ctx, navStackKeyPrefix+company, -1).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return url, err
}

func (l *redisActionLedger) FullURLQueue(ctx context.Context, company string) ([]string, error) {
	return l.client.LRange(ctx, navStackKeyPrefix+company, 0, -1).Result()
}

func (l *redisActionLedger) DoneAction(ctx context.Context, company string) (*models.ActionRecord, error) {
	return l.getRecord(ctx, doneKeyPrefix+company)
}

func (l *redisActionLedger) getRecord(ctx context.Context, key string) (*models.ActionRecord, error) {
	val, err := l.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.ActionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
