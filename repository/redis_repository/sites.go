package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/findexa/repscout/models"
	"github.com/redis/go-redis/v9"
)

const siteKeyPrefix = "site:"

// redisSiteStore implements repository.SiteStore using Redis
type redisSiteStore struct {
	client *redis.Client
}

func NewSiteStore(client *redis.Client) *redisSiteStore {
	return &redisSiteStore{client: client}
}

func (s *redisSiteStore) SaveSite(ctx context.Context, company string, site models.SiteInfo) error {
	data, err := json.Marshal(site)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, siteKeyPrefix+company, data, 0).Err()
}

func (s *redisSiteStore) GetSite(ctx context.Context, company string) (models.SiteInfo, error) {
	val, err := s.client.Get(ctx, siteKeyPrefix+company).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SiteInfo{}, models.ErrSiteNotFound
		}
		return models.SiteInfo{}, err
	}
	var site models.SiteInfo
	if err := json.Unmarshal([]byte(val), &site); err != nil {
		return models.SiteInfo{}, err
	}
	return site, nil
}

func (s *redisSiteStore) Companies(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, siteKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	companies := make([]string, 0, len(keys))
	for _, key := range keys {
		companies = append(companies, strings.TrimPrefix(key, siteKeyPrefix))
	}
	return companies, nil
}
