// Package cache is an optional Redis layer in front of search
// responses. The service works without it; when Redis is unreachable
// every lookup is simply a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"offer-aggregator-api/internal/config"
	"offer-aggregator-api/internal/models"
)

const searchKeyPrefix = "search:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

// NewRedisCache connects to Redis per the config. It returns nil when
// the connection cannot be established; a nil *RedisCache is a valid,
// always-missing cache.
func NewRedisCache(cfg config.Redis, log *logrus.Logger) *RedisCache {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.WithError(err).Warn("failed to parse Redis URL, response cache disabled")
		return nil
	}
	opt.DB = cfg.DB

	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.WithError(err).Warn("Redis unavailable, response cache disabled")
		return nil
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	log.WithFields(logrus.Fields{"db": cfg.DB, "ttl": ttl.String()}).Info("Redis response cache connected")

	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log.WithField("component", "redis_cache"),
	}
}

func (r *RedisCache) IsAvailable() bool {
	return r != nil && r.client != nil
}

func (r *RedisCache) GetSearchResults(ctx context.Context, key string) (*models.SearchResponse, error) {
	if !r.IsAvailable() {
		return nil, fmt.Errorf("redis client not available")
	}

	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var response models.SearchResponse
	if err := json.Unmarshal([]byte(val), &response); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return &response, nil
}

func (r *RedisCache) SetSearchResults(ctx context.Context, key string, response *models.SearchResponse) error {
	if !r.IsAvailable() {
		return fmt.Errorf("redis client not available")
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// SearchKey builds a cache key for one search request.
func (r *RedisCache) SearchKey(terms []string, byDealer bool, sortField, sortOrder string) string {
	key := searchKeyPrefix + strings.ToLower(strings.Join(terms, ","))
	if byDealer {
		key += ":bydealer"
	}
	if sortField != "" {
		key += fmt.Sprintf(":sort%s:%s", sortField, sortOrder)
	}
	return key
}

// FlushSearch drops every cached search response. Called when the
// favorites set changes or a refresh replaces the offer snapshot, so
// stale responses never outlive the data they were built from.
func (r *RedisCache) FlushSearch(ctx context.Context) error {
	if !r.IsAvailable() {
		return nil
	}

	keys, err := r.client.Keys(ctx, searchKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("redis keys error: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) GetStats(ctx context.Context) map[string]interface{} {
	if !r.IsAvailable() {
		return map[string]interface{}{
			"status": "unavailable",
		}
	}

	info := r.client.Info(ctx, "memory").Val()
	return map[string]interface{}{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"memory_info": info,
	}
}

func (r *RedisCache) Close() error {
	if !r.IsAvailable() {
		return nil
	}
	return r.client.Close()
}
