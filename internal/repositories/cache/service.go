package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payguard/internal/models"

	"github.com/redis/go-redis/v9"
)

const haltKey = "platform:emergency_halt"

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Risk score caching
func (s *CacheService) CacheRiskScore(ctx context.Context, score *models.MerchantRiskScore) error {
	if score == nil {
		return errors.New("cannot cache nil risk score")
	}
	key := s.GenerateKey("risk_score", "merchant", score.MerchantID)
	return s.Set(ctx, key, score)
}

func (s *CacheService) GetRiskScore(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error) {
	key := s.GenerateKey("risk_score", "merchant", merchantID)
	var score models.MerchantRiskScore
	found, err := s.Get(ctx, key, &score)
	if err != nil || !found {
		return nil, err
	}
	return &score, nil
}

func (s *CacheService) InvalidateRiskScore(ctx context.Context, merchantID uint) error {
	return s.Delete(ctx, s.GenerateKey("risk_score", "merchant", merchantID))
}

// Emergency halt flag. The flag carries no TTL: a halt stays active until
// an operator clears it.
func (s *CacheService) SetHalt(ctx context.Context, reason string) error {
	return s.client.Set(ctx, haltKey, reason, 0).Err()
}

func (s *CacheService) ClearHalt(ctx context.Context) error {
	return s.client.Del(ctx, haltKey).Err()
}

func (s *CacheService) GetHalt(ctx context.Context) (bool, string, error) {
	reason, err := s.client.Get(ctx, haltKey).Result()
	if err != nil {
		if err == redis.Nil {
			return false, "", nil
		}
		return false, "", err
	}
	return true, reason, nil
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// HealthCheck pings the Redis server.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
