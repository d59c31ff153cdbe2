package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTokenPrefix = "reset-password:"

// ResetTokenStore keeps one-time password-reset tokens in Redis. Each entry
// maps reset-password:<token> to the owning user id with a TTL, and insertion
// uses SETNX so two concurrent requests for the same token value cannot both
// claim it.
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func resetTokenKey(token string) string {
	return resetTokenPrefix + token
}

// TryInsertIfAbsent returns false when the key already exists. That is the
// only concurrency guarantee the reset flow needs; everything else is
// last-write-wins.
func (s *ResetTokenStore) TryInsertIfAbsent(ctx context.Context, token, userID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, resetTokenKey(token), userID, ttl).Result()
}

func (s *ResetTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, resetTokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetValue returns the stored user id, or "" when the key is missing or
// already expired.
func (s *ResetTokenStore) GetValue(ctx context.Context, token string) (string, error) {
	value, err := s.client.Get(ctx, resetTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *ResetTokenStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, resetTokenKey(token)).Err()
}
