package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/resinflow/resinflow/internal/shared"
)

const tokenPrefix = "resinflow:token:"

// TokenStore keeps bearer tokens in redis with a sliding TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints an opaque token bound to the user context.
func (s *TokenStore) Issue(ctx context.Context, user shared.UserContext) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("auth: marshal token payload: %w", err)
	}
	if err := s.client.Set(ctx, tokenPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve looks a token up and refreshes its TTL. A missing or expired
// token returns ok=false without an error.
func (s *TokenStore) Resolve(ctx context.Context, token string) (shared.UserContext, bool, error) {
	payload, err := s.client.Get(ctx, tokenPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return shared.UserContext{}, false, nil
	}
	if err != nil {
		return shared.UserContext{}, false, fmt.Errorf("auth: resolve token: %w", err)
	}
	var user shared.UserContext
	if err := json.Unmarshal(payload, &user); err != nil {
		return shared.UserContext{}, false, fmt.Errorf("auth: decode token payload: %w", err)
	}
	if err := s.client.Expire(ctx, tokenPrefix+token, s.ttl).Err(); err != nil {
		return shared.UserContext{}, false, fmt.Errorf("auth: refresh token ttl: %w", err)
	}
	return user, true, nil
}

// Revoke drops a token. Revoking an unknown token is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, tokenPrefix+token).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}
