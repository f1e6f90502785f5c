package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"scentrale/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store holds per-user carts. The order flow reads a cart once at creation
// time and clears it after the order is persisted.
type Store interface {
	// Get returns the user's cart snapshot, or nil when no cart exists.
	Get(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error)

	// Put replaces the user's cart snapshot.
	Put(ctx context.Context, snapshot *model.CartSnapshot) error

	// Clear removes the user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// redisStore implements Store on a redis key per user.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a redis-backed cart store.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger.With().Str("store", "cart").Logger(),
	}
}

func cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get returns the user's cart snapshot, or nil when no cart exists.
func (s *redisStore) Get(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to read cart")
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var snapshot model.CartSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to decode cart")
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return &snapshot, nil
}

// Put replaces the user's cart snapshot. Carts do not expire; checkout or an
// explicit clear removes them.
func (s *redisStore) Put(ctx context.Context, snapshot *model.CartSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(snapshot.UserID), raw, 0).Err(); err != nil {
		s.logger.Error().Err(err).Str("user_id", snapshot.UserID.String()).Msg("failed to write cart")
		return fmt.Errorf("failed to write cart: %w", err)
	}

	return nil
}

// Clear removes the user's cart.
func (s *redisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("cart cleared")

	return nil
}
