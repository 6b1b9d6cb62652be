package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
)

// RedisStore keeps each user's collection as a JSON string value and the
// audit trail as a list, both under per-user keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using the provided configuration.
func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis ticket store")
	}
	return &RedisStore{client: client}
}

func ticketsKey(user string) string { return "axis:tickets:" + user }
func auditKey(user string) string   { return "axis:audit:" + user }

// Load reads the user's collection value.
func (s *RedisStore) Load(ctx context.Context, user string) ([]domain.Ticket, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, ticketsKey(user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Ticket{}, nil
		}
		return nil, err
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return tickets, nil
}

// Save overwrites the user's collection value.
func (s *RedisStore) Save(ctx context.Context, user string, tickets []domain.Ticket) error {
	if err := validUser(user); err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	return s.client.Set(ctx, ticketsKey(user), raw, 0).Err()
}

// AppendAudit pushes one formatted entry onto the user's audit list.
func (s *RedisStore) AppendAudit(ctx context.Context, user, action, detail string) error {
	if err := validUser(user); err != nil {
		return err
	}
	return s.client.RPush(ctx, auditKey(user), auditLine(action, detail)).Err()
}

// ReadAudit returns up to limit most recent entries in chronological order.
func (s *RedisStore) ReadAudit(ctx context.Context, user string, limit int) ([]string, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.client.LRange(ctx, auditKey(user), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() {
	if s != nil && s.client != nil {
		_ = s.client.Close()
	}
}
