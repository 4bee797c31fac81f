package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shishobooks/lending/pkg/config"
)

const sessionKeyPrefix = "refresh_token:"

// SessionStore tracks which refresh tokens are still usable. Tokens are keyed
// by their jti claim.
type SessionStore interface {
	Save(ctx context.Context, tokenID string, userID int, ttl time.Duration) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

// NewSessionStore returns a Redis-backed store when redis_addr is configured.
// Otherwise refresh tokens are only checked by signature and expiry, and
// logging out can't revoke them.
func NewSessionStore(ctx context.Context, cfg *config.Config) (SessionStore, error) {
	if !cfg.SessionsEnabled() {
		return statelessSessions{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.RedisAddr)
	}
	return NewRedisSessions(client), nil
}

type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (rs *RedisSessions) Save(ctx context.Context, tokenID string, userID int, ttl time.Duration) error {
	err := rs.client.Set(ctx, sessionKeyPrefix+tokenID, strconv.Itoa(userID), ttl).Err()
	return errors.WithStack(err)
}

func (rs *RedisSessions) Active(ctx context.Context, tokenID string) (bool, error) {
	n, err := rs.client.Exists(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}

func (rs *RedisSessions) Revoke(ctx context.Context, tokenID string) error {
	return errors.WithStack(rs.client.Del(ctx, sessionKeyPrefix+tokenID).Err())
}

func (rs *RedisSessions) Close() error {
	return errors.WithStack(rs.client.Close())
}

type statelessSessions struct{}

func (statelessSessions) Save(context.Context, string, int, time.Duration) error { return nil }
func (statelessSessions) Active(context.Context, string) (bool, error)         { return true, nil }
func (statelessSessions) Revoke(context.Context, string) error                 { return nil }
