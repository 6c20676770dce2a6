// Package cache fronts the user directory with Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/metrics"
)

const (
	userKeyPrefix = "labs:user:" // labs:user:{id} -> user JSON
	usersKey      = "labs:users" // full directory listing

	// DefaultTTL bounds how long a cached entry may lag the store.
	DefaultTTL = 5 * time.Minute
)

// UserDirectory is a read-through cache over a user.Repository. Redis
// failures fall back to the source, so the cache never fails a read the
// store could serve. Not-found results are not cached.
type UserDirectory struct {
	client *redis.Client
	source user.Repository
	ttl    time.Duration
	logger *slog.Logger
}

var _ user.Repository = (*UserDirectory)(nil)

// NewUserDirectory wraps source. A non-positive ttl uses DefaultTTL.
func NewUserDirectory(client *redis.Client, source user.Repository, ttl time.Duration, logger *slog.Logger) *UserDirectory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserDirectory{client: client, source: source, ttl: ttl, logger: logger}
}

// Get returns the cached user or loads it from the source.
func (d *UserDirectory) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if d.read(ctx, "user", userKeyPrefix+id, &u) {
		return &u, nil
	}

	loaded, err := d.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.write(ctx, userKeyPrefix+id, loaded)
	return loaded, nil
}

// List returns the cached directory or loads it from the source.
func (d *UserDirectory) List(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if d.read(ctx, "users", usersKey, &users) {
		return users, nil
	}

	loaded, err := d.source.List(ctx)
	if err != nil {
		return nil, err
	}
	d.write(ctx, usersKey, loaded)
	return loaded, nil
}

// Purge drops every cached user entry.
func (d *UserDirectory) Purge(ctx context.Context) error {
	keys := []string{usersKey}
	iter := d.client.Scan(ctx, 0, userKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached users: %w", err)
	}
	if err := d.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to purge cached users: %w", err)
	}
	return nil
}

// read decodes key into dest and reports whether it was a usable hit.
func (d *UserDirectory) read(ctx context.Context, label, key string, dest any) bool {
	data, err := d.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncrementCacheLookup(label, "miss")
		return false
	}
	if err != nil {
		metrics.IncrementCacheLookup(label, "error")
		d.logger.Warn("user cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.IncrementCacheLookup(label, "error")
		d.logger.Warn("user cache entry corrupt", "key", key, "error", err)
		return false
	}
	metrics.IncrementCacheLookup(label, "hit")
	return true
}

func (d *UserDirectory) write(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		d.logger.Warn("user cache encode failed", "key", key, "error", err)
		return
	}
	if err := d.client.Set(ctx, key, data, d.ttl).Err(); err != nil {
		d.logger.Warn("user cache write failed", "key", key, "error", err)
	}
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
