package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces keys on a shared server.
const DefaultRedisPrefix = "smsledger:"

// Redis stores each key as a string value under prefix+key.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. An empty prefix selects DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &Error{Backend: "redis", Op: "open", Err: err}
	}
	return NewRedis(client, prefix), nil
}

// Get reads one value.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey("redis", "get", key); err != nil {
		return nil, err
	}
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Backend: "redis", Op: "get", Key: key, Err: err}
	}
	return v, nil
}

// SetMany writes all entries with one MSET, which Redis applies atomically.
func (r *Redis) SetMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, len(entries)*2)
	for _, key := range sortedKeys(entries) {
		if err := checkKey("redis", "set", key); err != nil {
			return err
		}
		pairs = append(pairs, r.prefix+key, string(entries[key]))
	}
	if err := r.client.MSet(ctx, pairs...).Err(); err != nil {
		return &Error{Backend: "redis", Op: "set", Err: err}
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
