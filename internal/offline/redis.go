package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each store in a hash keyed by URL and tracks store names
// in a set, all under a common namespace.
type RedisStorage struct {
	client    *redis.Client
	namespace string
}

// NewRedisStorage connects to addr (redis://[:password@]host:port[/db]) and
// pings it before returning.
func NewRedisStorage(ctx context.Context, addr, namespace string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if namespace == "" {
		namespace = "satsrate"
	}
	return &RedisStorage{client: client, namespace: namespace}, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func (s *RedisStorage) namesKey() string {
	return s.namespace + ":stores"
}

func (s *RedisStorage) storeKey(name string) string {
	return s.namespace + ":store:" + name
}

func (s *RedisStorage) Open(ctx context.Context, name string) error {
	return s.client.SAdd(ctx, s.namesKey(), name).Err()
}

func (s *RedisStorage) Put(ctx context.Context, name string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.namesKey(), name)
		pipe.HSet(ctx, s.storeKey(name), entry.URL, data)
		return nil
	})
	return err
}

func (s *RedisStorage) Match(ctx context.Context, name, url string) (Entry, bool, error) {
	data, err := s.client.HGet(ctx, s.storeKey(name), url).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode entry: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, s.namesKey(), name)
		pipe.Del(ctx, s.storeKey(name))
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}
