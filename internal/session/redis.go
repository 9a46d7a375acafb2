package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

// NewRedisStore constructs a Redis backed Store, failing fast when the server
// is unreachable.
func NewRedisStore(addr, password string, db int, logger *slog.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return newRedisStore(client, logger), nil
}

func newRedisStore(client *redis.Client, logger *slog.Logger) *redisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisStore{client: client, logger: logger, prefix: "taskhive:session:"}
}

func (s *redisStore) Get(ctx context.Context, id string) (Data, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, ErrNotFound
		}
		s.logger.Error("redis session store error", "op", "get", "error", err)
		return Data{}, err
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("decode session: %w", err)
	}
	return data, nil
}

func (s *redisStore) Save(ctx context.Context, id string, data Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+id, raw, ttl).Err(); err != nil {
		s.logger.Error("redis session store error", "op", "set", "error", err)
		return err
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		s.logger.Error("redis session store error", "op", "del", "error", err)
		return err
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
