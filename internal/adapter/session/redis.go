package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const keyPrefix = "session:"

const (
	fieldUserID = "user_id"
	fieldBasket = "basket"
)

// RedisStore keeps every session as a hash. The TTL is refreshed on each
// save.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis connects to the redis url and checks that the server answers.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	const op = "DialRedis"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("redis is available", "op", op, "addr", opt.Addr)
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	const op = "RedisStore.Get"

	fields, err := r.client.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(fields) == 0 {
		return Session{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s := Session{ID: id}
	if v := fields[fieldUserID]; v != "" {
		s.UserID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Session{}, fmt.Errorf("%s: invalid user id: %w", op, err)
		}
	}
	if v := fields[fieldBasket]; v != "" {
		if err := json.Unmarshal([]byte(v), &s.Basket); err != nil {
			return Session{}, fmt.Errorf("%s: invalid basket: %w", op, err)
		}
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	const op = "RedisStore.Save"

	basket, err := json.Marshal(s.Basket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := keyPrefix + s.ID
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldUserID, strconv.FormatInt(s.UserID, 10),
		fieldBasket, string(basket),
	)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	const op = "RedisStore.Delete"

	err := r.client.Del(ctx, keyPrefix+id).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
