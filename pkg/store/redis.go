package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = 2 * time.Second
	redisWriteTimeout = 2 * time.Second
	redisPingTimeout  = 2 * time.Second

	redisKeyPrefix = "comico:"
)

// NewRedisClient は Redis の URL を解析し、疎通を確認したクライアントを返します。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.PoolSize = 10
	options.MinIdleConns = 2
	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	slog.Info("redis client connected", "addr", options.Addr, "pool_size", options.PoolSize)
	return client, nil
}

// RedisStore はレコードを JSON で保存し、ユーザーごとの一覧を作成日時をスコアにしたソート済みセットで管理します。
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ ComicStore = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func comicKey(id string) string          { return redisKeyPrefix + "comic:" + id }
func orderKey(id string) string          { return redisKeyPrefix + "order:" + id }
func userComicsKey(userID string) string { return redisKeyPrefix + "user:" + userID + ":comics" }
func userOrdersKey(userID string) string { return redisKeyPrefix + "user:" + userID + ":orders" }

func (s *RedisStore) CreateComic(ctx context.Context, rec *domain.ComicRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("comic id is required")
	}
	return s.create(ctx, comicKey(rec.ID), userComicsKey(rec.UserID), rec.ID, rec.CreatedAt, rec)
}

func (s *RedisStore) GetComic(ctx context.Context, id string) (*domain.ComicRecord, error) {
	var rec domain.ComicRecord
	if err := s.get(ctx, comicKey(id), &rec); err != nil {
		return nil, fmt.Errorf("comic %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) ListComics(ctx context.Context, userID string) ([]*domain.ComicRecord, error) {
	ids, err := s.client.ZRevRange(ctx, userComicsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list comics: %w", err)
	}

	out := make([]*domain.ComicRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetComic(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) UpdateComic(ctx context.Context, id string, update domain.ComicUpdate) error {
	rec, err := s.GetComic(ctx, id)
	if err != nil {
		return err
	}
	update.Apply(rec, s.now())

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode comic %s: %w", id, err)
	}
	if err := s.client.Set(ctx, comicKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to update comic %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) DeleteComic(ctx context.Context, id string) error {
	rec, err := s.GetComic(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, comicKey(id))
	pipe.ZRem(ctx, userComicsKey(rec.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to delete comic %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}
	return s.create(ctx, orderKey(order.ID), userOrdersKey(order.UserID), order.ID, order.CreatedAt, order)
}

func (s *RedisStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := s.get(ctx, orderKey(id), &order); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return &order, nil
}

func (s *RedisStore) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	ids, err := s.client.ZRevRange(ctx, userOrdersKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		order, err := s.GetOrder(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// create はレコードを保存し、ユーザーの一覧に登録します。既に存在する場合はエラーです。
func (s *RedisStore) create(ctx context.Context, key, indexKey, id string, createdAt time.Time, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	ok, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to create %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("redis: %s already exists", key)
	}

	score := float64(createdAt.UnixNano())
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{Score: score, Member: id}).Err(); err != nil {
		return fmt.Errorf("redis: failed to index %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("redis: failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
