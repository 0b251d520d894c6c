package app

import (
	"context"
	"time"

	"github.com/fiffu/farewatch/config"
	"github.com/fiffu/farewatch/lib/watcher"
	"github.com/fiffu/farewatch/senders"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Sugar().Warnw("redis not reachable yet", "addr", cfg.RedisAddr(), "err", err)
			} else {
				log.Info("Redis connected")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})

	return rdb
}

// redisKV adapts the redis client to the narrow get/set/expire surface the
// price-floor cache and the name-resolution cache consume.
type redisKV struct {
	rdb *redis.Client
}

func NewKV(rdb *redis.Client) watcher.KV {
	return &redisKV{rdb}
}

func NewNameSource(rdb *redis.Client) senders.NameSource {
	return &redisKV{rdb}
}

func (kv *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := kv.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (kv *redisKV) Set(ctx context.Context, key, value string) error {
	return kv.rdb.Set(ctx, key, value, 0).Err()
}

func (kv *redisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return kv.rdb.Expire(ctx, key, ttl).Err()
}
