package config

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// SetRedisClient installs an already connected client, e.g. one pointing at miniredis in tests.
func SetRedisClient(c *redis.Client) {
	rdb = c
	if c == nil {
		locker = nil
		return
	}
	locker = redislock.New(c)
}

func GetRedisObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetRedisObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, exp).Err()
}

func RemoveRedisKey(ctx context.Context, keys ...string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// ConnectRedisWithRetry retries until Redis answers a ping; give up after maxAttempts (0 = forever).
func ConnectRedisWithRetry(ctx context.Context, s *Settings, maxAttempts int) error {
	var attempt int
	for {
		attempt++
		c := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddress,
			Password: s.RedisPassword,
			DB:       0,
			PoolSize: 50,
		})
		err := c.Ping(ctx).Err()
		if err == nil {
			SetRedisClient(c)
			logg.WithFields(map[string]interface{}{"attempt": attempt, "addr": s.RedisAddress}).Info("connected to redis")
			return nil
		}
		_ = c.Close()
		if maxAttempts > 0 && attempt >= maxAttempts {
			return err
		}
		sleep := backoff(attempt)
		logg.WithFields(map[string]interface{}{"attempt": attempt, "addr": s.RedisAddress, "retry": sleep.String()}).
			WithError(err).Warn("failed to connect redis")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}
