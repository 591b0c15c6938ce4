package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Allocator hands out the next order number for a calendar day
type Allocator interface {
	Next(ctx context.Context, day time.Time) (string, error)
}

// LatestFinder returns the greatest order number starting with prefix, or ""
type LatestFinder interface {
	LatestOrderNumber(ctx context.Context, prefix string) (string, error)
}

// StoreAllocator reads the latest number of the day and adds one.
// Two concurrent callers can observe the same latest number; the UNIQUE
// index on order_number turns that into a duplicate-key error on insert.
type StoreAllocator struct {
	finder LatestFinder
}

func NewStoreAllocator(finder LatestFinder) *StoreAllocator {
	return &StoreAllocator{finder: finder}
}

func (a *StoreAllocator) Next(ctx context.Context, day time.Time) (string, error) {
	latest, err := a.finder.LatestOrderNumber(ctx, DayPrefix(day))
	if err != nil {
		return "", fmt.Errorf("failed to find latest order number: %w", err)
	}
	return NextOrderNumber(latest, day)
}

const (
	counterKeyPrefix = "freshmart:ordernum:"
	counterTTL       = 48 * time.Hour
)

// RedisAllocator keeps one atomic counter per day. The counter is seeded
// from the store the first time a day is seen so it continues an existing
// sequence. A failed insert leaves a gap.
type RedisAllocator struct {
	client *redis.Client
	seed   LatestFinder
}

func NewRedisAllocator(client *redis.Client, seed LatestFinder) *RedisAllocator {
	return &RedisAllocator{client: client, seed: seed}
}

// NewRedisClient connects to the Redis instance at url
func NewRedisClient(ctx context.Context, url string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if db != 0 {
		opt.DB = db
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func counterKey(day time.Time) string {
	return counterKeyPrefix + day.Format(orderNumberDateLayout)
}

func (a *RedisAllocator) Next(ctx context.Context, day time.Time) (string, error) {
	key := counterKey(day)

	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check order counter: %w", err)
	}
	if exists == 0 {
		if err := a.seedCounter(ctx, key, day); err != nil {
			return "", err
		}
	}

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment order counter: %w", err)
	}
	return FormatOrderNumber(day, int(seq)), nil
}

// seedCounter initialises the day counter to the latest stored sequence.
// SETNX keeps the first writer's value when several callers race here.
func (a *RedisAllocator) seedCounter(ctx context.Context, key string, day time.Time) error {
	latest, err := a.seed.LatestOrderNumber(ctx, DayPrefix(day))
	if err != nil {
		return fmt.Errorf("failed to find latest order number: %w", err)
	}

	seq := 0
	if latest != "" {
		if seq, err = ParseSequence(latest); err != nil {
			return err
		}
	}

	if err := a.client.SetNX(ctx, key, seq, counterTTL).Err(); err != nil {
		return fmt.Errorf("failed to seed order counter: %w", err)
	}
	return nil
}
