package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// RecordLowStock records a product on the low-stock board, scored by
// reminder time so the board reads newest-first.
func (c *Client) RecordLowStock(ctx context.Context, productID int64, productName string, stock int) error {
	member := fmt.Sprintf("%d:%s:%d", productID, productName, stock)
	return c.rdb.ZAdd(ctx, "lowstock:board", &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: member,
	}).Err()
}

// LowStockBoard returns the most recent low-stock entries, newest first.
func (c *Client) LowStockBoard(ctx context.Context, limit int64) ([]string, error) {
	return c.rdb.ZRevRange(ctx, "lowstock:board", 0, limit-1).Result()
}

// ClearLowStock removes a product's entries from the board once it is
// restocked.
func (c *Client) ClearLowStock(ctx context.Context, productID int64) error {
	entries, err := c.rdb.ZRange(ctx, "lowstock:board", 0, -1).Result()
	if err != nil {
		return err
	}
	prefix := fmt.Sprintf("%d:", productID)
	for _, entry := range entries {
		if len(entry) >= len(prefix) && entry[:len(prefix)] == prefix {
			if err := c.rdb.ZRem(ctx, "lowstock:board", entry).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkReminderSent sets a TTL'd dedupe key for a product reminder.
// Returns true when this is the first reminder inside the window.
func (c *Client) MarkReminderSent(ctx context.Context, productID int64, window time.Duration) (bool, error) {
	key := fmt.Sprintf("lowstock:sent:%d", productID)
	return c.rdb.SetNX(ctx, key, "1", window).Result()
}

// IncrDailyPurchases increments today's purchase counters for the
// dashboard. Best-effort: callers treat failures as non-fatal.
func (c *Client) IncrDailyPurchases(ctx context.Context, amount int64) error {
	day := time.Now().Format("20060102")

	pipe := c.rdb.Pipeline()
	pipe.Incr(ctx, fmt.Sprintf("purchases:count:%s", day))
	pipe.IncrBy(ctx, fmt.Sprintf("purchases:revenue:%s", day), amount)

	_, err := pipe.Exec(ctx)
	return err
}

// DailyPurchases returns today's purchase count and revenue.
func (c *Client) DailyPurchases(ctx context.Context) (count int64, revenue int64, err error) {
	day := time.Now().Format("20060102")

	count, err = c.rdb.Get(ctx, fmt.Sprintf("purchases:count:%s", day)).Int64()
	if err == redis.Nil {
		count, err = 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	revenue, err = c.rdb.Get(ctx, fmt.Sprintf("purchases:revenue:%s", day)).Int64()
	if err == redis.Nil {
		revenue, err = 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	return count, revenue, nil
}
