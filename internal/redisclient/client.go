package redisclient

import (
	"context"
	"encoding/json"
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

// CacheLastCalled stores the last-called ticket for an area so display
// boards can read it without touching the database.
func (c *Client) CacheLastCalled(ctx context.Context, areaID, number, stationID int64) error {
	key := fmt.Sprintf("queue:%d:last", areaID)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "number", number)
	pipe.HSet(ctx, key, "station_id", stationID)
	pipe.HSet(ctx, key, "called_at", time.Now().Unix())

	_, err := pipe.Exec(ctx)
	return err
}

// ClearLastCalled drops the cached last-called ticket after a queue reset.
func (c *Client) ClearLastCalled(ctx context.Context, areaID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("queue:%d:last", areaID)).Err()
}

// PublishAreaEvent relays an event payload to the area's pub/sub channel
// for connected displays.
func (c *Client) PublishAreaEvent(ctx context.Context, areaID int64, payload []byte) error {
	return c.rdb.Publish(ctx, fmt.Sprintf("area:%d:events", areaID), payload).Err()
}

// SetImportKey claims an external pre-order reference with a TTL.
// Returns false when another import already claimed it.
func (c *Client) SetImportKey(ctx context.Context, ref string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("import:%s", ref), "1", ttl).Result()
}

// ReleaseImportKey drops the import claim, e.g. when persisting the
// imported order failed and the platform may resend it.
func (c *Client) ReleaseImportKey(ctx context.Context, ref string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("import:%s", ref)).Err()
}

// CacheOrderStatus stores the latest order status snapshot for quick
// status polling by pickup displays.
func (c *Client) CacheOrderStatus(ctx context.Context, orderID int64, status string, displayNumber string) error {
	key := fmt.Sprintf("order:%d:status", orderID)
	body, err := json.Marshal(map[string]string{
		"status":         status,
		"display_number": displayNumber,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, body, 24*time.Hour).Err()
}
