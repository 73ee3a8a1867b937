package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for the two concerns the core needs: a lock so
// overlapping sync runs are skipped, and a short-lived cache of seat
// availability for the seat-picker read path.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies connectivity
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

// AcquireLock acquires a named lock with a TTL. Returns false when the
// lock is already held.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a named lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

// CacheShowtimeSeats stores a serialized seat-availability snapshot
func (c *Client) CacheShowtimeSeats(ctx context.Context, showtimeID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, seatKey(showtimeID), payload, ttl).Err()
}

// GetCachedShowtimeSeats retrieves a cached snapshot; (nil, nil) on miss
func (c *Client) GetCachedShowtimeSeats(ctx context.Context, showtimeID string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, seatKey(showtimeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidateShowtimeSeats drops the cached snapshot after a seat move
func (c *Client) InvalidateShowtimeSeats(ctx context.Context, showtimeID string) error {
	return c.rdb.Del(ctx, seatKey(showtimeID)).Err()
}

func seatKey(showtimeID string) string {
	return fmt.Sprintf("showtime:seats:%s", showtimeID)
}
