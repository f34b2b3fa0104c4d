package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prohmpiriya/webinar-service/pkg/retry"
)

// Nil is returned by Get when the key does not exist
const Nil = redis.Nil

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Connect attempts after the first one, spaced by RetryInterval with backoff
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig returns a config for a local Redis
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          6379,
		PoolSize:      50,
		MinIdleConns:  5,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
}

// Addr returns host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		// Connect-time retries are handled by NewClient; commands fail fast
		MaxRetries: 1,
	}
}

// Client embeds go-redis, so it satisfies the Get/Set/SetNX/Del interfaces
// used by the webinar cache and the idempotency middleware.
type Client struct {
	*redis.Client
}

// NewClient connects to Redis, retrying the initial ping with backoff
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rdb := redis.NewClient(cfg.options())

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	result := retry.Do(ctx, &retry.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: interval,
		MaxInterval:     4 * interval,
	}, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if result.Err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", cfg.Addr(), result.Attempts, result.Err)
	}

	return &Client{Client: rdb}, nil
}

// HealthCheck pings Redis with a short deadline
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
