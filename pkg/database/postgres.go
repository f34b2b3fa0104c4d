package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/webinar-service/pkg/retry"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// ApplicationName shows up in pg_stat_activity
	ApplicationName string
	// StatementTimeout is applied to every pooled connection when set
	StatementTimeout time.Duration

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	MaxRetries    int
	RetryInterval time.Duration

	// EnableTracing attaches an otelpgx tracer so each query becomes a span
	EnableTracing bool
}

// URL returns the connection string in postgres:// form
func (c *PostgresConfig) URL() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PostgresDB owns the webinar store's connection pool
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool and waits until the server answers a ping
func NewPostgres(ctx context.Context, cfg *PostgresConfig) (*PostgresDB, error) {
	poolConfig, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	var pool *pgxpool.Pool
	result := retry.Do(ctx, &retry.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: interval,
		MaxInterval:     8 * interval,
		JitterFactor:    0.1,
	}, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if result.Err != nil {
		return nil, fmt.Errorf("postgres %s:%d unreachable after %d attempts: %w",
			cfg.Host, cfg.Port, result.Attempts, result.Err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (c *PostgresConfig) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.URL())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	if c.MaxConns > 0 {
		poolConfig.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		poolConfig.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = c.ConnectTimeout
	}
	if c.EnableTracing {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithTrimSQLInSpanName())
	}
	if c.StatementTimeout > 0 {
		timeout := strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10)
		poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET statement_timeout = "+timeout)
			return err
		}
	}
	return poolConfig, nil
}

// Pool returns the underlying pgxpool.Pool
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes all connections in the pool
func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck pings the server with a short deadline
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (db *PostgresDB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}
