package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/migrations"
)

const testDBLockID int64 = 720451904

// NewTestPool connects to TEST_DATABASE_URL and skips the test when it is unset or unreachable.
// The returned pool holds an advisory lock so packages sharing the database run one at a time.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping Postgres integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping Postgres integration test: %v", err)
	}

	t.Cleanup(pool.Close)

	lockTestDB(t, pool)

	return pool
}

// ApplyMigrations brings the schema up to date
func ApplyMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
}

// TruncateAll empties every application table
func TruncateAll(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE webinars`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// InsertWebinar writes w directly, bypassing the repository
func InsertWebinar(t *testing.T, ctx context.Context, pool *pgxpool.Pool, w *domain.Webinar) {
	t.Helper()
	_, err := pool.Exec(ctx, `
INSERT INTO webinars (id, organizer_id, title, start_date, end_date, seats)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.OrganizerID, w.Title, w.StartDate, w.EndDate, w.Seats,
	)
	if err != nil {
		t.Fatalf("insert webinar: %v", err)
	}
}

// SeatsOf reads the stored seat count of a webinar
func SeatsOf(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id string) int {
	t.Helper()
	var seats int
	if err := pool.QueryRow(ctx, `SELECT seats FROM webinars WHERE id = $1`, id).Scan(&seats); err != nil {
		t.Fatalf("select seats: %v", err)
	}
	return seats
}

func lockTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
