package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresWebinarRepository implements WebinarRepository using PostgreSQL
type PostgresWebinarRepository struct {
	db DBTX
}

// NewPostgresWebinarRepository creates a new PostgreSQL webinar repository
func NewPostgresWebinarRepository(db DBTX) *PostgresWebinarRepository {
	return &PostgresWebinarRepository{db: db}
}

// Create creates a new webinar record
func (r *PostgresWebinarRepository) Create(ctx context.Context, webinar *domain.Webinar) error {
	if err := webinar.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO webinars (id, organizer_id, title, start_date, end_date, seats, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		webinar.ID,
		webinar.OrganizerID,
		webinar.Title,
		webinar.StartDate,
		webinar.EndDate,
		webinar.Seats,
	).Scan(&webinar.Version, &webinar.CreatedAt, &webinar.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrWebinarAlreadyExists
		}
		return fmt.Errorf("failed to create webinar: %w", err)
	}

	return nil
}

// FindByID retrieves a webinar by its ID
func (r *PostgresWebinarRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	query := `
		SELECT id, organizer_id, title, start_date, end_date, seats, version, created_at, updated_at
		FROM webinars
		WHERE id = $1`

	var w domain.Webinar
	err := r.db.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.OrganizerID,
		&w.Title,
		&w.StartDate,
		&w.EndDate,
		&w.Seats,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webinar: %w", err)
	}

	return &w, nil
}

// Update overwrites a webinar guarded by its version
func (r *PostgresWebinarRepository) Update(ctx context.Context, webinar *domain.Webinar) error {
	if err := webinar.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE webinars
		SET organizer_id = $3,
		    title = $4,
		    start_date = $5,
		    end_date = $6,
		    seats = $7,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

	err := r.db.QueryRow(ctx, query,
		webinar.ID,
		webinar.Version,
		webinar.OrganizerID,
		webinar.Title,
		webinar.StartDate,
		webinar.EndDate,
		webinar.Seats,
	).Scan(&webinar.Version, &webinar.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update webinar: %w", err)
	}

	// No row matched: either the webinar is gone or another writer bumped the version
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM webinars WHERE id = $1)`, webinar.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check webinar: %w", err)
	}
	if !exists {
		return domain.ErrWebinarNotFound
	}
	return domain.ErrVersionConflict
}
