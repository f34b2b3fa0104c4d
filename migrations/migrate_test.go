package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/webinar-service/internal/testutil"
	"github.com/prohmpiriya/webinar-service/migrations"
)

func TestNames_Sorted(t *testing.T) {
	names, err := migrations.Names()
	require.NoError(t, err)

	assert.Equal(t, []string{"0001_create_webinars.sql", "0002_webinars_organizer_idx.sql"}, names)
}

func TestApply_RecordsMigrations(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations, webinars`)
	require.NoError(t, err)

	applied, err := migrations.Apply(ctx, pool)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)

	applied, err = migrations.Apply(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, applied, "re-applying must be a no-op")
}
