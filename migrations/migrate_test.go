package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dave999999/SmartPick1-sub000/internal/testutil"
	"github.com/dave999999/SmartPick1-sub000/migrations"
)

func TestApply_IsRepeatable(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS reservations, products, businesses, users, schema_migrations CASCADE`)
	require.NoError(t, err)

	require.NoError(t, migrations.Apply(ctx, pool))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)

	require.NoError(t, migrations.Apply(ctx, pool))

	var again int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)

	for _, table := range []string{"users", "businesses", "products", "reservations"} {
		var exists bool
		require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists))
		assert.True(t, exists, "table %s missing", table)
	}
}

func TestApply_EnforcesOneActiveReservationPerProduct(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)

	var indexDef string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT indexdef FROM pg_indexes WHERE indexname = 'reservations_one_active_per_product'`,
	).Scan(&indexDef))
	assert.Contains(t, indexDef, "UNIQUE")
	assert.Contains(t, indexDef, "reserved")
}
