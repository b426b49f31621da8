//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/postgres"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const schema = `
CREATE TABLE locations (
	location_id   BIGSERIAL PRIMARY KEY,
	location_name TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL
);
INSERT INTO locations (location_id, location_name, latitude, longitude) VALUES
	(23, 'Truro', 50.2632, -5.051),
	(7, 'Leeds', 53.8008, -1.5491);
`

func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("climate"),
		tcpostgres.WithUsername("climate"),
		tcpostgres.WithPassword("climate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, schema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Integration(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()

	t.Run("list ordered by id", func(t *testing.T) {
		locs, err := store.ListLocations(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Location{
			{ID: 7, Latitude: 53.8008, Longitude: -1.5491},
			{ID: 23, Latitude: 50.2632, Longitude: -5.051},
		}, locs)
	})

	t.Run("get existing", func(t *testing.T) {
		loc, err := store.GetLocation(ctx, 23)
		require.NoError(t, err)
		assert.Equal(t, domain.Location{ID: 23, Latitude: 50.2632, Longitude: -5.051}, loc)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.GetLocation(ctx, 99)
		require.ErrorIs(t, err, domain.ErrLocationNotFound)
	})

	t.Run("ready", func(t *testing.T) {
		assert.NoError(t, store.CheckReadiness(ctx))
	})
}
