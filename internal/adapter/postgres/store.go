// Package postgres reads registered locations from the climate monitor
// database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

const (
	listLocationsQuery = `SELECT location_id, latitude, longitude FROM locations ORDER BY location_id`
	getLocationQuery   = `SELECT location_id, latitude, longitude FROM locations WHERE location_id = $1`
)

// Store is a read-only view of the locations table.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // connection never came up
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListLocations returns every location ordered by id.
func (s *Store) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, listLocationsQuery)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}

// GetLocation returns the location with id, or domain.ErrLocationNotFound.
func (s *Store) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	var loc domain.Location
	err := s.db.QueryRowContext(ctx, getLocationQuery, id).Scan(&loc.ID, &loc.Latitude, &loc.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, fmt.Errorf("location %d: %w", id, domain.ErrLocationNotFound)
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("query location %d: %w", id, err)
	}
	return loc, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
