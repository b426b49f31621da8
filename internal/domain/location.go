package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Location is a registered monitoring site, referenced by value.
type Location struct {
	ID        int64   `json:"location_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the identity and WGS-84 ranges.
func (l Location) Validate() error {
	if l.ID <= 0 {
		return invalidf("location_id must be positive, got %d", l.ID)
	}
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return invalidf("latitude %v out of range for location %d", l.Latitude, l.ID)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return invalidf("longitude %v out of range for location %d", l.Longitude, l.ID)
	}
	return nil
}

// rawLocation uses pointers so a missing field is distinguishable from zero.
type rawLocation struct {
	ID        *int64   `json:"location_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// DecodeLocation parses a {location_id, latitude, longitude} document.
// Missing fields and out-of-range values fail with ErrInvalidArgument.
func DecodeLocation(data []byte) (Location, error) {
	var raw rawLocation
	if err := json.Unmarshal(data, &raw); err != nil {
		return Location{}, fmt.Errorf("%w: decode location: %w", ErrInvalidArgument, err)
	}
	switch {
	case raw.ID == nil:
		return Location{}, invalidf("location_id is required")
	case raw.Latitude == nil:
		return Location{}, invalidf("latitude is required")
	case raw.Longitude == nil:
		return Location{}, invalidf("longitude is required")
	}
	loc := Location{ID: *raw.ID, Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}
