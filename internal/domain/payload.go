package domain

// LocationPayload is sent to units that work on a whole location.
type LocationPayload struct {
	LocationID int64   `json:"location_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// RangePayload is sent to units that fetch one date partition.
type RangePayload struct {
	LocationID int64   `json:"location_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
}

// NewLocationPayload builds the payload for a non-partitioned unit.
func NewLocationPayload(loc Location) (LocationPayload, error) {
	if err := loc.Validate(); err != nil {
		return LocationPayload{}, err
	}
	return LocationPayload{
		LocationID: loc.ID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
	}, nil
}

// NewRangePayload builds the payload for one partition of a date range.
func NewRangePayload(loc Location, iv DateInterval) (RangePayload, error) {
	if err := loc.Validate(); err != nil {
		return RangePayload{}, err
	}
	if iv.Start.After(iv.End) {
		return RangePayload{}, invalidf("interval %s is inverted", iv)
	}
	return RangePayload{
		LocationID: loc.ID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		StartDate:  iv.Start.Format(DateLayout),
		EndDate:    iv.End.Format(DateLayout),
	}, nil
}
