// Package domain models the data a new-location backfill works with.
//
// # Locations
//
// A location is registered by an external flow and arrives here by value:
// an integer location_id plus a WGS-84 latitude/longitude pair. Nothing in
// this service writes to the locations table.
//
// # Calendar dates
//
// Dates are carried as time.Time values truncated to midnight UTC. The
// weather archive and forecast APIs accept plain ISO-8601 dates
// ("2006-01-02") so time-of-day and zone are never meaningful. Day
// arithmetic is done with AddDate on UTC values which avoids DST drift.
//
// # Partitioning
//
// The historic archive and the forecast API both cap how many days one
// request may cover. [Split] slices a closed range [first, last] into
// consecutive closed intervals of at most batchDays days. The final interval
// always ends exactly on last, so it may be shorter than a full batch:
//
//	Split(2011-12-01, 2011-12-10, 7)
//	  → [2011-12-01, 2011-12-07]
//	    [2011-12-08, 2011-12-10]
//
// The number of intervals is ceil((last-first+1) / batchDays).
//
// # Payloads
//
// Downstream units receive either a [LocationPayload] or a [RangePayload].
// Both are built field by field from a validated [Location] so no key can be
// shadowed by a merge.
package domain
