package backfill

import "github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"

// Report lists every dispatch outcome of one run in issuance order.
type Report struct {
	LocationID int64              `json:"location_id"`
	Outcomes   []dispatch.Outcome `json:"outcomes"`
}

// Failed returns the outcomes whose submission was not accepted.
func (r Report) Failed() []dispatch.Outcome {
	var failed []dispatch.Outcome
	for _, o := range r.Outcomes {
		if !o.Submitted {
			failed = append(failed, o)
		}
	}
	return failed
}

// Complete reports whether every dispatch was accepted. It says nothing about
// whether the downstream units went on to succeed.
func (r Report) Complete() bool {
	return len(r.Failed()) == 0
}
