package migrate

import (
	"time"

	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/version"
)

// Status is the outcome of one attachment.
type Status string

// Item outcomes.
const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
)

// Location tells where an attachment payload currently lives.
// It is derived from the db_datas field and never stored.
type Location string

// Payload locations.
const (
	LocationInline   Location = "inline"
	LocationExternal Location = "external"
)

// LocationOf derives the location from a record read with the db_datas field.
func LocationOf(rec remote.Record) Location {
	if rec.Present("db_datas") {
		return LocationInline
	}

	return LocationExternal
}

// ItemResult is the outcome of one attachment.
type ItemResult struct {
	ID       int64
	Position int
	Status   Status
	Err      error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Version  string
	Strategy version.Strategy
	Total    int
	Migrated int
	Failed   int
	Items    []ItemResult
	Bulk     *BulkReport
	Started  time.Time
	Finished time.Time
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)

	if item.Status == StatusOK {
		r.Migrated++
	} else {
		r.Failed++
	}
}

// FailedIDs returns the ids of the attachments that failed, in processing order.
func (r *Report) FailedIDs() []int64 {
	var ids []int64

	for _, item := range r.Items {
		if item.Status == StatusFail {
			ids = append(ids, item.ID)
		}
	}

	return ids
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}

	return r.Finished.Sub(r.Started)
}
