package ingest

import (
	"errors"
	"fmt"
)

// ErrCommit means the final commit failed and nothing from the run was
// stored.
var ErrCommit = errors.New("ingest: commit failed")

// Outcome is what happened to one row.
type Outcome int

const (
	Inserted Outcome = iota
	Duplicate
	Empty
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Kind qualifies a failure, or a partial one on an inserted row.
type Kind int

const (
	KindNone Kind = iota
	KindMissingName
	KindStorage
	KindCategory // row inserted, one or more category links failed
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return ""
	case KindMissingName:
		return "missing_name"
	case KindStorage:
		return "storage"
	case KindCategory:
		return "category"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// RowResult records the outcome of one data row.
type RowResult struct {
	Line    int
	Name    string
	Outcome Outcome
	Kind    Kind
	Err     error
}

// Report summarises a run.  Counters always add up:
// Total == Inserted + Duplicates + Empty + Failed.
type Report struct {
	Total          int
	Inserted       int
	Duplicates     int
	Empty          int
	Failed         int
	CategoryErrors int
	Rows           []RowResult
	Committed      bool
	DryRun         bool
}

func (r *Report) add(res RowResult) {
	r.Total++
	switch res.Outcome {
	case Inserted:
		r.Inserted++
	case Duplicate:
		r.Duplicates++
	case Empty:
		r.Empty++
	case Failed:
		r.Failed++
	}
	r.Rows = append(r.Rows, res)
}

// String renders the one-line summary printed at the end of an import.
func (r *Report) String() string {
	state := "committed"
	switch {
	case r.DryRun:
		state = "dry run, rolled back"
	case !r.Committed:
		state = "rolled back"
	}
	return fmt.Sprintf("%d rows: %d inserted, %d duplicates, %d empty, %d failed, %d category errors (%s)",
		r.Total, r.Inserted, r.Duplicates, r.Empty, r.Failed, r.CategoryErrors, state)
}
