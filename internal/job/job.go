// Package job defines DirectoryJob, the scheduler's unit of work, and the
// Handler contract every category strategy satisfies (§3 "DirectoryJob",
// §4.C). It sits below both internal/handler and internal/gitrepo so
// neither needs to import the other.
package job

import (
	"context"

	"github.com/henneberg-systemdesign/devsync/internal/category"
	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/progress"
)

// DirectoryJob is the atomic unit of work the scheduler distributes: one
// source directory, the target path it mirrors to, and shared references
// to the run's options and progress sink (§3).
type DirectoryJob struct {
	Source string
	Target string
	Depth  int

	Options  *config.SyncOptions
	Progress *progress.State

	// Reclassify controls whether the registry classifies this directory
	// afresh or whether the parent handler has already pinned its category
	// (terminal categories copy children as Plain without reclassifying,
	// §4.D/§4.E).
	Reclassify bool
	// Pinned is the category to use directly when Reclassify is false.
	Pinned category.Category
}

// OutcomeKind is one of the four terminal states a handler call ends in.
type OutcomeKind int

const (
	Done OutcomeKind = iota
	Skipped
	Failed
	Aborted
)

// Outcome is what Prepare and Process each report (§4.C); Finish reports
// only an error.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

func DoneOutcome() Outcome                { return Outcome{Kind: Done} }
func SkippedOutcome(reason string) Outcome { return Outcome{Kind: Skipped, Reason: reason} }
func FailedOutcome(err error) Outcome      { return Outcome{Kind: Failed, Err: err} }
func AbortedOutcome() Outcome             { return Outcome{Kind: Aborted} }

// Handler is the uniform interface every category strategy implements
// (§4.C). Process may return child DirectoryJobs to submit back to the
// scheduler; category-terminal handlers return none.
type Handler interface {
	// Prepare creates the job's target directory (applying attribute
	// preservation if requested) or short-circuits to Skipped when the
	// category is disabled by options.
	Prepare(ctx context.Context, j *DirectoryJob) (Outcome, error)
	// Process runs the category-specific strategy and returns any child
	// jobs to schedule.
	Process(ctx context.Context, j *DirectoryJob) (Outcome, []*DirectoryJob, error)
	// Finish flushes and optionally reconciles delete_extraneous within
	// the handler's own target subtree.
	Finish(ctx context.Context, j *DirectoryJob, outcome Outcome) error
}
