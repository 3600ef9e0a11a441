package handler

import (
	"context"

	"github.com/henneberg-systemdesign/devsync/internal/job"
)

// Build is the shared strategy for the five build-tree categories
// (Cargo/CMake/Flutter/Meson/Ninja, §4.D): skipped unless its toggle is on,
// in which case it behaves exactly like Plain.
type Build struct {
	Enabled bool
	Plain   Plain
}

func (b Build) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	if !b.Enabled {
		if err := skipAndReconcile(j); err != nil {
			return job.Outcome{}, err
		}
		return job.SkippedOutcome("build tree category disabled by options"), nil
	}
	return b.Plain.Prepare(ctx, j)
}

func (b Build) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
	return b.Plain.Process(ctx, j)
}

func (b Build) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	return b.Plain.Finish(ctx, j, outcome)
}

// skipAndReconcile implements §9's open question: when a category is
// skipped because its toggle is off, delete_extraneous still removes any
// stale target directory a previous, differently-configured run left
// behind.
func skipAndReconcile(j *job.DirectoryJob) error {
	if !j.Options.DeleteExtraneous {
		return nil
	}
	return removeIfExists(j.Target)
}
