// Package scheduler implements the bounded worker pool devsync walks the
// source tree with (§4.F): a fixed number of persistent goroutines drawing
// DirectoryJob values from a shared FIFO, terminating by quiescence
// detection rather than by closing a channel up front, since handlers push
// child jobs back onto the same queue while other workers are still
// active.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/job"
	"github.com/henneberg-systemdesign/devsync/internal/registry"
)

// Scheduler owns the job queue and the stop flag (§4.G "Shared state").
// SyncOptions and ProgressState live on each DirectoryJob instead of on the
// Scheduler itself, so Scheduler carries no domain state beyond the queue.
type Scheduler struct {
	workers int
	reg     *registry.Registry

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*job.DirectoryJob
	inFlight int

	stop int32 // atomic bool

	errMu   sync.Mutex
	rootErr error
}

// New returns a Scheduler with the given worker count (clamped to at least
// one) and classification registry.
func New(workers int, reg *registry.Registry) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{workers: workers, reg: reg}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Submit enqueues j, marking it discovered and incrementing the in-flight
// counter used for quiescence detection (§3 invariant (ii), §4.F).
func (s *Scheduler) Submit(j *job.DirectoryJob) {
	j.Progress.Discovered(j.Source)
	s.mu.Lock()
	s.queue = append(s.queue, j)
	s.inFlight++
	s.mu.Unlock()
	s.cond.Signal()
}

// Stop sets the cooperative cancellation flag (§4.F "Cancellation").
// Workers check it before starting each job and before submitting a
// finished job's children; a job already running completes. Handlers
// check only the context between files, not this flag.
func (s *Scheduler) Stop() {
	atomic.StoreInt32(&s.stop, 1)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	return atomic.LoadInt32(&s.stop) != 0
}

// RootErr returns the first Config-kind or root-path error recorded by a
// job at depth 0, if any — the only failure that aborts the whole run
// rather than being recorded per-job (§7 "Propagation policy").
func (s *Scheduler) RootErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.rootErr
}

func (s *Scheduler) recordRootErr(j *job.DirectoryJob, err error) {
	if j.Depth != 0 {
		return
	}
	s.errMu.Lock()
	if s.rootErr == nil {
		s.rootErr = err
	}
	s.errMu.Unlock()
}

// Run starts the worker pool and blocks until the queue is quiescent
// (§4.F, §3 "Quiescence"): no jobs queued and none in flight.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			s.workerLoop(ctx)
		}()
	}
	wg.Wait()
	return s.RootErr()
}

// workerLoop pops jobs until the scheduler is quiescent, then returns.
func (s *Scheduler) workerLoop(ctx context.Context) {
	for {
		j := s.pop()
		if j == nil {
			return
		}
		s.runJob(ctx, j)
	}
}

// pop blocks until a job is available or the queue is quiescent, in which
// case it returns nil and wakes every other blocked worker so they can
// observe the same quiescent state and exit.
func (s *Scheduler) pop() *job.DirectoryJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 {
		if s.inFlight == 0 {
			s.cond.Broadcast()
			return nil
		}
		s.cond.Wait()
	}
	j := s.queue[0]
	s.queue = s.queue[1:]
	return j
}

// done decrements the in-flight counter for a job that has finished
// entirely, including submission of any children. Must run after every
// return path out of runJob.
func (s *Scheduler) done() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	s.cond.Broadcast()
}

// runJob executes the classify -> prepare -> process -> finish sequence
// for one job and submits any children it produces (§4.F "Per-job
// semantics").
func (s *Scheduler) runJob(ctx context.Context, j *job.DirectoryJob) {
	defer s.done()

	if s.Stopped() || ctx.Err() != nil {
		s.recordOutcome(j, job.AbortedOutcome())
		return
	}

	cat := j.Pinned
	if j.Reclassify {
		c, err := s.reg.Classify(j.Source)
		if err != nil {
			s.recordOutcome(j, job.FailedOutcome(devsyncerr.New(devsyncerr.Classify, j.Source, err)))
			return
		}
		cat = c
	}

	h := registry.NewHandler(cat, j.Options)
	j.Progress.Started(j.Source, cat.String())

	prepOutcome, err := h.Prepare(ctx, j)
	if err != nil {
		s.recordOutcome(j, job.FailedOutcome(err))
		return
	}
	if prepOutcome.Kind != job.Done {
		s.recordOutcome(j, prepOutcome)
		return
	}

	outcome, children, err := h.Process(ctx, j)
	if err != nil {
		s.recordOutcome(j, job.FailedOutcome(err))
		return
	}

	for _, c := range children {
		if s.Stopped() || ctx.Err() != nil {
			break
		}
		s.Submit(c)
	}

	if err := h.Finish(ctx, j, outcome); err != nil {
		s.recordOutcome(j, job.FailedOutcome(err))
		return
	}

	s.recordOutcome(j, outcome)
}

// recordOutcome is the single place a job's terminal Outcome is reported
// to its ProgressState — called exactly once per job, on whichever path
// out of runJob applies.
func (s *Scheduler) recordOutcome(j *job.DirectoryJob, outcome job.Outcome) {
	switch outcome.Kind {
	case job.Done:
		j.Progress.Completed(j.Source)
	case job.Skipped:
		j.Progress.Skipped(j.Source, outcome.Reason)
	case job.Failed:
		msg := outcome.Reason
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		j.Progress.Failed(j.Source, msg)
		s.recordRootErr(j, outcome.Err)
	case job.Aborted:
		j.Progress.Aborted(j.Source)
	}
}
