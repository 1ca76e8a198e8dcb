package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
)

// SchedulerOptions wires the scheduler's collaborators and knobs.
type SchedulerOptions struct {
	Jobs          domain.JobRepository
	Sessions      domain.SessionRepository
	Processor     *Processor
	Logger        infra.Logger
	PollInterval  time.Duration
	MaxConcurrent int
	JobTimeout    time.Duration
}

// Scheduler polls the job store on a fixed interval and dispatches jobs to
// the processor without exceeding the configured concurrency ceiling. New
// pending jobs are taken FIFO; retry-eligible failures are taken oldest
// first. Both intakes share one budget but evolve independently.
//
// All scheduler state lives on the struct: independent instances can run in
// tests without cross-talk, and the host owns the lifecycle explicitly
// through Start and Stop.
type Scheduler struct {
	jobs       domain.JobRepository
	sessions   domain.SessionRepository
	processor  *Processor
	logger     infra.Logger
	interval   time.Duration
	maxActive  int
	jobTimeout time.Duration

	mu      sync.Mutex
	active  int
	running bool
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxActive := opts.MaxConcurrent
	if maxActive < 1 {
		maxActive = 1
	}
	return &Scheduler{
		jobs:       opts.Jobs,
		sessions:   opts.Sessions,
		processor:  opts.Processor,
		logger:     opts.Logger,
		interval:   interval,
		maxActive:  maxActive,
		jobTimeout: opts.JobTimeout,
	}
}

// Start begins the poll loop. Calling Start while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(runCtx)
	s.logger.Info().
		Dur("poll_interval", s.interval).
		Int("max_concurrent", s.maxActive).
		Msg("scheduler: started")
}

// Stop halts polling, releases the timer and waits for in-flight jobs.
// Calling Stop while stopped is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler: stopped")
}

// ActiveJobs reports how many concurrency slots are currently held.
func (s *Scheduler) ActiveJobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling round. It never blocks on the jobs it
// dispatches and never lets a claim failure crash the loop. Exported so
// tests and the host can drive rounds without the timer.
func (s *Scheduler) Tick(ctx context.Context) {
	s.reclaim(ctx)

	// New-job intake, FIFO while slots are scarce.
	for s.slots() > 0 {
		job, err := s.jobs.ClaimNextPending(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error().Err(err).Msg("scheduler: claim pending failed")
			}
			break
		}
		s.dispatch(ctx, job)
	}

	// Retry intake with whatever budget remains after new jobs.
	if limit := s.slots(); limit > 0 {
		retries, err := s.jobs.ClaimRetryEligible(ctx, limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("scheduler: claim retries failed")
			return
		}
		for _, job := range retries {
			s.dispatch(ctx, job)
		}
	}
}

// reclaim fails running jobs abandoned past the timeout window and expires
// stale watch sessions. Housekeeping only, errors are logged and dropped.
func (s *Scheduler) reclaim(ctx context.Context) {
	if s.jobTimeout > 0 {
		if n, err := s.jobs.MarkStaleRunning(ctx, s.jobTimeout); err != nil {
			s.logger.Error().Err(err).Msg("scheduler: stale reclaim failed")
		} else if n > 0 {
			s.logger.Warn().Int64("jobs", n).Msg("scheduler: reclaimed stale running jobs")
		}
	}
	if s.sessions != nil {
		if _, err := s.sessions.ExpireStale(ctx, time.Now()); err != nil {
			s.logger.Error().Err(err).Msg("scheduler: session expiry failed")
		}
	}
}

func (s *Scheduler) slots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive - s.active
}

// dispatch reserves a slot synchronously, then runs the processor in its
// own goroutine. The slot is released in a deferred block so a panic or
// store failure mid-processing cannot leak it.
func (s *Scheduler) dispatch(ctx context.Context, job *domain.Job) {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
			s.wg.Done()
		}()
		if err := s.processor.Process(ctx, job); err != nil {
			// Store write failures surface here; the job's true status may
			// lag its record until the stale reclaim catches it.
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("scheduler: job processing failed")
		}
	}()
}
