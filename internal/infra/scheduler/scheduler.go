package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is one periodic task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// Scheduler runs its jobs once at start and then every interval.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	jobs     []Job
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler defaults interval to one minute. Each run is bounded by the
// interval or 30s, whichever is shorter.
func NewScheduler(interval time.Duration, logger *zerolog.Logger, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := 30 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &Scheduler{
		interval: interval,
		timeout:  timeout,
		jobs:     jobs,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start is a no-op when already started.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)
	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Int("jobs", len(s.jobs)).Msg("scheduler started")
	s.runAll()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runAll()
		}
	}
}

func (s *Scheduler) runAll() {
	for _, job := range s.jobs {
		runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
		start := time.Now()
		err := job.Run(runCtx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			continue
		}
		s.log.Debug().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("scheduled job done")
	}
}

// Stop cancels the loop and waits for it. Idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
