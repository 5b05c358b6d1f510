// Package schedule runs periodic maintenance jobs on cron expressions.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on standard 5-field cron specs. A job whose
// previous run is still in progress is skipped rather than run twice.
type CronScheduler struct {
	cron *cron.Cron
	log  *logrus.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
}

// NewCronScheduler creates a CronScheduler.
func NewCronScheduler(log *logrus.Logger) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		log:     log,
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}
}

// ValidateSpec reports whether spec is a valid 5-field cron expression.
func ValidateSpec(spec string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return nil
}

// AddJob schedules job on spec. Names must be unique.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := c.log.WithFields(logrus.Fields{"job": name, "spec": spec})

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("job %q already scheduled", name)
	}

	entryID, err := c.cron.AddFunc(spec, c.wrap(job, spec))
	if err != nil {
		logger.WithError(err).Error("schedule job failed")

		return fmt.Errorf("scheduling %s: %w", name, err)
	}

	c.entries[name] = entryID
	logger.Info("job scheduled")

	return nil
}

// Start begins running scheduled jobs. ctx is passed to every job run.
func (c *CronScheduler) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

// Next returns the next scheduled run of the named job.
func (c *CronScheduler) Next(name string) (time.Time, bool) {
	c.mu.Lock()
	id, ok := c.entries[name]
	c.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	return c.cron.Entry(id).Schedule.Next(time.Now()), true
}

func (c *CronScheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool

	return func() {
		logger := c.log.WithFields(logrus.Fields{"job": job.Name(), "spec": spec})

		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: still running")

			return
		}
		defer running.Store(false)

		c.mu.Lock()
		ctx := c.ctx
		c.mu.Unlock()

		start := time.Now()
		logger.Debug("job started")

		err := job.Run(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.WithError(err).WithField("duration", elapsed).Error("job finished")

			return
		}

		logger.WithField("duration", elapsed).Info("job finished")
	}
}
