package oracleworker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const (
	defaultShutdownGrace   = 30 * time.Second
	defaultCleanupInterval = 24 * time.Hour
	dequeueErrorBackoff    = time.Second
)

// Consumer drives the worker loop: it holds exactly one job in flight,
// popped from the queue with at-most-once semantics. A job that fails
// or panics is logged and dropped, never requeued, so one poison
// payload cannot wedge the queue.
type Consumer struct {
	id            string
	queue         JobQueue
	router        *Router
	users         UserDirectory
	cleaner       Cleaner
	shutdownGrace time.Duration

	stopping *atomic.Bool
	done     chan struct{}
	log      *logrus.Entry
}

// NewConsumer wires the loop. cleaner may be nil when no account
// service endpoint is configured.
func NewConsumer(queue JobQueue, router *Router, users UserDirectory, cleaner Cleaner, shutdownGrace time.Duration) *Consumer {
	if shutdownGrace <= 0 {
		shutdownGrace = defaultShutdownGrace
	}
	id := uuid.NewString()
	return &Consumer{
		id:            id,
		queue:         queue,
		router:        router,
		users:         users,
		cleaner:       cleaner,
		shutdownGrace: shutdownGrace,
		stopping:      atomic.NewBool(false),
		done:          make(chan struct{}),
		log:           logrus.WithFields(logrus.Fields{"component": "consumer", "worker_id": id}),
	}
}

// Run blocks consuming jobs until ctx is cancelled or Shutdown is
// called. The stop flag is checked between jobs only: an in-flight job
// always runs to completion.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.done)
	c.log.Info("worker loop started")

	if c.cleaner != nil {
		go c.cleanupLoop(ctx)
	}

	for {
		if c.stopping.Load() {
			c.log.Info("worker loop stopping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := c.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrMalformedJob) {
				c.log.WithError(err).Warn("dropping malformed job")
				jobsFailed.WithLabelValues("unknown").Inc()
				continue
			}
			c.log.WithError(err).Error("queue dequeue failed")
			time.Sleep(dequeueErrorBackoff)
			continue
		}
		if job == nil {
			// Poll timeout, queue empty.
			continue
		}
		c.process(ctx, job)
	}
}

// process routes one job with panic isolation. Outcome accounting
// happens here so the metrics see every job exactly once.
func (c *Consumer) process(ctx context.Context, job *Job) {
	kind := string(job.Kind)
	defer func() {
		if r := recover(); r != nil {
			jobsFailed.WithLabelValues(kind).Inc()
			c.log.WithField("panic", r).Error("job processing panicked, job dropped")
		}
	}()

	start := time.Now()
	if err := c.router.Route(ctx, job); err != nil {
		jobsFailed.WithLabelValues(kind).Inc()
		c.log.WithError(err).WithField("kind", kind).Error("job failed, dropped")
		return
	}
	jobsProcessed.WithLabelValues(kind).Inc()
	c.log.WithFields(logrus.Fields{
		"kind":     kind,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("job processed")
}

// Shutdown requests a stop and waits for the in-flight job, bounded by
// the grace period and the caller's context.
func (c *Consumer) Shutdown(ctx context.Context) error {
	c.stopping.Store(true)
	timer := time.NewTimer(c.shutdownGrace)
	defer timer.Stop()
	select {
	case <-c.done:
		return nil
	case <-timer.C:
		return errors.New("shutdown grace period elapsed with job still in flight")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepDailyContent pre-generates today's calendar content for recently
// active users so their first open of the day is instant. Run once at
// startup; the regeneration guard makes repeats free.
func (c *Consumer) SweepDailyContent(ctx context.Context) {
	ids, err := c.users.RecentUserIDs(ctx)
	if err != nil {
		c.log.WithError(err).Warn("startup sweep skipped, could not list recent users")
		return
	}
	c.log.WithField("users", len(ids)).Info("startup content sweep")

	for _, id := range ids {
		if c.stopping.Load() || ctx.Err() != nil {
			return
		}
		for _, kind := range []JobKind{JobKindHoroscope, JobKindMoonPhase} {
			job := &Job{UserID: id, Kind: kind, HoroscopeRange: HoroscopeRangeDaily}
			if err := c.router.Route(ctx, job); err != nil {
				c.log.WithError(err).WithField("kind", kind).
					Warn("sweep generation failed, continuing")
			}
		}
	}
}

// cleanupLoop periodically asks the account service to purge stale
// temporary accounts.
func (c *Consumer) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.cleaner.CleanupTempAccounts(ctx); err != nil {
				c.log.WithError(err).Warn("temp account cleanup failed")
			}
		}
	}
}
