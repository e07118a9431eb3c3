package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"async-job-dispatcher/internal/models"
)

// Queue is the dispatch source the runner drains.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*models.Dispatch, error)
}

// CompletionPublisher announces finished jobs.
type CompletionPublisher interface {
	PublishCompletion(id string) error
}

// Runner is the async execution backend: it consumes dispatches, waits the
// requested delay, and emits a completion event. Jobs run concurrently; the
// admission limit upstream bounds how many can be in flight.
type Runner struct {
	queue          Queue
	publisher      CompletionPublisher
	dequeueTimeout time.Duration
	log            *logrus.Logger

	wg sync.WaitGroup
}

// New builds a runner. dequeueTimeout bounds each blocking pop so the loop
// can notice context cancellation.
func New(q Queue, pub CompletionPublisher, dequeueTimeout time.Duration, log *logrus.Logger) *Runner {
	if dequeueTimeout <= 0 {
		dequeueTimeout = 2 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		queue:          q,
		publisher:      pub,
		dequeueTimeout: dequeueTimeout,
		log:            log,
	}
}

// Run drains the queue until the context is cancelled, then waits for
// in-flight jobs to wind down.
func (r *Runner) Run(ctx context.Context) error {
	defer r.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d, err := r.queue.Dequeue(ctx, r.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.WithError(err).Error("Failed to dequeue dispatch")
			time.Sleep(r.dequeueTimeout)
			continue
		}
		if d == nil {
			continue
		}

		r.wg.Add(1)
		go func(d models.Dispatch) {
			defer r.wg.Done()
			r.runJob(ctx, d)
		}(*d)
	}
}

// runJob honors the requested delay, then publishes the completion event. A
// cancelled context abandons the job without a completion; the record stays
// ACTIVE until a later signal or operator action resolves it.
func (r *Runner) runJob(ctx context.Context, d models.Dispatch) {
	r.log.WithFields(logrus.Fields{
		"job_id": d.ID,
		"delay":  d.Delay,
	}).Info("Job started")

	delay := d.Delay
	if delay < 0 {
		delay = 0
	}
	timer := time.NewTimer(time.Duration(delay) * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := r.publisher.PublishCompletion(d.ID); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"job_id": d.ID,
		}).Error("Failed to publish completion")
		return
	}
	r.log.WithFields(logrus.Fields{
		"job_id": d.ID,
	}).Info("Published completion")
}
