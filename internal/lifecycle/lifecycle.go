package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"async-job-dispatcher/internal/models"
	"async-job-dispatcher/internal/telemetry"
)

// Store is the slice of the job store the manager mutates. All state lives
// behind it; the manager caches nothing between invocations.
type Store interface {
	CreateJob(ctx context.Context, id string, submittedAt time.Time) (models.Job, error)
	CompleteJob(ctx context.Context, id string) (bool, error)
	MarkFailed(ctx context.Context, id string, reason string) error
	GetJob(ctx context.Context, id string) (models.Job, bool, error)
}

// Dispatcher hands an accepted job to the async runner.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, delay int) error
}

// Admitter decides whether a submission may proceed.
type Admitter interface {
	Admit(ctx context.Context) (bool, int, error)
}

// Manager owns the two-phase job lifecycle: submit (admit, persist ACTIVE,
// dispatch) and complete (conditional ACTIVE -> COMPLETED).
type Manager struct {
	admitter   Admitter
	store      Store
	dispatcher Dispatcher
	log        *logrus.Logger
}

// NewManager wires the manager's collaborators. dispatcher may be nil for
// completion-only services such as the event listener; Submit requires it.
func NewManager(admitter Admitter, store Store, dispatcher Dispatcher, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		admitter:   admitter,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Submit runs one admission-controlled submission. The record is persisted
// ACTIVE before dispatch is attempted, so a fast completion signal can never
// race ahead of record creation. Dispatch is fire-and-forget: success means
// the hand-off was acknowledged, not that the job ran.
func (m *Manager) Submit(ctx context.Context, delay int) (models.Job, error) {
	ok, active, err := m.admitter.Admit(ctx)
	if err != nil {
		return models.Job{}, err
	}
	telemetry.ActiveJobsGauge.Set(float64(active))
	if !ok {
		telemetry.AdmissionRejects.Inc()
		return models.Job{}, fmt.Errorf("%w: %d active", ErrLimitReached, active)
	}

	id := uuid.New().String()
	job, err := m.store.CreateJob(ctx, id, time.Now().UTC())
	if err != nil {
		return models.Job{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := m.dispatcher.Dispatch(ctx, job.ID, delay); err != nil {
		// Compensating transition: a persisted record with no running job
		// must not stay ACTIVE and hold an admission slot forever.
		if mfErr := m.store.MarkFailed(ctx, job.ID, err.Error()); mfErr != nil {
			m.log.WithError(mfErr).WithFields(logrus.Fields{
				"job_id": job.ID,
			}).Error("Failed to mark job FAILED after dispatch failure")
		}
		telemetry.DispatchFailures.Inc()
		return models.Job{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	telemetry.SubmissionsAccepted.Inc()
	m.log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"delay":  delay,
	}).Info("Job submitted")
	return job, nil
}

// CompleteResult reports what the completion transition did. Updated means a
// record actually moved to COMPLETED; Found distinguishes an idempotent
// duplicate (record exists, already terminal) from an unknown id.
type CompleteResult struct {
	Updated bool
	Found   bool
}

// Complete applies the terminal transition for jobId. Duplicate signals are
// expected (at-least-once delivery upstream) and must be a no-op, so a
// conditional update that matches zero rows is never an error.
func (m *Manager) Complete(ctx context.Context, jobID string) (CompleteResult, error) {
	if strings.TrimSpace(jobID) == "" {
		return CompleteResult{}, fmt.Errorf("%w: missing job id", ErrInvalidInput)
	}

	updated, err := m.store.CompleteJob(ctx, jobID)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if updated {
		telemetry.Completions.Inc()
		m.log.WithFields(logrus.Fields{
			"job_id": jobID,
		}).Info("Job status updated to COMPLETED")
		return CompleteResult{Updated: true, Found: true}, nil
	}

	_, found, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return CompleteResult{Updated: false, Found: found}, nil
}
