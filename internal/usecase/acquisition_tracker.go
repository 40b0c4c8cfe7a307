package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// Acquirer runs one acquisition
type Acquirer interface {
	Acquire(ctx context.Context, request *domain.AcquisitionRequest) (domain.RetrievalResult, error)
}

// AcquisitionStatus is the lifecycle state of an acquisition run
type AcquisitionStatus string

const (
	StatusPending   AcquisitionStatus = "pending"
	StatusCompleted AcquisitionStatus = "completed"
	StatusFailed    AcquisitionStatus = "failed"
	StatusCancelled AcquisitionStatus = "cancelled"
)

// AcquisitionRun is a snapshot of one acquisition for a product entry
type AcquisitionRun struct {
	ID         string
	EntryID    string
	Request    domain.AcquisitionRequest
	Status     AcquisitionStatus
	Result     domain.RetrievalResult
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// defaultRunRetention is how long a settled run stays readable after it finishes
const defaultRunRetention = time.Hour

type trackedRun struct {
	run     AcquisitionRun
	settled chan struct{}
}

// AcquisitionTracker runs acquisitions in the background, at most one per entry.
// Cancelling a run frees the entry and discards the late result; the call to the
// completion service itself is left to finish on its own.
type AcquisitionTracker struct {
	acquirer  Acquirer
	timeout   time.Duration
	retention time.Duration

	mu   sync.Mutex
	runs map[string]*trackedRun

	log *logrus.Entry
}

// NewAcquisitionTracker creates a tracker. timeout bounds each background run; zero means none.
func NewAcquisitionTracker(acquirer Acquirer, timeout time.Duration) *AcquisitionTracker {
	return &AcquisitionTracker{
		acquirer:  acquirer,
		timeout:   timeout,
		retention: defaultRunRetention,
		runs:      make(map[string]*trackedRun),
		log:       logrus.WithField("component", "tracker"),
	}
}

// Start launches an acquisition for entryID. It fails with ErrAcquisitionInFlight
// while a previous run of the same entry is still pending.
func (t *AcquisitionTracker) Start(entryID string, request *domain.AcquisitionRequest) (AcquisitionRun, error) {
	if entryID == "" || request == nil {
		return AcquisitionRun{}, domain.ErrInvalidRequest
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.evictSettled(time.Now())

	if existing, ok := t.runs[entryID]; ok && existing.run.Status == StatusPending {
		return existing.run, fmt.Errorf("%w: %s", domain.ErrAcquisitionInFlight, entryID)
	}

	tr := &trackedRun{
		run: AcquisitionRun{
			ID:        uuid.NewString(),
			EntryID:   entryID,
			Request:   *request,
			Status:    StatusPending,
			StartedAt: time.Now(),
		},
		settled: make(chan struct{}),
	}
	t.runs[entryID] = tr

	go t.execute(tr)

	return tr.run, nil
}

// Get returns the latest run of entryID. Settled runs are forgotten once the
// retention period has passed.
func (t *AcquisitionTracker) Get(entryID string) (AcquisitionRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.runs[entryID]
	if !ok {
		return AcquisitionRun{}, fmt.Errorf("%w: %s", domain.ErrAcquisitionNotFound, entryID)
	}
	return tr.run, nil
}

// Cancel marks the pending run of entryID as cancelled. Cancelling a finished run is a no-op.
func (t *AcquisitionTracker) Cancel(entryID string) (AcquisitionRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.runs[entryID]
	if !ok {
		return AcquisitionRun{}, fmt.Errorf("%w: %s", domain.ErrAcquisitionNotFound, entryID)
	}
	if tr.run.Status == StatusPending {
		t.settle(tr, StatusCancelled, nil, nil)
		t.log.WithFields(logrus.Fields{"entry": entryID, "run": tr.run.ID}).Info("acquisition cancelled")
	}
	return tr.run, nil
}

// Wait blocks until the latest run of entryID leaves the pending state or ctx is done
func (t *AcquisitionTracker) Wait(ctx context.Context, entryID string) (AcquisitionRun, error) {
	t.mu.Lock()
	tr, ok := t.runs[entryID]
	t.mu.Unlock()
	if !ok {
		return AcquisitionRun{}, fmt.Errorf("%w: %s", domain.ErrAcquisitionNotFound, entryID)
	}

	select {
	case <-tr.settled:
	case <-ctx.Done():
		return AcquisitionRun{}, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return tr.run, nil
}

func (t *AcquisitionTracker) execute(tr *trackedRun) {
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	request := tr.run.Request
	result, err := t.acquirer.Acquire(ctx, &request)

	t.mu.Lock()
	defer t.mu.Unlock()

	fields := logrus.Fields{"entry": tr.run.EntryID, "run": tr.run.ID}
	if tr.run.Status != StatusPending {
		t.log.WithFields(fields).Debug("discarding result of cancelled acquisition")
		return
	}

	if err != nil {
		t.settle(tr, StatusFailed, nil, err)
		t.log.WithFields(fields).WithError(err).Warn("acquisition failed")
		return
	}
	t.settle(tr, StatusCompleted, result, nil)
	t.log.WithFields(fields).Info("acquisition completed")
}

// evictSettled drops runs that finished more than the retention period before now.
// Callers hold t.mu.
func (t *AcquisitionTracker) evictSettled(now time.Time) {
	for entryID, tr := range t.runs {
		if tr.run.Status != StatusPending && now.Sub(tr.run.FinishedAt) > t.retention {
			delete(t.runs, entryID)
		}
	}
}

// settle moves a pending run to a terminal state. Callers hold t.mu.
func (t *AcquisitionTracker) settle(tr *trackedRun, status AcquisitionStatus, result domain.RetrievalResult, err error) {
	tr.run.Status = status
	tr.run.Result = result
	tr.run.Err = err
	tr.run.FinishedAt = time.Now()
	close(tr.settled)
}
