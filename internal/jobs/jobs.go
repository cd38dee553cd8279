// Package jobs runs scrape batches in the background, one at a time.
//
// A Manager moves through Idle -> Running -> {Completed, Failed} -> Idle.
// The terminal state is recorded on the finished Job and the Manager is
// Idle again as soon as the runner returns, whatever way it returns.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopify-catalog/internal/types"
)

// ErrBatchRunning is returned by Start while another batch is running.
var ErrBatchRunning = errors.New("a scrape batch is already running")

// State is a batch lifecycle state
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Request starts a batch
type Request struct {
	UserEmail string
	StoreIDs  []string
}

// Job is one batch run
type Job struct {
	ID         string                  `json:"id"`
	UserEmail  string                  `json:"user_email"`
	StoreIDs   []string                `json:"scraper_ids"`
	State      State                   `json:"state"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
	Result     *types.ExtractionResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Status is a point-in-time view of the Manager
type Status struct {
	State   State `json:"state"`
	Current *Job  `json:"current,omitempty"`
	Last    *Job  `json:"last,omitempty"`
}

// Runner executes one batch
type Runner func(ctx context.Context, storeIDs []string) (*types.ExtractionResult, error)

// Notifier is told about every finished batch
type Notifier interface {
	SendReport(ctx context.Context, to string, job Job) error
}

// Manager owns the batch state
type Manager struct {
	runner   Runner
	notifier Notifier
	logger   types.Logger
	ctx      context.Context

	mu      sync.Mutex
	current *Job
	last    *Job
	wg      sync.WaitGroup
}

// NewManager creates a Manager. Batches run under ctx; cancelling it
// cancels the running batch. notifier may be nil.
func NewManager(ctx context.Context, runner Runner, notifier Notifier, logger types.Logger) *Manager {
	return &Manager{
		runner:   runner,
		notifier: notifier,
		logger:   logger,
		ctx:      ctx,
	}
}

// Start launches a batch in the background. It never queues: while a batch
// is running it returns ErrBatchRunning.
func (m *Manager) Start(req Request) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return Job{}, ErrBatchRunning
	}

	job := &Job{
		ID:        uuid.NewString(),
		UserEmail: req.UserEmail,
		StoreIDs:  append([]string(nil), req.StoreIDs...),
		State:     StateRunning,
		StartedAt: time.Now().UTC(),
	}
	m.current = job
	m.wg.Add(1)
	go m.run(job)

	m.logger.Infof("Started batch %s for %d scrapers", job.ID, len(job.StoreIDs))
	return job.snapshot(), nil
}

func (m *Manager) run(job *Job) {
	defer m.wg.Done()

	result, err := m.execute(job)

	m.mu.Lock()
	now := time.Now().UTC()
	job.FinishedAt = &now
	job.Result = result
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
	} else {
		job.State = StateCompleted
	}
	m.last = job
	m.current = nil
	finished := job.snapshot()
	m.mu.Unlock()

	m.logger.Infof("Batch %s finished: %s", finished.ID, finished.State)
	if m.notifier != nil && finished.UserEmail != "" {
		if err := m.notifier.SendReport(m.ctx, finished.UserEmail, finished); err != nil {
			m.logger.Warnf("Failed to send report for batch %s: %v", finished.ID, err)
		}
	}
}

// execute turns a runner panic into a failed batch.
func (m *Manager) execute(job *Job) (result *types.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("Batch %s panicked: %v", job.ID, r)
			err = fmt.Errorf("batch panicked: %v", r)
		}
	}()
	return m.runner(m.ctx, job.StoreIDs)
}

// Status returns a snapshot of the current and last batch
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{State: StateIdle}
	if m.current != nil {
		s.State = StateRunning
		c := m.current.snapshot()
		s.Current = &c
	}
	if m.last != nil {
		l := m.last.snapshot()
		s.Last = &l
	}
	return s
}

// Wait blocks until the running batch, if any, has finished and its
// report has been sent.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (j *Job) snapshot() Job {
	out := *j
	out.StoreIDs = append([]string(nil), j.StoreIDs...)
	return out
}
