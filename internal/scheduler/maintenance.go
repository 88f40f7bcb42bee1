// Package scheduler enqueues the catalog's periodic maintenance tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/tasks"
)

const enqueueTimeout = 10 * time.Second

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TaskEnqueuer saves a task to the queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Maintenance runs the overdue scan and the audit cleanup on cron schedules.
// The jobs only enqueue tasks; the task queue workers do the work.
type Maintenance struct {
	cfg           config.Maintenance
	retentionDays int
	enqueuer      TaskEnqueuer
	logger        *zap.Logger

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
	entries   map[string]cron.EntryID
}

// NewMaintenance creates a new scheduler instance.
func NewMaintenance(cfg config.Maintenance, retentionDays int, enqueuer TaskEnqueuer, logger *zap.Logger) *Maintenance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maintenance{
		cfg:           cfg,
		retentionDays: retentionDays,
		enqueuer:      enqueuer,
		logger:        logger.Named("scheduler"),
		cron:          cron.New(cron.WithParser(parser)),
		entries:       make(map[string]cron.EntryID),
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start registers both jobs and starts the cron loop. It is a no-op when
// maintenance is disabled or the scheduler is already running.
func (m *Maintenance) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return nil
	}
	if !m.cfg.Enabled {
		m.logger.Info("maintenance scheduler disabled")
		return nil
	}

	jobs := []struct {
		queue    string
		schedule string
		run      func()
	}{
		{tasks.OverdueScanQueue, m.cfg.OverdueSchedule, m.EnqueueOverdueScan},
		{tasks.CleanupAuditEventsQueue, m.cfg.CleanupSchedule, m.EnqueueAuditCleanup},
	}

	for _, job := range jobs {
		if err := ValidateSchedule(job.schedule); err != nil {
			m.removeEntries()
			return fmt.Errorf("invalid cron schedule %q for %s: %w", job.schedule, job.queue, err)
		}
		id, err := m.cron.AddFunc(job.schedule, job.run)
		if err != nil {
			m.removeEntries()
			return fmt.Errorf("failed to schedule %s: %w", job.queue, err)
		}
		m.entries[job.queue] = id
	}

	m.cron.Start()
	m.isRunning = true

	for queue, id := range m.entries {
		m.logger.Info("maintenance job scheduled",
			zap.String("queue", queue),
			zap.Time("next_run", m.cron.Entry(id).Next))
	}
	return nil
}

func (m *Maintenance) removeEntries() {
	for queue, id := range m.entries {
		m.cron.Remove(id)
		delete(m.entries, queue)
	}
}

// Stop waits for running jobs and stops the cron loop.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()
	m.isRunning = false

	m.logger.Info("maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is active.
func (m *Maintenance) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

// NextRun returns when the job for the given queue fires next.
func (m *Maintenance) NextRun(queue string) *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isRunning {
		return nil
	}
	id, ok := m.entries[queue]
	if !ok {
		return nil
	}
	next := m.cron.Entry(id).Next
	return &next
}

// EnqueueOverdueScan queues an overdue scan.
func (m *Maintenance) EnqueueOverdueScan() {
	m.enqueue(tasks.OverdueScanTask{})
}

// EnqueueAuditCleanup queues removal of audit events past the retention period.
func (m *Maintenance) EnqueueAuditCleanup() {
	m.enqueue(tasks.CleanupAuditEventsTask{RetentionDays: m.retentionDays})
}

func (m *Maintenance) enqueue(task backlite.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	queue := task.Config().Name
	id, err := m.enqueuer.Enqueue(ctx, task)
	if err != nil {
		m.logger.Error("failed to enqueue maintenance task", zap.String("queue", queue), zap.Error(err))
		return
	}
	m.logger.Debug("maintenance task enqueued", zap.String("queue", queue), zap.String("task_id", id))
}
