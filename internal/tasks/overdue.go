package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mikestefanello/backlite"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/entities"
)

// OverdueScanQueue is the backlite queue name for the overdue scan.
const OverdueScanQueue = "scan_overdue_copies"

// maxReportedCopies caps the copy ids stored in the audit metadata.
const maxReportedCopies = 50

// OverdueFinder lists loaned copies that are past their due date.
type OverdueFinder interface {
	ListOverdue(ctx context.Context, now time.Time) ([]entities.BookInstance, error)
}

// MaintenanceRecorder stores the outcome of a background job.
type MaintenanceRecorder interface {
	LogMaintenance(ctx context.Context, action, description string, metadata map[string]any, err error) error
}

// OverdueScanTask looks for loaned copies whose due date has passed.
type OverdueScanTask struct{}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        OverdueScanQueue,
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueScanner counts overdue copies and reports them.
type OverdueScanner struct {
	finder   OverdueFinder
	recorder MaintenanceRecorder
	gauge    prometheus.Gauge
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewOverdueScanner creates a scanner. recorder and gauge may be nil;
// a nil clock uses wall time.
func NewOverdueScanner(finder OverdueFinder, recorder MaintenanceRecorder, gauge prometheus.Gauge, clock clockwork.Clock, logger *zap.Logger) *OverdueScanner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueScanner{
		finder:   finder,
		recorder: recorder,
		gauge:    gauge,
		clock:    clock,
		logger:   logger,
	}
}

// Scan finds overdue copies, updates the gauge and records a maintenance event.
func (s *OverdueScanner) Scan(ctx context.Context) ([]entities.BookInstance, error) {
	now := s.clock.Now()

	overdue, err := s.finder.ListOverdue(ctx, now)
	if err != nil {
		err = fmt.Errorf("list overdue copies: %w", err)
		s.record(ctx, "Overdue scan failed", nil, err)
		return nil, err
	}

	if s.gauge != nil {
		s.gauge.Set(float64(len(overdue)))
	}

	ids := make([]uint, 0, min(len(overdue), maxReportedCopies))
	for i, bi := range overdue {
		if i == maxReportedCopies {
			break
		}
		ids = append(ids, bi.ID)
	}

	s.record(ctx, fmt.Sprintf("%d loaned copies overdue", len(overdue)), map[string]any{
		"count":      len(overdue),
		"copy_ids":   ids,
		"scanned_at": now.UTC().Format(time.RFC3339),
	}, nil)

	s.logger.Info("overdue scan finished", zap.Int("overdue", len(overdue)))
	return overdue, nil
}

func (s *OverdueScanner) record(ctx context.Context, description string, metadata map[string]any, scanErr error) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.LogMaintenance(ctx, OverdueScanQueue, description, metadata, scanErr); err != nil {
		s.logger.Warn("failed to record overdue scan", zap.Error(err))
	}
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(scanner *OverdueScanner) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, _ OverdueScanTask) error {
		if scanner == nil {
			return fmt.Errorf("overdue scanner not configured")
		}
		_, err := scanner.Scan(ctx)
		return err
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(scanner *OverdueScanner) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(scanner))
}
