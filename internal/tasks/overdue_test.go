package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mrlokans/catalog/internal/entities"
)

type stubFinder struct {
	copies []entities.BookInstance
	err    error
	gotNow time.Time
}

func (f *stubFinder) ListOverdue(_ context.Context, now time.Time) ([]entities.BookInstance, error) {
	f.gotNow = now
	return f.copies, f.err
}

type maintenanceCall struct {
	action      string
	description string
	metadata    map[string]any
	err         error
}

type stubRecorder struct {
	calls []maintenanceCall
}

func (r *stubRecorder) LogMaintenance(_ context.Context, action, description string, metadata map[string]any, err error) error {
	r.calls = append(r.calls, maintenanceCall{action, description, metadata, err})
	return nil
}

func newGauge() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_overdue_copies"})
}

func TestOverdueScanner_Scan(t *testing.T) {
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	finder := &stubFinder{copies: []entities.BookInstance{{ID: 3}, {ID: 8}}}
	recorder := &stubRecorder{}
	gauge := newGauge()

	scanner := NewOverdueScanner(finder, recorder, gauge, clock, zaptest.NewLogger(t))
	overdue, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.Len(t, overdue, 2)
	assert.True(t, finder.gotNow.Equal(now))
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	require.Len(t, recorder.calls, 1)
	call := recorder.calls[0]
	assert.Equal(t, OverdueScanQueue, call.action)
	assert.Equal(t, "2 loaned copies overdue", call.description)
	assert.Equal(t, []uint{3, 8}, call.metadata["copy_ids"])
	assert.NoError(t, call.err)
}

func TestOverdueScanner_ScanCapsReportedIDs(t *testing.T) {
	copies := make([]entities.BookInstance, maxReportedCopies+10)
	for i := range copies {
		copies[i].ID = uint(i + 1)
	}
	recorder := &stubRecorder{}

	scanner := NewOverdueScanner(&stubFinder{copies: copies}, recorder, nil, clockwork.NewFakeClock(), nil)
	_, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, recorder.calls, 1)
	assert.Len(t, recorder.calls[0].metadata["copy_ids"], maxReportedCopies)
	assert.Equal(t, len(copies), recorder.calls[0].metadata["count"])
}

func TestOverdueScanner_ScanFailure(t *testing.T) {
	finder := &stubFinder{err: errors.New("disk gone")}
	recorder := &stubRecorder{}
	gauge := newGauge()
	gauge.Set(5)

	scanner := NewOverdueScanner(finder, recorder, gauge, clockwork.NewFakeClock(), zaptest.NewLogger(t))
	_, err := scanner.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")

	assert.Equal(t, 5.0, testutil.ToFloat64(gauge), "gauge keeps the last good value")
	require.Len(t, recorder.calls, 1)
	assert.Error(t, recorder.calls[0].err)
}

func TestOverdueScanProcessor_NilScanner(t *testing.T) {
	err := OverdueScanProcessor(nil)(context.Background(), OverdueScanTask{})
	assert.Error(t, err)
}

type stubCleaner struct {
	retention time.Duration
}

func (c *stubCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	c.retention = retention
	return 4, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &stubCleaner{}
	process := CleanupAuditEventsProcessor(cleaner, zaptest.NewLogger(t))

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, 30*24*time.Hour, cleaner.retention, "zero retention falls back to 30 days")

	assert.Error(t, CleanupAuditEventsProcessor(nil, nil)(context.Background(), CleanupAuditEventsTask{}))
}
