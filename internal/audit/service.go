// Package audit records who changed the catalog and when.
//
// Writes from request handlers are asynchronous so a slow audit insert never
// delays a redirect. Call Wait before shutting the database down.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

const asyncWriteTimeout = 5 * time.Second

// Actor identifies who triggered an event.
type Actor struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *auditRepo.Repository
	logger  *zap.Logger
	clock   clockwork.Clock
	pending sync.WaitGroup
}

// NewService creates a new audit service. A nil clock means the wall clock.
func NewService(repo *auditRepo.Repository, logger *zap.Logger, clock clockwork.Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{repo: repo, logger: logger.Named("audit"), clock: clock}
}

func (s *Service) stamp(event *entities.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.clock.Now()
	}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	s.stamp(event)
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.stamp(event)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()

		if err := s.repo.LogEvent(ctx, event); err != nil {
			s.logger.Warn("failed to record audit event",
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}()
}

// Wait blocks until all background writes have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCreate records that a catalog record was created.
func (s *Service) LogCreate(actor Actor, entityType string, entityID uint, name string) {
	s.logChange(actor, entities.AuditEventCreate, entityType, entityID, "Created "+entityType+": "+name)
}

// LogUpdate records that a catalog record was changed.
func (s *Service) LogUpdate(actor Actor, entityType string, entityID uint, name string) {
	s.logChange(actor, entities.AuditEventUpdate, entityType, entityID, "Updated "+entityType+": "+name)
}

// LogDelete records that a catalog record was removed.
func (s *Service) LogDelete(actor Actor, entityType string, entityID uint, name string) {
	s.logChange(actor, entities.AuditEventDelete, entityType, entityID, "Deleted "+entityType+": "+name)
}

func (s *Service) logChange(actor Actor, eventType entities.AuditEventType, entityType string, entityID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   eventType,
		Action:      entityType + "_" + string(eventType),
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogAuth records a login, logout or setup attempt.
func (s *Service) LogAuth(actor Actor, action, username string, success bool) {
	event := &entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(fmt.Sprintf("%s by %s", action, username), 500),
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogMaintenance records the outcome of a background job.
func (s *Service) LogMaintenance(ctx context.Context, action, description string, metadata map[string]any, err error) error {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if len(metadata) > 0 {
		if md, mErr := json.Marshal(metadata); mErr == nil {
			event.Metadata = string(md)
		}
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	return s.Log(ctx, event)
}

// GetEvents retrieves a page of events matching the filter.
func (s *Service) GetEvents(ctx context.Context, filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(ctx, s.clock.Now().Add(-retention))
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
