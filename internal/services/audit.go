package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hughigh/loginserver/internal/mq"
	"github.com/hughigh/loginserver/types"
)

// AuthEventRepository defines persistence for the append-only audit trail.
type AuthEventRepository interface {
	Insert(ctx context.Context, event types.AuthEvent) (types.AuthEvent, error)
	List(ctx context.Context, skip, limit int, eventType string) ([]types.AuthEvent, error)
	Count(ctx context.Context, eventType string) (int, error)
}

// AuditService records auth events. The database row is the record of truth;
// when a broker publisher is configured the event is mirrored there
// best-effort.
type AuditService struct {
	events    AuthEventRepository
	publisher mq.Publisher
	channel   string
	logger    *slog.Logger
}

func NewAuditService(events AuthEventRepository, publisher mq.Publisher, channel string, logger *slog.Logger) *AuditService {
	return &AuditService{
		events:    events,
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// Record appends one event. A broker publish failure is logged and swallowed;
// a database failure is returned to the caller.
func (s *AuditService) Record(ctx context.Context, event types.AuthEvent) error {
	stored, err := s.events.Insert(ctx, event)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		payload, err := json.Marshal(stored)
		if err != nil {
			return nil
		}
		attrs := map[string]string{"event_type": stored.EventType}
		if _, err := s.publisher.Publish(ctx, s.channel, payload, attrs); err != nil {
			s.logger.Warn("audit event publish failed",
				"event_type", stored.EventType,
				"error", err,
			)
		}
	}
	return nil
}

// List returns audit events newest first, with the total matching count.
func (s *AuditService) List(ctx context.Context, skip, limit int, eventType string) ([]types.AuthEvent, int, error) {
	events, err := s.events.List(ctx, skip, limit, eventType)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.events.Count(ctx, eventType)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
