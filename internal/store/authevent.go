package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/hughigh/loginserver/types"
)

// AuthEventRepository handles persistence for the auth audit trail.
// The table is append-only: there is no update or delete.
type AuthEventRepository struct {
	db *sql.DB
}

func NewAuthEventRepository(db *sql.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Insert(ctx context.Context, event types.AuthEvent) (types.AuthEvent, error) {
	event.ID = newID()
	event.OccurredAt = time.Now()

	const query = `
		INSERT INTO auth_events (id, user_id, occurred_at, event_type, ip_address, user_agent, error_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.UserID,
		event.OccurredAt,
		event.EventType,
		event.IPAddress,
		event.UserAgent,
		event.ErrorCode,
	)
	if err != nil {
		return types.AuthEvent{}, err
	}
	return event, nil
}

// List returns events newest first. An empty eventType matches all types.
func (r *AuthEventRepository) List(ctx context.Context, skip, limit int, eventType string) ([]types.AuthEvent, error) {
	const query = `
		SELECT id, user_id, occurred_at, event_type, ip_address, user_agent, error_code
		FROM auth_events
		WHERE $3 = '' OR event_type = $3
		ORDER BY occurred_at DESC, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, skip, limit, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []types.AuthEvent{}
	for rows.Next() {
		var event types.AuthEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.OccurredAt,
			&event.EventType,
			&event.IPAddress,
			&event.UserAgent,
			&event.ErrorCode,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *AuthEventRepository) Count(ctx context.Context, eventType string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM auth_events
		WHERE $1 = '' OR event_type = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, eventType).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
