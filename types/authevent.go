package types

import "time"

// Auth event types. One event is recorded per login attempt (success or
// failure) and per logout.
const (
	EventLoginSuccess              = "LOGIN_SUCCESS"
	EventLoginFailTokenExchange    = "LOGIN_FAIL_TOKEN_EXCHANGE"
	EventLoginFailEmailNotVerified = "LOGIN_FAIL_EMAIL_NOT_VERIFIED"
	EventLoginFailNotRegistered    = "LOGIN_FAIL_NOT_REGISTERED"
	EventLoginFailOther            = "LOGIN_FAIL_OTHER"
	EventLogout                    = "LOGOUT"
)

// AuthEvent is an immutable audit record of a security-relevant action.
// Events are only ever inserted, never updated or deleted.
type AuthEvent struct {
	// ID is the unique identifier of the event (32-char uuid hex).
	ID string `json:"id" db:"id"`

	// UserID references the user the event concerns, when known. Failed
	// logins for unregistered emails carry no user id.
	UserID *string `json:"user_id" db:"user_id"`

	// OccurredAt is when the event was recorded.
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`

	// EventType is one of the Event* constants.
	EventType string `json:"event_type" db:"event_type"`

	// IPAddress is the client address the request originated from.
	IPAddress string `json:"ip_address" db:"ip_address"`

	// UserAgent is the client's User-Agent header.
	UserAgent string `json:"user_agent" db:"user_agent"`

	// ErrorCode classifies a failed attempt; nil on success and logout.
	ErrorCode *string `json:"error_code" db:"error_code"`
}
