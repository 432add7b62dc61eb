package types

import "time"

// User represents an account in the system.
// Accounts are created by an administrator ahead of time; a user cannot
// self-register by logging in with Google.
type User struct {
	// ID is the unique identifier of the user (32-char uuid hex).
	ID string `json:"id" db:"id"`

	// Email is the user's Google email address and the key a successful
	// login is matched against. Unique across all users.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// GoogleSubject is Google's stable subject id for the account. It is
	// nil until the user's first successful login and never overwritten
	// once set.
	GoogleSubject *string `json:"google_sub" db:"google_sub"`

	// Name is the user's display or full name.
	Name *string `json:"name" db:"name"`

	// StudentID is the school-assigned student number, if any.
	StudentID *string `json:"student_id" db:"student_id"`

	// ClassName is the user's homeroom class, if any.
	ClassName *string `json:"class_name" db:"class_name"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
