package domain

import "time"

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string
	PasswordAlgo       string
	Status             UserStatus
	RegisteredAt       time.Time
	LastLogin          *time.Time
	LastPasswordChange time.Time
}

// IsActive reports whether the account may establish a session.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsPending reports whether the account still awaits activation.
func (u User) IsPending() bool {
	return u.Status == UserStatusPending
}

// Activate transitions a pending account to active.
// Returns true if the status changed.
func (u *User) Activate() bool {
	if u.Status != UserStatusPending {
		return false
	}
	u.Status = UserStatusActive
	return true
}
