package domain

import "time"

// UserRegisteredEvent is published after a signup persists a new account.
type UserRegisteredEvent struct {
	EventID          string         `json:"event_id"`
	UserID           string         `json:"user_id"`
	Username         string         `json:"username"`
	RegisteredAt     time.Time      `json:"registered_at"`
	NeedsActivation  bool           `json:"needs_activation"`
	ActivationSentTo string         `json:"activation_sent_to,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// AccountActivatedEvent is published when an activation token is consumed.
type AccountActivatedEvent struct {
	EventID     string         `json:"event_id"`
	UserID      string         `json:"user_id"`
	Username    string         `json:"username"`
	ActivatedAt time.Time      `json:"activated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PasswordResetRequestedEvent is published when a reset link is issued.
type PasswordResetRequestedEvent struct {
	EventID           string         `json:"event_id"`
	UserID            string         `json:"user_id"`
	RequestID         string         `json:"request_id"`
	RequestedAt       time.Time      `json:"requested_at"`
	MaskedDestination string         `json:"masked_destination"`
	ExpiresAt         time.Time      `json:"expires_at"`
	IPAddress         *string        `json:"ip_address,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// PasswordChangedEvent is published after a reset token updates a credential.
type PasswordChangedEvent struct {
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	ChangedAt time.Time      `json:"changed_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ContactMessageEvent is published when the contact form is delivered.
type ContactMessageEvent struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	ReceivedAt time.Time `json:"received_at"`
}
