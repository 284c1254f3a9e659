package models

import "time"

// Notification is a user-scoped message created by system events.
// The read flag is the only mutation; rows are never deleted.
type Notification struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailEvent is the message published to the emails queue and consumed
// by the notification-sender binary.
type EmailEvent struct {
	Kind      string `json:"kind"` // verification, subscription_activated, subscription_expired
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Token     string `json:"token,omitempty"`
	PlanName  string `json:"plan_name,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

const (
	EmailKindVerification = "verification"
	EmailKindActivated    = "subscription_activated"
	EmailKindExpired      = "subscription_expired"
)
