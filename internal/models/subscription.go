package models

import "time"

// SubscriptionStatus enumerates the lifecycle states of a user
// subscription. pending and active are live states; canceled and expired
// are terminal, no transition ever leaves them.
type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// UserSubscription ties a user to a plan for a bounded period.
// Reference is a system-generated unique id correlating all payment
// attempts; InvoiceToken holds the latest gateway checkout token.
type UserSubscription struct {
	ID                    int                `json:"id"`
	UserUID               string             `json:"user_uid"`
	PlanID                int                `json:"plan_id"`
	Status                SubscriptionStatus `json:"status"`
	Reference             string             `json:"reference"`
	ExternalTransactionID *string            `json:"external_transaction_id,omitempty"`
	InvoiceToken          *string            `json:"invoice_token,omitempty"`
	StartDate             time.Time          `json:"start_date"`
	EndDate               time.Time          `json:"end_date"`
	AutoRenew             bool               `json:"auto_renew"`
}

// ExpiredSubscription carries what the expiry sweep needs to notify a
// user whose subscription just lapsed.
type ExpiredSubscription struct {
	SubscriptionID int
	UserUID        string
	Email          string
	FirstName      string
	EndDate        time.Time
}

// DummySubscribe receives the subscribe request body.
type DummySubscribe struct {
	PlanID    int  `json:"plan_id" validate:"required,gt=0"`
	AutoRenew bool `json:"auto_renew"`
}
