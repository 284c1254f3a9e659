package models

import "time"

// TransactionStatus enumerates ledger entry states. A ledger entry is
// created pending and mutated exactly once to a terminal state.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCancelled TransactionStatus = "cancelled"
	TransactionFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status is one of the end states.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionCancelled || s == TransactionFailed
}

// DummyInitiatePayment receives the initiate-payment request body.
type DummyInitiatePayment struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	PaymentPhone  string `json:"payment_phone"`
}

// DummyConfirmPayment receives the operator confirmation request body.
// OTP, Address and Password are required by some operators only; the
// gateway layer enforces that per operator.
type DummyConfirmPayment struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	PhoneNumber   string `json:"phone_number" validate:"required"`
	PaymentToken  string `json:"payment_token" validate:"required"`
	OTP           string `json:"otp"`
	Address       string `json:"address"`
	Password      string `json:"password"`
}

// PaymentReconciliation reports how a provider verdict landed. Applied
// is false when the ledger entry was already terminal, which makes
// duplicate webhook deliveries and poll/confirm races harmless.
type PaymentReconciliation struct {
	Applied        bool
	SubscriptionID int
	UserUID        string
	Email          string
	FirstName      string
	PlanName       string
	EndDate        time.Time
}

// Transaction is one payment attempt for a subscription. Entries are
// append/update only and are never deleted; InvoiceToken is unique and
// correlates gateway callbacks and polls with the local ledger.
type Transaction struct {
	ID                    int
	SubscriptionID        int
	UserUID               string
	AmountXOF             int
	InvoiceToken          string
	ExternalTransactionID *string
	PaymentMethod         string
	PaymentPhone          string
	Status                TransactionStatus
	ProviderDetail        []byte // Raw provider response blob
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
