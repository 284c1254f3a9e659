// Package models contains the domain structures shared between the
// business-logic and storage layers, plus the Dummy* types that receive
// JSON request bodies before validation.
package models

import "time"

// User is a registered account. Accounts are created inactive and become
// active once the verification token has been consumed; the token is
// cleared on activation and can never be replayed.
type User struct {
	UID               string     // Unique account identifier
	Email             string     // Login identity, unique
	PasswordHash      string     // bcrypt hash
	FirstName         string
	LastName          string
	IsActive          bool       // False until email verification
	IsStaff           bool       // Staff accounts manage coupons and plans
	CoinBalance       int        // Stake currency for following coupons
	VerificationToken *string    // Single-use activation token, nil once consumed
	CreatedAt         time.Time
}

// DummyRegister receives the registration request body.
type DummyRegister struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// DummyLogin receives the login request body.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyRefresh receives the token refresh request body.
type DummyRefresh struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
