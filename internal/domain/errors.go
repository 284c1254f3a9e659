// Package domain declares the sentinel errors shared by the service and
// HTTP layers. Handlers map them to status codes with errors.Is.
package domain

import "errors"

var (
	// ErrPlanNotFound is returned when a subscribe request names an
	// unknown or inactive plan.
	ErrPlanNotFound = errors.New("subscription plan not found or inactive")

	// ErrNotFound covers unknown subscriptions, coupons and notifications.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState rejects a transition the lifecycle does not allow,
	// e.g. paying an already active subscription or canceling a pending one.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrActiveSubscriptionExists rejects a second live subscription for
	// the same user. One non-terminal subscription per user is enforced.
	ErrActiveSubscriptionExists = errors.New("user already has a live subscription")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately undistinguished to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive is returned on login before email verification.
	ErrAccountInactive = errors.New("account is not verified")

	// ErrInvalidToken rejects unknown, consumed or malformed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrAccessDenied is returned when the user's tier does not reach the
	// coupon's required tier.
	ErrAccessDenied = errors.New("subscription tier does not allow access")

	// ErrAlreadyFollowed rejects a duplicate follow of the same coupon.
	ErrAlreadyFollowed = errors.New("coupon already followed")

	// ErrInsufficientCoins rejects a stake larger than the coin balance.
	ErrInsufficientCoins = errors.New("insufficient coin balance")

	// ErrConflict surfaces a uniqueness violation on a generated
	// reference; callers may retry with a fresh reference.
	ErrConflict = errors.New("conflicting record already exists")
)
