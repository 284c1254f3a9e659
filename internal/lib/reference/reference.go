// Package reference generates the opaque identifiers the platform hands
// out: subscription references and email verification tokens. Collision
// probability is negligible, but the store still enforces uniqueness and
// callers must surface a conflict on violation.
package reference

import (
	"strings"

	"github.com/google/uuid"
)

// NewSubscriptionRef returns a prefixed reference, e.g. SUB-0F2A....
func NewSubscriptionRef() string {
	return "SUB-" + strings.ToUpper(uuid.NewString())
}

// NewVerificationToken returns a single-use account activation token.
func NewVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
