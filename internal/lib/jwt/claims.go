// Package jwt issues and parses the HS256 tokens used for API access.
//
// Two token kinds exist: short-lived access tokens and longer-lived
// refresh tokens. The kind is carried in a claim so a refresh token can
// never be used as a bearer credential and vice versa.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds stored in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims carries the user identity inside a token.
type CustomClaims struct {
	UserUID   string `json:"user_uid"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Maker generates and parses token pairs.
type Maker interface {
	GenerateTokenPair(userUID, email string, isStaff bool) (access, refresh string, err error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker with a shared secret and per-kind TTLs.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewMaker builds a MakerImpl.
func NewMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
