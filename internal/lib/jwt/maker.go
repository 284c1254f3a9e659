package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateTokenPair signs an access and a refresh token for the user.
func (j *MakerImpl) GenerateTokenPair(userUID, email string, isStaff bool) (string, string, error) {
	const op = "jwt.GenerateTokenPair"
	access, err := j.generate(userUID, email, isStaff, TokenTypeAccess, j.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := j.generate(userUID, email, isStaff, TokenTypeRefresh, j.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return access, refresh, nil
}

func (j *MakerImpl) generate(userUID, email string, isStaff bool, tokenType string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		UserUID:   userUID,
		Email:     email,
		IsStaff:   isStaff,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken checks the signature and validity and returns the claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
