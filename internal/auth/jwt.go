package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload inside every session credential.
//
// The credential is opaque to callers — the core only ever asks the
// session authority to turn it back into a user id. The uuid jti makes
// every issued credential distinct, so re-login mints a new credential
// even for the same user, and the old one can be retired.
type SessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload inside a password-reset code. Reset codes
// are signed with a separate secret so a leaked session credential can
// never be replayed as a reset code, and vice versa.
type ResetClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// NewSessionToken mints a signed session credential for userID.
func NewSessionToken(userID int64, secret string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   "tessera",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies a session credential's signature and returns
// its claims.
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{},
		func(token *jwt.Token) (any, error) {
			// Reject anything but HMAC before the signature is checked;
			// this blocks the classic algorithm-confusion attack.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}
	return claims, nil
}

// NewResetToken mints a one-shot password-reset code for userID.
func NewResetToken(userID int64, secret string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   "tessera",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// ParseResetToken verifies a reset code and returns its claims.
func ParseResetToken(tokenString, secret string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse reset token: %w", err)
	}
	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid reset claims")
	}
	return claims, nil
}
