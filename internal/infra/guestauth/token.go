// Package guestauth mints and verifies the HS256 bearer tokens issued to
// guests after a successful authentication path, signed with the guest
// config's own key (distinct from both the admin JWT key and the
// cross-tenancy RPC shared secrets).
package guestauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"botfleet/internal/domain/guest"
)

type Issuer struct {
	secret             string
	clockSkewTolerance time.Duration
}

func NewIssuer(secret string, clockSkewTolerance time.Duration) *Issuer {
	return &Issuer{secret: secret, clockSkewTolerance: clockSkewTolerance}
}

type guestClaims struct {
	jwt.RegisteredClaims
	PhoneNumber string `json:"phone"`
	BotID       string `json:"botId"`
}

// Issue mints a bearer token bound to (phoneNumber, botId), valid for
// guest.TokenTTL.
func (i *Issuer) Issue(phoneNumber, botID string) (string, error) {
	now := time.Now()
	claims := guestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(guest.TokenTTL)),
		},
		PhoneNumber: phoneNumber,
		BotID:       botID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.secret))
}

// Verify validates a bearer token and returns its claims.
func (i *Issuer) Verify(tokenString string) (*guest.Claims, error) {
	var claims guestClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.secret), nil
	}, jwt.WithLeeway(i.clockSkewTolerance))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, guest.ErrTokenExpired
		}
		return nil, guest.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, guest.ErrTokenInvalid
	}

	return &guest.Claims{
		PhoneNumber: claims.PhoneNumber,
		BotID:       claims.BotID,
		ExpiresAt:   claims.ExpiresAt.Unix(),
	}, nil
}
