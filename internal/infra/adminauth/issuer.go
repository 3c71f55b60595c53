// Package adminauth authenticates the platform operator: a single
// environment-injected bcrypt password hash and an HS256 JWT signed with a
// distinct admin signing key, kept apart from both the guest token key and
// the per-peer cross-tenancy RPC shared secrets.
package adminauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrTokenExpired       = errors.New("admin token expired")
	ErrTokenInvalid       = errors.New("admin token invalid")
)

const TokenTTL = 12 * time.Hour

// Issuer validates the admin password and mints/verifies admin bearer tokens.
type Issuer struct {
	passwordHash       string
	secret             string
	clockSkewTolerance time.Duration
}

func NewIssuer(passwordHash, secret string, clockSkewTolerance time.Duration) *Issuer {
	return &Issuer{passwordHash: passwordHash, secret: secret, clockSkewTolerance: clockSkewTolerance}
}

// Authenticate checks password against the configured hash and, on success,
// issues a bearer token.
func (i *Issuer) Authenticate(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(i.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return i.issue()
}

type adminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (i *Issuer) issue() (string, error) {
	now := time.Now()
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Role: "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.secret))
}

// Verify validates a bearer token minted by Authenticate.
func (i *Issuer) Verify(tokenString string) error {
	var claims adminClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.secret), nil
	}, jwt.WithLeeway(i.clockSkewTolerance))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid || claims.Role != "admin" {
		return ErrTokenInvalid
	}
	return nil
}

// HashPassword bcrypt-hashes a plaintext admin password for configuration.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	return string(hash), err
}
