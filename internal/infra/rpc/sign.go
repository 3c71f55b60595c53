package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"botfleet/internal/domain/rpc"
)

// Signer mints and verifies the HS256 JWTs that carry cross-tenancy RPC
// envelopes, one shared secret per source/target tenancy pair, looked up by
// the caller from the Server catalog.
type Signer struct {
	clockSkewTolerance time.Duration
}

func NewSigner(clockSkewTolerance time.Duration) *Signer {
	return &Signer{clockSkewTolerance: clockSkewTolerance}
}

type claimsWrapper struct {
	jwt.RegisteredClaims
	Data json.RawMessage `json:"data"`
}

// Sign produces a compact JWT carrying data as the "data" claim, issued by
// issuer for audience, valid for ttl, signed with secret.
func (s *Signer) Sign(secret, issuer, audience string, data interface{}, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal RPC payload: %w", err)
	}

	now := time.Now()
	claims := claimsWrapper{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Data: raw,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign RPC token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry against secret and decodes
// its data claim into out. The caller is responsible for matching
// issuer/audience against the expected source/target tenancies.
func (s *Signer) Verify(tokenString, secret string, out interface{}) (*rpc.Claims, error) {
	var wrapper claimsWrapper
	token, err := jwt.ParseWithClaims(tokenString, &wrapper, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithLeeway(s.clockSkewTolerance))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, rpc.ErrTokenExpired
		}
		return nil, rpc.ErrInvalidSignature
	}
	if !token.Valid {
		return nil, rpc.ErrInvalidSignature
	}

	if out != nil && len(wrapper.Data) > 0 {
		if err := json.Unmarshal(wrapper.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode RPC payload: %w", err)
		}
	}

	claims := &rpc.Claims{
		Issuer:    wrapper.Issuer,
		IssuedAt:  wrapper.IssuedAt.Unix(),
		ExpiresAt: wrapper.ExpiresAt.Unix(),
	}
	if len(wrapper.Audience) > 0 {
		claims.Audience = wrapper.Audience[0]
	}
	return claims, nil
}
