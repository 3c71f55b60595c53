// Package guest defines the in-memory guest authentication state machine:
// OTP challenges and the claims carried by issued guest tokens.
package guest

import "time"

// OTPTTL is how long a generated OTP remains valid.
const OTPTTL = 10 * time.Minute

// TokenTTL is how long an issued guest token remains valid.
const TokenTTL = 2 * time.Hour

// Session is one phone number's in-flight guest authentication state.
type Session struct {
	PhoneNumber  string
	OTP          string
	OTPExpiresAt time.Time
	BotID        string
	CreatedAt    time.Time
}

// IsOTPExpired reports whether the stored OTP has lapsed.
func (s *Session) IsOTPExpired(now time.Time) bool {
	return now.After(s.OTPExpiresAt)
}

// Claims is the payload encoded into an issued guest bearer token.
type Claims struct {
	PhoneNumber string `json:"phone"`
	BotID       string `json:"botId"`
	ExpiresAt   int64  `json:"exp"`
}
