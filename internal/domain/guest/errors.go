package guest

import "errors"

var (
	ErrOTPExpired          = errors.New("OTP expired")
	ErrOTPMismatch         = errors.New("OTP does not match")
	ErrNoPendingSession    = errors.New("no pending guest session for this phone number")
	ErrTokenExpired        = errors.New("guest token expired")
	ErrTokenInvalid        = errors.New("guest token invalid")
	ErrBotNotEligible      = errors.New("bot is not approved, is expired, or credentials are unverified")
	ErrConnectionTestFailed = errors.New("connection test with supplied credentials failed")
)
