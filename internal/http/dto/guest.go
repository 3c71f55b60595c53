package dto

// SessionIDProofRequest is Path A's HTTP payload.
type SessionIDProofRequest struct {
	Credentials string `json:"credentials" validate:"required"`
}

// RequestOTPRequest is Path B's first-call HTTP payload.
type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone_number"`
}

// VerifyOTPRequest is Path B's second-call HTTP payload.
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone_number"`
	OTP   string `json:"otp" validate:"required,otp_code"`
}

// RotateCredentialsRequest is Path C's HTTP payload.
type RotateCredentialsRequest struct {
	Credentials string `json:"credentials" validate:"required"`
}

// GuestTokenResponse is returned by every successful guest auth path.
type GuestTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// GuestBotView is the masked, guest-facing view of a bot: no tenancy name,
// no fine-grained counters, only what a guest needs to confirm its own
// session state.
type GuestBotView struct {
	Status             string `json:"status"`
	CredentialVerified bool   `json:"credentialVerified"`
}

// MaskForGuest strips foreign-tenancy names and full-resolution statistics
// from a BotResponse before it reaches a guest-facing endpoint, grounded on
// the teacher's dto.ErrorMapper pattern of centralizing response shaping in
// the DTO layer.
func MaskForGuest(b *BotResponse) *GuestBotView {
	return &GuestBotView{
		Status:             b.Status,
		CredentialVerified: b.CredentialVerified,
	}
}
