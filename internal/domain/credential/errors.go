package credential

import "errors"

var (
	ErrCredentialMalformed   = errors.New("credential blob is not valid JSON")
	ErrCredentialEmpty       = errors.New("credential object is empty")
	ErrCredentialTooSmall    = errors.New("credential blob smaller than minimum size")
	ErrCredentialTooLarge    = errors.New("credential blob exceeds maximum decoded size")
	ErrMissingCredsObject    = errors.New("credential blob missing top-level creds object")
	ErrMissingRequiredField  = errors.New("credential blob missing a required creds field")
	ErrPhoneNotFound         = errors.New("could not extract phone number from credentials")
	ErrPhoneMismatch         = errors.New("credentials phone number mismatch")
	ErrPhoneAlreadyElsewhere = errors.New("phone number already registered to another tenancy")
)
