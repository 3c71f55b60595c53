package registry

import "errors"

var (
	ErrServerNotFound            = errors.New("tenancy not found in catalog")
	ErrServerAlreadyExists       = errors.New("tenancy already exists in catalog")
	ErrActivityNotFound          = errors.New("activity not found")
	ErrCommandNotFound           = errors.New("command not found")
	ErrGlobalRegistrationExists  = errors.New("phone number already has a global registration")
	ErrGlobalRegistrationMissing = errors.New("no global registration for phone number")
	ErrNoTenancyHasCapacity      = errors.New("no tenancy in the fleet has spare capacity")
	ErrCrossTenancyWriteRejected = errors.New("cross-tenancy write rejected: missing target tenancy")
)
