package rpc

import "errors"

var (
	ErrUnknownSourceServer  = errors.New("source server not present in catalog")
	ErrTargetMismatch       = errors.New("X-Target-Server does not match this tenancy")
	ErrInvalidSignature     = errors.New("invalid RPC token signature")
	ErrTokenExpired         = errors.New("RPC token expired")
	ErrUnsupportedOperation = errors.New("unsupported RPC operation")
	ErrLifecycleOverDirectDB = errors.New("lifecycle commands must go through HTTP RPC, not the direct-DB plane")
)
