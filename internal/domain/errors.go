package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrDuplicateKey    = errors.New("duplicate license key")
	ErrSecurityBlocked = errors.New("blocked by security check")
)
