package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidURL        = errors.New("INVALID_URL")
	ErrInvalidEmail      = errors.New("INVALID_EMAIL")
	ErrNotFound          = errors.New("NOT_FOUND")
	ErrAlreadySubscribed = errors.New("ALREADY_SUBSCRIBED")
	ErrNoPriceFound      = errors.New("NO_PRICE_FOUND")
	ErrPriceConflict     = errors.New("PRICE_CONFLICT")
	ErrStoreUnavailable  = errors.New("STORE_UNAVAILABLE")
	ErrSendFailed        = errors.New("SEND_FAILED")
)
