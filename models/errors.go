package models

import "errors"

// Validation errors are rejected before any persistence or queueing.
var (
	ErrInvalidUserID  = errors.New("invalid user id")
	ErrInvalidCredits = errors.New("credits must be non-negative")
	ErrInvalidAmount  = errors.New("invalid credit amount")
	ErrInvalidChannel = errors.New("invalid channel id")
)
