package client

import "errors"

// Sentinel errors shared by every provider backend. Callers match them with
// errors.Is after any amount of wrapping.
var (
	ErrMissingCredential = errors.New("provider credential missing")
	ErrInvalidCredential = errors.New("provider credential rejected")
	ErrRateLimited       = errors.New("provider rate limited")
	ErrUpstream          = errors.New("provider server error")
	ErrEmptyResponse     = errors.New("provider returned no content")
	ErrMalformedResponse = errors.New("provider response malformed")
)
