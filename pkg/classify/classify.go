// Package classify maps pipeline errors onto the closed failure taxonomy
// surfaced to callers. The taxonomy is deliberately small so a UI can switch
// over it exhaustively.
package classify

import (
	"context"
	"errors"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/parser"
)

// Kind is one failure classification.
type Kind string

const (
	KindCanceled     Kind = "canceled"
	KindAuthMissing  Kind = "auth_missing"
	KindAuthInvalid  Kind = "auth_invalid"
	KindRateLimited  Kind = "rate_limited"
	KindUpstream     Kind = "server_error"
	KindMalformed    Kind = "malformed_response"
	KindPrecondition Kind = "precondition_failed"
	KindUnknown      Kind = "unknown"
)

// Classify resolves err to a Kind. Cancellation wins over anything the
// transport wrapped around it; after that the provider sentinels are checked
// from most to least specific. Transport timeouts surface as upstream
// failures, never as cancellations.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, client.ErrMissingCredential):
		return KindAuthMissing
	case errors.Is(err, client.ErrInvalidCredential):
		return KindAuthInvalid
	case errors.Is(err, client.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, client.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		return KindUpstream
	case errors.Is(err, client.ErrEmptyResponse),
		errors.Is(err, client.ErrMalformedResponse),
		errors.Is(err, parser.ErrMalformed):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// Message is the caller-facing sentence for a failure kind.
func Message(kind Kind) string {
	switch kind {
	case KindCanceled:
		return "Processing was canceled."
	case KindAuthMissing:
		return "No API key configured. Add your API key in settings."
	case KindAuthInvalid:
		return "Your API key was rejected. Please check your settings."
	case KindRateLimited:
		return "Rate limit exceeded or quota exhausted. Please wait and try again."
	case KindUpstream:
		return "The model provider had a server error. Please try again later."
	case KindMalformed:
		return "Could not make sense of the model response. Please try again."
	case KindPrecondition:
		return "Nothing to process yet."
	default:
		return "Something went wrong. Please try again."
	}
}

// Retryable reports whether retrying the same request unchanged could
// plausibly succeed.
func Retryable(kind Kind) bool {
	switch kind {
	case KindRateLimited, KindUpstream, KindUnknown:
		return true
	}
	return false
}
