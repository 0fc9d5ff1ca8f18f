package client

import (
	"context"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// Client is the contract every provider backend implements. All three stage
// calls return the raw model text; parsing it is the caller's concern.
type Client interface {
	// Name reports the provider identifier ("openai" or "gemini").
	Name() string
	// ValidateKey performs a minimal authenticated round-trip to verify the
	// configured credential.
	ValidateKey(ctx context.Context) error
	// Extract sends the staged screenshots with the extraction instruction and
	// returns the model text, expected to be a JSON problem description.
	Extract(ctx context.Context, images []types.ImagePayload, language string) (string, error)
	// Solve sends a text-only solution prompt for an extracted problem.
	Solve(ctx context.Context, prompt string) (string, error)
	// Debug sends the debugging prompt together with the error screenshots.
	Debug(ctx context.Context, prompt string, images []types.ImagePayload) (string, error)
}
