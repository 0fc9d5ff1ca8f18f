package pipeline

import (
	"context"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/gemini"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/openai"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// newClient builds a provider client from a config snapshot. Unrecognized
// provider names fall back to the chat-completions variant, matching the
// config store's default.
func newClient(cfg types.ProviderConfig) client.Client {
	switch cfg.Provider {
	case types.ProviderGemini:
		return gemini.New(cfg)
	default:
		return openai.New(cfg)
	}
}

// ensureClient returns the cached provider client, rebuilding it from cfg
// when a configuration change has landed since the last run. The stale client
// is dropped wholesale; nothing from it is reused.
func (p *Processor) ensureClient(cfg types.ProviderConfig) client.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cli == nil || p.cliStale {
		p.cli = p.factory(cfg)
		p.cliStale = false
	}
	return p.cli
}

// invalidateClient marks the cached client stale. The next run rebuilds it
// from a fresh config snapshot.
func (p *Processor) invalidateClient() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cliStale = true
}

// ValidateKey checks the credential of the provider selected by the current
// configuration.
func (p *Processor) ValidateKey(ctx context.Context) error {
	cfg := p.config.Snapshot()
	return p.ensureClient(cfg).ValidateKey(ctx)
}
