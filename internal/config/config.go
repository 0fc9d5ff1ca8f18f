// Package config persists the provider configuration and notifies watchers
// when it changes.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// Default returns a configuration with default values
func Default() types.ProviderConfig {
	return types.ProviderConfig{
		Provider:        types.ProviderOpenAI,
		ExtractionModel: "gpt-4o",
		SolutionModel:   "gpt-4o",
		DebuggingModel:  "gpt-4o",
		Language:        "python",
	}
}

// Validate checks that cfg names a known provider
func Validate(cfg types.ProviderConfig) error {
	switch cfg.Provider {
	case types.ProviderOpenAI, types.ProviderGemini:
		return nil
	}
	return fmt.Errorf("unknown provider %q", cfg.Provider)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "interview-coder", "config.json")
}

// Store owns the on-disk configuration. Reads are served from memory; every
// successful update is persisted first and then announced to watchers.
type Store struct {
	path string

	mu       sync.Mutex
	cfg      types.ProviderConfig
	watchers []func(types.ProviderConfig)
}

// NewStore loads the configuration at path, starting from defaults when no
// file exists yet. An empty path selects the standard location.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = GetConfigPath()
	}
	cfg, err := loadFromFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}
	normalize(&cfg)
	return &Store{path: path, cfg: cfg}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Snapshot returns the current configuration value.
func (s *Store) Snapshot() types.ProviderConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Watch registers fn to run after every successful update.
func (s *Store) Watch(fn func(types.ProviderConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Update validates, persists and publishes a new configuration.
func (s *Store) Update(cfg types.ProviderConfig) error {
	normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := saveToFile(s.path, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	watchers := append([]func(types.ProviderConfig){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(cfg)
	}
	return nil
}

// loadFromFile loads configuration from a JSON file
func loadFromFile(filename string) (types.ProviderConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return types.ProviderConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg types.ProviderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return types.ProviderConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// saveToFile saves configuration to a JSON file. The file carries the API key
// and stays owner-readable only.
func saveToFile(filename string, cfg types.ProviderConfig) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// normalize backfills defaults so callers always see usable values. An empty
// stored credential falls back to the provider's environment variable.
func normalize(cfg *types.ProviderConfig) {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderOpenAI
	}
	def := defaultModelFor(cfg.Provider)
	if cfg.ExtractionModel == "" {
		cfg.ExtractionModel = def
	}
	if cfg.SolutionModel == "" {
		cfg.SolutionModel = def
	}
	if cfg.DebuggingModel == "" {
		cfg.DebuggingModel = def
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv(envKeyFor(cfg.Provider)))
	}
}

func defaultModelFor(provider string) string {
	if provider == types.ProviderGemini {
		return "gemini-2.0-flash"
	}
	return "gpt-4o"
}

// envKeyFor names the environment variable consulted when the stored
// credential is empty.
func envKeyFor(provider string) string {
	if provider == types.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}
