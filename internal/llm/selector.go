package llm

import (
	"fmt"

	"github.com/nexusspace/llm-council/internal/config"
)

// SettingsReader is the slice of the settings store the selector needs. A
// store that cannot answer returns an error and the selector falls back to
// the configured default.
type SettingsReader interface {
	GetSetting(key string) (string, error)
}

// Selector resolves the active provider adapter for one orchestration run.
// The provider setting may change at runtime, so resolution happens per run
// rather than once at startup.
type Selector struct {
	cfg      *config.Config
	settings SettingsReader
}

// NewSelector builds a selector. settings may be nil, in which case the
// configured default provider is always used.
func NewSelector(cfg *config.Config, settings SettingsReader) *Selector {
	return &Selector{cfg: cfg, settings: settings}
}

// Active returns the adapter for the currently selected provider. A settings
// lookup failure or an unknown persisted value falls back silently to the
// process-wide default; the default itself was validated at startup.
func (s *Selector) Active() (Client, error) {
	provider := s.cfg.Provider

	if s.settings != nil {
		stored, err := s.settings.GetSetting(config.SettingProvider)
		switch {
		case err != nil:
			log.Warnf("settings lookup failed, using default provider %q: %v", provider, err)
		case stored != "":
			provider = stored
		}
	}

	client, err := NewClient(provider, s.cfg)
	if err != nil {
		log.Warnf("persisted provider rejected, using default %q: %v", s.cfg.Provider, err)
		return NewClient(s.cfg.Provider, s.cfg)
	}
	return client, nil
}

// NewClient constructs the adapter for a provider identifier. The provider
// set is closed; anything else is a configuration error.
func NewClient(provider string, cfg *config.Config) (Client, error) {
	switch provider {
	case config.ProviderOpenRouter:
		return NewOpenRouterClient(cfg.OpenRouterAPIURL, cfg.OpenRouterAPIKey, cfg.MaxOutputTokens, cfg.QueryTimeout), nil
	case config.ProviderLocal:
		return NewLocalClient(cfg.LocalAPIURL, cfg.QueryTimeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
}
