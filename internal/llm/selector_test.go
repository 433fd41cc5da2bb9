package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/nexusspace/llm-council/internal/config"
)

type stubSettings struct {
	value string
	err   error
}

func (s stubSettings) GetSetting(key string) (string, error) {
	return s.value, s.err
}

func selectorConfig() *config.Config {
	return &config.Config{
		Provider:         config.ProviderOpenRouter,
		OpenRouterAPIKey: "test-key",
		OpenRouterAPIURL: "http://example.invalid/chat",
		LocalAPIURL:      "http://localhost:11434/v1/chat/completions",
		MaxOutputTokens:  1024,
		QueryTimeout:     time.Second,
	}
}

func TestSelectorActive(t *testing.T) {
	t.Run("nil settings uses configured default", func(t *testing.T) {
		selector := NewSelector(selectorConfig(), nil)

		client, err := selector.Active()
		if err != nil {
			t.Fatalf("Active failed: %v", err)
		}
		if _, ok := client.(*OpenRouterClient); !ok {
			t.Errorf("client = %T, want *OpenRouterClient", client)
		}
	})

	t.Run("persisted provider wins", func(t *testing.T) {
		selector := NewSelector(selectorConfig(), stubSettings{value: config.ProviderLocal})

		client, err := selector.Active()
		if err != nil {
			t.Fatalf("Active failed: %v", err)
		}
		if _, ok := client.(*LocalClient); !ok {
			t.Errorf("client = %T, want *LocalClient", client)
		}
	})

	t.Run("empty persisted value falls back to default", func(t *testing.T) {
		selector := NewSelector(selectorConfig(), stubSettings{value: ""})

		client, err := selector.Active()
		if err != nil {
			t.Fatalf("Active failed: %v", err)
		}
		if _, ok := client.(*OpenRouterClient); !ok {
			t.Errorf("client = %T, want *OpenRouterClient", client)
		}
	})

	t.Run("settings lookup failure falls back to default", func(t *testing.T) {
		selector := NewSelector(selectorConfig(), stubSettings{err: errors.New("store offline")})

		client, err := selector.Active()
		if err != nil {
			t.Fatalf("Active should fall back, not fail: %v", err)
		}
		if _, ok := client.(*OpenRouterClient); !ok {
			t.Errorf("client = %T, want *OpenRouterClient", client)
		}
	})

	t.Run("unknown persisted provider falls back to default", func(t *testing.T) {
		selector := NewSelector(selectorConfig(), stubSettings{value: "mystery"})

		client, err := selector.Active()
		if err != nil {
			t.Fatalf("Active should fall back, not fail: %v", err)
		}
		if _, ok := client.(*OpenRouterClient); !ok {
			t.Errorf("client = %T, want *OpenRouterClient", client)
		}
	})
}

func TestNewClient(t *testing.T) {
	cfg := selectorConfig()

	if _, err := NewClient(config.ProviderOpenRouter, cfg); err != nil {
		t.Errorf("openrouter: unexpected error: %v", err)
	}
	if _, err := NewClient(config.ProviderLocal, cfg); err != nil {
		t.Errorf("local: unexpected error: %v", err)
	}
	if _, err := NewClient("mystery", cfg); err == nil {
		t.Error("Expected error for unknown provider, got nil")
	}
}
