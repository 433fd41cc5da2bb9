package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", ProviderOpenRouter)
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("COUNCIL_CONFIG_FILE", "")
	t.Setenv("COUNCIL_MODELS", "")
	t.Setenv("CHAIRMAN_MODEL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("COUNCIL_RUN_STAGE2", "")
	t.Setenv("API_TIMEOUT_SECONDS", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderOpenRouter {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderOpenRouter)
	}
	if len(cfg.CouncilModels) == 0 {
		t.Error("Default council should not be empty")
	}
	if cfg.ChairmanModel == "" {
		t.Error("Default chairman should not be empty")
	}
	if cfg.RunStage2 {
		t.Error("Stage 2 should default to off")
	}
	if cfg.StorageBackend != StorageFilesystem {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageFilesystem)
	}
	if cfg.QueryTimeout != 120*time.Second {
		t.Errorf("QueryTimeout = %s, want 120s", cfg.QueryTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COUNCIL_MODELS", " model/a , model/b ,")
	t.Setenv("CHAIRMAN_MODEL", "model/chair")
	t.Setenv("COUNCIL_RUN_STAGE2", "true")
	t.Setenv("API_TIMEOUT_SECONDS", "30")
	t.Setenv("STORAGE_BACKEND", StorageSQLite)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.CouncilModels) != 2 || cfg.CouncilModels[0] != "model/a" || cfg.CouncilModels[1] != "model/b" {
		t.Errorf("CouncilModels = %v, want [model/a model/b]", cfg.CouncilModels)
	}
	if cfg.ChairmanModel != "model/chair" {
		t.Errorf("ChairmanModel = %q, want model/chair", cfg.ChairmanModel)
	}
	if !cfg.RunStage2 {
		t.Error("RunStage2 should be true")
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("QueryTimeout = %s, want 30s", cfg.QueryTimeout)
	}
	if cfg.StorageBackend != StorageSQLite {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageSQLite)
	}
}

func TestLoadYAMLRoster(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COUNCIL_MODELS", "env/a,env/b")

	roster := filepath.Join(t.TempDir(), "roster.yaml")
	contents := "council_models:\n  - yaml/a\n  - yaml/b\n  - yaml/c\nchairman_model: yaml/chair\n"
	if err := os.WriteFile(roster, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("COUNCIL_CONFIG_FILE", roster)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.CouncilModels) != 3 || cfg.CouncilModels[0] != "yaml/a" {
		t.Errorf("CouncilModels = %v, roster should override the environment", cfg.CouncilModels)
	}
	if cfg.ChairmanModel != "yaml/chair" {
		t.Errorf("ChairmanModel = %q, want yaml/chair", cfg.ChairmanModel)
	}
}

func TestLoadMissingRosterFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COUNCIL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for a missing roster file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Provider:          ProviderLocal,
			CouncilModels:     []string{"model/a"},
			ChairmanModel:     "model/chair",
			QueryTimeout:      time.Second,
			TitleTimeout:      time.Second,
			StorageBackend:    StorageFilesystem,
			MaxFilesToRead:    10,
			MaxCodebaseSizeMB: 1,
		}
	}

	t.Run("valid local config", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("Validate failed: %v", err)
		}
	})

	t.Run("openrouter requires api key", func(t *testing.T) {
		cfg := base()
		cfg.Provider = ProviderOpenRouter
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for missing API key")
		}
		cfg.OpenRouterAPIKey = "key"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate failed with key set: %v", err)
		}
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "mystery"
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for unknown provider")
		}
	})

	t.Run("unknown storage backend rejected", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "s3"
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for unknown storage backend")
		}
	})

	t.Run("empty council rejected", func(t *testing.T) {
		cfg := base()
		cfg.CouncilModels = nil
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for empty council")
		}
	})

	t.Run("empty chairman rejected", func(t *testing.T) {
		cfg := base()
		cfg.ChairmanModel = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for empty chairman")
		}
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Run("envBool", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "TRUE")
		if !envBool("TEST_BOOL", false) {
			t.Error("TRUE should parse as true")
		}
		t.Setenv("TEST_BOOL", "1")
		if !envBool("TEST_BOOL", false) {
			t.Error("1 should parse as true")
		}
		t.Setenv("TEST_BOOL", "no")
		if envBool("TEST_BOOL", true) {
			t.Error("no should parse as false")
		}
		t.Setenv("TEST_BOOL", "")
		if !envBool("TEST_BOOL", true) {
			t.Error("Empty value should keep the fallback")
		}
	})

	t.Run("envDuration reads seconds", func(t *testing.T) {
		t.Setenv("TEST_DUR", "1.5")
		if got := envDuration("TEST_DUR", time.Minute); got != 1500*time.Millisecond {
			t.Errorf("envDuration = %s, want 1.5s", got)
		}
		t.Setenv("TEST_DUR", "bogus")
		if got := envDuration("TEST_DUR", time.Minute); got != time.Minute {
			t.Errorf("envDuration = %s, want fallback", got)
		}
	})

	t.Run("envInt", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		if got := envInt("TEST_INT", 7); got != 42 {
			t.Errorf("envInt = %d, want 42", got)
		}
		t.Setenv("TEST_INT", "bogus")
		if got := envInt("TEST_INT", 7); got != 7 {
			t.Errorf("envInt = %d, want fallback", got)
		}
	})
}
