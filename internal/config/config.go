package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Provider identifiers. The set is closed: adding a provider is a code
// change, not a configuration change.
const (
	ProviderOpenRouter = "openrouter"
	ProviderLocal      = "local"
)

// Storage backend identifiers.
const (
	StorageFilesystem = "filesystem"
	StorageSQLite     = "sqlite"
)

// SettingProvider is the only settings-store key the council path reads.
const SettingProvider = "llm_provider"

// Config holds all process-wide configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	// Provider selection
	Provider         string
	OpenRouterAPIKey string
	OpenRouterAPIURL string
	LocalAPIURL      string

	// Model roster
	CouncilModels []string
	ChairmanModel string
	TitleModel    string

	// Feature flags
	RunStage2 bool

	// Request shaping
	MaxOutputTokens int
	QueryTimeout    time.Duration
	TitleTimeout    time.Duration

	// Storage
	StorageBackend string
	DataDir        string
	TempCloneDir   string

	// Server
	ServerHost         string
	ServerPort         int
	CORSOrigins        []string
	MaxRequestBodySize int64

	// Codebase reader
	MaxFilesToRead      int
	MaxCodebaseSizeMB   int
	SupportedExtensions []string
}

// modelRoster is the shape of the optional COUNCIL_CONFIG_FILE YAML file.
// It overrides the env-derived model lists, which keeps long rosters out of
// environment variables.
type modelRoster struct {
	CouncilModels []string `yaml:"council_models"`
	ChairmanModel string   `yaml:"chairman_model"`
	TitleModel    string   `yaml:"title_model"`
}

var defaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go", ".rs",
	".cpp", ".c", ".h", ".cs", ".rb", ".php", ".swift", ".kt",
	".md", ".txt", ".json", ".yaml", ".yml", ".toml", ".xml",
	".html", ".css", ".scss", ".sql", ".sh", ".bash",
}

// Load reads configuration from the environment (and a .env file when
// present), applies the optional YAML model roster, and validates the result.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Provider:         envString("LLM_PROVIDER", ProviderOpenRouter),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterAPIURL: envString("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LocalAPIURL:      envString("LOCAL_API_URL", "http://localhost:11434/v1/chat/completions"),

		CouncilModels: envList("COUNCIL_MODELS", []string{
			"openai/gpt-5.1",
			"google/gemini-3-pro-preview",
			"anthropic/claude-sonnet-4.5",
			"x-ai/grok-4",
		}),
		ChairmanModel: envString("CHAIRMAN_MODEL", "google/gemini-3-pro-preview"),
		TitleModel:    envString("TITLE_MODEL", "google/gemini-2.5-flash"),

		RunStage2: envBool("COUNCIL_RUN_STAGE2", false),

		MaxOutputTokens: envInt("LLM_MAX_OUTPUT_TOKENS", 8192),
		QueryTimeout:    envDuration("API_TIMEOUT_SECONDS", 120*time.Second),
		TitleTimeout:    envDuration("TITLE_GENERATION_TIMEOUT", 30*time.Second),

		StorageBackend: envString("STORAGE_BACKEND", StorageFilesystem),
		DataDir:        envString("DATA_DIR", "data/conversations"),
		TempCloneDir:   envString("TEMP_CLONE_DIR", "temp_clones"),

		ServerHost:         envString("SERVER_HOST", "0.0.0.0"),
		ServerPort:         envInt("SERVER_PORT", 8001),
		CORSOrigins:        envList("CORS_ALLOWED_ORIGINS", nil),
		MaxRequestBodySize: 1 << 20,

		MaxFilesToRead:      envInt("MAX_FILES_TO_READ", 500),
		MaxCodebaseSizeMB:   envInt("MAX_CODEBASE_SIZE_MB", 10),
		SupportedExtensions: envList("SUPPORTED_EXTENSIONS", defaultExtensions),
	}

	if path := os.Getenv("COUNCIL_CONFIG_FILE"); path != "" {
		if err := cfg.applyRoster(path); err != nil {
			return nil, fmt.Errorf("loading model roster %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv tries the current and parent directory, matching where the
// server is usually launched from.
func loadDotEnv() {
	for _, envPath := range []string{".env", "../.env"} {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				logrus.WithField("path", absPath).Debug("loaded .env")
				return
			}
		}
	}
}

func (c *Config) applyRoster(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var roster modelRoster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return err
	}
	if len(roster.CouncilModels) > 0 {
		c.CouncilModels = roster.CouncilModels
	}
	if roster.ChairmanModel != "" {
		c.ChairmanModel = roster.ChairmanModel
	}
	if roster.TitleModel != "" {
		c.TitleModel = roster.TitleModel
	}
	return nil
}

// Validate checks the configuration at startup. A misconfigured provider or
// an empty council is fatal before any network call is made.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenRouter)
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %q (must be %q or %q)", c.Provider, ProviderOpenRouter, ProviderLocal)
	}

	switch c.StorageBackend {
	case StorageFilesystem, StorageSQLite:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %q (must be %q or %q)", c.StorageBackend, StorageFilesystem, StorageSQLite)
	}

	if len(c.CouncilModels) == 0 {
		return fmt.Errorf("COUNCIL_MODELS cannot be empty")
	}
	if c.ChairmanModel == "" {
		return fmt.Errorf("CHAIRMAN_MODEL cannot be empty")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be positive")
	}
	if c.TitleTimeout <= 0 {
		return fmt.Errorf("TITLE_GENERATION_TIMEOUT must be positive")
	}
	if c.MaxFilesToRead <= 0 {
		return fmt.Errorf("MAX_FILES_TO_READ must be positive")
	}
	if c.MaxCodebaseSizeMB <= 0 {
		return fmt.Errorf("MAX_CODEBASE_SIZE_MB must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// envDuration reads a number of seconds, matching the original env contract.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using default %s", v, fallback)
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
