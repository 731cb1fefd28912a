// Package config loads raintag configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Supported language model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Config holds all raintag settings.
type Config struct {
	// Credentials
	RaindropToken   string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string

	// Model selection
	Provider string
	Model    string

	// Pipeline tuning
	Collection int64
	BatchSize  int
	PageSize   int
	MaxPages   int

	// Pacing and retry
	RaindropDelay  time.Duration
	AIDelay        time.Duration
	MaxRetries     int
	RequestTimeout time.Duration

	// HTTP service mode
	HTTPAddress string
	AuthToken   string

	// Logging
	LogDir string
	Debug  bool

	// Run history database. Empty path means the per-user default location.
	HistoryEnabled bool
	HistoryPath    string
}

// LoadConfig loads and validates the configuration. Commands that talk to
// the APIs use this; it fails fast on missing credentials, before any
// network call.
func LoadConfig(configFile string) (*Config, error) {
	config, err := Load(configFile)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Load loads configuration from an optional config file and environment
// variables without validating credentials. An empty configFile falls back
// to searching the usual locations for raintag.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables before reading the config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"RaindropToken":   "RAINDROP_TOKEN",
		"AnthropicAPIKey": "ANTHROPIC_API_KEY",
		"OpenAIAPIKey":    "OPENAI_API_KEY",
		"GeminiAPIKey":    "GEMINI_API_KEY",
		"Provider":        "RAINTAG_PROVIDER",
		"Model":           "RAINTAG_MODEL",
		"Collection":      "RAINTAG_COLLECTION",
		"BatchSize":       "RAINTAG_BATCH_SIZE",
		"PageSize":        "RAINTAG_PAGE_SIZE",
		"MaxPages":        "RAINTAG_MAX_PAGES",
		"RaindropDelay":   "RAINTAG_RAINDROP_DELAY",
		"AIDelay":         "RAINTAG_AI_DELAY",
		"MaxRetries":      "RAINTAG_MAX_RETRIES",
		"RequestTimeout":  "RAINTAG_REQUEST_TIMEOUT",
		"HTTPAddress":     "HTTP_ADDRESS",
		"AuthToken":       "AUTH_TOKEN",
		"LogDir":          "RAINTAG_LOG_DIR",
		"Debug":           "RAINTAG_DEBUG",
		"HistoryEnabled":  "RAINTAG_HISTORY_ENABLED",
		"HistoryPath":     "RAINTAG_HISTORY_PATH",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("raintag")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.raintag")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.Model == "" {
		config.Model = DefaultModel(config.Provider)
	}

	return &config, nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "claude-3-5-haiku-20241022"
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Provider", ProviderAnthropic)
	v.SetDefault("Collection", -1)
	v.SetDefault("BatchSize", 25)
	v.SetDefault("PageSize", 50)
	v.SetDefault("MaxPages", 20)
	v.SetDefault("RaindropDelay", "500ms")
	v.SetDefault("AIDelay", "2s")
	v.SetDefault("MaxRetries", 3)
	v.SetDefault("RequestTimeout", "15s")
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("LogDir", "logs")
	v.SetDefault("HistoryEnabled", true)
}

// Validate checks that the credentials for the selected provider are
// present and the pipeline tuning values are usable.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q: must be one of %s, %s, %s",
			c.Provider, ProviderAnthropic, ProviderOpenAI, ProviderGemini)
	}

	var missingVars []string

	if c.RaindropToken == "" {
		missingVars = append(missingVars, "RAINDROP_TOKEN")
	}

	if c.APIKey() == "" {
		switch c.Provider {
		case ProviderOpenAI:
			missingVars = append(missingVars, "OPENAI_API_KEY")
		case ProviderGemini:
			missingVars = append(missingVars, "GEMINI_API_KEY")
		default:
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %s\n\nSet them in the environment, a .env file, or raintag.yaml (run '%s init' to create one)",
			strings.Join(missingVars, ", "), os.Args[0])
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}

	return nil
}
