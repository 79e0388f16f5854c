package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Search SearchConfig
	LLM    LLMConfig
	Cache  CacheConfig
	Pacing PacingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds search API configuration
type SearchConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	TopN    int    `mapstructure:"top_n"`
}

// LLMConfig holds language model API configuration
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// PacingConfig holds minimum intervals between outbound calls per upstream
type PacingConfig struct {
	SearchInterval time.Duration `mapstructure:"search_interval"`
	LLMInterval    time.Duration `mapstructure:"llm_interval"`
	FetchInterval  time.Duration `mapstructure:"fetch_interval"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Pick up a local .env before viper reads the environment
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/schemascope/")

	// Environment variable settings
	v.SetEnvPrefix("SCHEMASCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound
	// explicitly; the credentials must come from the environment.
	v.BindEnv("search.api_key")
	v.BindEnv("llm.api_key")

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Search defaults
	v.SetDefault("search.base_url", "https://api.valueserp.com")
	v.SetDefault("search.top_n", 10)

	// LLM defaults
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("llm.model", "gemini-pro")

	// Cache defaults
	v.SetDefault("cache.capacity", 100)
	v.SetDefault("cache.ttl", "24h")

	// Pacing defaults
	v.SetDefault("pacing.search_interval", "1s")
	v.SetDefault("pacing.llm_interval", "1s")
	v.SetDefault("pacing.fetch_interval", "500ms")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Search.APIKey == "" {
		return fmt.Errorf("search API key is required (set SCHEMASCOPE_SEARCH_API_KEY)")
	}

	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set SCHEMASCOPE_LLM_API_KEY)")
	}

	if config.Search.TopN <= 0 {
		return fmt.Errorf("search top_n must be positive, got: %d", config.Search.TopN)
	}

	if config.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got: %d", config.Cache.Capacity)
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs from a local .env file into the process
// environment. Missing file is not an error. Existing variables win over the
// file, so a deployed environment cannot be overridden by a stray .env.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}
	return scanner.Err()
}
