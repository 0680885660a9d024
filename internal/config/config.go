package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ModerationConfig holds configuration for the moderation capability
type ModerationConfig struct {
	Model    string `yaml:"model"`    // Classifier model name
	Endpoint string `yaml:"endpoint"` // API base URL (defaults to the LLM endpoint)
}

// StorageConfig holds configuration for the exchange audit log
type StorageConfig struct {
	Driver       string        `yaml:"driver"`        // sqlite, empty disables
	DSN          string        `yaml:"dsn"`           // Connection string
	Timeout      time.Duration `yaml:"timeout"`       // Timeout for storage operations (default: 5s)
	HistoryLimit int           `yaml:"history_limit"` // Max records returned by the history endpoint (default: 50)
}

// Config holds the configuration for the moderation-gated chat service
type Config struct {
	Log struct {
		Level    string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
		Format   string `yaml:"format"` // text, json
		Output   string `yaml:"output"` // stdout, stderr, /path/to/file
		Rotation struct {
			MaxSize    int  `yaml:"max_size"`    // Megabytes
			MaxBackups int  `yaml:"max_backups"` // Number of old files to keep
			MaxAge     int  `yaml:"max_age"`     // Days to keep
			Compress   bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"log"`

	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxBodySize  int64         `yaml:"max_body_size"`
	} `yaml:"server"`

	LLM struct {
		Backend      string        `yaml:"backend"` // openai, langchain, gemini (default: openai)
		Model        string        `yaml:"model"`
		Endpoint     string        `yaml:"endpoint"`
		APIKey       string        `yaml:"-"` // From Env
		GeminiAPIKey string        `yaml:"-"` // From Env
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Moderation ModerationConfig `yaml:"moderation"`

	Storage StorageConfig `yaml:"storage"`
}

// GetLogLevel returns the slog.Level based on Log.Level string
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from YAML file and supplements with environment variables
func LoadConfig() *Config {
	cfg := &Config{}

	// Set some defaults before loading
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "text"
	cfg.Log.Output = "stdout"
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 120 * time.Second
	cfg.Server.MaxBodySize = DefaultMaxBodySize
	cfg.LLM.Backend = BackendOpenAI
	cfg.LLM.Endpoint = DefaultLLMEndpoint
	cfg.LLM.Model = DefaultLLMModel
	cfg.Moderation.Model = DefaultModerationModel

	// Log Rotation defaults
	cfg.Log.Rotation.MaxSize = 100
	cfg.Log.Rotation.MaxBackups = 10
	cfg.Log.Rotation.MaxAge = 7
	cfg.Log.Rotation.Compress = true

	// Storage defaults
	cfg.Storage.Timeout = 5 * time.Second
	cfg.Storage.HistoryLimit = 50

	// Try to load from YAML
	configPath := getEnv("CONFIG_PATH", DefaultConfigPath)
	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			slog.Error("unmarshal config failed", "error", err, "path", configPath)
			os.Exit(1)
		}
		slog.Info("config loaded", "path", configPath)
	} else {
		if !os.IsNotExist(err) {
			slog.Error("read config failed", "error", err, "path", configPath)
			os.Exit(1)
		}
		slog.Info("config not found, using defaults", "path", configPath)
	}

	// Always supplement/override with environment variables for secrets and critical items
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)

	// The moderation classifier shares the OpenAI endpoint unless configured otherwise
	if cfg.Moderation.Endpoint == "" {
		cfg.Moderation.Endpoint = cfg.LLM.Endpoint
	}

	if envBackend := os.Getenv("LLM_BACKEND"); envBackend != "" {
		cfg.LLM.Backend = envBackend
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envEndpoint := os.Getenv("LLM_ENDPOINT"); envEndpoint != "" {
		cfg.LLM.Endpoint = envEndpoint
	}
	if envPort := getEnvInt("PORT", 0); envPort != 0 {
		cfg.Server.Port = envPort
	}
	if envLogLevel := os.Getenv("LOG_LEVEL"); envLogLevel != "" {
		cfg.Log.Level = envLogLevel
	}
	if envLogFormat := os.Getenv("LOG_FORMAT"); envLogFormat != "" {
		cfg.Log.Format = envLogFormat
	}
	if envLogOutput := getEnv("LOG_OUTPUT", ""); envLogOutput != "" {
		cfg.Log.Output = envLogOutput
	}

	return cfg
}

// Validate validates the configuration. The process must fail fast at
// startup when the API credential is absent.
func (c *Config) Validate() error {
	var errs []string

	switch c.LLM.Backend {
	case BackendOpenAI, BackendLangChain, "":
		if c.LLM.APIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required")
		}
	case BackendGemini:
		if c.LLM.GeminiAPIKey == "" {
			errs = append(errs, "GEMINI_API_KEY is required")
		}
		// Moderation always runs against the OpenAI classifier
		if c.LLM.APIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required for moderation")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown llm backend: %s", c.LLM.Backend))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %d", c.Server.Port))
	}

	if c.Storage.Driver == StorageDriverSQLite && c.Storage.DSN == "" {
		errs = append(errs, "storage dsn is required for sqlite driver")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
