package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds metadata store connection settings.
// Driver selects between the embedded SQLite store and PostgreSQL.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"

	// SQLite settings
	File string `yaml:"file"`

	// PostgreSQL settings
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// TranscriberConfig holds speech-to-text backend settings.
type TranscriberConfig struct {
	Backend string `yaml:"backend"` // "whisper" or "openai"

	// Local whisper.cpp settings
	FFmpegBin  string `yaml:"ffmpeg_bin"`
	WhisperBin string `yaml:"whisper_bin"`
	ModelPath  string `yaml:"model_path"`

	// Remote transcription endpoint settings
	APIURL     string `yaml:"api_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// StructurerConfig holds language-model backend settings.
// Format selects how the model response is interpreted: "json" expects the
// full structured payload as machine-parseable JSON, "labels" expects the
// fixed label-delimited text template.
type StructurerConfig struct {
	Provider    string  `yaml:"provider"` // "lmstudio", "ollama" or "openrouter"
	Format      string  `yaml:"format"`   // "json" or "labels"
	APIURL      string  `yaml:"api_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	ContextSize int     `yaml:"context_size"` // ollama num_ctx
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// ArchiveConfig holds object storage settings for optional artifact archival.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AppConfig is the centralized configuration struct for the application.
// It is constructed once at startup and passed into each component
// constructor; no package keeps mutable configuration state.
type AppConfig struct {
	InputDir       string `yaml:"input_dir"`
	ProcessedDir   string `yaml:"processed_dir"`
	SettleDelaySec int    `yaml:"settle_delay_sec"`
	BrowserPort    string `yaml:"browser_port"`
	MetricsPort    string `yaml:"metrics_port"` // processor metrics listener, empty disables

	Database    DatabaseConfig    `yaml:"database"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Structurer  StructurerConfig  `yaml:"structurer"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

// Load reads configuration from an optional YAML file (NOTES_CONFIG_FILE)
// layered under environment variables; real environment variables always take
// precedence. A .env file can be auto-loaded by importing:
// _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv("NOTES_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		InputDir:       "notes/input",
		ProcessedDir:   "notes/processed",
		SettleDelaySec: 2,
		BrowserPort:    "8080",
		MetricsPort:    "9091",
		Database: DatabaseConfig{
			Driver:             "sqlite",
			File:               "notes.db",
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Transcriber: TranscriberConfig{
			Backend:    "whisper",
			FFmpegBin:  "ffmpeg",
			WhisperBin: "whisper-cli",
			APIURL:     "https://api.openai.com/v1/audio/transcriptions",
			Model:      "whisper-1",
			TimeoutSec: 600,
		},
		Structurer: StructurerConfig{
			Provider:    "lmstudio",
			Format:      "labels",
			APIURL:      "http://localhost:1234/v1/chat/completions",
			Model:       "local-model",
			Temperature: 0.2,
			MaxTokens:   16384,
			ContextSize: 8000,
			TimeoutSec:  300,
		},
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.InputDir = getEnv("NOTES_INPUT_DIR", cfg.InputDir)
	cfg.ProcessedDir = getEnv("NOTES_PROCESSED_DIR", cfg.ProcessedDir)
	cfg.SettleDelaySec = getEnvInt("NOTES_SETTLE_DELAY_SEC", cfg.SettleDelaySec)
	cfg.BrowserPort = getEnv("BROWSER_PORT", cfg.BrowserPort)
	cfg.MetricsPort = getEnv("NOTES_METRICS_PORT", cfg.MetricsPort)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.File = getEnv("DB_FILE", cfg.Database.File)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", cfg.Database.ConnMaxLifetimeSec)

	cfg.Transcriber.Backend = getEnv("TRANSCRIBER_BACKEND", cfg.Transcriber.Backend)
	cfg.Transcriber.FFmpegBin = getEnv("FFMPEG_BIN", cfg.Transcriber.FFmpegBin)
	cfg.Transcriber.WhisperBin = getEnv("WHISPER_BIN", cfg.Transcriber.WhisperBin)
	cfg.Transcriber.ModelPath = getEnv("WHISPER_MODEL_PATH", cfg.Transcriber.ModelPath)
	cfg.Transcriber.APIURL = getEnv("TRANSCRIBER_API_URL", cfg.Transcriber.APIURL)
	cfg.Transcriber.APIKey = getEnv("TRANSCRIBER_API_KEY", cfg.Transcriber.APIKey)
	cfg.Transcriber.Model = getEnv("TRANSCRIBER_MODEL", cfg.Transcriber.Model)
	cfg.Transcriber.TimeoutSec = getEnvInt("TRANSCRIBER_TIMEOUT_SEC", cfg.Transcriber.TimeoutSec)

	cfg.Structurer.Provider = getEnv("STRUCTURER_PROVIDER", cfg.Structurer.Provider)
	cfg.Structurer.Format = getEnv("STRUCTURER_FORMAT", cfg.Structurer.Format)
	cfg.Structurer.APIURL = getEnv("STRUCTURER_API_URL", cfg.Structurer.APIURL)
	cfg.Structurer.APIKey = getEnv("OPENROUTER_API_KEY", getEnv("STRUCTURER_API_KEY", cfg.Structurer.APIKey))
	cfg.Structurer.Model = getEnv("STRUCTURER_MODEL", cfg.Structurer.Model)
	cfg.Structurer.Temperature = getEnvFloat("STRUCTURER_TEMPERATURE", cfg.Structurer.Temperature)
	cfg.Structurer.MaxTokens = getEnvInt("STRUCTURER_MAX_TOKENS", cfg.Structurer.MaxTokens)
	cfg.Structurer.ContextSize = getEnvInt("STRUCTURER_CONTEXT_SIZE", cfg.Structurer.ContextSize)
	cfg.Structurer.TimeoutSec = getEnvInt("STRUCTURER_TIMEOUT_SEC", cfg.Structurer.TimeoutSec)

	cfg.Archive.Enabled = getEnvBool("ARCHIVE_ENABLED", cfg.Archive.Enabled)
	cfg.Archive.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Archive.Endpoint)
	cfg.Archive.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Archive.AccessKey)
	cfg.Archive.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Archive.SecretKey)
	cfg.Archive.Bucket = getEnv("MINIO_BUCKET", cfg.Archive.Bucket)
	cfg.Archive.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Archive.UseSSL)
}

// Validate checks that the configured backends are resolvable. An
// unresolvable backend is fatal at startup: no file could ever succeed.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.File == "" {
			return fmt.Errorf("database file is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("database host, user, and name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q (supported: sqlite, postgres)", c.Database.Driver)
	}

	switch c.Transcriber.Backend {
	case "whisper":
		if c.Transcriber.ModelPath == "" {
			return fmt.Errorf("whisper model path is required for the whisper backend")
		}
	case "openai":
		if c.Transcriber.APIKey == "" {
			return fmt.Errorf("transcriber api key is required for the openai backend")
		}
	default:
		return fmt.Errorf("unknown transcriber backend %q (supported: whisper, openai)", c.Transcriber.Backend)
	}

	switch c.Structurer.Provider {
	case "lmstudio", "ollama":
	case "openrouter":
		if c.Structurer.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	default:
		return fmt.Errorf("unknown structurer provider %q (supported: lmstudio, ollama, openrouter)", c.Structurer.Provider)
	}

	switch c.Structurer.Format {
	case "json", "labels":
	default:
		return fmt.Errorf("unknown structurer format %q (supported: json, labels)", c.Structurer.Format)
	}

	if c.Archive.Enabled {
		if c.Archive.Endpoint == "" || c.Archive.AccessKey == "" || c.Archive.SecretKey == "" || c.Archive.Bucket == "" {
			return fmt.Errorf("archive endpoint, credentials, and bucket are required when archival is enabled")
		}
	}

	return nil
}

// SettleDelay returns the delay applied between a file-creation event and the
// first read, so a file still being written is not picked up mid-copy.
func (c *AppConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySec) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return def
}
