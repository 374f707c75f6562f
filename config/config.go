package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the bot service
type Config struct {
	Telegram TelegramConfig
	YtDlp    YtDlpConfig
	Pipeline PipelineConfig
	Session  SessionConfig
	Logging  LoggingConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken      string
	UploadTimeout time.Duration
}

// YtDlpConfig holds extractor binary configuration
type YtDlpConfig struct {
	Path            string
	CookiesFile     string
	ProbeTimeout    time.Duration
	DownloadTimeout time.Duration
}

// PipelineConfig holds delivery pipeline configuration
type PipelineConfig struct {
	// MaxUploadBytes is the transport attachment ceiling. Telegram bots
	// cannot upload files above 50 MiB, so the default matches that.
	MaxUploadBytes          int64
	DownloadDir             string
	SkipAudioOnVideoFailure bool
}

// SessionConfig holds pending-link session configuration
type SessionConfig struct {
	TTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	YtDlp    *YtDlpConfig
	Pipeline *PipelineConfig
	Session  *SessionConfig
	Logging  *LoggingConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		YtDlp:    &cfg.YtDlp,
		Pipeline: &cfg.Pipeline,
		Session:  &cfg.Session,
		Logging:  &cfg.Logging,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			UploadTimeout: getEnvDuration("UPLOAD_TIMEOUT", 2*time.Minute),
		},
		YtDlp: YtDlpConfig{
			Path:            getEnv("YTDLP_PATH", "yt-dlp"),
			CookiesFile:     getEnv("COOKIES_FILE", "cookies.txt"),
			ProbeTimeout:    getEnvDuration("PROBE_TIMEOUT", 30*time.Second),
			DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 5*time.Minute),
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes:          getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
			DownloadDir:             getEnv("DOWNLOAD_DIR", "downloads"),
			SkipAudioOnVideoFailure: getEnvBool("SKIP_AUDIO_ON_VIDEO_FAILURE", true),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Pipeline.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	if c.Pipeline.DownloadDir == "" {
		return fmt.Errorf("DOWNLOAD_DIR is required")
	}

	if c.YtDlp.Path == "" {
		return fmt.Errorf("YTDLP_PATH is required")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt64 gets environment variable as int64 with default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvBool gets environment variable as bool with default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
