package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Supabase SupabaseConfig `yaml:"supabase" mapstructure:"supabase"`
	Quartr   QuartrConfig   `yaml:"quartr" mapstructure:"quartr"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Session  SessionConfig  `yaml:"session" mapstructure:"session"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the job store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SupabaseConfig configures the object store and metadata table.
// When URL is empty the pipeline falls back to the local filesystem store.
type SupabaseConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
	Table      string `yaml:"table" mapstructure:"table"`
	LocalDir   string `yaml:"local_dir" mapstructure:"local_dir"`
}

// QuartrConfig holds source-site credentials and entry points.
// Email and Password are secrets: they are never logged and never appear in
// job reports.
type QuartrConfig struct {
	Email    string `yaml:"email" mapstructure:"email"`
	Password string `yaml:"password" mapstructure:"password"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// BrowserConfig configures the headless browser driver.
type BrowserConfig struct {
	Headless       bool   `yaml:"headless" mapstructure:"headless"`
	ExecPath       string `yaml:"exec_path" mapstructure:"exec_path"`
	NavTimeoutSecs int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
}

// NavTimeout returns the per-navigation timeout as a duration.
func (b BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(b.NavTimeoutSecs) * time.Second
}

// SessionConfig bounds authentication behavior per job.
type SessionConfig struct {
	LoginTimeoutSecs int `yaml:"login_timeout_secs" mapstructure:"login_timeout_secs"`
	MaxReauths       int `yaml:"max_reauths" mapstructure:"max_reauths"`
}

// LoginTimeout returns the login timeout as a duration.
func (s SessionConfig) LoginTimeout() time.Duration {
	return time.Duration(s.LoginTimeoutSecs) * time.Second
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"` // local | mistral
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
}

// FetchConfig configures document downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// BatchConfig configures multi-ticker batch runs.
type BatchConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs"`
}

// ServerConfig configures the backfill trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EARNINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secret and connection keys default to empty so AutomaticEnv
	// knows them; viper only resolves env vars for keys it has seen.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "earnings.db")
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("supabase.bucket", "earnings")
	v.SetDefault("supabase.table", "earnings_files")
	v.SetDefault("supabase.local_dir", "archive")
	v.SetDefault("quartr.email", "")
	v.SetDefault("quartr.password", "")
	v.SetDefault("quartr.base_url", "https://quartr.com")
	v.SetDefault("quartr.login_url", "https://quartr.com/login")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout_secs", 30)
	v.SetDefault("session.login_timeout_secs", 45)
	v.SetDefault("session.max_reauths", 3)
	v.SetDefault("extract.provider", "local")
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.mistral_api_key", "")
	v.SetDefault("extract.mistral_ocr_model", "pixtral-large-latest")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("fetch.user_agent", "earnings-cli/1.0")
	v.SetDefault("batch.max_concurrent_jobs", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
