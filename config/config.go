package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all configuration for the report discovery system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Finder    FinderConfig    `mapstructure:"finder"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address           string `mapstructure:"address"`
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // bcrypt hash for /login
}

// LLMConfig contains oracle provider configuration
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"` // gemini or openai
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`          // decision + extraction model
	SearchModel    string        `mapstructure:"search_model"`   // search-grounded site discovery
	ThinkingBudget int32         `mapstructure:"thinking_budget"`
	Temperature    float64       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case "gemini", "openai":
	case "":
		return fmt.Errorf("llm.provider is required")
	default:
		return fmt.Errorf("llm.provider %q not supported", l.Provider)
	}
	return nil
}

// CrawlerConfig contains page fetching settings
type CrawlerConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// FinderConfig controls the crawl state machine and orchestrator
type FinderConfig struct {
	MaxPagesPerCompany int    `mapstructure:"max_pages_per_company"`
	ConcurrentThreads  int    `mapstructure:"concurrent_threads"`
	Schedule           string `mapstructure:"schedule"` // cron expression, empty disables
}

func (f FinderConfig) Validate() error {
	if f.ConcurrentThreads < 1 {
		return fmt.Errorf("finder.concurrent_threads must be >= 1")
	}
	if f.MaxPagesPerCompany < 1 {
		return fmt.Errorf("finder.max_pages_per_company must be >= 1")
	}
	if f.Schedule != "" {
		if _, err := cronexpr.Parse(f.Schedule); err != nil {
			return fmt.Errorf("finder.schedule is not a valid cron expression: %w", err)
		}
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a connection string from the individual fields when URL is unset.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// DownloadsConfig controls where resolved reports are written
type DownloadsConfig struct {
	Directory string        `mapstructure:"directory"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":10020")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.model", "gemini-2.5-pro-preview-03-25")
	viper.SetDefault("llm.search_model", "gemini-2.5-flash-preview-04-17")
	viper.SetDefault("llm.thinking_budget", 1024)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("crawler.timeout", "15s")
	viper.SetDefault("crawler.max_chars", 20000)
	viper.SetDefault("finder.max_pages_per_company", 10)
	viper.SetDefault("finder.concurrent_threads", 1)
	viper.SetDefault("downloads.directory", "./reports")
	viper.SetDefault("downloads.timeout", "60s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("REPSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match (REPSCOUT_*)

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Finder.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
