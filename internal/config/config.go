package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Debug response sources.
const (
	DebugSourceNone  = "none"
	DebugSourceDir   = "dir"
	DebugSourceBBolt = "bbolt"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	BaseURL               string        `mapstructure:"base_url"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	LogRequests           bool          `mapstructure:"log_requests"`
	LogResponses          bool          `mapstructure:"log_responses"`
	DedupEnabled          bool          `mapstructure:"dedup_enabled"`

	DebugSource string `mapstructure:"debug_source"`
	StubDir     string `mapstructure:"stub_dir"`
	StubsFile   string `mapstructure:"stubs_file"`
	BBoltPath   string `mapstructure:"bbolt_path"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NETKIT")
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-netkit")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("log_requests", false)
	v.SetDefault("log_responses", true)
	v.SetDefault("dedup_enabled", true)
	v.SetDefault("debug_source", DebugSourceNone)
	v.SetDefault("stub_dir", "./stubs")
	v.SetDefault("stubs_file", "")
	v.SetDefault("bbolt_path", "./data/stubs.db")
	v.SetDefault("publishers_file", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.DebugSource = strings.ToLower(strings.TrimSpace(cfg.DebugSource))
	switch cfg.DebugSource {
	case "", DebugSourceNone:
		cfg.DebugSource = DebugSourceNone
	case DebugSourceDir:
		if strings.TrimSpace(cfg.StubDir) == "" {
			return nil, fmt.Errorf("stub_dir is required when debug_source=%s", DebugSourceDir)
		}
	case DebugSourceBBolt:
		if strings.TrimSpace(cfg.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt_path is required when debug_source=%s", DebugSourceBBolt)
		}
	default:
		return nil, fmt.Errorf("invalid debug_source %q (expected none, dir or bbolt)", cfg.DebugSource)
	}

	return &cfg, nil
}
