package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the access control service configuration
type Config struct {
	// HTTP server configuration
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // seconds

	// Database configuration
	DatabasePath string `mapstructure:"database_path"`

	// Gate control configuration
	GateAutoCloseMs int `mapstructure:"gate_auto_close_ms"` // milliseconds

	// Authentication configuration
	AuthEnabled   bool   `mapstructure:"auth_enabled"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`

	// Rate limiting configuration
	RateLimitEnabled bool `mapstructure:"rate_limit_enabled"`
	RequestsPerMin   int  `mapstructure:"requests_per_min"`

	// CORS configuration
	CORSEnabled    bool     `mapstructure:"cors_enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Optional event publishing to Redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	EventQueue    string `mapstructure:"event_queue"`

	// Optional Postgres archive of the access log ledger
	ArchiveDSN string `mapstructure:"archive_dsn"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:             "0.0.0.0",
		Port:             8080,
		ReadTimeout:      30,
		WriteTimeout:     30,
		IdleTimeout:      120,
		DatabasePath:     "./gate-control.db",
		GateAutoCloseMs:  3000,
		AuthEnabled:      false,
		JWTSecret:        "",
		TokenTTLHours:    12,
		RateLimitEnabled: false,
		RequestsPerMin:   300,
		CORSEnabled:      true,
		AllowedOrigins:   []string{"*"},
		RedisAddr:        "",
		RedisPassword:    "",
		RedisDB:          0,
		EventQueue:       "gate-events",
		ArchiveDSN:       "",
		LogLevel:         "info",
		LogFile:          "",
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/campus-gate-control")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".campus-gate-control"))
		}
	}

	v.SetEnvPrefix("GATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("read_timeout", cfg.ReadTimeout)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("idle_timeout", cfg.IdleTimeout)
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("gate_auto_close_ms", cfg.GateAutoCloseMs)
	v.SetDefault("auth_enabled", cfg.AuthEnabled)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("token_ttl_hours", cfg.TokenTTLHours)
	v.SetDefault("rate_limit_enabled", cfg.RateLimitEnabled)
	v.SetDefault("requests_per_min", cfg.RequestsPerMin)
	v.SetDefault("cors_enabled", cfg.CORSEnabled)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("redis_addr", cfg.RedisAddr)
	v.SetDefault("redis_password", cfg.RedisPassword)
	v.SetDefault("redis_db", cfg.RedisDB)
	v.SetDefault("event_queue", cfg.EventQueue)
	v.SetDefault("archive_dsn", cfg.ArchiveDSN)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}

	if c.GateAutoCloseMs <= 0 {
		return fmt.Errorf("gate_auto_close_ms must be positive")
	}

	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required when auth_enabled is true")
	}

	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("token_ttl_hours must be positive")
	}

	if c.RateLimitEnabled && c.RequestsPerMin <= 0 {
		return fmt.Errorf("requests_per_min must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	return nil
}
