package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// ProvidersConfig groups the external collaborators. Both are opaque HTTP
// services; the agent holds no state of its own.
type ProvidersConfig struct {
	KB    KBConfig    `mapstructure:"kb"`
	Price PriceConfig `mapstructure:"price"`
}

// KBConfig points at the knowledge-base engine's SQL-over-HTTP API.
type KBConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Table      string        `mapstructure:"table"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

func (k KBConfig) Validate() error {
	if strings.TrimSpace(k.Endpoint) == "" {
		return fmt.Errorf("providers.kb.endpoint is required")
	}
	if strings.TrimSpace(k.Table) == "" {
		return fmt.Errorf("providers.kb.table is required")
	}
	return nil
}

// PriceConfig points at the batched price API.
type PriceConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PriceConfig) Validate() error {
	if strings.TrimSpace(p.Endpoint) == "" {
		return fmt.Errorf("providers.price.endpoint is required")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// LoadConfig reads configuration from file (json) and CRYPTOAGENT_* env
// overrides. With an empty path the usual locations are searched and a
// missing file falls back to defaults.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("providers.kb.endpoint", "http://127.0.0.1:47335")
	viper.SetDefault("providers.kb.table", "web3_kb")
	viper.SetDefault("providers.kb.timeout", 15*time.Second)
	viper.SetDefault("providers.kb.max_results", 5)
	viper.SetDefault("providers.price.endpoint", "http://localhost:3001")
	viper.SetDefault("providers.price.timeout", 15*time.Second)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CRYPTOAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Providers.KB.Validate(); err != nil {
		panic(err)
	}
	if err := config.Providers.Price.Validate(); err != nil {
		panic(err)
	}

	return &config
}
