package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved configuration for one run. It is built once at
// startup from defaults, an optional config file and environment variables,
// then passed explicitly into the orchestrator; there is no process-wide
// mutable state.
type Config struct {
	Quality      int               `mapstructure:"quality"`
	Method       int               `mapstructure:"method"`
	Lossless     bool              `mapstructure:"lossless"`
	KeepMetadata bool              `mapstructure:"keep_metadata"`
	Performance  PerformanceConfig `mapstructure:"performance"`
	Logging      LoggingConfig     `mapstructure:"logging"`
	Web          WebConfig         `mapstructure:"web"`
}

// PerformanceConfig contains batch tuning settings.
type PerformanceConfig struct {
	// Workers bounds the conversion worker pool. 1 means strictly
	// sequential processing.
	Workers int `mapstructure:"workers"`
}

// LoggingConfig contains logging settings. FilePath is empty by default:
// the converter persists nothing beyond the output images unless a log file
// is explicitly configured.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// WebConfig contains settings for the serve subcommand.
type WebConfig struct {
	Port int `mapstructure:"port"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Quality:  80,
		Method:   4,
		Lossless: false,
		Performance: PerformanceConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		Web: WebConfig{
			Port: 8080,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.webp-converter")
		viper.AddConfigPath("/etc/webp-converter")
	}

	viper.SetEnvPrefix("WEBP_CONVERTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks ranges and normalizes fixable values.
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}

	if c.Method < 0 || c.Method > 6 {
		return fmt.Errorf("method must be between 0 and 6, got %d", c.Method)
	}

	if c.Performance.Workers <= 0 {
		c.Performance.Workers = 4
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}

	return nil
}
