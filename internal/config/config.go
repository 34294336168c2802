package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jchantrell/datscan/internal/codec"
	"github.com/jchantrell/datscan/internal/filetype"
)

type Config struct {
	Archive      string   `mapstructure:"archive"`
	DataDir      string   `mapstructure:"data_dir"`
	Codec        string   `mapstructure:"codec"`
	MaxEntrySize int      `mapstructure:"max_entry_size"`
	BatchSize    int      `mapstructure:"batch_size"`
	Languages    []string `mapstructure:"languages"`
	LogLevel     string   `mapstructure:"log_level"`
	LogFormat    string   `mapstructure:"log_format"`
}

// Load reads configuration from defaults, an optional config file and
// DATSCAN_* environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("archive", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("codec", codec.Auto)
	v.SetDefault("max_entry_size", codec.DefaultMaxRawSize)
	v.SetDefault("batch_size", 500)
	v.SetDefault("languages", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("datscan")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("datscan")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every option that has a closed set of values
func (c *Config) Validate() error {
	if err := validateCodec(c.Codec); err != nil {
		return fmt.Errorf("invalid codec configuration: %w", err)
	}

	if err := validateLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}

	if err := validateLogFormat(c.LogFormat); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}

	if c.MaxEntrySize <= 0 {
		return fmt.Errorf("invalid max entry size %d: must be positive", c.MaxEntrySize)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid batch size %d: must be positive", c.BatchSize)
	}

	if _, err := ParseLanguages(c.Languages); err != nil {
		return fmt.Errorf("invalid language configuration: %w", err)
	}

	return nil
}

// ExportLanguages returns the configured string table languages. Empty means all.
func (c *Config) ExportLanguages() []filetype.Language {
	langs, _ := ParseLanguages(c.Languages)
	return langs
}
