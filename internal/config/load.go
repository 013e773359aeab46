package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "RENAL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Keys without a usable default are still registered so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 120)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.clock_skew", "0s")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.max_upload_mb", 2048)

	v.SetDefault("database.url", "")

	v.SetDefault("analysis.worker_count", 4)
	v.SetDefault("analysis.queue_size", 64)
	v.SetDefault("analysis.report_delay", "2s")
	v.SetDefault("analysis.glomeruli_step_delay", "600ms")
	v.SetDefault("analysis.nuclei_delay", "1s")

	v.SetDefault("models.config_path", "config/models.yaml")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and cross-field rules on cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Storage.Driver == DriverPostgres && cfg.Database.URL == "" {
		return errors.New("config validation failed: database.url is required when storage.driver is postgres")
	}

	return nil
}
