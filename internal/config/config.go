package config

import "time"

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	Models   ModelsConfig   `mapstructure:"models" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFile         string        `mapstructure:"log_file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int           `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	// ClockSkew is the leeway allowed on exp/iat. Zero rejects a token
	// the moment it expires.
	ClockSkew            time.Duration `mapstructure:"clock_skew" validate:"gte=0"`
}

// StorageConfig selects the registry backend and where slide files live.
type StorageConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	DataDir     string `mapstructure:"data_dir" validate:"required"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is only required when the postgres storage driver is selected.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AnalysisConfig sizes the worker pool and sets the simulated step delays.
type AnalysisConfig struct {
	WorkerCount        int           `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize          int           `mapstructure:"queue_size" validate:"required,gt=0"`
	ReportDelay        time.Duration `mapstructure:"report_delay" validate:"gte=0"`
	GlomeruliStepDelay time.Duration `mapstructure:"glomeruli_step_delay" validate:"gte=0"`
	NucleiDelay        time.Duration `mapstructure:"nuclei_delay" validate:"gte=0"`
}

// ModelsConfig points at the model catalogue file.
type ModelsConfig struct {
	ConfigPath string `mapstructure:"config_path"`
}

// TokenLifetime returns the configured token lifetime as a duration.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// MaxUploadBytes returns the upload size limit in bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}
