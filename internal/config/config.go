package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Redis        RedisConfig
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Calibration  CalibrationConfig  `mapstructure:"calibration"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	AttemptSweep AttemptSweepConfig `mapstructure:"attempt_sweep"`

	// Runtime flags set from the command line, not the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"` // local or minio
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// CalibrationConfig carries the difficulty-calibration heuristics. These are
// injected into the calibration service, never read as globals, so tests can
// override them deterministically.
type CalibrationConfig struct {
	SuccessWeight       float64 `mapstructure:"success_weight"`
	TimeWeight          float64 `mapstructure:"time_weight"`
	Threshold           int     `mapstructure:"threshold"`
	Frequency           int     `mapstructure:"frequency"`
	ExpectedTimeSeconds float64 `mapstructure:"expected_time_seconds"`
}

type ScoringConfig struct {
	DefaultPassingScore float64 `mapstructure:"default_passing_score"`
}

type AttemptSweepConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	IntervalMinutes  int           `mapstructure:"interval_minutes"`
	AbandonAfter     time.Duration `mapstructure:"abandon_after_hours"`
	TimeoutGraceSecs int           `mapstructure:"timeout_grace_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("ASSESS")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Calibration heuristics with the documented defaults.
	viper.SetDefault("calibration.success_weight", 0.7)
	viper.SetDefault("calibration.time_weight", 0.3)
	viper.SetDefault("calibration.threshold", 10)
	viper.SetDefault("calibration.frequency", 5)
	viper.SetDefault("calibration.expected_time_seconds", 30)

	viper.SetDefault("scoring.default_passing_score", 60)

	viper.SetDefault("attempt_sweep.enabled", true)
	viper.SetDefault("attempt_sweep.interval_minutes", 5)
	viper.SetDefault("attempt_sweep.abandon_after_hours", 24)
	viper.SetDefault("attempt_sweep.timeout_grace_seconds", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.AttemptSweep.AbandonAfter = cfg.AttemptSweep.AbandonAfter * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if w := cfg.Calibration.SuccessWeight + cfg.Calibration.TimeWeight; w < 0.999 || w > 1.001 {
		return nil, fmt.Errorf("calibration weights must sum to 1, got %.3f", w)
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
