package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/csaptu/flow/analytics/schedule"
	"github.com/csaptu/flow/analytics/schedule/bottleneck"
	"github.com/csaptu/flow/analytics/schedule/duration"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// Config holds all configuration for the analytics service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Cache    CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `mapstructure:"HOST"`
	Port            int           `mapstructure:"PORT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	Environment     string        `mapstructure:"ENVIRONMENT"` // development, staging, production
	AllowedOrigins  string        `mapstructure:"ALLOWED_ORIGINS"`
}

// DatabaseConfig holds configuration for the projects database
type DatabaseConfig struct {
	URL          string        `mapstructure:"URL"`
	Host         string        `mapstructure:"HOST"`
	Port         int           `mapstructure:"PORT"`
	User         string        `mapstructure:"USER"`
	Password     string        `mapstructure:"PASSWORD"`
	Name         string        `mapstructure:"NAME"`
	SSLMode      string        `mapstructure:"SSL_MODE"`
	MaxOpenConns int           `mapstructure:"MAX_OPEN_CONNS"`
	MaxIdleConns int           `mapstructure:"MAX_IDLE_CONNS"`
	MaxLifetime  time.Duration `mapstructure:"MAX_LIFETIME"`
}

// DSN returns the data source name for connecting to the database
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string `mapstructure:"REDIS_URL"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

// Address returns the Redis address
func (c *RedisConfig) Address() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds authentication configuration. Tokens are issued by the
// shared service; this service only verifies them.
type AuthConfig struct {
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	JWTExpiryMinutes int    `mapstructure:"JWT_EXPIRY_MINUTES"`
}

// JWTExpiry returns the JWT expiry duration
func (c *AuthConfig) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryMinutes) * time.Minute
}

// EngineConfig holds the analysis constants
type EngineConfig struct {
	HoursPerDay           float64 `mapstructure:"HOURS_PER_DAY"`
	DefaultTaskHours      float64 `mapstructure:"DEFAULT_TASK_HOURS"`
	BottleneckWorkloadPct float64 `mapstructure:"BOTTLENECK_WORKLOAD_PCT"`
	BottleneckTaskCount   int     `mapstructure:"BOTTLENECK_TASK_COUNT"`
	AttentionListSize     int     `mapstructure:"ATTENTION_LIST_SIZE"`
	Workers               int     `mapstructure:"WORKERS"` // 0 = unbounded
	MaxRangeDays          int     `mapstructure:"MAX_RANGE_DAYS"`
}

// CacheConfig holds report cache configuration
type CacheConfig struct {
	ReportTTL time.Duration `mapstructure:"REPORT_TTL"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file from current dir or parent dirs (for running from cmd/)
	loadEnvFile()

	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flow/")

	// Ignore error if config file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables (for Railway/PaaS compatibility)
	overrideFromEnv(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// overrideFromEnv reads common environment variables and overrides config values
func overrideFromEnv(config *Config) {
	// Service-specific first, then generic DATABASE_URL
	if url := os.Getenv("ANALYTICS_DB_URL"); url != "" {
		config.Database.URL = url
	} else if url := os.Getenv("PROJECTS_DB_URL"); url != "" {
		config.Database.URL = url
	} else if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Redis.URL = url
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if val := os.Getenv("JWT_EXPIRY_MINUTES"); val != "" {
		if minutes, err := strconv.Atoi(val); err == nil {
			config.Auth.JWTExpiryMinutes = minutes
		}
	}
	if config.Auth.JWTExpiryMinutes == 0 {
		config.Auth.JWTExpiryMinutes = 15
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Server.Environment = env
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = origins
	}

	// Engine
	if val := os.Getenv("HOURS_PER_DAY"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			config.Engine.HoursPerDay = f
		}
	}
	if val := os.Getenv("DEFAULT_TASK_HOURS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			config.Engine.DefaultTaskHours = f
		}
	}
	if val := os.Getenv("BOTTLENECK_WORKLOAD_PCT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			config.Engine.BottleneckWorkloadPct = f
		}
	}
	if val := os.Getenv("BOTTLENECK_TASK_COUNT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Engine.BottleneckTaskCount = n
		}
	}
	if val := os.Getenv("ATTENTION_LIST_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Engine.AttentionListSize = n
		}
	}
	if val := os.Getenv("ANALYTICS_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Engine.Workers = n
		}
	}
	if val := os.Getenv("MAX_RANGE_DAYS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Engine.MaxRangeDays = n
		}
	}

	if val := os.Getenv("REPORT_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Cache.ReportTTL = d
		}
	}
}

// setDefaults keys match the mapstructure tags
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.HOST", "0.0.0.0")
	v.SetDefault("Server.PORT", 8083)
	v.SetDefault("Server.SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("Server.ENVIRONMENT", "development")
	v.SetDefault("Server.ALLOWED_ORIGINS", "https://flow-projects-web-production.up.railway.app,https://flowapp.io,https://app.flowapp.io")

	v.SetDefault("Database.HOST", "localhost")
	v.SetDefault("Database.PORT", 5434)
	v.SetDefault("Database.SSL_MODE", "disable")
	v.SetDefault("Database.MAX_OPEN_CONNS", 25)
	v.SetDefault("Database.MAX_IDLE_CONNS", 5)
	v.SetDefault("Database.MAX_LIFETIME", 5*time.Minute)

	v.SetDefault("Redis.REDIS_HOST", "localhost")
	v.SetDefault("Redis.REDIS_PORT", 6379)
	v.SetDefault("Redis.REDIS_DB", 0)

	v.SetDefault("Auth.JWT_EXPIRY_MINUTES", 15)

	v.SetDefault("Engine.HOURS_PER_DAY", duration.DefaultHoursPerDay)
	v.SetDefault("Engine.DEFAULT_TASK_HOURS", duration.DefaultPlaceholderHours)
	v.SetDefault("Engine.BOTTLENECK_WORKLOAD_PCT", bottleneck.DefaultWorkloadPercent)
	v.SetDefault("Engine.BOTTLENECK_TASK_COUNT", bottleneck.DefaultTaskCount)
	v.SetDefault("Engine.ATTENTION_LIST_SIZE", 5)
	v.SetDefault("Engine.WORKERS", 0)
	v.SetDefault("Engine.MAX_RANGE_DAYS", workload.DefaultMaxDays)

	v.SetDefault("Cache.REPORT_TTL", 15*time.Minute)
}

func validate(config *Config) error {
	if config.Server.Environment == "production" {
		if config.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if config.Engine.HoursPerDay < 0 || config.Engine.DefaultTaskHours < 0 {
		return fmt.Errorf("engine hours must not be negative")
	}
	if config.Engine.BottleneckWorkloadPct < 0 || config.Engine.BottleneckTaskCount < 0 {
		return fmt.Errorf("bottleneck thresholds must not be negative")
	}
	return nil
}

// EnginePolicy converts the engine section into an analysis policy.
// Zero values fall back to the engine defaults.
func (c *Config) EnginePolicy() schedule.Policy {
	p := schedule.DefaultPolicy()
	e := c.Engine
	if e.HoursPerDay > 0 {
		p.Duration.HoursPerDay = e.HoursPerDay
	}
	if e.DefaultTaskHours > 0 {
		p.Duration.PlaceholderHours = e.DefaultTaskHours
	}
	if e.BottleneckWorkloadPct > 0 {
		p.Thresholds.WorkloadPercent = e.BottleneckWorkloadPct
	}
	if e.BottleneckTaskCount > 0 {
		p.Thresholds.TaskCount = e.BottleneckTaskCount
	}
	if e.AttentionListSize > 0 {
		p.AttentionLimit = e.AttentionListSize
	}
	if e.MaxRangeDays > 0 {
		p.MaxRangeDays = e.MaxRangeDays
	}
	p.Workers = e.Workers
	return p
}

// loadEnvFile attempts to load .env file from current directory or parent directories
func loadEnvFile() {
	if err := godotenv.Load(); err == nil {
		return
	}

	// Walk up to find .env (useful when running from analytics/cmd/)
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
