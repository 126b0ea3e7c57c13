package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Log           LogConfig           `mapstructure:"log"`
	Azure         AzureConfig         `mapstructure:"azure"`
	Directory     DirectoryConfig     `mapstructure:"directory"`
	Search        SearchConfig        `mapstructure:"search"`
	Registration  ClientConfig        `mapstructure:"registration"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableSwagger   bool          `mapstructure:"enable_swagger"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// AzureConfig 出站调用使用的 Azure AD 客户端凭据；ClientID 为空时不附带 token。
type AzureConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Scope   string        `mapstructure:"scope"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DirectoryConfig struct {
	ClientConfig `mapstructure:",squash"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type SearchConfig struct {
	ClientConfig     `mapstructure:",squash"`
	PageSize         int    `mapstructure:"page_size"`
	MaxResults       int    `mapstructure:"max_results"`
	LastModifiedPath string `mapstructure:"last_modified_path"`
}

type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	StoredQueryCron string `mapstructure:"stored_query_cron"`
	CleanupCron     string `mapstructure:"cleanup_cron"`
	Workers         int    `mapstructure:"workers"`
}

type NotificationsConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Load 读取配置：默认值 < config.yaml < APPDATA_* 环境变量。
// APPDATA_CONFIG 可指定配置文件路径。
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APPDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验必填项与取值范围
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.Scheduler.Workers <= 0 {
		return errors.New("config: scheduler.workers must be positive")
	}
	if c.Search.PageSize <= 0 || c.Search.MaxResults < c.Search.PageSize {
		return errors.New("config: search.page_size must be positive and not exceed search.max_results")
	}
	if c.Notifications.BatchSize <= 0 {
		return errors.New("config: notifications.batch_size must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.enable_swagger", true)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=appdata port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("azure.tenant_id", "")
	v.SetDefault("azure.client_id", "")
	v.SetDefault("azure.client_secret", "")

	v.SetDefault("directory.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("directory.scope", "https://graph.microsoft.com/.default")
	v.SetDefault("directory.timeout", 10*time.Second)
	v.SetDefault("directory.cache_ttl", 30*time.Minute)

	v.SetDefault("search.base_url", "http://localhost:8081")
	v.SetDefault("search.scope", "")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.page_size", 100)
	v.SetDefault("search.max_results", 1000)
	v.SetDefault("search.last_modified_path", "lastChangeDateTime")

	v.SetDefault("registration.base_url", "http://localhost:8082")
	v.SetDefault("registration.scope", "")
	v.SetDefault("registration.timeout", 10*time.Second)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.stored_query_cron", "0 */15 * * * *")
	v.SetDefault("scheduler.cleanup_cron", "0 0 3 * * *")
	v.SetDefault("scheduler.workers", 4)

	v.SetDefault("notifications.batch_size", 500)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "appdata-service")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 50.0)
	v.SetDefault("ratelimit.burst", 100)
}
