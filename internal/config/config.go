package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMinio    = "minio"
	BackendEtcd     = "etcd"
)

// Session backends
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Port           string        `mapstructure:"port"`
	DataDir        string        `mapstructure:"data_dir"`
	StoreBackend   string        `mapstructure:"store_backend"`
	DatabaseURL    string        `mapstructure:"database_url"`
	MinioEndpoint  string        `mapstructure:"minio_endpoint"`
	MinioAccessKey string        `mapstructure:"minio_access_key"`
	MinioSecretKey string        `mapstructure:"minio_secret_key"`
	MinioBucket    string        `mapstructure:"minio_bucket"`
	MinioPrefix    string        `mapstructure:"minio_prefix"`
	MinioUseSSL    bool          `mapstructure:"minio_use_ssl"`
	EtcdEndpoints  []string      `mapstructure:"etcd_endpoints"`
	EtcdPrefix     string        `mapstructure:"etcd_prefix"`
	SessionBackend string        `mapstructure:"session_backend"`
	RedisURL       string        `mapstructure:"redis_url"`
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	NATSURL        string        `mapstructure:"nats_url"`
	InfluxURL      string        `mapstructure:"influx_url"`
	InfluxToken    string        `mapstructure:"influx_token"`
	InfluxOrg      string        `mapstructure:"influx_org"`
	InfluxBucket   string        `mapstructure:"influx_bucket"`
	RateLimitRPS   int           `mapstructure:"rate_limit_rps"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Debug          bool          `mapstructure:"debug"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:           "8080",
		DataDir:        "data",
		StoreBackend:   BackendFile,
		MinioBucket:    "blue",
		EtcdPrefix:     "blue/documents/",
		InfluxBucket:   "portal",
		SessionBackend: SessionMemory,
		RedisURL:       "redis://localhost:6379/0",
		SessionTTL:     24 * time.Hour,
		SessionCookie:  "portal_session",
		RateLimitRPS:   20,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for tools that only touch the document store
func LoadStore() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MinioEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinioEndpoint)
	cfg.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
	cfg.MinioSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinioSecretKey)
	cfg.MinioBucket = getEnv("MINIO_BUCKET", cfg.MinioBucket)
	cfg.MinioPrefix = getEnv("MINIO_PREFIX", cfg.MinioPrefix)
	cfg.SessionBackend = getEnv("SESSION_BACKEND", cfg.SessionBackend)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionCookie = getEnv("SESSION_COOKIE", cfg.SessionCookie)
	cfg.EtcdPrefix = getEnv("ETCD_PREFIX", cfg.EtcdPrefix)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.InfluxURL = getEnv("INFLUX_URL", cfg.InfluxURL)
	cfg.InfluxToken = getEnv("INFLUX_TOKEN", cfg.InfluxToken)
	cfg.InfluxOrg = getEnv("INFLUX_ORG", cfg.InfluxOrg)
	cfg.InfluxBucket = getEnv("INFLUX_BUCKET", cfg.InfluxBucket)

	var err error
	if cfg.MinioUseSSL, err = getEnvBool("MINIO_USE_SSL", cfg.MinioUseSSL); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getEnvBool("DEBUG", cfg.Debug); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getEnvInt("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}

	if endpoints := os.Getenv("ETCD_ENDPOINTS"); endpoints != "" {
		cfg.EtcdEndpoints = splitCSV(endpoints)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitCSV(origins)
	}
	if cfg.Debug && len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Debug && cfg.SessionSecret == "" {
		cfg.SessionSecret = "debug-session-secret"
	}
	return cfg, nil
}

// ValidateStore checks the document store options
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend")
		}
	case BackendEtcd:
		if len(c.EtcdEndpoints) == 0 {
			return fmt.Errorf("ETCD_ENDPOINTS is required for the etcd backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// Validate checks option combinations
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}

	switch c.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	if c.InfluxURL != "" && (c.InfluxOrg == "" || c.InfluxBucket == "") {
		return fmt.Errorf("INFLUX_ORG and INFLUX_BUCKET are required when INFLUX_URL is set")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
