// Package config loads the service configuration from defaults, an optional
// file and SECSCAN_ prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SECSCAN"

// Config is the complete service configuration.
type Config struct {
	Web       WebConfig       `mapstructure:"web"`
	Store     StoreConfig     `mapstructure:"store"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Tools     []ToolConfig    `mapstructure:"tools"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Baseline  string          `mapstructure:"baseline"`
}

// WebConfig configures the HTTP servers.
type WebConfig struct {
	APIHost            string        `mapstructure:"api_host"`
	APIPort            string        `mapstructure:"api_port"`
	DebugHost          string        `mapstructure:"debug_host"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	// PublicURL prefixes the links sent in notifications.
	PublicURL          string        `mapstructure:"public_url"`
}

// StoreConfig selects and configures the job store.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MinConns int32  `mapstructure:"min_conns"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ScanConfig tunes the scan engine.
type ScanConfig struct {
	SourceRoot     string        `mapstructure:"source_root"`
	CheckTimeout   time.Duration `mapstructure:"check_timeout"`
	PatternTimeout time.Duration `mapstructure:"pattern_timeout"`
	MaxFileSize    int64         `mapstructure:"max_file_size"`
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	ExcludePaths   []string      `mapstructure:"exclude_paths"`
}

// ToolConfig overrides how an external scanning tool is invoked.
type ToolConfig struct {
	Name    string   `mapstructure:"name"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// KafkaConfig configures the Kafka notification dispatcher.
type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

// AuthConfig lists the bearer tokens accepted by the API.
type AuthConfig struct {
	Tokens []TokenConfig `mapstructure:"tokens"`
}

// TokenConfig binds a bearer token to an identity.
type TokenConfig struct {
	Token    string `mapstructure:"token"`
	Identity string `mapstructure:"identity"`
	Admin    bool   `mapstructure:"admin"`
}

// RateLimitConfig bounds how often a caller may create scans.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Probability float64 `mapstructure:"probability"`
	Insecure    bool    `mapstructure:"insecure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("web.api_host", "0.0.0.0")
	v.SetDefault("web.api_port", "6000")
	v.SetDefault("web.debug_host", "0.0.0.0:6010")
	v.SetDefault("web.read_timeout", 5*time.Second)
	v.SetDefault("web.write_timeout", 10*time.Second)
	v.SetDefault("web.idle_timeout", 120*time.Second)
	v.SetDefault("web.shutdown_timeout", 20*time.Second)
	v.SetDefault("web.cors_allowed_origins", []string{})
	v.SetDefault("web.public_url", "")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.max_conns", 10)

	v.SetDefault("scan.source_root", ".")
	v.SetDefault("scan.check_timeout", 2*time.Minute)
	v.SetDefault("scan.pattern_timeout", time.Second)
	v.SetDefault("scan.max_file_size", 1<<20)
	v.SetDefault("scan.workers", 2)
	v.SetDefault("scan.queue_size", 16)
	v.SetDefault("scan.exclude_paths", []string{})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "security-scan-notifications")
	v.SetDefault("kafka.client_id", "secaudit")

	v.SetDefault("rate_limit.rps", 0.2)
	v.SetDefault("rate_limit.burst", 3)

	v.SetDefault("telemetry.service_name", "secaudit")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.probability", 0.05)
	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("baseline", "")
}

// Load builds the configuration. When path is non-empty the file is read
// first; environment variables always take precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Slices set through the environment arrive as a single comma separated value.
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Scan.ExcludePaths = splitList(cfg.Scan.ExcludePaths)
	cfg.Web.CORSAllowedOrigins = splitList(cfg.Web.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1, got %d", c.Scan.Workers)
	}
	if c.Scan.QueueSize < 1 {
		return fmt.Errorf("scan.queue_size must be at least 1, got %d", c.Scan.QueueSize)
	}
	if c.Scan.CheckTimeout <= 0 || c.Scan.PatternTimeout <= 0 {
		return fmt.Errorf("scan timeouts must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
