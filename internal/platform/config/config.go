package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig   `mapstructure:"service"`
	Log             LogConfig       `mapstructure:"log"`
	HTTP            HTTPConfig      `mapstructure:"http"`
	GRPC            GRPCConfig      `mapstructure:"grpc"`
	Admin           AdminConfig     `mapstructure:"admin"`
	RequestID       RequestIDConfig `mapstructure:"request_id"`
	OTEL            OTELConfig      `mapstructure:"otel"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr        string        `mapstructure:"addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxInFlight int           `mapstructure:"max_in_flight"`
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type GRPCConfig struct {
	// Addr may be empty to disable the gRPC listener.
	Addr string `mapstructure:"addr"`
}

type AdminConfig struct {
	Addr string `mapstructure:"addr"`
}

type RequestIDConfig struct {
	Strategy string `mapstructure:"strategy"`
	Prefix   string `mapstructure:"prefix"`
	Header   string `mapstructure:"header"`
}

type OTELConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Protocol string `mapstructure:"protocol"`
	Insecure bool   `mapstructure:"insecure"`
}

// Load reads configuration from configPath (or config.yaml in the usual
// locations), then overlays environment variables such as HTTP_ADDR or
// REQUEST_ID_STRATEGY.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/stampd")
	}

	setDefaults(v)
	setEnvBindings(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "stampd")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_in_flight", 512)
	v.SetDefault("http.rate_limit", 0)
	v.SetDefault("http.rate_burst", 20)

	v.SetDefault("grpc.addr", ":9090")
	v.SetDefault("admin.addr", ":8081")

	v.SetDefault("request_id.strategy", "random")
	v.SetDefault("request_id.prefix", "")
	v.SetDefault("request_id.header", "X-Request-Id")

	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.protocol", "grpc")
	v.SetDefault("otel.insecure", false)

	v.SetDefault("shutdown_timeout", 10*time.Second)
}

func setEnvBindings(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		return fmt.Errorf("service.name cannot be empty")
	}
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http.addr cannot be empty")
	}
	if strings.TrimSpace(cfg.RequestID.Header) == "" {
		return fmt.Errorf("request_id.header cannot be empty")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.RequestID.Strategy)) {
	case "random", "uuid", "guid", "sequential", "long":
	case "prefixed":
		if strings.TrimSpace(cfg.RequestID.Prefix) == "" {
			return fmt.Errorf("request_id.strategy is 'prefixed' but request_id.prefix is blank")
		}
	default:
		return fmt.Errorf("unknown request_id.strategy %q", cfg.RequestID.Strategy)
	}

	switch strings.ToLower(cfg.OTEL.Protocol) {
	case "", "grpc", "http", "http/protobuf":
	default:
		return fmt.Errorf("unsupported otel.protocol %q", cfg.OTEL.Protocol)
	}

	return nil
}

// Getenv returns the value of k, or d when k is unset or empty.
func Getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}
