package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Images    ImagesConfig    `mapstructure:"images"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type OrdersConfig struct {
	// Allocator selects how order numbers are allocated: "scan" or "redis"
	Allocator        string `mapstructure:"allocator"`
	TrustClientTotal bool   `mapstructure:"trust_client_total"`
	NumberRetries    int    `mapstructure:"number_retries"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
	DB  int    `mapstructure:"db"`
}

type ImagesConfig struct {
	Provider      string `mapstructure:"provider"`
	CloudinaryURL string `mapstructure:"cloudinary_url"`
	Folder        string `mapstructure:"folder"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

const (
	AllocatorScan  = "scan"
	AllocatorRedis = "redis"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// LoadConfig loads configuration from config.yaml and environment variables.
// A missing config file is not an error: defaults and FRESHMART_* variables are used.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.freshmart/")
	v.AddConfigPath("/etc/freshmart/")

	// FRESHMART_AUTH_JWT_SECRET overrides auth.jwt_secret
	v.SetEnvPrefix("FRESHMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("db.dsn", "freshmart:freshmart@tcp(127.0.0.1:3306)/freshmart?parseTime=true")
	v.SetDefault("db.maxOpenConns", 10)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetime", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("orders.allocator", AllocatorScan)
	v.SetDefault("orders.trust_client_total", true)
	v.SetDefault("orders.number_retries", 0)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("images.provider", "cloudinary")
	v.SetDefault("images.cloudinary_url", "")
	v.SetDefault("images.folder", "freshmart/products")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("telemetry.enabled", false)
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set FRESHMART_AUTH_JWT_SECRET)")
	}
	switch c.Orders.Allocator {
	case AllocatorScan, AllocatorRedis:
	default:
		return fmt.Errorf("unsupported order number allocator: %s", c.Orders.Allocator)
	}
	if c.Orders.NumberRetries < 0 {
		return fmt.Errorf("orders.number_retries cannot be negative: %d", c.Orders.NumberRetries)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone order numbers and analytics days are computed in
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}
