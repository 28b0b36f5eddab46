// Package config loads service settings from an optional storefront.yaml,
// a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STOREFRONT_MONGO_URI.
const EnvPrefix = "STOREFRONT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Tables    TablesConfig    `mapstructure:"tables"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	RunLocal    bool     `mapstructure:"run_local"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type TablesConfig struct {
	Orders         string        `mapstructure:"orders"`
	Idempotency    string        `mapstructure:"idempotency"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type QueueConfig struct {
	OrdersURL string `mapstructure:"orders_url"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds the cart slot settings. An empty Addr keeps carts in
// process memory.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	CartTTL   time.Duration `mapstructure:"cart_ttl"`
	Namespace string        `mapstructure:"namespace"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RateLimitConfig is per client IP. PerMinute <= 0 disables limiting.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type NotifyConfig struct {
	Host        string `mapstructure:"host"`
	Destination string `mapstructure:"destination"`
}

// CatalogConfig points at a remote storefront API used as a secondary
// product source and by storefrontctl.
type CatalogConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

var defaults = map[string]any{
	"server.addr":            ":8080",
	"server.run_local":       false,
	"server.cors_origins":    []string{},
	"tables.orders":          "orders",
	"tables.idempotency":     "idempotency",
	"tables.idempotency_ttl": 48 * time.Hour,
	"queue.orders_url":       "",
	"mongo.uri":              "mongodb://localhost:27017",
	"mongo.database":         "awesome",
	"redis.addr":             "",
	"redis.password":         "",
	"redis.db":               0,
	"redis.cart_ttl":         30 * 24 * time.Hour,
	"redis.namespace":        "awesomeTech_cart",
	"auth.jwt_secret":        "",
	"auth.token_ttl":         7 * 24 * time.Hour,
	"ratelimit.per_minute":   120,
	"ratelimit.burst":        30,
	"notify.host":            "wa.me",
	"notify.destination":     "+254704546916",
	"catalog.base_url":       "",
	"metrics.namespace":      "Awesome/Storefront",
}

// legacyEnv keeps the variable names the Lambda templates already set.
var legacyEnv = map[string]string{
	"server.run_local":   "RUN_LOCAL",
	"tables.orders":      "ORDERS_TABLE",
	"tables.idempotency": "IDEMPOTENCY_TABLE",
	"queue.orders_url":   "ORDERS_QUEUE_URL",
	"mongo.uri":          "MONGO_URI",
	"redis.addr":         "REDIS_URL",
	"redis.password":     "REDIS_PASSWORD",
	"auth.jwt_secret":    "JWT_SECRET",
}

// ErrMissingSecret is returned by Validate when no JWT secret is configured.
var ErrMissingSecret = errors.New("auth.jwt_secret is required")

// Load reads envFiles (".env" when none are given) into the process
// environment, then builds the config. Missing env and yaml files are not
// errors.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("[config] no env file loaded, using process environment err=%v", err)
	}

	v := viper.New()
	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, name := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
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
	return &cfg, nil
}

// Validate checks the settings the API cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Tables.Orders == "" || c.Tables.Idempotency == "" {
		return errors.New("tables.orders and tables.idempotency are required")
	}
	if c.Queue.OrdersURL == "" {
		return errors.New("queue.orders_url is required")
	}
	return nil
}
