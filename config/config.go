package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Transfer  TransferConfig  `mapstructure:"transfer"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RabbitMQConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	VHost      string        `mapstructure:"vhost"`
	RetryDelay time.Duration `mapstructure:"retry_delay"` // holding time in the retry queue
}

// URL returns the AMQP connection string.
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

type TransferConfig struct {
	MaxAmount string `mapstructure:"max_amount"` // decimal string, upper bound per transfer
}

type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"` // consecutive failures before opening
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`      // time in OPEN before the half-open probe
	CallTimeout      time.Duration `mapstructure:"call_timeout"`      // per-call deadline inside the breaker
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type ProcessorConfig struct {
	Workers        int           `mapstructure:"workers"`         // in-flight message limit
	MaxRetries     int           `mapstructure:"max_retries"`     // redeliveries before dead-lettering
	MessageTimeout time.Duration `mapstructure:"message_timeout"` // end-to-end budget per delivery
}

type WalletConfig struct {
	BaseURL string        `mapstructure:"base_url"` // downstream transfer endpoint
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PF_ (PayFlow).
// Nested keys use underscore: PF_DATABASE_HOST, PF_RABBITMQ_USER, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "payflow")
	v.SetDefault("database.password", "payflow")
	v.SetDefault("database.dbname", "payflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "")
	v.SetDefault("rabbitmq.retry_delay", "30s")
	v.SetDefault("transfer.max_amount", "1000000")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.open_timeout", "30s")
	v.SetDefault("breaker.call_timeout", "3s")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "500ms")
	v.SetDefault("retry.max_delay", "5s")
	v.SetDefault("processor.workers", 5)
	v.SetDefault("processor.max_retries", 3)
	v.SetDefault("processor.message_timeout", "30s")
	v.SetDefault("wallet.base_url", "http://localhost:8080")
	v.SetDefault("wallet.timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PF_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
