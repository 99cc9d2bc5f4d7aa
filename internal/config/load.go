package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverInMemory = "in-memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// EnvPrefix префикс переменных окружения, например TRIPCOMMENTS_STORAGE_DSN.
const EnvPrefix = "TRIPCOMMENTS"

// Load читает конфигурацию из файла (если он есть) и переменных окружения.
// Пустой path означает поиск config.yaml в ./configs и текущем каталоге.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverInMemory:
	case DriverPostgres, DriverMySQL:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn must be set for %s storage", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic must be set when brokers are configured")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5)
	v.SetDefault("server.seed_demo_data", false)

	v.SetDefault("storage.driver", DriverInMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.max_idle", 5)
	v.SetDefault("storage.max_open", 25)
	v.SetDefault("storage.max_lifetime", 30)
	v.SetDefault("storage.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.submit_lock_ttl", 10)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "trip-comments")
	v.SetDefault("kafka.sasl.enable", false)
	v.SetDefault("kafka.sasl.username", "")
	v.SetDefault("kafka.sasl.password", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "trip-comments")
	v.SetDefault("auth.token_ttl", 24)

	v.SetDefault("jobs.recount_likes", "@every 10m")

	v.SetDefault("log.level", "info")
}
