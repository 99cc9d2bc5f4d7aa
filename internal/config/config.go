package config

// Config конфигурация сервиса комментариев
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig HTTP-сервер
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // секунды
	SeedDemoData    bool   `mapstructure:"seed_demo_data"`
}

// StorageConfig хранилище: in-memory, postgres или mysql
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"` // минуты
	LogLevel    string `mapstructure:"log_level"`
}

// RedisConfig Redis для блокировок отправки. Пустой Addr - блокировки в памяти.
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	PoolSize      int    `mapstructure:"pool_size"`
	SubmitLockTTL int    `mapstructure:"submit_lock_ttl"` // секунды
}

// KafkaConfig публикация событий комментариев. Пустой Brokers - Kafka отключена.
type KafkaConfig struct {
	Brokers []string   `mapstructure:"brokers"`
	Topic   string     `mapstructure:"topic"`
	Sasl    SaslConfig `mapstructure:"sasl"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig JWT
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	TokenTTL  int    `mapstructure:"token_ttl"` // часы
}

// JobsConfig расписания фоновых задач (формат robfig/cron)
type JobsConfig struct {
	RecountLikes string `mapstructure:"recount_likes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
