package config

import (
	"fmt"
	"time"

	"orubacontacts/pkg/database"
	"orubacontacts/pkg/redis"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config читается из переменных окружения, опционально из YAML-файла (CONFIG_PATH).
type Config struct {
	App       AppConfig       `yaml:"app"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Matching  MatchingConfig  `yaml:"matching"`
	Cache     CacheConfig     `yaml:"cache"`
	Workers   WorkersConfig   `yaml:"workers"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type AppConfig struct {
	Port        string `yaml:"port" env:"PORT" env-default:"3000"`
	Debug       bool   `yaml:"debug" env:"DEBUG" env-default:"false"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:8080"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

type DBConfig struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"-" env:"DB_PASSWORD" env-default:"postgres"`
	DBName       string `yaml:"name" env:"DB_NAME" env-default:"oruba_contacts"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	DSN          string `yaml:"dsn" env:"DB_DSN"` // sqlite: путь к файлу; для остальных переопределяет host/port
	MaxIdleConns int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"50"`
	LogSQL       bool   `yaml:"log_sql" env:"DB_LOG_SQL" env-default:"false"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MatchingConfig struct {
	LockTimeout         time.Duration `yaml:"lock_timeout" env:"MATCHING_LOCK_TIMEOUT" env-default:"10m"`
	HospitalSearchLimit int           `yaml:"hospital_search_limit" env:"MATCHING_HOSPITAL_LIMIT" env-default:"100"`
	ClaimAttempts       int           `yaml:"claim_attempts" env:"MATCHING_CLAIM_ATTEMPTS" env-default:"5"`
}

type CacheConfig struct {
	StatsTTL  time.Duration `yaml:"stats_ttl" env:"CACHE_STATS_TTL" env-default:"5s"`
	LookupTTL time.Duration `yaml:"lookup_ttl" env:"CACHE_LOOKUP_TTL" env-default:"10m"`
}

type WorkersConfig struct {
	LockSweepEnabled  bool          `yaml:"lock_sweep_enabled" env:"LOCK_SWEEP_ENABLED" env-default:"false"`
	LockSweepInterval time.Duration `yaml:"lock_sweep_interval" env:"LOCK_SWEEP_INTERVAL" env-default:"1m"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RequestsPerSecond int  `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"20"`
	Burst             int  `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"40"`
	PerIP             bool `yaml:"per_ip" env:"RATE_LIMIT_PER_IP" env-default:"true"`
}

// Load читает YAML (если путь задан), затем переменные окружения поверх него.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: use postgres, mysql or sqlite", c.DB.Driver)
	}
	if c.Matching.LockTimeout <= 0 {
		return fmt.Errorf("MATCHING_LOCK_TIMEOUT must be positive, got %v", c.Matching.LockTimeout)
	}
	if c.Matching.HospitalSearchLimit <= 0 {
		c.Matching.HospitalSearchLimit = 100
	}
	if c.Matching.ClaimAttempts <= 0 {
		c.Matching.ClaimAttempts = 1
	}
	return nil
}

func (c DBConfig) Database() database.Config {
	return database.Config{
		Driver:       c.Driver,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		DBName:       c.DBName,
		SSLMode:      c.SSLMode,
		DSN:          c.DSN,
		MaxIdleConns: c.MaxIdleConns,
		MaxOpenConns: c.MaxOpenConns,
		LogSQL:       c.LogSQL,
	}
}

func (c RedisConfig) Client() redis.Config {
	return redis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
	}
}
