// Package config loads the automation engine configuration from a YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddress       = ":8090"
	defaultReadTimeout         = 10 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultContinuationDelay   = 5 * time.Second
	defaultPublishTimeout      = 30 * time.Second
	defaultWorkerPollInterval  = 2 * time.Second
	defaultWorkerBatchSize     = 20
	defaultPublishRatePerMin   = 30
	defaultOpenAIModel         = "gpt-3.5-turbo"
	defaultOpenAIWordCount     = 800
)

// Config is the root configuration for all engine commands.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Automation AutomationConfig `yaml:"automation"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	// JWTSecret protects the admin API routes. Empty disables auth, which
	// is only acceptable for local development.
	JWTSecret string `yaml:"jwt_secret"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	WordCount int    `yaml:"word_count"`
}

type AutomationConfig struct {
	// ContinuationDelay is how long after a successful publish the next
	// platform's step runs.
	ContinuationDelay time.Duration `yaml:"continuation_delay"`
	// PublishTimeout bounds one external publish call.
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	// EnabledPlatforms overrides the compiled-in enabled flags when
	// non-empty (canonical ids).
	EnabledPlatforms []string `yaml:"enabled_platforms"`
	// PublishRatePerMinute limits outbound publish calls across all
	// campaigns.
	PublishRatePerMinute int `yaml:"publish_rate_per_minute"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

// Load reads the config file at path, applies defaults and environment
// overrides, and validates the result. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for contradictions the defaults cannot
// repair.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Automation.ContinuationDelay <= 0 {
		return fmt.Errorf("automation.continuation_delay must be positive, got %v", c.Automation.ContinuationDelay)
	}
	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("worker.batch_size must be positive, got %d", c.Worker.BatchSize)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "automation"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}
	if cfg.OpenAI.WordCount == 0 {
		cfg.OpenAI.WordCount = defaultOpenAIWordCount
	}
	if cfg.Automation.ContinuationDelay == 0 {
		cfg.Automation.ContinuationDelay = defaultContinuationDelay
	}
	if cfg.Automation.PublishTimeout == 0 {
		cfg.Automation.PublishTimeout = defaultPublishTimeout
	}
	if cfg.Automation.PublishRatePerMinute == 0 {
		cfg.Automation.PublishRatePerMinute = defaultPublishRatePerMin
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = defaultWorkerPollInterval
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = defaultWorkerBatchSize
	}
}

func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("AUTOMATION_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_DB"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("POSTGRES_AUTOMATION_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("AUTOMATION_ENABLED_PLATFORMS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Automation.EnabledPlatforms = parts
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.CORSOrigins = parts
	}
}

// parseBool accepts the common truthy string spellings.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
