// Package config loads the settings of both binaries from an optional YAML
// file and the environment.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"caresync/internal/logger"
)

// Database selects the storage backend.  An empty URL runs the API on the
// in-memory store.
type Database struct {
	URL           string `yaml:"url" env:"DATABASE_URL"`
	NotifyChannel string `yaml:"notify_channel" env:"POSTGRES_NOTIFY_CHANNEL" env-default:"query_events"`
}

// OpenAI configures the answer generator.
type OpenAI struct {
	APIKey          string  `env:"OPENAI_API_KEY"`
	Model           string  `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	BaseURL         string  `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Temperature     float32 `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.2"`
	MaxPromptTokens int     `yaml:"max_prompt_tokens" env:"OPENAI_MAX_PROMPT_TOKENS" env-default:"3500"`
}

// API is the configuration of cmd/api.
type API struct {
	Port           string        `yaml:"port" env:"PORT" env-default:"8080"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" env:"SHUTDOWN_GRACE" env-default:"10s"`
	Database       Database      `yaml:"database"`
	OpenAI         OpenAI        `yaml:"openai"`
	Log            logger.Config `yaml:"log"`
}

// Redis holds the session store connection.  An empty address keeps
// dashboard sessions in memory.
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
}

// Web is the configuration of cmd/web.
type Web struct {
	Port           string        `yaml:"port" env:"WEB_PORT" env-default:"8081"`
	APIBaseURL     string        `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"API_REQUEST_TIMEOUT" env-default:"30s"`
	CookieName     string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"caresync_session"`
	TimeZone       string        `yaml:"time_zone" env:"TIME_ZONE" env-default:"Local"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" env:"SHUTDOWN_GRACE" env-default:"10s"`
	Redis          Redis         `yaml:"redis"`
	Log            logger.Config `yaml:"log"`
}

// Load fills cfg from path (when set) and then from the environment, which
// takes precedence.
func Load(path string, cfg any) error {
	if path != "" {
		return cleanenv.ReadConfig(path, cfg)
	}
	return cleanenv.ReadEnv(cfg)
}

// LoadAPI is Load for the API binary.
func LoadAPI(path string) (*API, error) {
	var cfg API
	if err := Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWeb is Load for the dashboard binary.
func LoadWeb(path string) (*Web, error) {
	var cfg Web
	if err := Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
