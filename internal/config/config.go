package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"` // HMAC secret for admin token guard
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LLMConfig struct {
	Provider        string `yaml:"provider"` // openai|gemini
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	Model           string `yaml:"model"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
	MaxAnswerTokens int    `yaml:"max_answer_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent LLM calls
	RateLimit       int    `yaml:"rate_limit"`       // calls per window
	RateWindow      time.Duration `yaml:"rate_window"`
}

type ScrapeConfig struct {
	MaxConcurrent  int           `yaml:"max_concurrent"`
	LimitPerSource int           `yaml:"limit_per_source"`
	Interval       time.Duration `yaml:"interval"`
	ValidateLinks  bool          `yaml:"validate_links"`
	LinkTimeout    time.Duration `yaml:"link_timeout"`
	DeniedDomains  []string      `yaml:"denied_domains"`
	GreenhouseBoards []string    `yaml:"greenhouse_boards"` // board tokens to poll
	LeverCompanies   []string    `yaml:"lever_companies"`   // lever site handles
}

type ApplyConfig struct {
	Interval              time.Duration `yaml:"interval"`
	MaxPerRun             int           `yaml:"max_per_run"`
	MaxConcurrentSessions int           `yaml:"max_concurrent_sessions"`
	StepTimeout           time.Duration `yaml:"step_timeout"`
	StalenessDays         int           `yaml:"staleness_days"`
	AutoSubmit            bool          `yaml:"auto_submit"`
}

type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	NtfyTopic         string `yaml:"ntfy_topic"`
}

type ProfileConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Apply    ApplyConfig    `yaml:"apply"`
	Notify   NotifyConfig   `yaml:"notify"`
	Profile  ProfileConfig  `yaml:"profile"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxPromptTokens <= 0 {
		cfg.LLM.MaxPromptTokens = 2048
	}
	if cfg.LLM.MaxAnswerTokens <= 0 {
		cfg.LLM.MaxAnswerTokens = 256
	}
	if cfg.LLM.ConcurrentLimit <= 0 {
		cfg.LLM.ConcurrentLimit = 4
	}
	if cfg.LLM.RateLimit <= 0 {
		cfg.LLM.RateLimit = 30
	}
	if cfg.LLM.RateWindow <= 0 {
		cfg.LLM.RateWindow = time.Minute
	}
	if cfg.Scrape.MaxConcurrent <= 0 {
		cfg.Scrape.MaxConcurrent = 4
	}
	if cfg.Scrape.LimitPerSource <= 0 {
		cfg.Scrape.LimitPerSource = 50
	}
	if cfg.Scrape.Interval <= 0 {
		cfg.Scrape.Interval = 4 * time.Hour
	}
	if cfg.Scrape.LinkTimeout <= 0 {
		cfg.Scrape.LinkTimeout = 8 * time.Second
	}
	if cfg.Apply.Interval <= 0 {
		cfg.Apply.Interval = 15 * time.Minute
	}
	if cfg.Apply.MaxPerRun <= 0 {
		cfg.Apply.MaxPerRun = 10
	}
	if cfg.Apply.MaxConcurrentSessions <= 0 {
		cfg.Apply.MaxConcurrentSessions = 2
	}
	if cfg.Apply.StepTimeout <= 0 {
		cfg.Apply.StepTimeout = 45 * time.Second
	}
	if cfg.Apply.StalenessDays <= 0 {
		cfg.Apply.StalenessDays = 30
	}
	if cfg.Profile.Path == "" {
		cfg.Profile.Path = "data/profile.json"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
