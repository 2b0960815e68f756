// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
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

type WebConfig struct {
	Port         int           `yaml:"port"`
	JWTSecret    string        `yaml:"jwt_secret"`
	APIKey       string        `yaml:"api_key"` // admin key exchanged for a session token
	SessionTTL   time.Duration `yaml:"session_ttl"`
	FeedbackRate int           `yaml:"feedback_rate"` // per user per window
	RateWindow   time.Duration `yaml:"rate_window"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type QueueConfig struct {
	CompletedCap    int `yaml:"completed_cap"`    // bounded terminal-job cache
	EventWorkers    int `yaml:"event_workers"`    // dispatcher pool size
	EventBufferSize int `yaml:"event_buffer_size"`
}

type BanditConfig struct {
	InitialEpsilon float64 `yaml:"initial_epsilon"`
	MinEpsilon     float64 `yaml:"min_epsilon"`
	DecayRate      float64 `yaml:"decay_rate"`
	Algorithm      string  `yaml:"algorithm"` // epsilon-greedy | ucb | thompson-sampling
}

type OrchestratorConfig struct {
	DefaultBackend       string  `yaml:"default_backend"`
	AlwaysIncludeDefault *bool   `yaml:"always_include_default"`
	SelectionThreshold   float64 `yaml:"selection_threshold"`
}

type BackendConfig struct {
	Name      string            `yaml:"name"`      // diffusion | style_transfer | openai | gemini | mock
	Kind      string            `yaml:"kind"`      // subprocess | openai | gemini | mock
	Command   string            `yaml:"command"`   // subprocess binary
	Args      []string          `yaml:"args"`      // extra subprocess args
	APIKey    string            `yaml:"api_key"`   // openai / gemini
	BaseURL   string            `yaml:"base_url"`  // openai-compatible endpoint
	Model     string            `yaml:"model"`     // provider model name
	OutputDir string            `yaml:"output_dir"`
	Timeout   time.Duration     `yaml:"timeout"`
	Extra     map[string]string `yaml:"extra"`
}

type SchedConfig struct {
	StatsFlushInterval time.Duration `yaml:"stats_flush_interval"`
}

type Config struct {
	Log          LogConfig          `yaml:"log"`
	Web          WebConfig          `yaml:"web"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Queue        QueueConfig        `yaml:"queue"`
	Bandit       BanditConfig       `yaml:"bandit"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Backends     []BackendConfig    `yaml:"backends"`
	Sched        SchedConfig        `yaml:"sched"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
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
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 24 * time.Hour
	}
	if cfg.Web.FeedbackRate <= 0 {
		cfg.Web.FeedbackRate = 30
	}
	if cfg.Web.RateWindow <= 0 {
		cfg.Web.RateWindow = time.Minute
	}
	if cfg.Queue.CompletedCap <= 0 {
		cfg.Queue.CompletedCap = 100
	}
	if cfg.Queue.EventWorkers <= 0 {
		cfg.Queue.EventWorkers = 4
	}
	if cfg.Queue.EventBufferSize <= 0 {
		cfg.Queue.EventBufferSize = 256
	}
	if cfg.Bandit.InitialEpsilon <= 0 {
		cfg.Bandit.InitialEpsilon = 0.2
	}
	if cfg.Bandit.MinEpsilon <= 0 {
		cfg.Bandit.MinEpsilon = 0.05
	}
	if cfg.Bandit.DecayRate <= 0 {
		cfg.Bandit.DecayRate = 0.01
	}
	if cfg.Bandit.Algorithm == "" {
		cfg.Bandit.Algorithm = "epsilon-greedy"
	}
	if cfg.Orchestrator.DefaultBackend == "" {
		cfg.Orchestrator.DefaultBackend = "diffusion"
	}
	if cfg.Orchestrator.AlwaysIncludeDefault == nil {
		t := true
		cfg.Orchestrator.AlwaysIncludeDefault = &t
	}
	if cfg.Orchestrator.SelectionThreshold <= 0 {
		cfg.Orchestrator.SelectionThreshold = 0.5
	}
	if cfg.Sched.StatsFlushInterval <= 0 {
		cfg.Sched.StatsFlushInterval = 30 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Web.JWTSecret == "" {
		return nil, errors.New("web.jwt_secret is required")
	}
	if len(cfg.Backends) == 0 {
		return nil, errors.New("at least one backend is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
