package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL = "http://localhost:5000/api"
	DefaultPort       = "8080"
	DefaultExchange   = "attempt.events"

	SourceAPI      = "api"
	SourcePostgres = "postgres"
	SourceStatic   = "static"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	API struct {
		BaseURL    string `yaml:"baseUrl"`
		Token      string `yaml:"token"`
		Timeout    string `yaml:"timeout"`
		VerifyUser bool   `yaml:"verifyUser"`
	} `yaml:"api"`
	Attempt struct {
		QuestionSeconds int    `yaml:"questionSeconds"`
		FeedbackDelay   string `yaml:"feedbackDelay"`
	} `yaml:"attempt"`
	Quiz struct {
		TTL    string `yaml:"ttl"`
		Source string `yaml:"source"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Rabbit struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbit"`
	Log struct {
		Env string `yaml:"env"`
	} `yaml:"log"`
}

// Load reads YAML config from path. A missing file is not an error: the
// defaults plus environment overrides are used instead.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"QUIZ_API_URL":   &c.API.BaseURL,
		"QUIZ_API_TOKEN": &c.API.Token,
		"LOG_ENV":        &c.Log.Env,
		"PORT":           &c.Server.Port,
		"REDIS_ADDR":     &c.Redis.Addr,
		"POSTGRES_URL":   &c.Postgres.URL,
		"RABBIT_URL":     &c.Rabbit.URL,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.Quiz.Source == "" {
		c.Quiz.Source = SourceAPI
	}
	if c.Rabbit.Exchange == "" {
		c.Rabbit.Exchange = DefaultExchange
	}
	if c.Log.Env == "" {
		c.Log.Env = "local"
	}
}

func (c *Config) validate() error {
	switch c.Quiz.Source {
	case SourceAPI, SourceStatic:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("quiz source %q needs postgres.url", c.Quiz.Source)
		}
	default:
		return fmt.Errorf("unknown quiz source %q", c.Quiz.Source)
	}
	if c.Attempt.QuestionSeconds < 0 {
		return fmt.Errorf("attempt.questionSeconds must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
