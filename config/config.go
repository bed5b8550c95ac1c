package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the co-writer backend.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Session  SessionConfig  `yaml:"session"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// gin mode: debug, release or test
	Mode string `yaml:"mode"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
	Mock    bool   `yaml:"mock"`

	CoWriter    CompletionConfig `yaml:"co_writer"`
	Analysis    CompletionConfig `yaml:"analysis"`
	Enhancement CompletionConfig `yaml:"enhancement"`
	Extraction  CompletionConfig `yaml:"extraction"`
	Winners     CompletionConfig `yaml:"winners"`
}

type CompletionConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

type SessionConfig struct {
	AnalyzeFirst bool   `yaml:"analyze_first"`
	WordDelay    string `yaml:"word_delay"`
	CharDelay    string `yaml:"char_delay"`
	CycleTimeout string `yaml:"cycle_timeout"`
}

// SearchConfig configures the web search used to find past scholarship winners.
type SearchConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	MaxResults   int    `yaml:"max_results"`
	PageLimit    int    `yaml:"page_limit"` // characters of text kept per scraped page
	FetchTimeout string `yaml:"fetch_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func GetOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// DefaultConfig mirrors the values the hosted functions used.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "release",
		},
		Provider: ProviderConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Timeout:     "2m",
			CoWriter:    CompletionConfig{MaxTokens: 500, Temperature: 0.8},
			Analysis:    CompletionConfig{MaxTokens: 1000, Temperature: 0.7},
			Enhancement: CompletionConfig{MaxTokens: 200, Temperature: 0.7},
			Extraction:  CompletionConfig{MaxTokens: 2000, Temperature: 0.2},
			Winners:     CompletionConfig{MaxTokens: 1000, Temperature: 0.2},
		},
		Session: SessionConfig{
			WordDelay:    "50ms",
			CharDelay:    "15ms",
			CycleTimeout: "60s",
		},
		Search: SearchConfig{
			BaseURL:      "https://api.tavily.com",
			MaxResults:   5,
			PageLimit:    8000,
			FetchTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := GetOpenAIKey(); key != "" {
		c.Provider.APIKey = key
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("TAVILY_BASE_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv("COWRITER_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("COWRITER_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("COWRITER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := boolEnv("COWRITER_MOCK_PROVIDER"); ok {
		c.Provider.Mock = v
	}
	if v, ok := boolEnv("COWRITER_ANALYZE_FIRST"); ok {
		c.Session.AnalyzeFirst = v
	}
}

func boolEnv(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate checks that every duration parses and the provider settings are usable.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"provider.timeout":      c.Provider.Timeout,
		"session.word_delay":    c.Session.WordDelay,
		"session.char_delay":    c.Session.CharDelay,
		"session.cycle_timeout": c.Session.CycleTimeout,
		"search.fetch_timeout":  c.Search.FetchTimeout,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Provider.Model == "" {
		errs = append(errs, errors.New("provider.model is required"))
	}
	if c.Provider.BaseURL == "" && !c.Provider.Mock {
		errs = append(errs, errors.New("provider.base_url is required"))
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, errors.New("search.max_results must be positive"))
	}
	if c.Search.PageLimit <= 0 {
		errs = append(errs, errors.New("search.page_limit must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) ProviderTimeout() time.Duration { return mustDuration(c.Provider.Timeout) }
func (c *Config) WordDelay() time.Duration       { return mustDuration(c.Session.WordDelay) }
func (c *Config) CharDelay() time.Duration       { return mustDuration(c.Session.CharDelay) }
func (c *Config) CycleTimeout() time.Duration    { return mustDuration(c.Session.CycleTimeout) }
func (c *Config) FetchTimeout() time.Duration    { return mustDuration(c.Search.FetchTimeout) }

// mustDuration is only called on values Validate has accepted.
func mustDuration(raw string) time.Duration {
	d, _ := time.ParseDuration(raw)
	return d
}
