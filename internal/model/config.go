package model

import "time"

// Config is the runtime configuration for the engine and CLI.
// Hierarchy: flags > CERTO_* env > ~/.certo/config.yaml > defaults.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
}

// HTTPConfig controls the URL check fetcher.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" json:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" json:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" json:"no_proxy"`
}

// CacheConfig controls the result and URL body caches.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	MemoryTTL       time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// LLMConfig controls the review provider used by llm checks.
type LLMConfig struct {
	Provider      string `yaml:"provider" json:"provider"` // openai | anthropic | ollama | ""
	Model         string `yaml:"model" json:"model"`
	APIKey        string `yaml:"api_key" json:"-"`
	BaseURL       string `yaml:"base_url" json:"base_url"`
	Timeout       int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens     int    `yaml:"max_tokens" json:"max_tokens"`
	MaxFileBytes  int64  `yaml:"max_file_bytes" json:"max_file_bytes"`
	MaxTotalBytes int64  `yaml:"max_total_bytes" json:"max_total_bytes"`
}

// ConcurrencyConfig bounds parallel check execution.
type ConcurrencyConfig struct {
	CheckWorkers int `yaml:"check_workers" json:"check_workers"`
}

// RateLimitConfig bounds outbound requests per domain.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       60 * time.Second,
			UserAgent:     "certo/0.1 (verification check)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: false,
		},
		Cache: CacheConfig{
			Enabled:         true,
			MemoryTTL:       5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "",
			Timeout:       30,
			MaxTokens:     1000,
			MaxFileBytes:  262_144,   // 256 KiB per file
			MaxTotalBytes: 1_048_576, // 1 MiB per request
		},
		Concurrency: ConcurrencyConfig{
			CheckWorkers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
	}
}
