package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes runtime settings: defaults, then an optional YAML file,
// then environment variables.
type Config struct {
	ReadmePath string `yaml:"readme_path"`

	Timeout              time.Duration `yaml:"timeout"`
	RetryCodes           []int         `yaml:"retry_codes"`
	MaxRetries           int           `yaml:"max_retries"`
	BackoffMin           time.Duration `yaml:"backoff_min"`
	BackoffMax           time.Duration `yaml:"backoff_max"`
	ThrottleMaxRetries   int           `yaml:"throttle_max_retries"`
	AcceptPartialContent bool          `yaml:"accept_partial_content"`
	MaxConcurrency       int           `yaml:"max_concurrency"`
	RateLimitRPS         float64       `yaml:"rate_limit_rps"`
	RateLimitBurst       int           `yaml:"rate_limit_burst"`

	UserAgent            string            `yaml:"user_agent"`
	UserAgentExemptHosts []string          `yaml:"user_agent_exempt_hosts"`
	HeadExtensions       []string          `yaml:"head_extensions"`
	OEmbedProviders      map[string]string `yaml:"oembed_providers"`

	IgnoredURLs    []string            `yaml:"ignored_urls"`
	HeaderLinkSkip []string            `yaml:"header_link_skip"`
	HeaderSortSkip []string            `yaml:"header_sort_skip"`
	LinkSortSkip   map[string][]string `yaml:"link_sort_skip"`
	MaxHeaderLevel int                 `yaml:"max_header_level"`
	RawHTML        bool                `yaml:"raw_html"`
}

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:71.0) Gecko/20100101 Firefox/71.0"

// Default returns the settings the check was tuned with against real READMEs.
func Default() *Config {
	return &Config{
		ReadmePath:           "README.md",
		Timeout:              45 * time.Second,
		RetryCodes:           []int{403, 429, 503},
		MaxRetries:           5,
		BackoffMin:           time.Second,
		BackoffMax:           5 * time.Second,
		ThrottleMaxRetries:   10,
		AcceptPartialContent: true,
		MaxConcurrency:       20,
		RateLimitBurst:       1,
		UserAgent:            DefaultUserAgent,
		UserAgentExemptHosts: []string{"twitter.com"},
		HeadExtensions:       []string{".png", ".pdf"},
		OEmbedProviders: map[string]string{
			"youtube.com": "https://www.youtube.com/oembed",
			"youtu.be":    "https://www.youtube.com/oembed",
			"vimeo.com":   "https://vimeo.com/api/oembed.json",
		},
		HeaderLinkSkip: []string{"links", "Table of Contents"},
		HeaderSortSkip: []string{"links", "Prelude", "Other Lists", "Table of Contents"},
		LinkSortSkip: map[string][]string{
			"Table of Contents": {"Prelude", "Other Lists"},
		},
		MaxHeaderLevel: 3,
	}
}

// Load builds the configuration. path may be empty; a missing file is an error
// only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := replaceMaps(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// replaceMaps makes a map given in the file replace its default instead of
// being merged into it, so an entry can be dropped. `{}` clears a map.
func replaceMaps(data []byte, cfg *Config) error {
	var maps struct {
		OEmbedProviders map[string]string   `yaml:"oembed_providers"`
		LinkSortSkip    map[string][]string `yaml:"link_sort_skip"`
	}
	if err := yaml.Unmarshal(data, &maps); err != nil {
		return err
	}
	if maps.OEmbedProviders != nil {
		cfg.OEmbedProviders = maps.OEmbedProviders
	}
	if maps.LinkSortSkip != nil {
		cfg.LinkSortSkip = maps.LinkSortSkip
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if readme := os.Getenv("READMECHECK_README"); readme != "" {
		cfg.ReadmePath = readme
	}

	if timeout := os.Getenv("READMECHECK_TIMEOUT"); timeout != "" {
		dur, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("parse READMECHECK_TIMEOUT: %w", err)
		}
		cfg.Timeout = dur
	}

	if codes := os.Getenv("READMECHECK_RETRY_CODES"); codes != "" {
		var parsed []int
		for _, c := range strings.Split(codes, ",") {
			value, err := strconv.Atoi(strings.TrimSpace(c))
			if err != nil {
				return fmt.Errorf("parse READMECHECK_RETRY_CODES: %w", err)
			}
			parsed = append(parsed, value)
		}
		cfg.RetryCodes = parsed
	}

	if maxRetries := os.Getenv("READMECHECK_MAX_RETRIES"); maxRetries != "" {
		value, err := strconv.Atoi(maxRetries)
		if err != nil {
			return fmt.Errorf("parse READMECHECK_MAX_RETRIES: %w", err)
		}
		cfg.MaxRetries = value
	}

	if concurrency := os.Getenv("READMECHECK_MAX_CONCURRENCY"); concurrency != "" {
		value, err := strconv.Atoi(concurrency)
		if err != nil {
			return fmt.Errorf("parse READMECHECK_MAX_CONCURRENCY: %w", err)
		}
		cfg.MaxConcurrency = value
	}

	if rps := os.Getenv("READMECHECK_RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("parse READMECHECK_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := os.Getenv("READMECHECK_RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("parse READMECHECK_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if ua := os.Getenv("READMECHECK_USER_AGENT"); ua != "" {
		cfg.UserAgent = ua
	}

	if ignored := os.Getenv("READMECHECK_IGNORED_URLS"); ignored != "" {
		cfg.IgnoredURLs = append(cfg.IgnoredURLs, strings.Fields(ignored)...)
	}

	return nil
}

// Validate rejects settings the fetcher or checks cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be > 0"))
	}
	if c.MaxRetries < 0 || c.ThrottleMaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.BackoffMin < 0 || c.BackoffMax < c.BackoffMin {
		errs = append(errs, fmt.Errorf("invalid backoff range [%s, %s]", c.BackoffMin, c.BackoffMax))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, errors.New("max concurrency cannot be negative"))
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("rate limit needs rps >= 0 and a positive burst"))
	}
	if c.MaxHeaderLevel < 1 || c.MaxHeaderLevel > 6 {
		errs = append(errs, fmt.Errorf("max header level %d out of range 1-6", c.MaxHeaderLevel))
	}
	return errors.Join(errs...)
}

// AcceptedCodes is the set of statuses that count as a live link.
func (c *Config) AcceptedCodes() map[int]bool {
	codes := map[int]bool{200: true}
	if c.AcceptPartialContent {
		codes[206] = true
	}
	return codes
}

func Set(values []string) map[string]bool {
	s := make(map[string]bool, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}
