package config

import (
	"errors"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/bankrates/ingest"
	"github.com/sig-0/bankrates/provider/fetch"
	"github.com/sig-0/bankrates/provider/myfin"
)

const DefaultListenAddress = "0.0.0.0:8080"

var (
	ErrInvalidListenAddress  = errors.New("invalid listen address")
	ErrMissingIngestConfig   = errors.New("missing ingest config")
	ErrInvalidSiteBase       = errors.New("invalid site base URL")
	ErrInvalidPageCount      = errors.New("invalid page count")
	ErrInvalidConcurrency    = errors.New("invalid fetch concurrency")
	ErrInvalidAttempts       = errors.New("invalid fetch attempts")
	ErrInvalidBackoff        = errors.New("invalid backoff base")
	ErrInvalidTimeout        = errors.New("invalid fetch timeout")
	ErrInvalidUpdateInterval = errors.New("invalid update interval")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The rate ingestion config
	Ingest *Ingest `toml:"ingest"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// CORS defines the server CORS configuration
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Ingest defines the listing collection and update configuration.
// Durations are strings ("10m", "1s")
type Ingest struct {
	// The listing site base URL
	SiteBase string `toml:"site_base"`

	// The User-Agent sent with page requests, if any
	UserAgent string `toml:"user_agent"`

	// The number of listing pages
	PageCount int `toml:"page_count"`

	// The max number of pages fetched at once
	Concurrency int `toml:"concurrency"`

	// The total number of fetch attempts per page
	Attempts int `toml:"attempts"`

	// The base retry delay, doubled on every retry
	BackoffBase time.Duration `toml:"backoff_base"`

	// The total request timeout
	RequestTimeout time.Duration `toml:"request_timeout"`

	// The connect timeout
	ConnectTimeout time.Duration `toml:"connect_timeout"`

	// The recurring update interval
	UpdateInterval time.Duration `toml:"update_interval"`

	// Randomize the retry delays
	Jitter bool `toml:"jitter"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Ingest:        DefaultIngestConfig(),
	}
}

// DefaultCORSConfig returns the default (permissive, read-only) CORS configuration
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// DefaultIngestConfig returns the default ingestion configuration
func DefaultIngestConfig() *Ingest {
	return &Ingest{
		SiteBase:       myfin.DefaultSiteBase,
		PageCount:      myfin.DefaultPageCount,
		Concurrency:    myfin.DefaultConcurrency,
		Attempts:       fetch.DefaultAttempts,
		BackoffBase:    fetch.DefaultBackoffBase,
		RequestTimeout: fetch.DefaultRequestTimeout,
		ConnectTimeout: fetch.DefaultConnectTimeout,
		UpdateInterval: ingest.DefaultUpdateInterval,
	}
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.Ingest == nil {
		return ErrMissingIngestConfig
	}

	return validateIngest(config.Ingest)
}

func validateIngest(cfg *Ingest) error {
	base, err := url.Parse(cfg.SiteBase)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return ErrInvalidSiteBase
	}

	if cfg.PageCount < 1 {
		return ErrInvalidPageCount
	}

	if cfg.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if cfg.Attempts < 1 {
		return ErrInvalidAttempts
	}

	if cfg.BackoffBase < 0 {
		return ErrInvalidBackoff
	}

	if cfg.RequestTimeout <= 0 || cfg.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if cfg.UpdateInterval <= 0 {
		return ErrInvalidUpdateInterval
	}

	return nil
}

// Read reads the configuration from the given path.
// Values missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it over the defaults
	cfg := DefaultConfig()

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
