package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "vatcheck/pkg/domain-errors"
)

const (
	DefaultRegistryURL    = "https://adisspr.mfcr.cz/dpr/DphReg"
	DefaultBatchSize      = 2
	MaxBatchSize          = 10
	DefaultWaitTimeout    = 10 * time.Second
	DefaultCountryPrefix  = "CZ"
	DefaultTransferMethod = "PREVOD"
)

// Config captures everything a verification run needs.
type Config struct {
	RegistryURL   string
	BatchSize     int
	WaitTimeout   time.Duration
	BatchInterval time.Duration

	CountryPrefix    string
	TransferMethod   string
	StrictSettlement bool
	Dedup            bool

	Headless    bool
	BrowserPath string

	OutputDir   string
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		RegistryURL:    DefaultRegistryURL,
		BatchSize:      DefaultBatchSize,
		WaitTimeout:    DefaultWaitTimeout,
		CountryPrefix:  DefaultCountryPrefix,
		TransferMethod: DefaultTransferMethod,
		Dedup:          true,
		Headless:       true,
		OutputDir:      ".",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// FromEnv builds a Config from VATCHECK_* environment variables so main
// stays lean. Unparseable values are reported, not silently defaulted.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = b
		}
	}

	str("VATCHECK_REGISTRY_URL", &cfg.RegistryURL)
	integer("VATCHECK_BATCH_SIZE", &cfg.BatchSize)
	duration("VATCHECK_WAIT_TIMEOUT", &cfg.WaitTimeout)
	duration("VATCHECK_BATCH_INTERVAL", &cfg.BatchInterval)
	str("VATCHECK_COUNTRY_PREFIX", &cfg.CountryPrefix)
	str("VATCHECK_TRANSFER_METHOD", &cfg.TransferMethod)
	boolean("VATCHECK_STRICT", &cfg.StrictSettlement)
	boolean("VATCHECK_DEDUP", &cfg.Dedup)
	boolean("VATCHECK_HEADLESS", &cfg.Headless)
	str("VATCHECK_BROWSER_PATH", &cfg.BrowserPath)
	str("VATCHECK_OUTPUT_DIR", &cfg.OutputDir)
	str("VATCHECK_METRICS_ADDR", &cfg.MetricsAddr)
	str("VATCHECK_LOG_LEVEL", &cfg.LogLevel)
	str("VATCHECK_LOG_FORMAT", &cfg.LogFormat)

	if len(errs) > 0 {
		return cfg, dErrors.New(dErrors.CodeValidation, "invalid environment: "+strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate rejects settings a run cannot start with.
func (c Config) Validate() error {
	var problems []string
	if c.RegistryURL == "" {
		problems = append(problems, "registry URL is required")
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		problems = append(problems, fmt.Sprintf("batch size must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize))
	}
	if c.WaitTimeout <= 0 {
		problems = append(problems, "wait timeout must be positive")
	}
	if c.BatchInterval < 0 {
		problems = append(problems, "batch interval must not be negative")
	}
	if c.CountryPrefix == "" {
		problems = append(problems, "country prefix is required")
	}
	if c.TransferMethod == "" {
		problems = append(problems, "transfer method is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log format must be text or json, got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; "))
	}
	return nil
}
