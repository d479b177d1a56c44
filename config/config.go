// Package config loads the settings of the vpm tool.
//
// Settings come from, in increasing priority: built-in defaults, a YAML
// file, a .env file and VP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	portfolio "github.com/venturetk/VenturePortfolio"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

// Environment variables overriding the file settings.
const (
	EnvPortfolio         = "VP_PORTFOLIO"
	EnvStore             = "VP_STORE"
	EnvName              = "VP_NAME"
	EnvQuote             = "VP_QUOTE"
	EnvLogLevel          = "VP_LOG_LEVEL"
	EnvWithdrawBasis     = "VP_WITHDRAW_BASIS"
	EnvInternalTransfers = "VP_INTERNAL_TRANSFERS"
	EnvQuotesFile        = "VP_QUOTES_FILE"
	EnvQuotesPath        = "VP_QUOTES_PATH"
	EnvQuotesTTL         = "VP_QUOTES_TTL"
	EnvMetricsFile       = "VP_METRICS_FILE"
)

// Config holds the validated settings.
type Config struct {
	Portfolio         string // path of the portfolio file or database
	Store             string
	Name              string
	Quote             string
	LogLevel          zapcore.Level
	WithdrawBasis     portfolio.DisposalBasis
	InternalTransfers portfolio.TransferPolicy
	Quotes            Quotes
	MetricsFile       string
}

// Quotes configures the quote file oracle. An empty File disables it.
type Quotes struct {
	File string
	Path string
	TTL  time.Duration
}

// configTmp is the raw YAML shape, validated into Config.
type configTmp struct {
	Portfolio         string `yaml:"portfolio"`
	Store             string `yaml:"store"`
	Name              string `yaml:"name"`
	Quote             string `yaml:"quote"`
	LogLevel          string `yaml:"log_level"`
	WithdrawBasis     string `yaml:"withdraw_basis"`
	InternalTransfers string `yaml:"internal_transfers"`
	Quotes            struct {
		File string        `yaml:"file"`
		Path string        `yaml:"path"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"quotes"`
	MetricsFile string `yaml:"metrics_file"`
}

func defaults() configTmp {
	var c configTmp
	c.Portfolio = "portfolio.jsonl"
	c.Store = StoreJSONL
	c.Name = "portfolio"
	c.Quote = portfolio.DefaultQuote
	c.LogLevel = "warn"
	c.WithdrawBasis = portfolio.OpenPrice.String()
	c.InternalTransfers = portfolio.TransferIgnore.String()
	c.Quotes.TTL = 5 * time.Minute
	return c
}

// Load reads the YAML file at path (skipped when empty or missing), then
// the .env files (default ".env" in the working directory, missing files
// ignored), then the VP_* variables.
func Load(path string, envFiles ...string) (*Config, error) {
	c := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("could not read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, fmt.Errorf("could not parse config file %q: %w", path, err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load env file %q: %w", f, err)
		}
	}

	override(&c.Portfolio, EnvPortfolio)
	override(&c.Store, EnvStore)
	override(&c.Name, EnvName)
	override(&c.Quote, EnvQuote)
	override(&c.LogLevel, EnvLogLevel)
	override(&c.WithdrawBasis, EnvWithdrawBasis)
	override(&c.InternalTransfers, EnvInternalTransfers)
	override(&c.Quotes.File, EnvQuotesFile)
	override(&c.Quotes.Path, EnvQuotesPath)
	override(&c.MetricsFile, EnvMetricsFile)
	if v := os.Getenv(EnvQuotesTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("incorrect %s=%q: %w", EnvQuotesTTL, v, err)
		}
		c.Quotes.TTL = ttl
	}

	return c.validate()
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c configTmp) validate() (*Config, error) {
	var errs error
	cfg := &Config{
		Portfolio:   strings.TrimSpace(c.Portfolio),
		Name:        strings.TrimSpace(c.Name),
		Quote:       strings.ToUpper(strings.TrimSpace(c.Quote)),
		MetricsFile: c.MetricsFile,
		Quotes:      Quotes{File: c.Quotes.File, Path: c.Quotes.Path, TTL: c.Quotes.TTL},
	}
	if cfg.Portfolio == "" {
		errs = errors.Join(errs, errors.New("incorrect 'portfolio' param: must not be empty"))
	}
	switch s := strings.ToLower(strings.TrimSpace(c.Store)); s {
	case StoreJSONL, StoreSQLite:
		cfg.Store = s
	default:
		errs = errors.Join(errs, fmt.Errorf("incorrect 'store' param %q: want %q or %q", c.Store, StoreJSONL, StoreSQLite))
	}
	if err := portfolio.ValidateCurrency(cfg.Quote); err != nil {
		errs = errors.Join(errs, fmt.Errorf("incorrect 'quote' param: %w", err))
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		errs = errors.Join(errs, fmt.Errorf("incorrect 'log_level' param: %w", err))
	}
	cfg.LogLevel = level
	if cfg.WithdrawBasis, err = portfolio.ParseDisposalBasis(c.WithdrawBasis); err != nil {
		errs = errors.Join(errs, fmt.Errorf("incorrect 'withdraw_basis' param: %w", err))
	}
	if cfg.InternalTransfers, err = portfolio.ParseTransferPolicy(c.InternalTransfers); err != nil {
		errs = errors.Join(errs, fmt.Errorf("incorrect 'internal_transfers' param: %w", err))
	}
	if cfg.Quotes.TTL < 0 {
		errs = errors.Join(errs, fmt.Errorf("incorrect 'quotes.ttl' param %s: must not be negative", cfg.Quotes.TTL))
	}
	if errs != nil {
		return nil, errs
	}
	return cfg, nil
}

// Logger builds the production logger at the configured level, writing to stderr.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// Options returns the portfolio options the settings translate to.
// The oracle, logger and metrics are wired by the caller.
func (c *Config) Options() []portfolio.Option {
	return []portfolio.Option{
		portfolio.WithWithdrawBasis(c.WithdrawBasis),
		portfolio.WithTransferPolicy(c.InternalTransfers),
	}
}
