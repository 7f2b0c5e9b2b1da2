// Package config loads dossier configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/ledger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Decode reads filename, expands environment variables and unmarshals the
// YAML into target without validating it.
func Decode[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return dossier.Errorf(dossier.EINVALID, "failed to read config file %s: %v", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return dossier.Errorf(dossier.EINVALID, "failed to parse config file %s: %v", filename, err)
	}
	return nil
}

// Load decodes filename into target and validates it when target
// implements Validator.
func Load[T any](filename string, target *T) error {
	if err := Decode(filename, target); err != nil {
		return err
	}
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	SEC     SECConfig     `yaml:"sec"`
	Build   BuildConfig   `yaml:"build"`
}

// Validate returns EINVALID describing the first invalid section.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return dossier.Errorf(dossier.EINVALID, "storage: %v", err)
	}
	if err := c.SEC.Validate(); err != nil {
		return dossier.Errorf(dossier.EINVALID, "sec: %s", dossier.ErrorMessage(err))
	}
	if err := c.Build.Validate(); err != nil {
		return dossier.Errorf(dossier.EINVALID, "build: %v", err)
	}
	return nil
}

// StorageConfig locates dossiers and the local database.
type StorageConfig struct {
	Root string `yaml:"root"`

	// DB defaults to dossier.db inside Root.
	DB string `yaml:"db"`
}

// DBPath returns the database path.
func (c *StorageConfig) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	return filepath.Join(c.Root, "dossier.db")
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// SECConfig controls how the provider is contacted.
type SECConfig struct {
	UserAgent string            `yaml:"user_agent"`
	RPSLimit  int               `yaml:"rps_limit"`
	FetchMode dossier.FetchMode `yaml:"fetch_mode"`
	Timeout   time.Duration     `yaml:"timeout"`
}

// Validate validates the provider configuration.
func (c *SECConfig) Validate() error {
	if err := dossier.ValidateUserAgent(c.UserAgent); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.RPSLimit, validation.Required, validation.Min(1), validation.Max(dossier.MaxRequestsPerSecond)),
		validation.Field(&c.FetchMode, validation.Required, validation.In(dossier.FetchHTTP, dossier.FetchBrowserFallback)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// BuildConfig holds the defaults for build and update.
type BuildConfig struct {
	Years          int                    `yaml:"years"`
	Forms          []string               `yaml:"forms"`
	MaxPerForm     int                    `yaml:"max_filings_per_form"`
	Mode           dossier.Mode           `yaml:"mode"`
	NormalizeLevel dossier.NormalizeLevel `yaml:"normalize_level"`
	IncludeXBRL    bool                   `yaml:"include_xbrl"`
	MinChunkSize   int                    `yaml:"min_chunk_size"`
	Concurrency    int                    `yaml:"concurrency"`
	TokenizerModel string                 `yaml:"tokenizer_model"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Years, validation.Required, validation.Min(1)),
		validation.Field(&c.Forms, validation.Required),
		validation.Field(&c.MaxPerForm, validation.Required, validation.Min(1)),
		validation.Field(&c.Mode, validation.Required, validation.In(dossier.ModeLinksOnly, dossier.ModeFull)),
		validation.Field(&c.NormalizeLevel, validation.Required, validation.In(dossier.NormalizeNone, dossier.NormalizeLight, dossier.NormalizeDeep)),
		validation.Field(&c.MinChunkSize, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Min(1)),
	)
}

// BuildRequest returns the build request these defaults describe.
func (c *Config) BuildRequest(ticker string) ledger.BuildRequest {
	return ledger.BuildRequest{
		Ticker:         ticker,
		Years:          c.Build.Years,
		Forms:          dossier.ParseForms(c.Build.Forms),
		MaxPerForm:     c.Build.MaxPerForm,
		Mode:           c.Build.Mode,
		NormalizeLevel: c.Build.NormalizeLevel,
		IncludeXBRL:    c.Build.IncludeXBRL,
		UserAgent:      c.SEC.UserAgent,
		RPSLimit:       c.SEC.RPSLimit,
	}
}

// Default returns a Config with default values. The user agent has no
// default.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Root: "./dossiers",
		},
		SEC: SECConfig{
			RPSLimit:  3,
			FetchMode: dossier.FetchHTTP,
			Timeout:   30 * time.Second,
		},
		Build: BuildConfig{
			Years:          ledger.DefaultYears,
			Forms:          dossier.FormStrings(dossier.DefaultForms),
			MaxPerForm:     ledger.DefaultMaxPerForm,
			Mode:           dossier.ModeLinksOnly,
			NormalizeLevel: dossier.NormalizeLight,
			MinChunkSize:   dossier.DefaultMinChunkSize,
			Concurrency:    4,
		},
	}
}
