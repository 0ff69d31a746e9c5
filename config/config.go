/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/suparena/audithistory/errors"
)

// EnvPrefix namespaces environment overrides, e.g. AUDIT_BUCKET or AUDIT_AWS_REGION
const EnvPrefix = "AUDIT"

const (
	DefaultBucket     = "poc-audit-history-records"
	DefaultScratchDir = "tmp"
	DefaultPageSize   = 1000
)

// Config represents the complete application configuration
type Config struct {
	Bucket     string        `yaml:"bucket" envconfig:"BUCKET" validate:"required"`
	AWS        AWSConfig     `yaml:"aws" envconfig:"AWS"`
	ScratchDir string        `yaml:"scratch_dir" envconfig:"SCRATCH_DIR" validate:"required"`
	OutputDir  string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Format     string        `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx"`
	BOM        bool          `yaml:"bom" envconfig:"BOM"`
	Strict     bool          `yaml:"strict" envconfig:"STRICT"`
	PageSize   int32         `yaml:"page_size" envconfig:"PAGE_SIZE" validate:"gte=1,lte=1000"`
	History    HistoryConfig `yaml:"history" envconfig:"HISTORY"`
	Logging    LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// AWSConfig overrides the default AWS credential and region resolution
type AWSConfig struct {
	Region    string `yaml:"region" envconfig:"REGION"`
	Profile   string `yaml:"profile" envconfig:"PROFILE"`
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY" validate:"required_with=SecretKey"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY" validate:"required_with=AccessKey"`
}

// HistoryConfig enables the DynamoDB run ledger when Table is set
type HistoryConfig struct {
	Table    string `yaml:"table" envconfig:"TABLE"`
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	Limit    int32  `yaml:"limit" envconfig:"LIMIT" validate:"gte=1,lte=100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Bucket:     DefaultBucket,
		ScratchDir: DefaultScratchDir,
		Format:     "csv",
		PageSize:   DefaultPageSize,
		History: HistoryConfig{
			Limit: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (skipped when path
// is empty), then dotenv files, then AUDIT_* environment variables. Variables already set in
// the environment win over dotenv values. Missing dotenv files are ignored; ".env" is used
// when none are given. Command line flags are applied by the caller, which then calls Validate.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML document at filePath onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate lower-cases the enumerated settings, checks struct constraints and reports the
// first violation as a ValidationError
func (c *Config) Validate() error {
	c.normalize()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		return errors.NewValidationError(fe.Namespace(), msg)
	}
	return errors.NewValidationError("", err.Error())
}

func (c *Config) normalize() {
	for _, s := range []*string{&c.Format, &c.Logging.Level, &c.Logging.Format} {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
}

// HistoryEnabled reports whether export runs are recorded
func (c *Config) HistoryEnabled() bool {
	return c.History.Table != ""
}
