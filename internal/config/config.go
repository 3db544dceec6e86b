// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level Cortex configuration.
type Config struct {
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Notes     NotesConfig     `mapstructure:"notes"`
	Search    SearchConfig    `mapstructure:"search"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EmbeddingConfig points at the local embedding backend.
type EmbeddingConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
	Dimensions int    `mapstructure:"dimensions"`
}

// Timeout converts the configured millisecond budget to a Duration.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// StorageConfig locates the embedding database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// NotesConfig locates the markdown knowledge base.
type NotesConfig struct {
	Root    string `mapstructure:"root"`
	Project string `mapstructure:"project"`
}

// SearchConfig sets retrieval defaults.
type SearchConfig struct {
	DefaultLimit     int     `mapstructure:"default_limit"`
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	GuardMode        string  `mapstructure:"guard_mode"`
}

// ServerConfig controls how the HTTP gateway listens.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig controls the rotating log file.
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CORTEX_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.timeout_ms", 60000)
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("storage.db_path", defaultDBPath())
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.default_threshold", 0.7)
	v.SetDefault("search.guard_mode", "warn")
	v.SetDefault("server.listen", "127.0.0.1:18890")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 30)

	// Environment
	v.SetEnvPrefix("CORTEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, cortexerr.Errorf(cortexerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	cfg.Storage.DBPath = ExpandPath(cfg.Storage.DBPath)
	cfg.Notes.Root = ExpandPath(cfg.Notes.Root)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateSearch()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if c.Embedding.BaseURL == "" {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "config: embedding.base_url must not be empty"))
	}
	if c.Embedding.Model == "" {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "config: embedding.model must not be empty"))
	}
	if c.Embedding.TimeoutMS <= 0 {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: embedding.timeout_ms must be greater than 0, got %d",
			c.Embedding.TimeoutMS,
		))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if c.Storage.DBPath == "" {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "config: storage.db_path must not be empty"))
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > 100 {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: search.default_limit must be between 1 and 100, got %d",
			c.Search.DefaultLimit,
		))
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold > 1 {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: search.default_threshold must be between 0 and 1, got %g",
			c.Search.DefaultThreshold,
		))
	}

	validGuards := map[string]bool{"warn": true, "enforce": true}
	if !validGuards[c.Search.GuardMode] {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: search.guard_mode must be one of [warn, enforce], got %q",
			c.Search.GuardMode,
		))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
	} else {
		host, portStr, err := net.SplitHostPort(c.Server.Listen)
		if err != nil {
			errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
				"config: server.listen must be a valid host:port address, got %q: %w",
				c.Server.Listen, err,
			))
		} else {
			_ = host // host can be empty (e.g., ":8080"), which is valid
			port, err := strconv.Atoi(portStr)
			if err != nil {
				errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be a number, got %q",
					portStr,
				))
			} else if port < 1 || port > 65535 {
				errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be between 1 and 65535, got %d",
					port,
				))
			}
		}
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue,
			"config: logging.level must be one of [debug, info, warn, error], got %q",
			c.Logging.Level,
		))
	}

	return errs
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// defaultDBPath returns ~/.basic-memory/memory.db, the database the
// note-taking toolchain shares.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".basic-memory", "memory.db")
	}
	return filepath.Join(home, ".basic-memory", "memory.db")
}
