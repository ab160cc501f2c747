// Package config handles configuration loading and parsing for vaultgate.
//
// A loaded Config is an immutable snapshot: policy evaluation reads one
// snapshot for its whole run, and settings updates swap the process-wide
// snapshot atomically rather than mutating in place.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/vaultgate/vaultgate/internal/blocklist"
	"github.com/vaultgate/vaultgate/internal/constants"
	"github.com/vaultgate/vaultgate/internal/logger"
	"github.com/vaultgate/vaultgate/internal/sandbox"
)

//go:embed config.toml
var defaultConfig []byte

// File mirrors the on-disk config.toml layout.
type File struct {
	Vault struct {
		Root      string   `toml:"root"`
		ReadWrite []string `toml:"readwrite"`
		Context   []string `toml:"context"`
		Export    []string `toml:"export"`
	} `toml:"vault"`
	Blocklist struct {
		Enabled  bool     `toml:"enabled"`
		Patterns []string `toml:"patterns"`
	} `toml:"blocklist"`
	Wrappers struct {
		Extra []string `toml:"extra"`
	} `toml:"wrappers"`
	Approval struct {
		Store string `toml:"store"`
	} `toml:"approval"`
	Audit struct {
		Log        string `toml:"log"`
		MaxLogSize int64  `toml:"max_log_size"`
	} `toml:"audit"`
}

// Config is the compiled, immutable configuration snapshot.
type Config struct {
	File File

	// Rules are the compiled blocklist patterns, in file order.
	Rules []blocklist.Rule
	// Boundary is the vault boundary classifier.
	Boundary *sandbox.Boundary
}

// BlocklistEnabled reports whether the blocklist check is on.
func (c *Config) BlocklistEnabled() bool { return c.File.Blocklist.Enabled }

// ExtraWrappers returns the configured wrapper extensions.
func (c *Config) ExtraWrappers() []string { return c.File.Wrappers.Extra }

var (
	current    atomic.Pointer[Config]
	configPath atomic.Pointer[string]
	initErr    atomic.Pointer[error]
	loaded     atomic.Bool
)

// GetConfigDir returns the config directory path.
// Uses VAULTGATE_CONFIG env var if set, otherwise ~/.config/vaultgate.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// EnsureConfigFiles creates the config directory and writes the default
// config file if it doesn't exist.
func EnsureConfigFiles(configDir string) error {
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, defaultConfig, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.ConfigFileName, err)
		}
	}

	return nil
}

// Load parses TOML data and compiles it into a Config snapshot.
func Load(data []byte) (*Config, error) {
	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	boundary, err := sandbox.NewBoundary(
		file.Vault.Root,
		file.Vault.ReadWrite,
		file.Vault.Context,
		file.Vault.Export,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid vault boundary: %w", err)
	}

	return &Config{
		File:     file,
		Rules:    blocklist.CompileAll(file.Blocklist.Patterns),
		Boundary: boundary,
	}, nil
}

// loadEmbeddedDefaults loads the embedded default config. The embedded file
// always parses; a failure here is a build defect, so fall back hard.
func loadEmbeddedDefaults() *Config {
	cfg, err := Load(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// Init loads configuration from files, creating defaults if necessary.
// If loading fails, it falls back to the embedded defaults and records the
// error for audit trails.
func Init() error {
	if loaded.Load() {
		return nil
	}

	err := initFromDisk()
	if err != nil {
		logger.Debug("config load failed, using embedded defaults", "error", err)
		e := err
		initErr.Store(&e)
		if current.Load() == nil {
			current.Store(loadEmbeddedDefaults())
		}
	}
	loaded.Store(true)
	return err
}

func initFromDisk() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := EnsureConfigFiles(configDir); err != nil {
		return err
	}

	path := filepath.Join(configDir, constants.ConfigFileName)
	configPath.Store(&path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", constants.ConfigFileName, err)
	}

	cfg, err := Load(data)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	current.Store(cfg)
	logger.Debug("config loaded",
		"path", path,
		"blocklist_patterns", len(cfg.Rules),
		"blocklist_enabled", cfg.BlocklistEnabled())
	return nil
}

// Get returns the current configuration snapshot.
// If Init has not been called, it initializes with defaults.
func Get() *Config {
	if !loaded.Load() {
		Init()
	}
	return current.Load()
}

// Set atomically swaps the current snapshot. This is the only mutation entry
// point; in-flight evaluations keep the snapshot they started with.
func Set(cfg *Config) {
	current.Store(cfg)
	loaded.Store(true)
}

// GetConfigPath returns the path the config was loaded from, or "" when
// running on embedded defaults.
func GetConfigPath() string {
	if p := configPath.Load(); p != nil {
		return *p
	}
	return ""
}

// InitError returns the error recorded when config loading fell back to
// embedded defaults, or nil.
func InitError() error {
	if e := initErr.Load(); e != nil {
		return *e
	}
	return nil
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	current.Store(nil)
	configPath.Store(nil)
	initErr.Store(nil)
	loaded.Store(false)
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
