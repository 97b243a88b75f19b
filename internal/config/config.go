// Package config manages pptextract settings.
// Values come from defaults, then an optional JSON config file, then
// environment variables (a .env file in the working directory is honored).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvOutputDir = "PPTEXTRACT_OUTPUT"
	EnvWorkers   = "PPTEXTRACT_WORKERS"
	EnvMinSize   = "PPTEXTRACT_MIN_SIZE"
	EnvInflate   = "PPTEXTRACT_INFLATE"
)

// Config holds the settings of the extract and list commands.
type Config struct {
	OutputDir string `json:"output_dir"`
	Workers   int    `json:"workers"`
	// MinSize skips images smaller than this many bytes; 0 keeps everything.
	MinSize int64 `json:"min_size"`
	// Inflate decompresses DEFLATE-compressed EMF/WMF payloads.
	Inflate bool `json:"inflate"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: ".",
		Workers:   runtime.NumCPU(),
		MinSize:   0,
		Inflate:   false,
	}
}

// ConfigManager loads and saves a Config.
type ConfigManager struct {
	path   string
	mu     sync.RWMutex
	config *Config
}

// NewConfigManager creates a manager for the JSON file at path. An empty
// path means no config file.
func NewConfigManager(path string) *ConfigManager {
	return &ConfigManager{path: path, config: DefaultConfig()}
}

// Load reads the config file, if any, and applies environment overrides.
// A missing file is not an error.
func (cm *ConfigManager) Load() error {
	cfg := DefaultConfig()

	if cm.path != "" {
		data, err := os.ReadFile(cm.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return fmt.Errorf("failed to read config: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return fmt.Errorf("failed to parse config %s: %w", cm.path, err)
			}
		}
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
	return nil
}

// Get returns a copy of the current config.
func (cm *ConfigManager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c := *cm.config
	return &c
}

// Update replaces the current config after validating it.
func (cm *ConfigManager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cm.mu.Lock()
	cm.config = &cfg
	cm.mu.Unlock()
	return nil
}

// Save writes the current config to the config file.
func (cm *ConfigManager) Save() error {
	if cm.path == "" {
		return errors.New("no config file path")
	}
	cm.mu.RLock()
	data, err := json.MarshalIndent(cm.config, "", "  ")
	cm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(cm.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(cm.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the commands cannot run with.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MinSize < 0 {
		return fmt.Errorf("min_size must not be negative, got %d", c.MinSize)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvOutputDir); ok {
		cfg.OutputDir = v
	}
	cfg.Workers = getEnvInt(EnvWorkers, cfg.Workers)
	cfg.MinSize = int64(getEnvInt(EnvMinSize, int(cfg.MinSize)))
	if v, ok := os.LookupEnv(EnvInflate); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("Warning: %s=%q is not a boolean, keeping %v", EnvInflate, v, cfg.Inflate)
		} else {
			cfg.Inflate = b
		}
	}
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, keeping %d", key, v, def)
		return def
	}
	return n
}
