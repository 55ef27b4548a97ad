// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// scribe.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.scribe/config.toml
//   - ~/.scribe/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete scribe configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Provider configuration (Ollama backend)
	Provider ProviderConfig `toml:"provider" json:"provider"`

	// Storage configuration (conversations, resources, search index)
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Session configuration
	Session SessionConfig `toml:"session" json:"session"`

	// Scroll behavior configuration
	Scroll ScrollConfig `toml:"scroll" json:"scroll"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// ProviderConfig contains the model backend configuration.
type ProviderConfig struct {
	// Name identifies the provider. Currently only "ollama".
	Name string `toml:"name" json:"name"`
	// BaseURL is the URL of the Ollama server
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the default chat model
	Model string `toml:"model" json:"model"`
	// TitleModel is the model used for conversation title generation.
	// Empty means Model is used.
	TitleModel string `toml:"title_model" json:"title_model"`
	// TimeoutSecs is the request timeout for non-streaming calls in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// SystemPrompt is prepended to every exchange when non-empty
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// AutoTitle generates a conversation title after the first exchange
	AutoTitle bool `toml:"auto_title" json:"auto_title"`
}

// StorageConfig contains on-disk storage configuration.
type StorageConfig struct {
	// DataDir overrides the default ~/.scribe data directory
	DataDir string `toml:"data_dir" json:"data_dir"`
	// MaxConversations caps how many conversations are kept; the oldest are
	// pruned past the cap
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
	// SearchIndex enables the full-text search index
	SearchIndex bool `toml:"search_index" json:"search_index"`
	// WatchDebounceMs is the debounce window for external-change detection
	// in milliseconds
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// SessionConfig contains session lifecycle configuration.
type SessionConfig struct {
	// AutoSaveSecs is the auto-save interval in seconds (0 disables)
	AutoSaveSecs int `toml:"auto_save_secs" json:"auto_save_secs"`
	// RestoreLast reopens the most recent conversation on startup
	RestoreLast bool `toml:"restore_last" json:"restore_last"`
}

// ScrollConfig tunes auto-scroll behavior during streaming.
type ScrollConfig struct {
	// PauseThreshold is the distance from the bottom, in rows of rendered
	// content, past which auto-scroll pauses
	PauseThreshold int `toml:"pause_threshold" json:"pause_threshold"`
	// ResumeThreshold is the distance at or under which auto-scroll resumes
	ResumeThreshold int `toml:"resume_threshold" json:"resume_threshold"`
	// ThrottleMs is the minimum interval between auto-scrolls in milliseconds
	ThrottleMs int `toml:"throttle_ms" json:"throttle_ms"`
	// Smooth animates follow-up scrolls instead of jumping
	Smooth bool `toml:"smooth" json:"smooth"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ShowStats displays token counts and generation speed under messages
	ShowStats bool `toml:"show_stats" json:"show_stats"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// VimMode enables vim-style modal editing
	VimMode bool `toml:"vim_mode" json:"vim_mode"`
	// CodeTheme is the chroma style used for code blocks
	CodeTheme string `toml:"code_theme" json:"code_theme"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Provider: ProviderConfig{
			Name:        "ollama",
			BaseURL:     "http://127.0.0.1:11434",
			Model:       "llama3.2",
			TitleModel:  "",
			TimeoutSecs: 30,
			AutoTitle:   true,
		},

		Storage: StorageConfig{
			MaxConversations: 100,
			SearchIndex:      true,
			WatchDebounceMs:  500,
		},

		Session: SessionConfig{
			AutoSaveSecs: 30,
			RestoreLast:  true,
		},

		Scroll: ScrollConfig{
			PauseThreshold:  100,
			ResumeThreshold: 20,
			ThrottleMs:      300,
			Smooth:          true,
		},

		UI: UIConfig{
			Theme:     "dark",
			ShowStats: true,
			CodeTheme: "monokai",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the scribe configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".scribe"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies env overrides, defaults, and validation to a loaded
// config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = defaults.Provider.Name
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = defaults.Provider.BaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = defaults.Provider.Model
	}
	if cfg.Provider.TimeoutSecs == 0 {
		cfg.Provider.TimeoutSecs = defaults.Provider.TimeoutSecs
	}

	if cfg.Storage.MaxConversations == 0 {
		cfg.Storage.MaxConversations = defaults.Storage.MaxConversations
	}
	if cfg.Storage.WatchDebounceMs == 0 {
		cfg.Storage.WatchDebounceMs = defaults.Storage.WatchDebounceMs
	}

	if cfg.Scroll.PauseThreshold == 0 {
		cfg.Scroll.PauseThreshold = defaults.Scroll.PauseThreshold
	}
	if cfg.Scroll.ResumeThreshold == 0 {
		cfg.Scroll.ResumeThreshold = defaults.Scroll.ResumeThreshold
	}
	if cfg.Scroll.ThrottleMs == 0 {
		cfg.Scroll.ThrottleMs = defaults.Scroll.ThrottleMs
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.CodeTheme == "" {
		cfg.UI.CodeTheme = defaults.UI.CodeTheme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML config file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# scribe configuration file")
	fmt.Fprintln(file, "# Generated by scribe - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file. The write is atomic so a
// crash cannot leave a truncated config behind.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "provider.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Provider.BaseURL),
		})
	}
	if c.Provider.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "provider.timeout_secs",
			Message: "timeout cannot be negative",
		})
	}

	if c.Storage.MaxConversations < 1 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_conversations",
			Message: "must be at least 1",
		})
	}
	if c.Storage.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.watch_debounce_ms",
			Message: "debounce cannot be negative",
		})
	}

	if c.Scroll.PauseThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "scroll.pause_threshold",
			Message: "must be at least 1",
		})
	}
	if c.Scroll.ResumeThreshold < 0 {
		errs = append(errs, ValidationError{
			Field:   "scroll.resume_threshold",
			Message: "cannot be negative",
		})
	}
	if c.Scroll.ResumeThreshold >= c.Scroll.PauseThreshold {
		errs = append(errs, ValidationError{
			Field:   "scroll.resume_threshold",
			Message: fmt.Sprintf("must be below pause_threshold (%d >= %d)", c.Scroll.ResumeThreshold, c.Scroll.PauseThreshold),
		})
	}
	if c.Scroll.ThrottleMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "scroll.throttle_ms",
			Message: "throttle cannot be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that validation would otherwise reject.
func (c *Config) SetDefaults() {
	fillDefaults(c)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies SCRIBE_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("SCRIBE_MODEL"); model != "" {
		c.Provider.Model = model
	}
	if baseURL := os.Getenv("SCRIBE_OLLAMA_URL"); baseURL != "" {
		c.Provider.BaseURL = baseURL
	}
	if prompt := os.Getenv("SCRIBE_SYSTEM_PROMPT"); prompt != "" {
		c.Provider.SystemPrompt = prompt
	}
	if dir := os.Getenv("SCRIBE_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if theme := os.Getenv("SCRIBE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if noIndex := os.Getenv("SCRIBE_NO_INDEX"); noIndex != "" {
		c.Storage.SearchIndex = !(noIndex == "1" || strings.ToLower(noIndex) == "true")
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.Lock()
		defer globalConfigMu.Unlock()
		if globalConfig != nil {
			// SetGlobal ran before first access.
			return
		}
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
