// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestSaveAndLoadTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Provider.Model = "qwen2.5:7b"
	cfg.Scroll.PauseThreshold = 150
	cfg.UI.Theme = "light"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Provider.Model != "qwen2.5:7b" {
		t.Errorf("model = %q", loaded.Provider.Model)
	}
	if loaded.Scroll.PauseThreshold != 150 {
		t.Errorf("pause threshold = %d", loaded.Scroll.PauseThreshold)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %q", loaded.UI.Theme)
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"provider": {"model": "mistral"}, "ui": {"theme": "auto"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Provider.Model != "mistral" {
		t.Errorf("model = %q", loaded.Provider.Model)
	}
	if loaded.UI.Theme != "auto" {
		t.Errorf("theme = %q", loaded.UI.Theme)
	}
	// Unset fields fall back to defaults.
	if loaded.Provider.BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("base_url not defaulted: %q", loaded.Provider.BaseURL)
	}
	if loaded.Storage.MaxConversations != 100 {
		t.Errorf("max_conversations not defaulted: %d", loaded.Storage.MaxConversations)
	}
}

func TestPartialTOMLFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[provider]\nmodel = \"llama3.2:70b\"\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Provider.Model != "llama3.2:70b" {
		t.Errorf("model = %q", loaded.Provider.Model)
	}
	if loaded.Scroll.PauseThreshold != 100 || loaded.Scroll.ResumeThreshold != 20 {
		t.Errorf("scroll thresholds not defaulted: %+v", loaded.Scroll)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCRIBE_MODEL", "codellama")
	t.Setenv("SCRIBE_OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("SCRIBE_THEME", "light")
	t.Setenv("SCRIBE_NO_INDEX", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Provider.Model != "codellama" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.BaseURL != "http://10.0.0.5:11434" {
		t.Errorf("base_url = %q", cfg.Provider.BaseURL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.Storage.SearchIndex {
		t.Error("SCRIBE_NO_INDEX=1 should disable the search index")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad base url", func(c *Config) { c.Provider.BaseURL = "not a url" }, "provider.base_url"},
		{"negative timeout", func(c *Config) { c.Provider.TimeoutSecs = -1 }, "provider.timeout_secs"},
		{"zero max conversations", func(c *Config) { c.Storage.MaxConversations = 0 }, "storage.max_conversations"},
		{"resume above pause", func(c *Config) { c.Scroll.ResumeThreshold = 200 }, "scroll.resume_threshold"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %s", err, tt.field)
			}
		})
	}
}

func TestValidateErrorsJoinsMessages(t *testing.T) {
	cfg := Default()
	cfg.Provider.BaseURL = "::"
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "provider.base_url") || !strings.Contains(msg, "ui.theme") {
		t.Errorf("combined error missing fields: %q", msg)
	}
}

func TestGlobalSetAndReset(t *testing.T) {
	t.Cleanup(ResetGlobalForTesting)

	custom := Default()
	custom.Provider.Model = "custom-model"
	SetGlobal(custom)

	if Global().Provider.Model != "custom-model" {
		t.Error("SetGlobal not reflected in Global")
	}
}
