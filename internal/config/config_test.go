package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Search.NumResults != 20 {
		t.Errorf("expected NumResults=20, got %d", cfg.Search.NumResults)
	}

	if cfg.Search.DaysBack != 15 {
		t.Errorf("expected DaysBack=15, got %d", cfg.Search.DaysBack)
	}

	if cfg.Search.Provider != "exa" {
		t.Errorf("expected Provider=exa, got %s", cfg.Search.Provider)
	}

	if cfg.Summarizer.MinTextLength != 200 {
		t.Errorf("expected MinTextLength=200, got %d", cfg.Summarizer.MinTextLength)
	}

	if cfg.LLM.OpenAI.QueryModel != "gpt-3.5-turbo" {
		t.Errorf("expected QueryModel=gpt-3.5-turbo, got %s", cfg.LLM.OpenAI.QueryModel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid search provider",
			modify: func(c *Config) {
				c.Search.Provider = "bing"
			},
			wantErr: true,
		},
		{
			name: "invalid num_results",
			modify: func(c *Config) {
				c.Search.NumResults = 0
			},
			wantErr: true,
		},
		{
			name: "invalid llm provider",
			modify: func(c *Config) {
				c.LLM.Provider = "invalid"
			},
			wantErr: true,
		},
		{
			name: "llm disabled",
			modify: func(c *Config) {
				c.LLM.Provider = "none"
			},
			wantErr: false,
		},
		{
			name: "zero summarizer concurrency",
			modify: func(c *Config) {
				c.Summarizer.Concurrency = 0
			},
			wantErr: true,
		},
		{
			name: "http transport without address",
			modify: func(c *Config) {
				c.MCP.Transport = "http"
				c.MCP.HTTPAddr = ""
			},
			wantErr: true,
		},
		{
			name: "invalid mcp transport",
			modify: func(c *Config) {
				c.MCP.Transport = "sse"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Search.TimeoutSeconds != 30 {
		t.Errorf("expected TimeoutSeconds=30, got %d", cfg.Search.TimeoutSeconds)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[search]
provider = "google"
num_results = 10

[search.google]
cx = "abc123"

[database]
path = "/tmp/researchdesk-test.db"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Search.Provider != "google" {
		t.Errorf("expected Provider=google, got %s", cfg.Search.Provider)
	}
	if cfg.Search.NumResults != 10 {
		t.Errorf("expected NumResults=10, got %d", cfg.Search.NumResults)
	}
	if cfg.Search.Google.CX != "abc123" {
		t.Errorf("expected CX=abc123, got %s", cfg.Search.Google.CX)
	}
	// untouched sections keep their defaults
	if cfg.Search.DaysBack != 15 {
		t.Errorf("expected DaysBack=15, got %d", cfg.Search.DaysBack)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[search]\nnum_results = 0\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestExaBaseURLOverride(t *testing.T) {
	t.Setenv(EnvExaBaseURL, "http://localhost:9999")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Search.Exa.BaseURL != "http://localhost:9999" {
		t.Errorf("expected base url override, got %s", cfg.Search.Exa.BaseURL)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := expandPath(tt.input)
		if err != nil {
			t.Errorf("expandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestTimeouts(t *testing.T) {
	cfg := Default()

	if got := cfg.Search.Timeout(); got != 30*time.Second {
		t.Errorf("Search.Timeout() = %v, want 30s", got)
	}
	if got := cfg.Summarizer.Timeout(); got != 20*time.Second {
		t.Errorf("Summarizer.Timeout() = %v, want 20s", got)
	}
}
