package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables holding secrets and endpoint overrides
const (
	EnvExaAPIKey    = "EXA_API_KEY"
	EnvExaBaseURL   = "EXA_API_BASE_URL"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// Load reads and parses the configuration file.
// A missing file is not an error: defaults are used so the CLI works before
// 'researchdesk config init' has been run.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()

	// Expand paths in config
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads config or exits with error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

func (c *Config) applyEnv() {
	if base := strings.TrimSpace(os.Getenv(EnvExaBaseURL)); base != "" {
		c.Search.Exa.BaseURL = base
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Search validation
	validSearch := map[string]bool{"exa": true, "google": true}
	if !validSearch[c.Search.Provider] {
		errs = append(errs, fmt.Errorf("search.provider must be 'exa' or 'google', got '%s'", c.Search.Provider))
	}
	if c.Search.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("search.timeout_seconds must be at least 1"))
	}
	if c.Search.NumResults < 1 || c.Search.NumResults > 100 {
		errs = append(errs, errors.New("search.num_results must be between 1 and 100"))
	}
	if c.Search.DaysBack < 1 {
		errs = append(errs, errors.New("search.days_back must be at least 1"))
	}
	if c.Search.ContentsLimit < 0 {
		errs = append(errs, errors.New("search.contents_limit must not be negative"))
	}
	if c.Search.Provider == "exa" && c.Search.Exa.BaseURL == "" {
		errs = append(errs, errors.New("search.exa.base_url is required"))
	}

	// LLM validation
	validLLM := map[string]bool{"openai": true, "gemini": true, "none": true}
	if !validLLM[c.LLM.Provider] {
		errs = append(errs, fmt.Errorf("llm.provider must be 'openai', 'gemini' or 'none', got '%s'", c.LLM.Provider))
	}

	// Summarizer validation
	if c.Summarizer.MinTextLength < 0 {
		errs = append(errs, errors.New("summarizer.min_text_length must not be negative"))
	}
	if c.Summarizer.MaxInputChars < 1 {
		errs = append(errs, errors.New("summarizer.max_input_chars must be at least 1"))
	}
	if c.Summarizer.Concurrency < 1 {
		errs = append(errs, errors.New("summarizer.concurrency must be at least 1"))
	}
	if c.Summarizer.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("summarizer.timeout_seconds must be at least 1"))
	}
	if c.Summarizer.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("summarizer.requests_per_second must not be negative"))
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	// MCP validation
	if c.MCP.Transport != "stdio" && c.MCP.Transport != "http" {
		errs = append(errs, fmt.Errorf("mcp.transport must be 'stdio' or 'http', got '%s'", c.MCP.Transport))
	}
	if c.MCP.Transport == "http" && c.MCP.HTTPAddr == "" {
		errs = append(errs, errors.New("mcp.http_addr is required for http transport"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ExaAPIKey returns the Exa API key from the environment
func (c *Config) ExaAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvExaAPIKey))
}

// GoogleAPIKey returns the Google API key from the environment
func (c *Config) GoogleAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvGoogleAPIKey))
}

// OpenAIAPIKey returns the OpenAI API key from the environment
func (c *Config) OpenAIAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey))
}

// GeminiAPIKey returns the Gemini API key from the environment
func (c *Config) GeminiAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
}

// EnsureDirectories creates necessary directories for the database
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
