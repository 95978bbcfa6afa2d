package config

import "time"

// Config represents the application configuration
type Config struct {
	Search     SearchConfig     `toml:"search"`
	LLM        LLMConfig        `toml:"llm"`
	Summarizer SummarizerConfig `toml:"summarizer"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	MCP        MCPConfig        `toml:"mcp"`
}

// SearchConfig contains search provider settings
type SearchConfig struct {
	Provider       string       `toml:"provider"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	NumResults     int          `toml:"num_results"`
	DaysBack       int          `toml:"days_back"`
	ContentsLimit  int          `toml:"contents_limit"`
	IncludeDomains []string     `toml:"include_domains"`
	ExcludeDomains []string     `toml:"exclude_domains"`
	Exa            ExaConfig    `toml:"exa"`
	Google         GoogleConfig `toml:"google"`
}

// Timeout returns the search deadline as a duration
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ExaConfig contains Exa-specific settings
type ExaConfig struct {
	BaseURL string `toml:"base_url"`
	// API key is read from EXA_API_KEY environment variable
}

// GoogleConfig contains Google Programmable Search settings
type GoogleConfig struct {
	CX string `toml:"cx"`
	// API key is read from GOOGLE_API_KEY environment variable
}

// LLMConfig contains LLM provider settings
type LLMConfig struct {
	Provider string       `toml:"provider"`
	OpenAI   OpenAIConfig `toml:"openai"`
	Gemini   GeminiConfig `toml:"gemini"`
}

// OpenAIConfig contains settings for OpenAI-compatible chat endpoints
type OpenAIConfig struct {
	Endpoint     string `toml:"endpoint"`
	Model        string `toml:"model"`
	QueryModel   string `toml:"query_model"`
	SummaryModel string `toml:"summary_model"`
	// API key is read from OPENAI_API_KEY environment variable
}

// GeminiConfig contains Gemini-specific settings
type GeminiConfig struct {
	Model string `toml:"model"`
	// API key is read from GEMINI_API_KEY environment variable
}

// SummarizerConfig controls how long pages are summarized
type SummarizerConfig struct {
	MinTextLength     int     `toml:"min_text_length"`
	MaxInputChars     int     `toml:"max_input_chars"`
	Concurrency       int     `toml:"concurrency"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Timeout returns the per-summary deadline as a duration
func (s SummarizerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig contains log settings
type LoggingConfig struct {
	Level string `toml:"level"`
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Transport string `toml:"transport"`
	HTTPAddr  string `toml:"http_addr"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Provider:       "exa",
			TimeoutSeconds: 30,
			NumResults:     20,
			DaysBack:       15,
			ContentsLimit:  5,
			Exa: ExaConfig{
				BaseURL: "https://api.exa.ai",
			},
		},
		LLM: LLMConfig{
			Provider: "openai",
			OpenAI: OpenAIConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				QueryModel:   "gpt-3.5-turbo",
				SummaryModel: "gpt-4o-mini",
			},
			Gemini: GeminiConfig{
				Model: "gemini-1.5-flash",
			},
		},
		Summarizer: SummarizerConfig{
			MinTextLength:     200,
			MaxInputChars:     3000,
			Concurrency:       5,
			TimeoutSeconds:    20,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/researchdesk/researchdesk.db",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			HTTPAddr:  "127.0.0.1:8643",
		},
	}
}
