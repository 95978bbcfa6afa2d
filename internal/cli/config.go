package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Dir(configPath)
	dataDir := filepath.Join(home, ".local", "share", "researchdesk")

	// Create directories
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		fmt.Println("Use 'researchdesk config show' to view current configuration")
		return nil
	}

	// Write default config
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Export EXA_API_KEY (or set search.provider = \"google\" with GOOGLE_API_KEY)")
	fmt.Println("  2. Export OPENAI_API_KEY or GEMINI_API_KEY for query rewriting and summaries")
	fmt.Println("     (keys can also live in a .env file in the working directory)")
	fmt.Println("  3. Run 'researchdesk research \"your topic\"'")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found, built-in defaults are in use.")
			fmt.Println("Run 'researchdesk config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const defaultConfig = `# researchdesk configuration

[search]
provider = "exa"        # exa or google
timeout_seconds = 30
num_results = 20
days_back = 15
contents_limit = 5      # fetch full text for the first N results
include_domains = []
exclude_domains = []

[search.exa]
base_url = "https://api.exa.ai"
# API key read from EXA_API_KEY env var

[search.google]
cx = ""                 # Programmable Search Engine id
# API key read from GOOGLE_API_KEY env var

[llm]
provider = "openai"     # openai, gemini or none

[llm.openai]
endpoint = "https://api.openai.com/v1/chat/completions"
model = "gpt-4o-mini"
query_model = "gpt-3.5-turbo"
summary_model = "gpt-4o-mini"
# API key read from OPENAI_API_KEY env var

[llm.gemini]
model = "gemini-1.5-flash"
# API key read from GEMINI_API_KEY env var

[summarizer]
min_text_length = 200   # only summarize longer texts
max_input_chars = 3000
concurrency = 5
timeout_seconds = 20
requests_per_second = 5
burst = 5

[database]
path = "~/.local/share/researchdesk/researchdesk.db"

[logging]
level = "warn"

[mcp]
transport = "stdio"     # stdio or http
http_addr = "127.0.0.1:8643"
`
