package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gemtutor-ai/gemtutor/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up gemtutor: choose a provider, enter your API key, pick a language, and save the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Welcome to the gemtutor configuration wizard!")
	fmt.Println()

	// Provider selection
	providers := []string{"gemini", "anthropic", "openai", "deepseek", "groq"}
	fmt.Println("Available providers:")
	for i, p := range providers {
		fmt.Printf("  %d. %s\n", i+1, p)
	}
	fmt.Printf("\nSelect provider (1-%d) [1]: ", len(providers))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	selectedIdx := 0
	if input != "" {
		n := 0
		for _, c := range input {
			if c >= '0' && c <= '9' {
				n = n*10 + int(c-'0')
			}
		}
		if n >= 1 && n <= len(providers) {
			selectedIdx = n - 1
		}
	}
	providerName := providers[selectedIdx]
	fmt.Printf("Selected: %s\n\n", providerName)

	// API key
	fmt.Printf("Enter API key for %s: ", providerName)
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	// Response language
	fmt.Print("Response language [English]: ")
	language, _ := reader.ReadString('\n')
	language = strings.TrimSpace(language)

	// Check before touching an existing config file.
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home dir: %w", err)
	}
	configPath := filepath.Join(home, ".config", "gemtutor", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("\nConfig file already exists at %s\n", configPath)
		fmt.Print("Update it? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := config.SaveProviderToFile(providerName, config.ProviderConfig{APIKey: apiKey}); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if language != "" && !strings.EqualFold(language, config.DefaultLanguage) {
		if err := saveLanguageToFile(configPath, language); err != nil {
			return fmt.Errorf("save language: %w", err)
		}
	}

	fmt.Printf("\nConfig saved to %s\n", configPath)
	fmt.Println("You can now run: gemtutor learn <pdf>")
	return nil
}

// saveLanguageToFile sets tutor.language in the config file, preserving all
// other fields.
func saveLanguageToFile(configPath, language string) error {
	raw := make(map[string]any)
	if data, err := os.ReadFile(configPath); err == nil {
		_ = yaml.Unmarshal(data, &raw)
	}

	tutorSection, _ := raw["tutor"].(map[string]any)
	if tutorSection == nil {
		tutorSection = make(map[string]any)
	}
	tutorSection["language"] = language
	raw["tutor"] = tutorSection

	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o600)
}
