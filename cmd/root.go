package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/config"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/profile"
	"github.com/gemtutor-ai/gemtutor/internal/provider"
	"github.com/gemtutor-ai/gemtutor/internal/tutor"
)

var (
	cfgFile      string
	modelFlag    string
	providerFlag string
	languageFlag string
	dataDirFlag  string
	verboseFlag  bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "gemtutor",
		Short: "AI-powered study tutor",
		Long: "gemtutor turns course material into lessons: it summarizes PDFs,\n" +
			"explains them at your level, quizzes you, grades your answers, and\n" +
			"tracks your progress as XP and skills.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/gemtutor/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().StringVarP(&languageFlag, "language", "l", "", "response language (e.g. Spanish)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.local/share/gemtutor)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging on the console")

	// Subcommands
	rootCmd.AddCommand(newLearnCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newVideoCmd())
	rootCmd.AddCommand(newExamCmd())
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if languageFlag != "" {
		cfg.Tutor.Language = languageFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}

	return cfg
}

// setup loads the config, resolves the data directory, and initializes
// logging. Every command that touches learner data goes through here.
func setup() (*config.Config, string, error) {
	cfg := initConfig()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, "", err
	}
	if _, err := logging.Setup(dataDir, cfg.Verbose); err != nil {
		return nil, "", fmt.Errorf("initialize logging: %w", err)
	}
	return cfg, dataDir, nil
}

// buildProvider creates a Provider instance based on configuration.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	apiKey := pc.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: GEMINI_API_KEY (or LLM_API_KEY)\n"+
				"  - run: gemtutor init",
			name, name,
		)
	}

	// Determine model: CLI flag > config file > provider default
	model := cfg.Model
	if model == "" && pc.Model != "" {
		model = pc.Model
	}
	if model == "" {
		model = config.KnownProviderModels[name]
	}

	switch name {
	case "gemini":
		return provider.NewGeminiProvider(apiKey, model)
	case "anthropic":
		return provider.NewAnthropicProvider(apiKey, model), nil
	default:
		// All other providers use an OpenAI-compatible API.
		baseURL := pc.BaseURL
		if baseURL == "" {
			if u, ok := config.KnownProviderBaseURLs[name]; ok {
				baseURL = u
			} else {
				return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", name, name)
			}
		}
		return provider.NewOpenAIProvider(apiKey, baseURL, model), nil
	}
}

// newTutorClient wires a tutoring client on the configured provider.
func newTutorClient(cfg *config.Config) (*tutor.Client, error) {
	p, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	logging.L().Info("provider ready",
		zap.String("provider", p.Name()),
		zap.String("model", p.DefaultModel()),
	)
	return tutor.New(p), nil
}

// loadProfile reads the learner profile and applies configuration defaults
// that live outside the profile file, currently just the UI theme.
func loadProfile(cfg *config.Config, dataDir string) *profile.State {
	state := profile.Load(dataDir)
	state.SetTheme(cfg.Theme)
	return state
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
