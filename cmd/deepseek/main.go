// Command deepseek is a small CLI over the deepseek client library:
// log in, list models, and exchange chat messages (optionally streamed).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"deepseek/internal/config"
	"deepseek/internal/logging"
	"deepseek/pkg/deepseek"
)

var (
	// Global flags
	cfgPath  string
	verbose  bool
	email    string
	password string
	apiKey   string
	baseURL  string

	// Resolved at PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deepseek",
	Short: "Client for the chat.deepseek.com web service",
	Long: `deepseek talks to the chat.deepseek.com web service.

Authentication happens in one of three ways, in priority order:
  1. A static API key (--api-key or DEEPSEEK_API_KEY)
  2. Credentials cached at ~/.deepseek_credentials.json by a prior login
  3. A fresh email/password login (cached for subsequent runs)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := cfgPath
		if path == "" {
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		if cfg, err = config.Load(path); err != nil {
			return err
		}

		// Flags win over file and environment.
		if email != "" {
			cfg.Email = email
		}
		if password != "" {
			cfg.Password = password
		}
		if apiKey != "" {
			cfg.APIKey = apiKey
		}
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}

		if err := logging.Initialize(cfg.LogDir(), cfg.Logging.Debug || verbose); err != nil {
			logger.Warn("diagnostic logging disabled", zap.Error(err))
		}
		logging.Boot("config loaded from %s", path)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loginCmd performs the login flow and caches the credential triple
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and cache credentials for later runs",
	RunE:  runLogin,
}

// modelsCmd lists the models the service reports
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	RunE:  runModels,
}

// chatCmd sends one message
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat message",
	Long: `Sends one message and prints the reply.

With --stream the reply is printed incrementally as delta frames arrive.

Example:
  deepseek chat "explain goroutines" --model deepseek-chat --stream`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

var (
	chatModel  string
	chatStream bool
)

func newClient() (*deepseek.Client, error) {
	c := deepseek.DefaultConfig()
	c.Email = cfg.Email
	c.Password = cfg.Password
	c.APIKey = cfg.APIKey
	c.Proxies = cfg.Proxies
	c.Timeout = cfg.TimeoutDuration()
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return deepseek.NewClient(c)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.deepseek/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "account email")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "account password")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "static API key (bypasses login)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "service origin override")

	chatCmd.Flags().StringVar(&chatModel, "model", deepseek.ModelChat, "model name")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "stream the reply incrementally")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
