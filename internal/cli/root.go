package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradeassist/internal/config"
	"tradeassist/internal/logging"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands. Sessions
// are created per command run, not here: most commands need only a subset
// of the stack and teardown must happen before the command returns.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI. Configuration loads in
// PersistentPreRunE so the --config flag goes through cobra like every
// other flag.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Trading assistant for the Indian stock market",
		Long: `A retail trading assistant for the Indian stock market.

It streams live prices over a single shared feed connection, builds and
validates order intents against live quotes, tracks trade lifecycles, and
browses AI-generated trade ideas with filters, sorting and statistics.

Use 'assistant help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradeassist)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addOrderCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addIdeaCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)

	return rootCmd
}

func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Trading Assistant v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("User")
	output.Printf("  ID:              %s\n", cfg.User.ID)
	output.Println()

	output.Bold("Backend")
	output.Printf("  Trade URL:       %s\n", cfg.Backend.TradeBaseURL)
	output.Printf("  AI Trade URL:    %s\n", cfg.Backend.AiTradeBaseURL)
	output.Printf("  Timeout:         %s\n", cfg.Backend.Timeout)
	output.Printf("  Rate Limit:      %d req/s\n", cfg.Backend.RequestsPerSec)
	output.Println()

	output.Bold("Feed")
	output.Printf("  URL:             %s\n", cfg.Feed.URL)
	output.Printf("  Max Retries:     %d\n", cfg.Feed.MaxRetries)
	output.Println()

	output.Bold("Polling")
	output.Printf("  Interval:        %s\n", cfg.Poll.Interval)
	output.Printf("  Off-hours:       %v\n", cfg.Poll.OutsideMarketHours)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Level:           %s\n", cfg.Notifications.Level)
	output.Printf("  Telegram:        %v\n", cfg.Notifications.Telegram.Enabled)
}
