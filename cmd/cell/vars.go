package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/logging"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile     string
	providerArg string
	serverURL   string
	verbose     bool
)

// ServerConfig holds the loaded configuration (set by main, overlaid by --config)
var ServerConfig *config.Config

// baseConfig is the configuration before --config; reloads overlay onto it
// so keys removed from the file fall back to their defaults.
var baseConfig config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c
	baseConfig = *c

	rootCmd := &cobra.Command{
		Use:   "cell",
		Short: "cell - next API call prediction",
		Long: `cell watches the API calls a user makes, predicts the endpoint they will call next,
and answers questions about their recent activity.

Run 'cell serve' to start the HTTP, WebSocket and MCP server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file overlaid on the built-in defaults")
	rootCmd.PersistentFlags().StringVarP(&providerArg, "provider", "p", "", "use only this provider (name or type)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(PredictCmd())
	rootCmd.AddCommand(ChatCmd())
	rootCmd.AddCommand(DemoCmd())
	rootCmd.AddCommand(KeyCmd())
	rootCmd.AddCommand(DoctorCmd())

	return rootCmd
}

// loadConfig applies --config and configures logging from the result.
func loadConfig() error {
	if cfgFile != "" {
		c, err := config.LoadFrom(baseConfig, cfgFile)
		if err != nil {
			return fmt.Errorf("load %s: %w", cfgFile, err)
		}
		*ServerConfig = c
	}

	level := ServerConfig.Logging.Level
	if verbose {
		level = "debug"
	}
	logging.Configure(level, os.Stderr, ServerConfig.IsLogColor())
	return nil
}

// addServerFlag registers --server on commands that can run against a
// remote cell instead of calling the provider directly.
func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running cell server (default: call the provider directly)")
}
