// Package commands implements the sqlrealm CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/cmd/sqlrealm/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
	noColor      bool
	serverURL    string
	apiToken     string
)

var rootCmd = &cobra.Command{
	Use:   "sqlrealm",
	Short: "sqlrealm - SQL-backed identity realm",
	Long: `sqlrealm verifies identities against credentials stored in SQL databases.

Authentication queries are configured per data source. Each query takes the
identity name as its only parameter and maps the columns of the first row to
password credentials and attributes.

Use "sqlrealm [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sqlrealm/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Run verify, support and attributes against a sqlrealm server")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Bearer token for --server")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(supportCmd)
	rootCmd.AddCommand(credentialCmd)
	rootCmd.AddCommand(attributesCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
