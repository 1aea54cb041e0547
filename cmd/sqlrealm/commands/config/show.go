package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/internal/cli/output"
	"github.com/marmos91/sqlrealm/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective configuration, with defaults and environment
overrides applied.

Outputs YAML unless --output json is given. Secrets are printed as they are
configured.

Examples:
  sqlrealm config show
  sqlrealm config show --output json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
