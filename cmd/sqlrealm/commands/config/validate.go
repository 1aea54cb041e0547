package config

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sqlrealm configuration file.

Checks for syntax errors, missing required fields, unknown data sources,
authentication queries without exactly one parameter, and invalid mappers.
Valid but suspicious settings are reported as warnings. No database is
contacted.

Examples:
  sqlrealm config validate
  sqlrealm config validate --config /etc/sqlrealm/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	displayPath := path
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := config.Warnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	names := make([]string, 0, len(cfg.DataSources))
	for name := range cfg.DataSources {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Data sources:    %d\n", len(cfg.DataSources))
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "    %-14s %s\n", name, cfg.DataSources[name].Type)
	}
	_, _ = fmt.Fprintf(out, "  Queries:         %d\n", len(cfg.Queries))
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
