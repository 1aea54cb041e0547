package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/internal/cli/output"
)

var attributesCmd = &cobra.Command{
	Use:   "attributes <identity>",
	Short: "Show an identity's attributes",
	Long: `Run the authentication queries for an identity and print the values of
every attribute mapper.

Examples:
  sqlrealm attributes alice
  sqlrealm attributes alice -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAttributes,
}

// AttributesResult is the output of the attributes command.
type AttributesResult struct {
	Identity   string         `json:"identity" yaml:"identity"`
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
}

func (r AttributesResult) Headers() []string { return []string{"Attribute", "Value"} }

func (r AttributesResult) Rows() [][]string {
	names := make([]string, 0, len(r.Attributes))
	for name := range r.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, fmt.Sprint(r.Attributes[name])})
	}
	return rows
}

func runAttributes(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	attrs, err := svc.Attributes(ctx, args[0])
	if err != nil {
		return err
	}

	if len(attrs) == 0 && printer.Format() == output.FormatTable {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No attributes for %s\n", args[0])
		return nil
	}
	return printer.Print(AttributesResult{Identity: args[0], Attributes: attrs})
}
