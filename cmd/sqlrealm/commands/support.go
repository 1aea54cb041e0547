package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/pkg/realm"
)

var supportIdentity string

var supportCmd = &cobra.Command{
	Use:   "support <credential-type>",
	Short: "Report credential support",
	Long: `Report whether a credential type can be obtained.

Without --identity the answer is realm-wide and never SUPPORTED: the realm
only knows whether a mapper could produce the type. With --identity the
authentication query runs and the answer reflects the identity's row.

Examples:
  sqlrealm support password
  sqlrealm support password/bcrypt --identity alice`,
	Args: cobra.ExactArgs(1),
	RunE: runSupport,
}

func init() {
	supportCmd.Flags().StringVar(&supportIdentity, "identity", "", "Check support for this identity")
}

// SupportResult is the output of the support command.
type SupportResult struct {
	Identity       string                  `json:"identity,omitempty" yaml:"identity,omitempty"`
	CredentialType realm.CredentialType    `json:"credential_type" yaml:"credential_type"`
	Support        realm.CredentialSupport `json:"support" yaml:"support"`
}

func (r SupportResult) Headers() []string { return []string{"Identity", "Type", "Support"} }

func (r SupportResult) Rows() [][]string {
	identity := r.Identity
	if identity == "" {
		identity = "-"
	}
	return [][]string{{identity, r.CredentialType.String(), r.Support.String()}}
}

func runSupport(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	t, err := parseCredentialType(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	result := SupportResult{Identity: supportIdentity, CredentialType: t}
	if supportIdentity == "" {
		result.Support, err = svc.RealmSupport(ctx, t)
	} else {
		result.Support, err = svc.IdentitySupport(ctx, supportIdentity, t)
	}
	if err != nil {
		return err
	}

	return printer.Print(result)
}
