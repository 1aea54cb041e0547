package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyPasswordStdin bool

// ErrRejected is returned by verify when the password does not match.
var ErrRejected = errors.New("credential rejected")

var verifyCmd = &cobra.Command{
	Use:   "verify <identity>",
	Short: "Verify an identity's password",
	Long: `Verify a password against the credential stored for an identity.

The password is prompted for with masked input, or read from the first line
of stdin with --password-stdin. The command exits non-zero when the password
is rejected. With --server the check runs on a sqlrealm server instead of
against the configured databases.

Examples:
  # Prompt for the password
  sqlrealm verify alice

  # Read the password from stdin
  echo "s3cret" | sqlrealm verify alice --password-stdin

  # Ask a running server
  sqlrealm verify alice --server http://localhost:8080 --token $TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyPasswordStdin, "password-stdin", false, "Read the password from stdin")
}

// VerifyResult is the output of the verify command.
type VerifyResult struct {
	Identity string `json:"identity" yaml:"identity"`
	Verified bool   `json:"verified" yaml:"verified"`
}

func (r VerifyResult) Headers() []string { return []string{"Identity", "Verified"} }

func (r VerifyResult) Rows() [][]string {
	return [][]string{{r.Identity, fmt.Sprintf("%t", r.Verified)}}
}

func runVerify(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	secret, err := readSecret(cmd, verifyPasswordStdin, "Password")
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	verified, err := svc.Verify(ctx, args[0], secret)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if err := printer.Print(VerifyResult{Identity: args[0], Verified: verified}); err != nil {
		return err
	}
	if !verified {
		return ErrRejected
	}
	return nil
}
