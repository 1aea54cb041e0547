package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/internal/cli/prompt"
	"github.com/marmos91/sqlrealm/pkg/config"
)

var (
	initForce    bool
	initDatabase string
	initAuth     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	Long: `Create a sample configuration with one SQLite data source and a bcrypt
authentication query over a users table:

  CREATE TABLE users (username TEXT PRIMARY KEY, password_hash TEXT, email TEXT);

By default the file is created at $XDG_CONFIG_HOME/sqlrealm/config.yaml.

Examples:
  # Prompt for the database path
  sqlrealm config init

  # Non-interactive, with API authentication enabled
  sqlrealm config init --database /var/lib/sqlrealm/users.db --auth --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initDatabase, "database", "", "SQLite database path (prompts if not provided)")
	initCmd.Flags().BoolVar(&initAuth, "auth", false, "Enable API bearer authentication with a generated secret")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("%s exists. Overwrite", path), initForce)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("config file exists, use --force to overwrite")
		}
	}

	database := initDatabase
	if database == "" {
		var err error
		database, err = prompt.Input("SQLite database path", filepath.Join(filepath.Dir(path), "users.db"))
		if err != nil {
			return err
		}
	}

	cfg := config.GetSampleConfig(database)
	if initAuth {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		cfg.Server.Auth.Enabled = true
		cfg.Server.Auth.Secret = secret
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the queries to match your schema")
	_, _ = fmt.Fprintln(out, "  2. Check the result with: sqlrealm config validate")
	_, _ = fmt.Fprintln(out, "  3. Start the server with: sqlrealm serve")
	if initAuth {
		_, _ = fmt.Fprintln(out, "\nIssue API tokens with: sqlrealm token --subject <name>")
	}
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
