package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/internal/cli/output"
	"github.com/marmos91/sqlrealm/internal/cli/prompt"
	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/pkg/config"
	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads the configuration named by --config and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRealm loads the configuration and builds the realm. The caller must
// close the returned data sources.
func openRealm(ctx context.Context, opts ...realm.Option) (*config.Config, *realm.Realm, datasource.Set, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	r, sources, err := config.BuildRealm(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build realm: %w", err)
	}
	return cfg, r, sources, nil
}

// closeSources closes sources, logging rather than returning failures.
func closeSources(sources datasource.Set) {
	if err := sources.Close(); err != nil {
		logger.Warn("Failed to close data sources", logger.Err(err))
	}
}

// newPrinter creates a printer for the --output and --no-color flags.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, !noColor), nil
}

// readSecret reads one line from the command's stdin when fromStdin is set
// and prompts with masked input otherwise.
func readSecret(cmd *cobra.Command, fromStdin bool, label string) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", errors.New("no password on stdin")
		}
		return line, nil
	}

	secret, err := prompt.Password(label)
	if err != nil {
		if prompt.IsAborted(err) {
			return "", errors.New("aborted")
		}
		return "", err
	}
	return secret, nil
}

// parseCredentialType normalizes a credential type argument.
func parseCredentialType(s string) (realm.CredentialType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", errors.New("credential type is required")
	}
	return realm.CredentialType(s), nil
}
