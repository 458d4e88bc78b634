// Command risk-engine evaluates MOEX portfolio snapshots and gates orders.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/moex-risk-engine/cmd/common"
	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
)

const appName = "risk-engine"

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

// newRootCmd builds the command tree; stderr receives logs when no log directory is configured
func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Risk and compliance decision engine for MOEX equity portfolios",
		Long: `risk-engine scores portfolio risk, checks diversification and MOEX trading rules,
assesses geopolitical news and events, recommends rebalancing trades and validates
individual orders before execution.

Example usage:
  risk-engine assess --snapshot portfolio.yaml
  risk-engine validate-order --snapshot portfolio.yaml --symbol SBER --action BUY --quantity 100
  risk-engine session --at "2024-01-10 12:00"
  risk-engine config --config config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML configuration (defaults when empty)")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Environment file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override: console or json")

	root.AddCommand(
		newAssessCmd(opts, stderr),
		newValidateOrderCmd(opts, stderr),
		newSessionCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load resolves the environment, configuration and logger for one command run
func (o *rootOptions) load(stderr io.Writer) (*config.Config, *logger.Logger, error) {
	if _, err := common.LoadEnvFile(o.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := common.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	log, err := common.NewLogger(cfg.Logging, stderr, appName)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
