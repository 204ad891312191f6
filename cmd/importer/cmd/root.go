package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"pos-backoffice/internal/config"
	"pos-backoffice/pkg/apperrors"
	"pos-backoffice/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "POS back-office import tool",
	Long: `Imports CSV and JSON data files into the POS back office:
items, sales, expenses, users, owner transactions, bank accounts and
suppliers. Configuration comes from BACKOFFICE_* environment variables
or an optional config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.Init(cfg.App.LogLevel)
		return nil
	},
}

// Execute runs the CLI and exits with the category-specific code of
// the failure, if any.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.GetLogger().WithError(err).Error("Command failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
}
