package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/askiada/go-tipping-ensemble/internal/config"
	"github.com/askiada/go-tipping-ensemble/internal/logging"
)

// app holds the state shared by the subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Latin hypercube ensembles for coupled tipping element simulations",
		Long: `ensemble builds the experimental design of a coupled tipping element model:
N parameter vectors covering the critical thresholds, the coupling strengths and the
tipping timescales of the elements, and one launch command per vector for the batch
scheduler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}

			if a.verbose {
				cfg.Logging.Level = zapcore.DebugLevel.String()
			}

			log, _, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}

			a.cfg = cfg
			a.logger = log

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newSchemaCmd(a),
		newNetworkCmd(a),
	)

	return rootCmd
}
