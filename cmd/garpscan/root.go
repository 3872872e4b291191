package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
)

// app carries the loaded configuration into the subcommands.
type app struct {
	cfg        *config.Config
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "garpscan",
		Short:         "GARP equity screening, prediction and backtesting",
		Long:          "garpscan scores equities with the GARP discipline (solvency, quality, valuation, technicals),\nlayers Piotroski/Altman/DCF factor metrics on top, forecasts with a regime-conditioned bootstrap,\nand replays verdicts in a walk-forward backtest.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "path to YAML config")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newAnalyzeCmd(a),
		newPredictCmd(a),
		newBacktestCmd(a),
		newServeCmd(a),
		newScheduleCmd(a),
	)
	return cmd
}

// provider builds the failover data provider chain from config.
func (a *app) provider() (*data.Failover, error) {
	yahoo := data.NewYahooProvider(a.cfg.Provider.RequestTimeout.Std())

	fc := data.DefaultFailoverConfig()
	fc.MaxRetries = a.cfg.Provider.MaxRetries
	fc.RetryDelay = a.cfg.Provider.RetryDelay.Std()

	return data.NewFailover(fc, map[string]data.Provider{"yahoo": yahoo}, []string{"yahoo"})
}

// mustFlags marks flags required, panicking on programmer error.
func mustFlags(fs *pflag.FlagSet, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if fs.Lookup(name) == nil {
			panic(fmt.Sprintf("flag %s not registered on %s", name, cmd.Name()))
		}
		_ = cmd.MarkFlagRequired(name)
	}
}
