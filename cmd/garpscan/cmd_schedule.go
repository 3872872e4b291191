package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/garplab/garpscan/internal/pipeline"
	"github.com/garplab/garpscan/internal/scoring"
	"github.com/garplab/garpscan/internal/snapshot"
	"github.com/garplab/garpscan/internal/telemetry"
)

func newScheduleCmd(a *app) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule SYMBOL [SYMBOL...]",
		Short: "Run the analysis batch on a cron schedule, persisting snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := normalizeSymbols(args)

			provider, err := a.provider()
			if err != nil {
				return err
			}
			store, err := snapshot.NewRedisStore(cmd.Context(), a.cfg.Redis)
			if err != nil {
				return err
			}
			defer store.Close()

			metrics := telemetry.New()
			provider.Instrument(metrics.ProviderFailures)
			engine := scoring.NewEngine(a.cfg, provider, nil).Instrument(metrics)
			runner := pipeline.NewRunner(a.cfg, engine, provider, store, metrics)

			c := cron.New()
			_, err = c.AddFunc(spec, func() {
				res, err := runner.Run(cmd.Context(), symbols)
				if err != nil {
					log.Error().Err(err).Msg("scheduled batch failed")
					return
				}
				log.Info().Str("run_id", res.RunID).Int("scored", len(res.Cards)).
					Int("failed", len(res.Failures)).Msg("scheduled batch done")
			})
			if err != nil {
				return err
			}

			log.Info().Str("cron", spec).Int("symbols", len(symbols)).Msg("scheduler started")
			c.Start()
			defer c.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			log.Info().Msg("scheduler stopping")
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "30 21 * * MON-FRI", "cron spec for batch runs (after US close)")
	return cmd
}
