package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/garplab/garpscan/internal/httpapi"
	"github.com/garplab/garpscan/internal/snapshot"
	"github.com/garplab/garpscan/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored snapshots over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewRedisStore(cmd.Context(), a.cfg.Redis)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := httpapi.New(a.cfg.HTTP.Listen, store, telemetry.New())

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case s := <-sig:
				log.Info().Str("signal", s.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}
