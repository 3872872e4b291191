package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/garplab/garpscan/internal/pipeline"
	"github.com/garplab/garpscan/internal/scoring"
	"github.com/garplab/garpscan/internal/snapshot"
	"github.com/garplab/garpscan/internal/telemetry"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL [SYMBOL...]",
		Short: "Score one or more symbols with the GARP discipline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.provider()
			if err != nil {
				return err
			}

			var store snapshot.Store
			if save {
				store, err = snapshot.NewRedisStore(cmd.Context(), a.cfg.Redis)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			metrics := telemetry.New()
			provider.Instrument(metrics.ProviderFailures)
			engine := scoring.NewEngine(a.cfg, provider, nil).Instrument(metrics)
			runner := pipeline.NewRunner(a.cfg, engine, provider, store, metrics)

			res, err := runner.Run(cmd.Context(), normalizeSymbols(args))
			if err != nil {
				return err
			}

			renderCards(res.Cards)
			for symbol, msg := range res.Failures {
				fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", symbol, msg)
			}
			if len(res.Failures) > 0 && len(res.Cards) == 0 {
				return fmt.Errorf("all %d symbols failed", len(res.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "persist snapshots to the Redis store")
	return cmd
}

func normalizeSymbols(args []string) []string {
	out := make([]string, 0, len(args))
	for _, s := range args {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}

func renderCards(cards []*scoring.ScoreCard) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Symbol", "Price", "Status", "F-Score", "Altman Z", "PEG", "RSI", "1W Pred", "Conf", "Reason"})

	for _, c := range cards {
		t.AppendRow(table.Row{
			c.Symbol,
			fmt.Sprintf("%.2f", c.Price),
			statusCell(c.Status),
			fmtIntPtr(c.Metrics.Piotroski.Score),
			fmtFloatPtr(c.Metrics.Altman.Score, "%.2f"),
			fmtFloatPtr(c.Valuation.PEG, "%.2f"),
			fmtFloatPtr(c.Technical.RSI, "%.0f"),
			fmtFloatPtr(c.Prediction.Return1W, "%+.2f%%"),
			fmtFloatPtr(c.Prediction.Confidence, "%.0f%%", 100),
			c.Reason,
		})
	}
	t.Render()

	for _, c := range cards {
		if len(c.RedFlags) > 0 {
			fmt.Printf("  %s red flags: %s\n", c.Symbol, strings.Join(c.RedFlags, ", "))
		}
	}
}

func statusCell(s scoring.Status) string {
	switch s {
	case scoring.StatusPass:
		return text.FgGreen.Sprint(s)
	case scoring.StatusWatchlist:
		return text.FgYellow.Sprint(s)
	default:
		return text.FgRed.Sprint(s)
	}
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtFloatPtr(v *float64, format string, scale ...float64) string {
	if v == nil {
		return "-"
	}
	x := *v
	if len(scale) > 0 {
		x *= scale[0]
	}
	return fmt.Sprintf(format, x)
}
