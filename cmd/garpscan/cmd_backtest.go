package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garplab/garpscan/internal/backtest"
	"github.com/garplab/garpscan/internal/snapshot"
)

func newBacktestCmd(a *app) *cobra.Command {
	var startStr, endStr string
	var archive bool

	cmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Walk-forward replay of GARP verdicts over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			if !end.After(start) {
				return fmt.Errorf("--end %s must be after --start %s", endStr, startStr)
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			engine := backtest.New(a.cfg, provider, nil)
			res, err := engine.Run(cmd.Context(), symbol, start, end)
			if err != nil {
				return err
			}

			renderBacktest(res)

			if archive {
				if a.cfg.Postgres.DSN == "" {
					return fmt.Errorf("--archive requires postgres.dsn in config")
				}
				arch, err := snapshot.NewArchive(cmd.Context(), a.cfg.Postgres.DSN)
				if err != nil {
					return err
				}
				defer arch.Close()
				return arch.SaveLedger(cmd.Context(), uuid.NewString(), res)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&archive, "archive", false, "archive the ledger to Postgres")
	mustFlags(cmd.Flags(), cmd, "start", "end")
	return cmd
}

func renderBacktest(res *backtest.Result) {
	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.SetStyle(table.StyleLight)
	summary.AppendRows([]table.Row{
		{"Symbol", res.Symbol},
		{"Window", fmt.Sprintf("%s .. %s (%d trading days)",
			res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.TradingDays)},
		{"Initial Capital", res.InitialCapital.StringFixed(2)},
		{"Final Value", res.FinalValue.StringFixed(2)},
		{"Total Return", res.TotalReturnPct.StringFixed(2) + "%"},
		{"Trades", fmt.Sprintf("%d", res.TradeCount)},
		{"Skipped Days", fmt.Sprintf("%d", res.SkippedDays)},
	})
	summary.Render()

	if len(res.Trades) == 0 {
		return
	}
	trades := table.NewWriter()
	trades.SetOutputMirror(os.Stdout)
	trades.SetStyle(table.StyleLight)
	trades.AppendHeader(table.Row{"Date", "Action", "Price", "Shares", "Value", "Reason"})
	for _, tr := range res.Trades {
		trades.AppendRow(table.Row{
			tr.Date, tr.Action,
			tr.Price.StringFixed(2), tr.Shares.StringFixed(4), tr.Value.StringFixed(2),
			tr.Reason,
		})
	}
	trades.Render()
}
