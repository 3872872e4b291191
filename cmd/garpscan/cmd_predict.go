package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garplab/garpscan/internal/scoring"
)

func newPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict SYMBOL",
		Short: "Regime-conditioned bootstrap forecast for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			provider, err := a.provider()
			if err != nil {
				return err
			}

			engine := scoring.NewEngine(a.cfg, provider, nil)
			mkt, err := scoring.BuildMarket(cmd.Context(), provider, a.cfg.Provider)
			if err != nil {
				return err
			}
			card, err := engine.AnalyzeWithMarket(cmd.Context(), symbol, mkt)
			if err != nil {
				return err
			}

			regime := "Bear"
			if mkt.Context.Bullish {
				regime = "Bull"
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendRows([]table.Row{
				{"Symbol", card.Symbol},
				{"Price", fmt.Sprintf("%.2f", card.Price)},
				{"Verdict", fmt.Sprintf("%s (%s)", card.Status, card.Reason)},
				{"Market Regime", fmt.Sprintf("%s (sentiment z %.2f)", regime, mkt.Context.SentimentZ)},
				{"1-Week Forecast", fmtFloatPtr(card.Prediction.Return1W, "%+.2f%%")},
				{"1-Month Forecast", fmtFloatPtr(card.Prediction.Return1M, "%+.2f%%")},
				{"Confidence", fmtFloatPtr(card.Prediction.Confidence, "%.0f%%", 100)},
				{"21d Range (5-95%)", volBand(card)},
				{"Sample Pool", fmt.Sprintf("%s (%d days)", card.Prediction.Pool, card.Prediction.SampleSize)},
			})
			t.Render()
			return nil
		},
	}
}

func volBand(card *scoring.ScoreCard) string {
	if card.Prediction.VolLow == nil || card.Prediction.VolHigh == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f .. %.2f", *card.Prediction.VolLow, *card.Prediction.VolHigh)
}
