package scoring

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/indicators"
	"github.com/garplab/garpscan/internal/sentiment"
)

// classify applies the base three-state rule from the four check
// results. Overrides run afterwards.
func classify(card *ScoreCard) {
	s, q, v := card.Solvency.IsPassing, card.Quality.IsPassing, card.Valuation.IsPassing

	switch {
	case s && q && v:
		if card.Technical.IsPassing {
			card.setVerdict(StatusPass, "all checks passed")
		} else {
			card.setVerdict(StatusWatchlist, "fundamentals good, technicals overheated")
		}
	case s && q:
		card.setVerdict(StatusWatchlist, "good company, expensive price")
	default:
		card.setVerdict(StatusReject, failedChecks(card))
	}
}

func failedChecks(card *ScoreCard) string {
	reason := "failed:"
	if !card.Solvency.IsPassing {
		reason += " solvency"
	}
	if !card.Quality.IsPassing {
		reason += " quality"
	}
	if !card.Valuation.IsPassing {
		reason += " valuation"
	}
	return reason
}

// overrideRule is one step of the verdict override pipeline. Rules run
// in declaration order; each may only adjust the verdict in its
// documented direction.
type overrideRule struct {
	name  string
	apply func(card *ScoreCard, in overrideInputs)
}

type overrideInputs struct {
	cfg       config.OverrideConfig
	technical indicators.Snapshot
	advisory  sentiment.Advisory
}

// The fixed precedence order. Bankruptcy veto runs first and latches:
// once it fires, the quality rescue is disarmed for the rest of the
// pipeline. All other rules only ever downgrade.
var overridePipeline = []overrideRule{
	{name: "bankruptcy veto", apply: bankruptcyVeto},
	{name: "deteriorating financials veto", apply: deterioratingVeto},
	{name: "quality rescue", apply: qualityRescue},
	{name: "long-term trend filter", apply: trendFilter},
	{name: "sentiment veto", apply: sentimentVeto},
}

// applyOverrides runs the pipeline over the base classification. A rule
// whose required metric is nil simply does not fire.
func applyOverrides(card *ScoreCard, technical indicators.Snapshot, adv sentiment.Advisory, cfg config.OverrideConfig) {
	in := overrideInputs{cfg: cfg, technical: technical, advisory: adv}
	for _, rule := range overridePipeline {
		before := card.Status
		rule.apply(card, in)
		if card.Status != before {
			log.Debug().Str("symbol", card.Symbol).Str("rule", rule.name).
				Str("from", string(before)).Str("to", string(card.Status)).
				Msg("override fired")
		}
	}
}

func bankruptcyVeto(card *ScoreCard, in overrideInputs) {
	z := card.Metrics.Altman.Score
	if z == nil || *z >= in.cfg.ZScoreDistress {
		return
	}
	card.bankruptcyVeto = true
	card.flag("Bankruptcy Risk (Altman Z in Distress)")
	card.setVerdict(StatusReject, fmt.Sprintf("bankruptcy risk: Altman Z %.2f below distress threshold %.1f",
		*z, in.cfg.ZScoreDistress))
}

func deterioratingVeto(card *ScoreCard, in overrideInputs) {
	f := card.Metrics.Piotroski.Score
	if f == nil || *f > in.cfg.FScoreVetoMax || card.Status != StatusPass {
		return
	}
	card.flag("Deteriorating Financials (Low F-Score)")
	card.setVerdict(StatusWatchlist, fmt.Sprintf("deteriorating financials: F-Score %d", *f))
}

// qualityRescue is the single upgrade in the pipeline: verifiably strong
// fundamentals pull a valuation-driven REJECT back to WATCHLIST. It
// never produces PASS and never fires after the bankruptcy veto.
func qualityRescue(card *ScoreCard, in overrideInputs) {
	if card.bankruptcyVeto || card.Status != StatusReject {
		return
	}
	f := card.Metrics.Piotroski.Score
	z := card.Metrics.Altman.Score
	if f == nil || z == nil || *f < in.cfg.FScoreRescueMin || *z <= in.cfg.ZScoreSafe {
		return
	}
	card.setVerdict(StatusWatchlist, fmt.Sprintf("quality rescue: F-Score %d with safe Altman Z %.2f", *f, *z))
}

func trendFilter(card *ScoreCard, in overrideInputs) {
	snap := in.technical
	if card.Status != StatusPass || !snap.HasMA200 || snap.AboveLongMA {
		return
	}
	card.flag("Below 200-Day Moving Average")
	card.setVerdict(StatusWatchlist, "don't fight the long-term downtrend")
}

func sentimentVeto(card *ScoreCard, in overrideInputs) {
	adv := in.advisory
	if card.Status != StatusPass || adv.Sentiment != sentiment.Negative {
		return
	}
	if adv.Score > in.cfg.SentimentScoreVeto || adv.Confidence < in.cfg.SentimentConfVeto {
		return
	}
	card.flag("Strongly Negative News Sentiment")
	card.setVerdict(StatusWatchlist, "avoid catching a falling knife")
}
