package scoring

import (
	"fmt"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/factors"
	"github.com/garplab/garpscan/internal/indicators"
	"github.com/garplab/garpscan/internal/regime"
	"github.com/garplab/garpscan/internal/sector"
	"github.com/garplab/garpscan/internal/sentiment"
)

// CheckSolvency fails on excessive leverage or thin liquidity. Missing
// data is tagged as unknown; it neither passes nor fails the dimension.
func CheckSolvency(profile *data.Profile, cfg config.SolvencyConfig) SolvencyResult {
	res := SolvencyResult{
		DebtToEquity: profile.DebtToEquity,
		CurrentRatio: profile.CurrentRatio,
		IsPassing:    true,
		Tags:         []string{},
	}

	if res.DebtToEquity != nil {
		if *res.DebtToEquity > cfg.MaxDebtToEquity {
			res.fail("High Debt")
		} else {
			res.Tags = append(res.Tags, "Healthy Debt")
		}
	} else {
		res.Tags = append(res.Tags, "No Debt Data")
	}

	if res.CurrentRatio != nil {
		if *res.CurrentRatio < cfg.MinCurrentRatio {
			res.fail("Low Liquidity")
		} else {
			res.Tags = append(res.Tags, "Good Liquidity")
		}
	} else {
		res.Tags = append(res.Tags, "No Liquidity Data")
	}
	return res
}

func (r *SolvencyResult) fail(tag string) {
	r.Tags = append(r.Tags, tag)
	r.redFlags = append(r.redFlags, tag)
	r.IsPassing = false
}

// CheckQuality fails on negative profitability and tags standout ROE or
// margins above the secondary thresholds.
func CheckQuality(profile *data.Profile, cfg config.QualityConfig) QualityResult {
	res := QualityResult{
		ROE:         profile.ReturnOnEquity,
		GrossMargin: profile.GrossMargin,
		IsPassing:   true,
		Tags:        []string{},
	}

	if res.ROE != nil {
		switch {
		case *res.ROE < 0:
			res.fail("Negative ROE")
		case *res.ROE > cfg.HighROE:
			res.Tags = append(res.Tags, "High ROE")
		default:
			res.Tags = append(res.Tags, "Moderate ROE")
		}
	} else {
		res.Tags = append(res.Tags, "No ROE Data")
	}

	if res.GrossMargin != nil {
		switch {
		case *res.GrossMargin < 0:
			res.fail("Negative Margins")
		case *res.GrossMargin > cfg.HighMargin:
			res.Tags = append(res.Tags, "High Margins")
		}
	} else {
		res.Tags = append(res.Tags, "No Margin Data")
	}
	return res
}

func (r *QualityResult) fail(tag string) {
	r.Tags = append(r.Tags, tag)
	r.redFlags = append(r.redFlags, tag)
	r.IsPassing = false
}

// pegCeiling flexes the GARP PEG limit with the market sentiment
// z-score: wider tolerance in confirmed bull markets, tighter in bear
// markets, always clamped to the configured band.
func pegCeiling(z float64, cfg config.ValuationConfig) float64 {
	ceiling := cfg.PEGBase + cfg.PEGSensitivity*z
	if ceiling < cfg.PEGCeilingMin {
		return cfg.PEGCeilingMin
	}
	if ceiling > cfg.PEGCeilingMax {
		return cfg.PEGCeilingMax
	}
	return ceiling
}

// CheckValuation applies the dynamic PEG ceiling, falls back to a
// sector-relative P/E comparison when PEG is unavailable, and surfaces
// two independent margin-of-safety views (analyst target and DCF).
func CheckValuation(profile *data.Profile, price float64, dcf factors.DCFResult,
	mkt regime.Context, adv sentiment.Advisory, cfg config.ValuationConfig) ValuationResult {

	res := ValuationResult{
		TrailingPE:  profile.TrailingPE,
		ForwardPE:   profile.ForwardPE,
		PEG:         profile.PEGRatio,
		TargetPrice: profile.TargetMeanPrice,
		PEGCeiling:  pegCeiling(mkt.SentimentZ, cfg),
		IsPassing:   true,
		Tags:        []string{},
	}

	switch {
	case res.PEG != nil:
		switch {
		case *res.PEG < 1.0:
			res.Tags = append(res.Tags, "Undervalued (PEG < 1)")
		case *res.PEG < res.PEGCeiling:
			res.Tags = append(res.Tags, fmt.Sprintf("Reasonable Price (PEG < %.2f)", res.PEGCeiling))
		default:
			res.fail(fmt.Sprintf("Overvalued (PEG > %.2f)", res.PEGCeiling))
		}

	case res.TrailingPE != nil:
		z := sector.ZScore(profile.Sector, sector.MetricPE, *res.TrailingPE)
		res.SectorPEZScore = &z
		if z > cfg.SectorPEZFail {
			// A rich trailing multiple is excused when the forward
			// multiple shows earnings catching up.
			if res.ForwardPE != nil && *res.ForwardPE < cfg.ForwardPEDiscount**res.TrailingPE {
				res.Tags = append(res.Tags, "High Trailing P/E, Cheap Forward P/E")
			} else {
				res.fail("Expensive vs Sector")
			}
		} else {
			res.Tags = append(res.Tags, "In Line with Sector")
		}

	default:
		res.Tags = append(res.Tags, "No Valuation Data")
	}

	// Margin of safety vs the analyst consensus target, nudged by news
	// sentiment by at most the configured fraction.
	if res.TargetPrice != nil && *res.TargetPrice > 0 && price > 0 {
		adjusted := *res.TargetPrice * (1 + cfg.TargetAdjustMax*adv.Score/100.0*adv.Confidence)
		mos := (adjusted - price) / adjusted
		res.MoSTarget = &mos
		switch {
		case mos > cfg.MarginDeep:
			res.Tags = append(res.Tags, "Deep Value (>20% Upside)")
		case mos > cfg.MarginGood:
			res.Tags = append(res.Tags, "Good Value (>10% Upside)")
		case mos < cfg.MarginOverpriced:
			// A warning tag only; price alone does not fail valuation
			// when the growth multiple is acceptable.
			res.Tags = append(res.Tags, "Overpriced vs Target")
			res.redFlags = append(res.redFlags, "Overpriced vs Target")
		}
	}

	// Independent margin of safety vs DCF intrinsic value. The two views
	// can disagree; both are surfaced rather than merged.
	if dcf.IntrinsicValue != nil && *dcf.IntrinsicValue > 0 && price > 0 {
		mos := (*dcf.IntrinsicValue - price) / *dcf.IntrinsicValue
		res.MoSIntrinsic = &mos
		if mos > cfg.MarginGood {
			res.Tags = append(res.Tags, "Trading Below Intrinsic Value")
		} else if mos < cfg.MarginOverpriced {
			res.Tags = append(res.Tags, "Premium to Intrinsic Value")
			res.redFlags = append(res.redFlags, "Premium to Intrinsic Value")
		}
	}
	return res
}

func (r *ValuationResult) fail(tag string) {
	r.Tags = append(r.Tags, tag)
	r.redFlags = append(r.redFlags, tag)
	r.IsPassing = false
}

// CheckTechnical fails only on an overbought oscillator. The moving
// average cross is tagged for audit but handled by the trend override,
// not here.
func CheckTechnical(snap indicators.Snapshot, cfg config.TechnicalConfig) TechnicalResult {
	res := TechnicalResult{IsPassing: true, Tags: []string{}, TrendStatus: "Bearish"}
	if snap.GoldenCross {
		res.TrendStatus = "Bullish"
	}

	if snap.RSI.IsValid {
		v := snap.RSI.Value
		res.RSI = &v
		switch {
		case v > cfg.RSIOverbought:
			res.Tags = append(res.Tags, "Overbought")
			res.redFlags = append(res.redFlags, "Overbought")
			res.IsPassing = false
		case v < cfg.RSIOversold:
			res.Tags = append(res.Tags, "Oversold")
		default:
			res.Tags = append(res.Tags, "Neutral RSI")
		}
	} else {
		res.Tags = append(res.Tags, "No RSI Data")
	}

	if snap.HasMA50 && snap.HasMA200 {
		if snap.GoldenCross {
			res.Tags = append(res.Tags, "Golden Cross Trend")
		} else {
			res.Tags = append(res.Tags, "Death Cross Trend")
			res.redFlags = append(res.redFlags, "Death Cross Trend")
		}
	}
	return res
}
