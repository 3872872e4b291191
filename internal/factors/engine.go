package factors

import (
	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
)

// Metrics bundles every advanced metric for one symbol. Each member
// degrades independently: one metric failing never blanks the others.
type Metrics struct {
	Piotroski PiotroskiResult `json:"piotroski_f_score"`
	Altman    AltmanResult    `json:"altman_z_score"`
	FCF       FCFResult       `json:"fcf_yield"`
	DCF       DCFResult       `json:"sentiment_adjusted_dcf"`
}

// Compute evaluates all advanced metrics from the statement set, profile
// and latest price. sentimentZ is the market sentiment z-score from the
// regime detector.
func Compute(s *data.StatementSet, profile *data.Profile, currentPrice, sentimentZ float64, cfg config.DCFConfig) Metrics {
	return Metrics{
		Piotroski: Piotroski(s),
		Altman:    AltmanZ(s, currentPrice),
		FCF:       FCFYield(s, currentPrice),
		DCF:       SentimentAdjustedDCF(s, profile, sentimentZ, cfg),
	}
}
