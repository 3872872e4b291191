// Package sentiment defines the advisory contract an external news or
// social sentiment feed must satisfy. The scoring engine treats the
// advisory as optional input: absent or low-confidence sentiment never
// changes a verdict on its own.
package sentiment

import "context"

// Label is the coarse direction of an advisory.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	NeutralL Label = "Neutral"
)

// Advisory is the normalized output of a sentiment source.
type Advisory struct {
	Sentiment  Label   `json:"sentiment"`
	Score      float64 `json:"score"`      // -100 (max bearish) .. +100 (max bullish)
	Confidence float64 `json:"confidence"` // 0..1
	Summary    string  `json:"summary,omitempty"`
}

// Neutral is the advisory used when no source is wired or the source
// fails. It carries zero confidence so it can never trigger a veto.
func Neutral() Advisory {
	return Advisory{Sentiment: NeutralL, Score: 0, Confidence: 0}
}

// Source produces an advisory for a symbol. Implementations wrap news
// APIs or LLM summarizers; errors should be returned rather than mapped
// to a fake advisory so callers can decide to fall back to Neutral.
type Source interface {
	Advise(ctx context.Context, symbol string) (Advisory, error)
}

// Static is a fixed-advisory source, used in tests and offline runs.
type Static struct {
	Advisory Advisory
}

func (s Static) Advise(ctx context.Context, symbol string) (Advisory, error) {
	return s.Advisory, nil
}
