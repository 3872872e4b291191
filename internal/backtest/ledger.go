// Package backtest replays the scoring engine's verdict day by day over
// historical prices with strict point-in-time slicing, and records every
// fill in an append-only ledger.
package backtest

import (
	"github.com/shopspring/decimal"
)

// Action is the side of a ledger entry.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// TradeRecord is one executed fill. Prices include slippage.
type TradeRecord struct {
	Date   string          `json:"date"` // YYYY-MM-DD
	Action Action          `json:"action"`
	Price  decimal.Decimal `json:"price"`
	Shares decimal.Decimal `json:"shares"`
	Value  decimal.Decimal `json:"value"` // notional: cash out on BUY, proceeds on SELL
	Reason string          `json:"reason"`
}

// Ledger is the append-only trade history of one backtest run.
type Ledger struct {
	records []TradeRecord
}

// Append records a fill. Records are never mutated or removed.
func (l *Ledger) Append(r TradeRecord) {
	l.records = append(l.records, r)
}

// Records returns a copy of the trade history in execution order.
func (l *Ledger) Records() []TradeRecord {
	out := make([]TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the trade count.
func (l *Ledger) Len() int { return len(l.records) }

// NetFlow returns sum(SELL proceeds) - sum(BUY notional). Together with
// the final holdings valued at the last price this must reconcile with
// final value minus initial capital.
func (l *Ledger) NetFlow() decimal.Decimal {
	net := decimal.Zero
	for _, r := range l.records {
		switch r.Action {
		case ActionBuy:
			net = net.Sub(r.Value)
		case ActionSell:
			net = net.Add(r.Value)
		}
	}
	return net
}
