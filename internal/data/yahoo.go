package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// YahooProvider fetches statements, OHLCV history and profile metadata
// from the Yahoo Finance public endpoints. It is the backup source in the
// production chain; the same interface fronts the primary.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates a Yahoo-backed provider.
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		baseURL: "https://query1.finance.yahoo.com",
		client:  &http.Client{Timeout: timeout},
	}
}

// chartResponse mirrors the /v8/finance/chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceHistory implements Provider.
func (y *YahooProvider) PriceHistory(ctx context.Context, symbol string, period string) (Series, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d&events=div%%2Csplit",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(period))

	var resp chartResponse
	if err := y.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("chart fetch for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		// Explicit empty sentinel: downstream treats this as missing data.
		return Series{}, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	series := make(Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		series = append(series, Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  quote.Close[i],
			Volume: at(quote.Volume, i),
		})
	}
	return series, nil
}

// quoteSummaryResponse mirrors the /v10/finance/quoteSummary payload for
// the modules this provider requests.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw float64 `json:"raw"`
}

type statementHistory struct {
	Statements []map[string]rawValue `json:"statements"`
}

// Financials implements Provider. Line items are normalized into the
// schema the factor engine was built on, most recent period first.
func (y *YahooProvider) Financials(ctx context.Context, symbol string) (*StatementSet, error) {
	modules := "balanceSheetHistory,incomeStatementHistory,cashflowStatementHistory"
	raw, err := y.quoteSummary(ctx, symbol, modules)
	if err != nil {
		return nil, err
	}

	set := &StatementSet{
		Symbol:       symbol,
		BalanceSheet: NewTable(),
		Income:       NewTable(),
		CashFlow:     NewTable(),
	}
	if raw == nil {
		return set, nil // empty sentinel, not an error
	}

	y.fillTable(&set.BalanceSheet, raw, "balanceSheetHistory", "balanceSheetStatements", balanceSheetItems)
	y.fillTable(&set.Income, raw, "incomeStatementHistory", "incomeStatementHistory", incomeItems)
	y.fillTable(&set.CashFlow, raw, "cashflowStatementHistory", "cashflowStatements", cashflowItems)
	return set, nil
}

// Field name mappings from the wire schema to the normalized line items.
var balanceSheetItems = map[string]string{
	"totalAssets":             ItemTotalAssets,
	"totalLiab":               ItemTotalLiabilities,
	"longTermDebt":            ItemLongTermDebt,
	"totalCurrentAssets":      ItemCurrentAssets,
	"totalCurrentLiabilities": ItemCurrentLiabilities,
	"retainedEarnings":        ItemRetainedEarnings,
	"commonStock":             ItemOrdinaryShares,
	"totalStockholderEquity":  ItemStockholdersEquity,
}

var incomeItems = map[string]string{
	"netIncome":    ItemNetIncome,
	"totalRevenue": ItemTotalRevenue,
	"grossProfit":  ItemGrossProfit,
	"ebit":         ItemEBIT,
}

var cashflowItems = map[string]string{
	"totalCashFromOperatingActivities": ItemOperatingCashFlow,
	"capitalExpenditures":              ItemCapitalExpenditure,
}

func (y *YahooProvider) fillTable(t *Table, raw map[string]json.RawMessage, module, field string, mapping map[string]string) {
	moduleRaw, ok := raw[module]
	if !ok {
		return
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(moduleRaw, &wrapper); err != nil {
		return
	}
	histRaw, ok := wrapper[field]
	if !ok {
		return
	}
	var periods []map[string]rawValue
	if err := json.Unmarshal(histRaw, &periods); err != nil {
		return
	}
	// Wire order is already most recent first.
	for _, period := range periods {
		for wire, item := range mapping {
			if v, ok := period[wire]; ok {
				t.Items[item] = append(t.Items[item], v.Raw)
			}
		}
	}
}

// Profile implements Provider.
func (y *YahooProvider) Profile(ctx context.Context, symbol string) (*Profile, error) {
	modules := "summaryProfile,financialData,defaultKeyStatistics"
	raw, err := y.quoteSummary(ctx, symbol, modules)
	if err != nil {
		return nil, err
	}
	p := &Profile{Symbol: symbol, Sector: "Unknown"}
	if raw == nil {
		return p, nil
	}

	if sp, ok := raw["summaryProfile"]; ok {
		var v struct {
			Sector string `json:"sector"`
		}
		if json.Unmarshal(sp, &v) == nil && v.Sector != "" {
			p.Sector = v.Sector
		}
	}
	if fd, ok := raw["financialData"]; ok {
		var v struct {
			RevenueGrowth   *rawValue `json:"revenueGrowth"`
			DebtToEquity    *rawValue `json:"debtToEquity"`
			CurrentRatio    *rawValue `json:"currentRatio"`
			ReturnOnEquity  *rawValue `json:"returnOnEquity"`
			GrossMargins    *rawValue `json:"grossMargins"`
			TargetMeanPrice *rawValue `json:"targetMeanPrice"`
		}
		if json.Unmarshal(fd, &v) == nil {
			p.RevenueGrowth = optional(v.RevenueGrowth)
			p.DebtToEquity = optional(v.DebtToEquity)
			p.CurrentRatio = optional(v.CurrentRatio)
			p.ReturnOnEquity = optional(v.ReturnOnEquity)
			p.GrossMargin = optional(v.GrossMargins)
			p.TargetMeanPrice = optional(v.TargetMeanPrice)
		}
	}
	if ks, ok := raw["defaultKeyStatistics"]; ok {
		var v struct {
			SharesOutstanding *rawValue `json:"sharesOutstanding"`
			TrailingPE        *rawValue `json:"trailingPE"`
			ForwardPE         *rawValue `json:"forwardPE"`
			PegRatio          *rawValue `json:"pegRatio"`
		}
		if json.Unmarshal(ks, &v) == nil {
			if v.SharesOutstanding != nil {
				p.SharesOutstanding = v.SharesOutstanding.Raw
			}
			p.TrailingPE = optional(v.TrailingPE)
			p.ForwardPE = optional(v.ForwardPE)
			p.PEGRatio = optional(v.PegRatio)
		}
	}
	return p, nil
}

func (y *YahooProvider) quoteSummary(ctx context.Context, symbol, modules string) (map[string]json.RawMessage, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(modules))

	var resp quoteSummaryResponse
	if err := y.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("quoteSummary fetch for %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		log.Warn().Str("symbol", symbol).Str("reason", resp.QuoteSummary.Error.Description).
			Msg("quoteSummary returned no data")
		return nil, nil
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	return resp.QuoteSummary.Result[0], nil
}

func (y *YahooProvider) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "garpscan/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

func optional(v *rawValue) *float64 {
	if v == nil {
		return nil
	}
	f := v.Raw
	return &f
}
