package factors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
)

// healthySet is a two-period statement set for a company improving on
// every Piotroski dimension.
func healthySet() *data.StatementSet {
	bs := data.NewTable()
	bs.Items[data.ItemTotalAssets] = []float64{1000, 1000}
	bs.Items[data.ItemTotalLiabilities] = []float64{400, 450}
	bs.Items[data.ItemLongTermDebt] = []float64{100, 150}
	bs.Items[data.ItemCurrentAssets] = []float64{300, 250}
	bs.Items[data.ItemCurrentLiabilities] = []float64{100, 120}
	bs.Items[data.ItemWorkingCapital] = []float64{200, 130}
	bs.Items[data.ItemRetainedEarnings] = []float64{350, 300}
	bs.Items[data.ItemOrdinaryShares] = []float64{100, 100}
	bs.Items[data.ItemStockholdersEquity] = []float64{600, 550}

	inc := data.NewTable()
	inc.Items[data.ItemNetIncome] = []float64{120, 90}
	inc.Items[data.ItemTotalRevenue] = []float64{900, 700}
	inc.Items[data.ItemGrossProfit] = []float64{450, 320}
	inc.Items[data.ItemEBIT] = []float64{160, 120}

	cf := data.NewTable()
	cf.Items[data.ItemOperatingCashFlow] = []float64{150, 110}
	cf.Items[data.ItemFreeCashFlow] = []float64{100, 80}

	return &data.StatementSet{Symbol: "TEST", BalanceSheet: bs, Income: inc, CashFlow: cf}
}

func TestPiotroski_PerfectScore(t *testing.T) {
	res := Piotroski(healthySet())
	require.NotNil(t, res.Score)
	assert.Equal(t, 9, *res.Score)
	assert.Len(t, res.Criteria, 9)
}

func TestPiotroski_InsufficientHistory(t *testing.T) {
	s := healthySet()
	s.Income.Items[data.ItemNetIncome] = []float64{120}
	s.Income.Items[data.ItemTotalRevenue] = []float64{900}
	s.Income.Items[data.ItemGrossProfit] = []float64{450}
	s.Income.Items[data.ItemEBIT] = []float64{160}

	res := Piotroski(s)
	assert.Nil(t, res.Score)
	assert.Contains(t, res.Details, "insufficient")
}

func TestPiotroski_ShareIssuedFallbackCatchesDilution(t *testing.T) {
	s := healthySet()
	delete(s.BalanceSheet.Items, data.ItemOrdinaryShares)
	s.BalanceSheet.Items[data.ItemSharesIssued] = []float64{120, 100}

	res := Piotroski(s)
	require.NotNil(t, res.Score)
	assert.Equal(t, 8, *res.Score, "dilution via Share Issued must cost one point")

	var dilution *Criterion
	for i := range res.Criteria {
		if res.Criteria[i].Name == "No Dilution" {
			dilution = &res.Criteria[i]
		}
	}
	require.NotNil(t, dilution)
	assert.False(t, dilution.Passed)
}

func TestAltmanZ_HealthyIsSafe(t *testing.T) {
	res := AltmanZ(healthySet(), 50.0)
	require.NotNil(t, res.Score)

	// A=0.2, B=0.35, C=0.16, D=5000/400=12.5, E=0.9
	want := 1.2*0.2 + 1.4*0.35 + 3.3*0.16 + 0.6*12.5 + 1.0*0.9
	assert.InDelta(t, want, *res.Score, 1e-9)
	assert.Equal(t, AltmanSafe, res.Status)
}

func TestAltmanZ_ZeroAssetsIsNil(t *testing.T) {
	s := healthySet()
	s.BalanceSheet.Items[data.ItemTotalAssets] = []float64{0, 0}
	res := AltmanZ(s, 50.0)
	assert.Nil(t, res.Score)
}

func TestAltmanZ_ZeroLiabilitiesZeroLeverageTerm(t *testing.T) {
	s := healthySet()
	s.BalanceSheet.Items[data.ItemTotalLiabilities] = []float64{0, 0}
	delete(s.BalanceSheet.Items, data.ItemTotalDebt)

	res := AltmanZ(s, 50.0)
	require.NotNil(t, res.Score)
	assert.Equal(t, 0.0, res.Components.MarketLeverage)
}

func TestAltmanZ_DistressBand(t *testing.T) {
	bs := data.NewTable()
	bs.Items[data.ItemTotalAssets] = []float64{1000}
	bs.Items[data.ItemTotalLiabilities] = []float64{950}
	bs.Items[data.ItemWorkingCapital] = []float64{-200}
	bs.Items[data.ItemRetainedEarnings] = []float64{-400}
	bs.Items[data.ItemOrdinaryShares] = []float64{100}
	inc := data.NewTable()
	inc.Items[data.ItemEBIT] = []float64{-50}
	inc.Items[data.ItemTotalRevenue] = []float64{300}
	cf := data.NewTable()
	cf.Items[data.ItemOperatingCashFlow] = []float64{-10}
	s := &data.StatementSet{Symbol: "DIST", BalanceSheet: bs, Income: inc, CashFlow: cf}

	res := AltmanZ(s, 1.0)
	require.NotNil(t, res.Score)
	assert.Less(t, *res.Score, 1.8)
	assert.Equal(t, AltmanDistress, res.Status)
}

func TestFCFYield_Reported(t *testing.T) {
	res := FCFYield(healthySet(), 50.0)
	require.NotNil(t, res.Yield)
	assert.InDelta(t, 100.0/5000.0, *res.Yield, 1e-9)
}

func TestFCFYield_DerivedFromOCFAndCapex(t *testing.T) {
	s := healthySet()
	delete(s.CashFlow.Items, data.ItemFreeCashFlow)
	s.CashFlow.Items[data.ItemCapitalExpenditure] = []float64{-40, -30}

	res := FCFYield(s, 50.0)
	require.NotNil(t, res.Yield)
	assert.InDelta(t, (150.0-40.0)/5000.0, *res.Yield, 1e-9, "capex magnitude is subtracted regardless of sign")
}

func TestFCFYield_NoSharesIsNil(t *testing.T) {
	s := healthySet()
	delete(s.BalanceSheet.Items, data.ItemOrdinaryShares)
	res := FCFYield(s, 50.0)
	assert.Nil(t, res.Yield)
}

func dcfConfig() config.DCFConfig { return config.Default().DCF }

func TestDCF_PositiveFCF(t *testing.T) {
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100, RevenueGrowth: data.Float(0.10)}
	res := SentimentAdjustedDCF(healthySet(), profile, 0.0, dcfConfig())

	require.NotNil(t, res.IntrinsicValue)
	assert.Greater(t, *res.IntrinsicValue, 0.0)
	assert.Equal(t, 0.10, res.GrowthRate)
	assert.Equal(t, 0.09, res.DiscountRate)
	assert.Equal(t, 0.0, res.SentimentPenalty)
}

func TestDCF_OverheatedMarketRaisesDiscount(t *testing.T) {
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}
	neutral := SentimentAdjustedDCF(healthySet(), profile, 0.0, dcfConfig())
	hot := SentimentAdjustedDCF(healthySet(), profile, 2.0, dcfConfig())

	require.NotNil(t, neutral.IntrinsicValue)
	require.NotNil(t, hot.IntrinsicValue)
	assert.InDelta(t, 0.02*math.Tanh(2.0), hot.SentimentPenalty, 1e-9)
	assert.Greater(t, hot.DiscountRate, neutral.DiscountRate)
	assert.Less(t, *hot.IntrinsicValue, *neutral.IntrinsicValue,
		"overheated market must depress intrinsic value")
}

func TestDCF_BearishMarketNoPenalty(t *testing.T) {
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}
	res := SentimentAdjustedDCF(healthySet(), profile, -2.0, dcfConfig())
	assert.Equal(t, 0.0, res.SentimentPenalty)
	assert.Equal(t, 0.09, res.DiscountRate)
}

func TestDCF_DiscountFlooredAboveTerminalGrowth(t *testing.T) {
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}

	cfg := dcfConfig()
	cfg.BaseDiscountRate = cfg.TerminalGrowth + 0.005 // inside the one-point terminal spread
	narrow := SentimentAdjustedDCF(healthySet(), profile, 0.0, cfg)

	cfg.BaseDiscountRate = cfg.TerminalGrowth + 0.01
	floored := SentimentAdjustedDCF(healthySet(), profile, 0.0, cfg)

	require.NotNil(t, narrow.IntrinsicValue)
	require.NotNil(t, floored.IntrinsicValue)
	assert.Equal(t, cfg.TerminalGrowth+0.01, narrow.DiscountRate)
	assert.Equal(t, *floored.IntrinsicValue, *narrow.IntrinsicValue)
}

func TestDCF_GrowthCappedBySector(t *testing.T) {
	profile := &data.Profile{Symbol: "UTIL", Sector: "Utilities", SharesOutstanding: 100, RevenueGrowth: data.Float(0.30)}
	res := SentimentAdjustedDCF(healthySet(), profile, 0.0, dcfConfig())
	assert.Equal(t, 0.06, res.GrowthRate)
}

func TestDCF_GrowthFloored(t *testing.T) {
	profile := &data.Profile{Symbol: "SLOW", Sector: "Technology", SharesOutstanding: 100, RevenueGrowth: data.Float(-0.10)}
	res := SentimentAdjustedDCF(healthySet(), profile, 0.0, dcfConfig())
	assert.Equal(t, 0.02, res.GrowthRate)
}

func TestDCF_GrahamFallback(t *testing.T) {
	s := healthySet()
	s.CashFlow.Items[data.ItemFreeCashFlow] = []float64{-50, -40}
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}

	res := SentimentAdjustedDCF(s, profile, 0.0, dcfConfig())
	require.NotNil(t, res.IntrinsicValue)
	assert.Equal(t, DetailsGrahamFallback, res.Details)
	assert.Equal(t, 0.0, res.DiscountRate)
	assert.Equal(t, 0.0, res.GrowthRate)

	// sqrt(22.5 * EPS * BVPS) with EPS=1.2, BVPS=6.0
	assert.InDelta(t, math.Sqrt(22.5*1.2*6.0), *res.IntrinsicValue, 1e-9)
}

func TestDCF_GrahamFailsOnNegativeEarnings(t *testing.T) {
	s := healthySet()
	s.CashFlow.Items[data.ItemFreeCashFlow] = []float64{-50, -40}
	s.Income.Items[data.ItemNetIncome] = []float64{-30, -20}
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}

	res := SentimentAdjustedDCF(s, profile, 0.0, dcfConfig())
	assert.Nil(t, res.IntrinsicValue)
	assert.Equal(t, DetailsDCFFailed, res.Details)
}

func TestCompute_MetricsFailIndependently(t *testing.T) {
	s := healthySet()
	s.Income.Items[data.ItemNetIncome] = []float64{120} // breaks Piotroski only
	s.Income.Items[data.ItemTotalRevenue] = []float64{900}
	s.Income.Items[data.ItemGrossProfit] = []float64{450}
	s.Income.Items[data.ItemEBIT] = []float64{160}
	profile := &data.Profile{Symbol: "TEST", Sector: "Technology", SharesOutstanding: 100}

	m := Compute(s, profile, 50.0, 0.0, dcfConfig())
	assert.Nil(t, m.Piotroski.Score)
	assert.NotNil(t, m.Altman.Score)
	assert.NotNil(t, m.FCF.Yield)
	assert.NotNil(t, m.DCF.IntrinsicValue)
}
