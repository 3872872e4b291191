package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet() *StatementSet {
	set := &StatementSet{
		Symbol:       "TEST",
		BalanceSheet: NewTable(),
		Income:       NewTable(),
		CashFlow:     NewTable(),
	}
	set.BalanceSheet.Items[ItemTotalAssets] = []float64{1000, 900}
	set.Income.Items[ItemNetIncome] = []float64{120, 100}
	set.CashFlow.Items[ItemOperatingCashFlow] = []float64{150, 130}
	return set
}

func TestStatementSet_Value(t *testing.T) {
	set := testSet()

	assert.Equal(t, 1000.0, set.Value(set.BalanceSheet, ItemTotalAssets, 0))
	assert.Equal(t, 900.0, set.Value(set.BalanceSheet, ItemTotalAssets, 1))
	assert.Equal(t, 100.0, set.Value(set.Income, ItemNetIncome, 1))
}

func TestStatementSet_MissingItemSubstitutesZeroWithCaveat(t *testing.T) {
	set := testSet()

	v := set.Value(set.BalanceSheet, ItemRetainedEarnings, 0)
	assert.Equal(t, 0.0, v)

	caveats := set.Caveats()
	require.Len(t, caveats, 1)
	assert.Equal(t, ItemRetainedEarnings, caveats[0])

	// Same substitution is recorded once, not per access.
	set.Value(set.BalanceSheet, ItemRetainedEarnings, 0)
	assert.Len(t, set.Caveats(), 1)
}

func TestStatementSet_OutOfRangePeriodIsCaveat(t *testing.T) {
	set := testSet()
	assert.Equal(t, 0.0, set.Value(set.Income, ItemNetIncome, 5))
	assert.Contains(t, set.Caveats(), ItemNetIncome)
}

func TestStatementSet_MinPeriods(t *testing.T) {
	set := testSet()
	assert.Equal(t, 2, set.MinPeriods())

	set.CashFlow.Items[ItemOperatingCashFlow] = []float64{150}
	assert.Equal(t, 1, set.MinPeriods())
}

func TestStatementSet_HasData(t *testing.T) {
	set := testSet()
	assert.True(t, set.HasData())

	empty := &StatementSet{BalanceSheet: NewTable(), Income: NewTable(), CashFlow: NewTable()}
	assert.False(t, empty.HasData())
}
