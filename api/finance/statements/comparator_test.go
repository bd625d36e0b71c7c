package statements

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthTxn(year int, month time.Month, kind TxKind, amount, category string) Transaction {
	return Transaction{
		Date:     time.Date(year, month, 15, 0, 0, 0, 0, time.UTC),
		Kind:     kind,
		Amount:   dec(amount),
		Category: category,
	}
}

func TestCalculatePeriodData(t *testing.T) {
	txns := []Transaction{
		monthTxn(2024, time.February, TxIncome, "1200", "Factura"),
		monthTxn(2024, time.February, TxExpense, "-300", "Gastos de producción"),
		monthTxn(2024, time.February, TxAdvance, "-100", "Avance"),
		monthTxn(2024, time.January, TxIncome, "9999", "Factura"),
	}
	data := CalculatePeriodData(txns, "2024-02")
	assert.Equal(t, 3, data.TransactionCount)
	assert.True(t, data.Income.Equal(dec("1200")))
	assert.True(t, data.Expenses.Equal(dec("300")))
	assert.True(t, data.Advances.Equal(dec("100")))
	assert.True(t, data.Balance.Equal(dec("800")))
	// (1200 + 300 + 100) / 3
	assert.True(t, data.AvgTransactionSize.Equal(dec("533.33")))
	assert.Equal(t, "Factura", data.TopCategory)
	assert.True(t, data.TopCategoryAmount.Equal(dec("1200")))
}

func TestCalculatePeriodDataSkipsHidden(t *testing.T) {
	hidden := monthTxn(2024, time.February, TxIncome, "500", "Factura")
	hidden.Hidden = true
	data := CalculatePeriodData([]Transaction{hidden}, "2024-02")
	assert.Equal(t, 0, data.TransactionCount)
	assert.True(t, data.Income.IsZero())
	assert.Equal(t, "N/A", data.TopCategory)
}

func TestCalculateChange(t *testing.T) {
	ch := calculateChange(dec("1200"), dec("1000"))
	assert.True(t, ch.Value.Equal(dec("200")))
	assert.True(t, ch.Percentage.Equal(dec("20")))
	assert.Equal(t, TrendUp, ch.Trend)

	ch = calculateChange(dec("800"), dec("1000"))
	assert.True(t, ch.Value.Equal(dec("-200")))
	assert.True(t, ch.Percentage.Equal(dec("-20")))
	assert.Equal(t, TrendDown, ch.Trend)

	ch = calculateChange(dec("1000"), dec("1000"))
	assert.True(t, ch.Value.IsZero())
	assert.Equal(t, TrendNeutral, ch.Trend)
}

func TestCalculateChangeZeroComparison(t *testing.T) {
	ch := calculateChange(dec("500"), decimal.Zero)
	assert.True(t, ch.Value.IsZero())
	assert.True(t, ch.Percentage.IsZero())
	assert.Equal(t, TrendNeutral, ch.Trend)
}

func TestCalculateChangeNegativeComparison(t *testing.T) {
	// percentage uses the absolute comparison value as base
	ch := calculateChange(dec("-50"), dec("-100"))
	assert.True(t, ch.Value.Equal(dec("50")))
	assert.True(t, ch.Percentage.Equal(dec("50")))
	assert.Equal(t, TrendUp, ch.Trend)
}

func TestComparePeriods(t *testing.T) {
	txns := []Transaction{
		monthTxn(2024, time.February, TxIncome, "1200", "Factura"),
		monthTxn(2024, time.February, TxExpense, "-100", "Pago por servicios"),
		monthTxn(2024, time.January, TxIncome, "1000", "Factura"),
		monthTxn(2024, time.January, TxExpense, "-250", "Pago por servicios"),
	}
	result := ComparePeriods(txns, "2024-02", "2024-01")

	require.Equal(t, "2024-02", result.Period1.Period)
	require.Equal(t, "2024-01", result.Period2.Period)

	assert.True(t, result.IncomeChange.Value.Equal(dec("200")))
	assert.True(t, result.IncomeChange.Percentage.Equal(dec("20")))
	assert.Equal(t, TrendUp, result.IncomeChange.Trend)

	assert.True(t, result.ExpensesChange.Value.Equal(dec("-150")))
	assert.Equal(t, TrendDown, result.ExpensesChange.Trend)

	// balances: 1100 vs 750
	assert.True(t, result.BalanceChange.Value.Equal(dec("350")))
	assert.Equal(t, TrendNeutral, result.TransactionsChange.Trend)
}

func TestComparePeriodsSymmetry(t *testing.T) {
	txns := []Transaction{
		monthTxn(2024, time.February, TxIncome, "1200", "Factura"),
		monthTxn(2024, time.February, TxExpense, "-100", "Pago por servicios"),
		monthTxn(2024, time.February, TxAdvance, "-50", "Avance"),
		monthTxn(2024, time.January, TxIncome, "1000", "Factura"),
		monthTxn(2024, time.January, TxExpense, "-250", "Pago por servicios"),
	}
	forward := ComparePeriods(txns, "2024-02", "2024-01")
	reversed := ComparePeriods(txns, "2024-01", "2024-02")

	assert.Equal(t, forward.Period1, reversed.Period2)
	assert.Equal(t, forward.Period2, reversed.Period1)

	flip := func(tr Trend) Trend {
		switch tr {
		case TrendUp:
			return TrendDown
		case TrendDown:
			return TrendUp
		}
		return TrendNeutral
	}
	pairs := []struct {
		name     string
		fwd, rev MetricChange
	}{
		{"income", forward.IncomeChange, reversed.IncomeChange},
		{"expenses", forward.ExpensesChange, reversed.ExpensesChange},
		{"balance", forward.BalanceChange, reversed.BalanceChange},
		{"transactions", forward.TransactionsChange, reversed.TransactionsChange},
	}
	for _, p := range pairs {
		assert.True(t, p.rev.Value.Equal(p.fwd.Value.Neg()),
			"%s: reversed delta %s must negate %s", p.name, p.rev.Value, p.fwd.Value)
		assert.Equal(t, flip(p.fwd.Trend), p.rev.Trend, p.name)
	}

	// the zero-comparison guard is deliberately one-sided: comparing
	// against an empty period is neutral, not infinite growth
	empty := ComparePeriods(txns, "2024-02", "2023-12")
	assert.Equal(t, TrendNeutral, empty.IncomeChange.Trend)
	assert.True(t, empty.IncomeChange.Value.IsZero())
	back := ComparePeriods(txns, "2023-12", "2024-02")
	assert.Equal(t, TrendDown, back.IncomeChange.Trend)
	assert.True(t, back.IncomeChange.Value.Equal(dec("-1200")))
}

func TestComparePeriodsEmptyPeriods(t *testing.T) {
	result := ComparePeriods(nil, "2024-02", "2024-01")
	assert.Equal(t, 0, result.Period1.TransactionCount)
	assert.Equal(t, TrendNeutral, result.IncomeChange.Trend)
	assert.True(t, result.IncomeChange.Percentage.IsZero())
}
