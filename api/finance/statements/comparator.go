package statements

import (
	"strings"

	"github.com/shopspring/decimal"

	"MvpxArtistSaas/api/constants"
)

// Trend is the raw direction of a metric delta. Whether "up" is good
// depends on the metric (income up is good, expenses up is not); that
// polarity belongs to the display layer, never to the trend itself.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// PeriodData are the metrics of one calendar month's visible
// transactions.
type PeriodData struct {
	Period             string          `json:"period"`
	Income             decimal.Decimal `json:"income"`
	Expenses           decimal.Decimal `json:"expenses"`
	Advances           decimal.Decimal `json:"advances"`
	Balance            decimal.Decimal `json:"balance"`
	TransactionCount   int             `json:"transactionCount"`
	AvgTransactionSize decimal.Decimal `json:"avgTransactionSize"`
	TopCategory        string          `json:"topCategory"`
	TopCategoryAmount  decimal.Decimal `json:"topCategoryAmount"`
}

// MetricChange is the signed delta of one metric between two periods.
type MetricChange struct {
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
	Trend      Trend           `json:"trend"`
}

// ComparisonResult is the full period-over-period comparison.
type ComparisonResult struct {
	Period1            PeriodData   `json:"period1"`
	Period2            PeriodData   `json:"period2"`
	IncomeChange       MetricChange `json:"incomeChange"`
	ExpensesChange     MetricChange `json:"expensesChange"`
	BalanceChange      MetricChange `json:"balanceChange"`
	TransactionsChange MetricChange `json:"transactionsChange"`
}

// CalculatePeriodData reduces the visible transactions of one YYYY-MM
// period. Expenses and advances are reported as absolute magnitudes
// here, matching how the comparison is read side by side.
func CalculatePeriodData(txns []Transaction, period string) PeriodData {
	data := PeriodData{
		Period:             period,
		Income:             decimal.Zero,
		Expenses:           decimal.Zero,
		Advances:           decimal.Zero,
		Balance:            decimal.Zero,
		AvgTransactionSize: decimal.Zero,
		TopCategory:        "N/A",
		TopCategoryAmount:  decimal.Zero,
	}

	absSum := decimal.Zero
	byCat := make(map[string]decimal.Decimal)
	for i := range txns {
		t := &txns[i]
		if t.Hidden || !strings.HasPrefix(t.Date.Format(constants.MonthFormat), period) {
			continue
		}
		data.TransactionCount++
		absSum = absSum.Add(t.Amount.Abs())

		cat := t.Category
		if cat == "" {
			cat = uncategorized
		}
		byCat[cat] = byCat[cat].Add(t.Amount.Abs())

		switch t.Kind {
		case TxIncome:
			data.Income = data.Income.Add(t.Amount)
		case TxExpense:
			data.Expenses = data.Expenses.Add(t.Amount.Abs())
		case TxAdvance:
			data.Advances = data.Advances.Add(t.Amount.Abs())
		}
	}

	data.Balance = data.Income.Sub(data.Expenses).Sub(data.Advances)
	if data.TransactionCount > 0 {
		data.AvgTransactionSize = absSum.Div(decimal.NewFromInt(int64(data.TransactionCount))).Round(2)
	}
	for cat, amt := range byCat {
		if amt.GreaterThan(data.TopCategoryAmount) ||
			(amt.Equal(data.TopCategoryAmount) && cat < data.TopCategory) {
			data.TopCategory = cat
			data.TopCategoryAmount = amt
		}
	}
	return data
}

// calculateChange computes current - comparison with a guarded
// percentage: a zero comparison value reports 0% and neutral rather
// than a division blowup.
func calculateChange(current, comparison decimal.Decimal) MetricChange {
	if comparison.IsZero() {
		return MetricChange{Value: decimal.Zero, Percentage: decimal.Zero, Trend: TrendNeutral}
	}
	delta := current.Sub(comparison)
	pct := delta.Div(comparison.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
	trend := TrendNeutral
	switch {
	case delta.IsPositive():
		trend = TrendUp
	case delta.IsNegative():
		trend = TrendDown
	}
	return MetricChange{Value: delta, Percentage: pct, Trend: trend}
}

// ComparePeriods compares period1 against period2 metric by metric
// (deltas are period1 - period2).
func ComparePeriods(txns []Transaction, period1, period2 string) ComparisonResult {
	d1 := CalculatePeriodData(txns, period1)
	d2 := CalculatePeriodData(txns, period2)
	return ComparisonResult{
		Period1:        d1,
		Period2:        d2,
		IncomeChange:   calculateChange(d1.Income, d2.Income),
		ExpensesChange: calculateChange(d1.Expenses, d2.Expenses),
		BalanceChange:  calculateChange(d1.Balance, d2.Balance),
		TransactionsChange: calculateChange(
			decimal.NewFromInt(int64(d1.TransactionCount)),
			decimal.NewFromInt(int64(d2.TransactionCount)),
		),
	}
}
