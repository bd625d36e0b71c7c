package statements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stmt(artist, month string, income, expenses, advances, balance string, count int) Statement {
	return Statement{
		ArtistName:       artist,
		StatementMonth:   month,
		TotalIncome:      dec(income),
		TotalExpenses:    dec(expenses),
		TotalAdvances:    dec(advances),
		Balance:          dec(balance),
		TransactionCount: count,
	}
}

func TestAggregateTotals(t *testing.T) {
	stmts := []Statement{
		stmt("Sol Media", "2024-01", "1000", "150", "-200", "1050", 3),
		stmt("Luna Beats", "2024-01", "500", "100", "0", "400", 2),
	}
	totals := AggregateTotals(stmts)
	assert.True(t, totals.TotalIncome.Equal(dec("1500")))
	assert.True(t, totals.TotalExpenses.Equal(dec("250")))
	assert.True(t, totals.TotalAdvances.Equal(dec("-200")))
	assert.True(t, totals.TotalBalance.Equal(dec("1450")))
}

func TestAggregateTotalsSkipsHidden(t *testing.T) {
	hidden := stmt("Sol Media", "2024-01", "9999", "0", "0", "9999", 1)
	hidden.Hidden = true
	totals := AggregateTotals([]Statement{
		hidden,
		stmt("Luna Beats", "2024-01", "500", "100", "0", "400", 2),
	})
	assert.True(t, totals.TotalBalance.Equal(dec("400")))
}

func TestAggregateTotalsAdditive(t *testing.T) {
	a := stmt("Sol Media", "2024-01", "1000", "150", "-200", "1050", 3)
	b := stmt("Luna Beats", "2024-02", "500", "100", "50", "350", 2)

	whole := AggregateTotals([]Statement{a, b})
	pa := AggregateTotals([]Statement{a})
	pb := AggregateTotals([]Statement{b})

	assert.True(t, whole.TotalIncome.Equal(pa.TotalIncome.Add(pb.TotalIncome)))
	assert.True(t, whole.TotalExpenses.Equal(pa.TotalExpenses.Add(pb.TotalExpenses)))
	assert.True(t, whole.TotalAdvances.Equal(pa.TotalAdvances.Add(pb.TotalAdvances)))
	assert.True(t, whole.TotalBalance.Equal(pa.TotalBalance.Add(pb.TotalBalance)))
}

func TestCategoryBreakdown(t *testing.T) {
	txns := []Transaction{
		{Category: "Factura", Amount: dec("1000")},
		{Category: "Gastos de producción", Amount: dec("-300")},
		{Category: "", Amount: dec("-50")},
		{Category: "Factura", Amount: dec("200")},
		{Category: "Oculto", Amount: dec("9999"), Hidden: true},
	}
	out := CategoryBreakdown(txns)
	require.Len(t, out, 3)
	assert.Equal(t, "Factura", out[0].Category)
	assert.True(t, out[0].Amount.Equal(dec("1200")))
	assert.Equal(t, "Gastos de producción", out[1].Category)
	assert.Equal(t, "Sin categoría", out[2].Category)
}

func TestMonthlySeries(t *testing.T) {
	txns := []Transaction{
		{Date: day(5), Kind: TxIncome, Amount: dec("1000")},
		{Date: day(10), Kind: TxExpense, Amount: dec("-150")},
		{Date: day(5).AddDate(0, 1, 0), Kind: TxIncome, Amount: dec("700")},
	}
	series := MonthlySeries(txns)
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01", series[0].Month)
	assert.True(t, series[0].Income.Equal(dec("1000")))
	assert.True(t, series[0].Expenses.Equal(dec("150")))
	assert.True(t, series[0].Net.Equal(dec("850")))
	assert.Equal(t, 2, series[0].Count)
	assert.Equal(t, "2024-02", series[1].Month)
}

func TestRollupByArtistOrder(t *testing.T) {
	stmts := []Statement{
		stmt("Luna Beats", "2024-01", "500", "100", "0", "400", 2),
		stmt("Sol Media", "2024-01", "1000", "150", "-200", "1050", 3),
		stmt("Sol Media", "2024-02", "800", "50", "0", "750", 4),
	}
	out := RollupByArtist(stmts)
	require.Len(t, out, 2)
	assert.Equal(t, "Sol Media", out[0].Artist)
	assert.Equal(t, 2, out[0].Statements)
	assert.Equal(t, 7, out[0].Transactions)
	assert.True(t, out[0].Balance.Equal(dec("1800")))
	assert.True(t, out[0].AvgPerStatement().Equal(dec("900")))
	assert.Equal(t, "Luna Beats", out[1].Artist)
}

func TestRollupByMonthNewestFirst(t *testing.T) {
	stmts := []Statement{
		stmt("Sol Media", "2024-01", "1000", "150", "0", "850", 3),
		stmt("Luna Beats", "2024-02", "500", "100", "0", "400", 2),
	}
	out := RollupByMonth(stmts)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-02", out[0].Month)
	assert.Equal(t, "2024-01", out[1].Month)
}
