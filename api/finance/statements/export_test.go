package statements

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MvpxArtistSaas/api/constants"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1234.56", "$1,234.56"},
		{"-1234.5", "$-1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"999.999", "$1,000.00"},
		{"-0.01", "$-0.01"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatMoney(dec(c.in)), "formatMoney(%s)", c.in)
	}

	assert.Equal(t, "—", formatMoneyPtr(nil))
	assert.Equal(t, "$150.00", formatMoneyPtr(decPtr("150")))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "enero de 2024", monthLabel("2024-01"))
	assert.Equal(t, "diciembre de 2023", monthLabel("2023-12"))
	// unparseable keys pass through untouched
	assert.Equal(t, "sin fecha", monthLabel("sin fecha"))
}

func reportData() *ReportData {
	sol := stmt("Sol Media", "2024-01", "1000", "150", "-200", "1050", 3)
	sol.PeriodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	luna := stmt("Luna Beats", "2024-02", "2000", "500", "0", "1500", 5)
	luna.PeriodStart = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	hidden := stmt("Oculto", "2024-02", "50", "0", "0", "50", 1)
	hidden.Hidden = true
	stmts := []Statement{sol, luna, hidden}
	return &ReportData{
		Statements:  stmts,
		Totals:      AggregateTotals(stmts),
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildExcelReport(t *testing.T) {
	b, err := BuildExcelReport(reportData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	assert.Contains(t, names, constants.SheetNameSummary)
	assert.Contains(t, names, constants.SheetNameStatements)
	assert.Contains(t, names, constants.SheetNameByArtist)
	assert.Contains(t, names, constants.SheetNameByMonth)
	assert.NotContains(t, names, constants.SheetNameDetail, "detail sheet only renders for a selected statement")
	assert.NotContains(t, names, "Sheet1")

	rows, err := f.GetRows(constants.SheetNameStatements)
	require.NoError(t, err)

	var headerIdx int
	for i, row := range rows {
		if len(row) > 0 && row[0] == constants.StatementHeaders[0] {
			headerIdx = i
			break
		}
	}
	require.Greater(t, headerIdx, 0, "statements sheet must carry its header row")
	assert.Equal(t, constants.StatementHeaders, rows[headerIdx][:len(constants.StatementHeaders)])

	// newest period first, hidden statements never rendered
	assert.Equal(t, "Luna Beats", rows[headerIdx+1][0])
	assert.Equal(t, "Sol Media", rows[headerIdx+2][0])
	for _, row := range rows {
		if len(row) > 0 {
			assert.NotEqual(t, "Oculto", row[0])
		}
	}
}

func TestBuildExcelReportDetailSheet(t *testing.T) {
	data := reportData()
	selected := data.Statements[0]
	data.SelectedStatement = &selected
	data.Transactions = []Transaction{
		{Date: day(5), Concept: "Factura enero", Kind: TxIncome, Amount: dec("1000"), RunningBalance: dec("1000")},
		{Date: day(10), Concept: "Pago estudio", Kind: TxExpense, Amount: dec("-150"), RunningBalance: dec("850")},
	}

	b, err := BuildExcelReport(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, f.GetSheetList(), constants.SheetNameDetail)
	rows, err := f.GetRows(constants.SheetNameDetail)
	require.NoError(t, err)

	var concepts []string
	for _, row := range rows {
		if len(row) >= 5 {
			concepts = append(concepts, row[4])
		}
	}
	assert.Contains(t, concepts, "Factura enero")
	assert.Contains(t, concepts, "Pago estudio")
}

func TestBuildPDFReport(t *testing.T) {
	b, err := BuildPDFReport(reportData())
	require.NoError(t, err)
	require.NotEmpty(t, b)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")), "output must be a PDF document")
}
