package statements

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"€ 500", "500"},
		{"(500)", "-500"},
		{"-75.10", "-75.1"},
		{"1,234", "1234"},
		{"USD 12", "12"},
	}
	for _, c := range cases {
		got, err := parseMoney(c.in)
		require.NoError(t, err, c.in)
		require.NotNil(t, got, c.in)
		assert.Equal(t, c.want, got.String(), c.in)
	}
}

func TestParseMoneyBlank(t *testing.T) {
	for _, in := range []string{"", "—", "-", "   "} {
		got, err := parseMoney(in)
		require.NoError(t, err)
		assert.Nil(t, got, "%q should be treated as absent", in)
	}
}

func TestParseMoneyJunk(t *testing.T) {
	_, err := parseMoney("n/a")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"2/1/2024", "2024-01-02"},
		{"15-01-2024", "2024-01-15"},
	}
	for _, c := range cases {
		got, ok := parseDate(c.in)
		require.True(t, ok, c.in)
		assert.Equal(t, c.want, got.Format("2006-01-02"), c.in)
	}
}

func TestParseDateExcelSerial(t *testing.T) {
	// 45292 is 2024-01-01 in the 1900 date system
	got, ok := parseDate("45292")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", got.Format("2006-01-02"))
}

func TestParseDateRejectsJunk(t *testing.T) {
	for _, in := range []string{"", "mañana", "13/13/2024", "12"} {
		_, ok := parseDate(in)
		assert.False(t, ok, "%q should not parse", in)
	}
}

var testHeaders = []string{
	"Fecha", "Nº Factura", "Tipo", "Método Pago", "Concepto",
	"Valor Factura", "Cargos Banc.", "80% País", "20% Comisión",
	"5% Legal", "Retención IVA", "Pagado MVPX", "Avance", "Balance",
}

func TestNewColumnMapResolvesSpanishHeaders(t *testing.T) {
	cm := newColumnMap(testHeaders)
	assert.Equal(t, 0, cm.date)
	assert.Equal(t, 4, cm.concept)
	assert.Equal(t, 5, cm.invoiceValue)
	assert.Equal(t, 6, cm.bankCharges)
	assert.Equal(t, 7, cm.countryShare)
	assert.Equal(t, 8, cm.commission)
	assert.Equal(t, 9, cm.legalShare)
	assert.Equal(t, 10, cm.taxRetention)
	assert.Equal(t, 11, cm.netPayment)
	assert.Equal(t, 12, cm.advance)
	assert.Equal(t, 13, cm.balance)
}

func TestNewColumnMapAbsentColumns(t *testing.T) {
	cm := newColumnMap([]string{"Fecha", "Concepto", "Valor Factura"})
	assert.Equal(t, -1, cm.advance)
	assert.Equal(t, -1, cm.taxRetention)
}

func normalize(t *testing.T, row []string) (*Transaction, *RowError) {
	t.Helper()
	cm := newColumnMap(testHeaders)
	return NormalizeRow(cm, row, 5, newDateNormalizer())
}

func TestNormalizeRowIncome(t *testing.T) {
	row := []string{"15/01/2024", "F-001", "FACTURA", "Transferencia", "Factura enero",
		"$1,000.00", "", "", "", "", "", "", "", ""}
	tx, rowErr := normalize(t, row)
	require.Nil(t, rowErr)
	require.NotNil(t, tx)
	assert.Equal(t, TxIncome, tx.Kind)
	assert.Equal(t, "Factura", tx.Category)
	assert.Equal(t, "F-001", tx.InvoiceNumber)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), tx.Date)
	require.NotNil(t, tx.InvoiceValue)
	assert.True(t, tx.InvoiceValue.Equal(decimal.NewFromInt(1000)))
}

func TestNormalizeRowAdvanceKeyword(t *testing.T) {
	row := []string{"20/01/2024", "", "", "", "Avance de regalías",
		"", "", "", "", "", "", "", "-200", ""}
	tx, rowErr := normalize(t, row)
	require.Nil(t, rowErr)
	require.NotNil(t, tx)
	assert.Equal(t, TxAdvance, tx.Kind)
	require.NotNil(t, tx.AdvanceAmount)
	assert.True(t, tx.AdvanceAmount.Equal(decimal.NewFromInt(-200)))
}

func TestNormalizeRowExpenseFromColumns(t *testing.T) {
	// no keyword in concept, only deduction columns filled
	row := []string{"18/01/2024", "", "", "", "Comisión distribución",
		"", "50", "", "100", "", "", "", "", ""}
	tx, rowErr := normalize(t, row)
	require.Nil(t, rowErr)
	require.NotNil(t, tx)
	assert.Equal(t, TxExpense, tx.Kind)
}

func TestNormalizeRowBlankSpacer(t *testing.T) {
	tx, rowErr := normalize(t, []string{"", "", "", "", "", "", "", "", "", "", "", "", "", ""})
	assert.Nil(t, tx)
	assert.Nil(t, rowErr)
}

func TestNormalizeRowMissingConcept(t *testing.T) {
	row := []string{"15/01/2024", "", "", "", "", "100", "", "", "", "", "", "", "", ""}
	tx, rowErr := normalize(t, row)
	assert.Nil(t, tx)
	require.NotNil(t, rowErr)
	assert.Equal(t, 5, rowErr.Row)
	assert.Contains(t, rowErr.Reason, "concept")
}

func TestNormalizeRowBadDate(t *testing.T) {
	row := []string{"not a date", "", "", "", "Factura enero", "100", "", "", "", "", "", "", "", ""}
	tx, rowErr := normalize(t, row)
	assert.Nil(t, tx)
	require.NotNil(t, rowErr)
	assert.Contains(t, rowErr.Reason, "date")
}

func TestNormalizeRowJunkMoney(t *testing.T) {
	row := []string{"15/01/2024", "", "", "", "Factura enero", "junk", "", "", "", "", "", "", "", ""}
	tx, rowErr := normalize(t, row)
	assert.Nil(t, tx)
	require.NotNil(t, rowErr)
	assert.Contains(t, rowErr.Reason, "valor factura")
}

func TestFindHeaderRow(t *testing.T) {
	rows := [][]string{
		{"", "Artista", "", "", "Sol Media"},
		{"", "Nombre legal", "", "", "Sol Media SAS"},
		{},
		testHeaders,
		{"15/01/2024", "", "", "", "Factura enero", "100"},
	}
	assert.Equal(t, 3, findHeaderRow(rows))
	assert.Equal(t, -1, findHeaderRow([][]string{{"nothing", "here"}}))
}

func TestExtractArtistInfo(t *testing.T) {
	dn := newDateNormalizer()
	rows := [][]string{
		{"", "Nombre legal:", "", "", "Sol Media SAS"},
		{"", "Fecha de inicio", "", "", "01/01/2024"},
		{"", "Fecha fin", "", "", "31/01/2024"},
	}
	info := extractArtistInfo(rows, dn)
	assert.Equal(t, "Sol Media SAS", info.LegalName)
	assert.Equal(t, "2024-01-01", info.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-31", info.PeriodEnd.Format("2006-01-02"))
}

func TestIsReservedSheet(t *testing.T) {
	assert.True(t, isReservedSheet("Base de datos"))
	assert.True(t, isReservedSheet(" modelo "))
	assert.False(t, isReservedSheet("Sol Media"))
}
