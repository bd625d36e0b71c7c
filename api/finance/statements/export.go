package statements

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"MvpxArtistSaas/api/constants"
)

// ReportData is everything the exporters render: both outputs are pure
// functions of this struct, so the workbook and the PDF can always be
// cross-checked field for field.
type ReportData struct {
	Statements        []Statement
	SelectedStatement *Statement
	Transactions      []Transaction
	Totals            Totals
	FilterArtist      string
	FilterMonth       string
	GeneratedAt       time.Time
}

var monthNamesES = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// monthLabel renders a YYYY-MM key the way the reports print it,
// e.g. "enero de 2024".
func monthLabel(month string) string {
	t, err := time.Parse(constants.MonthFormat, month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s de %d", monthNamesES[t.Month()-1], t.Year())
}

// formatMoney renders a decimal as the reports do: dollar sign, comma
// grouping, two fixed decimals.
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return "$" + sign + b.String() + "." + fracPart
}

func formatMoneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return formatMoney(*d)
}

func formatDate(t time.Time) string {
	return t.Format(constants.DateFormatES)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return formatDate(*t)
}

func visibleOnly(stmts []Statement) []Statement {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

func visibleTxns(txns []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Hidden {
			out = append(out, t)
		}
	}
	return out
}

// filterDescription summarizes the active filters for the title block.
func filterDescription(data *ReportData) []string {
	var lines []string
	if data.FilterArtist != "" && data.FilterArtist != "all" {
		lines = append(lines, "Artista: "+data.FilterArtist)
	}
	if data.FilterMonth != "" && data.FilterMonth != "all" {
		lines = append(lines, "Periodo: "+monthLabel(data.FilterMonth))
	}
	return lines
}

func statementRow(s *Statement) []interface{} {
	name := s.ArtistName
	if name == "" {
		name = "Unknown"
	}
	legal := s.LegalName
	if legal == "" {
		legal = "N/A"
	}
	return []interface{}{
		name,
		legal,
		monthLabel(s.StatementMonth),
		formatDate(s.PeriodStart),
		formatDatePtr(s.PeriodEnd),
		formatMoney(s.TotalIncome),
		formatMoney(s.TotalExpenses),
		formatMoney(s.TotalAdvances.Abs()),
		formatMoney(s.Balance),
		s.TransactionCount,
	}
}

func transactionRow(t *Transaction) []interface{} {
	dash := func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	}
	return []interface{}{
		formatDate(t.Date),
		dash(t.InvoiceNumber),
		dash(t.TypeCode),
		dash(t.PaymentMethod),
		t.Concept,
		formatMoneyPtr(t.InvoiceValue),
		formatMoneyPtr(t.BankCharges),
		formatMoneyPtr(t.CountryShare),
		formatMoneyPtr(t.CommissionShare),
		formatMoneyPtr(t.LegalShare),
		formatMoneyPtr(t.TaxRetention),
		formatMoneyPtr(t.NetPayment),
		formatMoneyPtr(t.AdvanceAmount),
		formatMoneyPtr(t.SheetBalance),
	}
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// BuildExcelReport renders the filtered view into the fixed workbook
// layout: executive summary, all statements, optional transaction
// detail, per-artist and per-month analysis.
func BuildExcelReport(data *ReportData) ([]byte, error) {
	stmts := visibleOnly(data.Statements)
	f := excelize.NewFile()
	defer f.Close()

	if err := buildSummarySheet(f, data, stmts); err != nil {
		return nil, err
	}
	if err := buildStatementsSheet(f, data, stmts); err != nil {
		return nil, err
	}
	if data.SelectedStatement != nil && len(data.Transactions) > 0 {
		if err := buildDetailSheet(f, data); err != nil {
			return nil, err
		}
	}
	if err := buildArtistSheet(f, stmts); err != nil {
		return nil, err
	}
	if err := buildMonthSheet(f, stmts); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildSummarySheet(f *excelize.File, data *ReportData, stmts []Statement) error {
	sheet := constants.SheetNameSummary
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	totalTxns := 0
	for _, s := range stmts {
		totalTxns += s.TransactionCount
	}
	avg := decimal.Zero
	if len(stmts) > 0 {
		avg = data.Totals.TotalBalance.Div(decimal.NewFromInt(int64(len(stmts)))).Round(2)
	}

	rows := [][]interface{}{
		{constants.ReportCompanyName},
		{constants.ReportTitle},
		{},
		{"Generated:", data.GeneratedAt.Format(constants.DateTimeFormat)},
	}
	for _, line := range filterDescription(data) {
		label, value, _ := strings.Cut(line, ": ")
		rows = append(rows, []interface{}{label + " Filter:", value})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"RESUMEN EJECUTIVO"},
		[]interface{}{},
		[]interface{}{"Métrica", "Monto"},
		[]interface{}{"Ingresos Totales", formatMoney(data.Totals.TotalIncome)},
		[]interface{}{"Gastos Totales", formatMoney(data.Totals.TotalExpenses)},
		[]interface{}{"Avances Totales", formatMoney(data.Totals.TotalAdvances.Abs())},
		[]interface{}{"Balance Total", formatMoney(data.Totals.TotalBalance)},
		[]interface{}{},
		[]interface{}{"ESTADÍSTICAS"},
		[]interface{}{},
		[]interface{}{"Total de Estados de Cuenta", len(stmts)},
		[]interface{}{"Total de Transacciones", totalTxns},
		[]interface{}{"Promedio por Estado", formatMoney(avg)},
	)
	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 30); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "B", 25)
}

func buildStatementsSheet(f *excelize.File, data *ReportData, stmts []Statement) error {
	sheet := constants.SheetNameStatements
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	ordered := make([]Statement, len(stmts))
	copy(ordered, stmts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PeriodStart.After(ordered[j].PeriodStart)
	})

	headers := make([]interface{}, len(constants.StatementHeaders))
	for i, h := range constants.StatementHeaders {
		headers[i] = h
	}
	rows := [][]interface{}{
		{"TODOS LOS ESTADOS DE CUENTA"},
		{},
		headers,
	}
	for i := range ordered {
		rows = append(rows, statementRow(&ordered[i]))
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"", "", "", "", "TOTALES:"},
		[]interface{}{"", "", "", "", "Ingresos:", formatMoney(data.Totals.TotalIncome)},
		[]interface{}{"", "", "", "", "Gastos:", formatMoney(data.Totals.TotalExpenses)},
		[]interface{}{"", "", "", "", "Avances:", formatMoney(data.Totals.TotalAdvances.Abs())},
		[]interface{}{"", "", "", "", "Balance:", formatMoney(data.Totals.TotalBalance)},
	)
	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r); err != nil {
			return err
		}
	}

	widths := []float64{20, 25, 18, 15, 15, 15, 15, 15, 15, 12}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func buildDetailSheet(f *excelize.File, data *ReportData) error {
	sheet := constants.SheetNameDetail
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	txns := visibleTxns(data.Transactions)
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	sel := data.SelectedStatement
	headers := make([]interface{}, len(constants.TransactionHeaders))
	for i, h := range constants.TransactionHeaders {
		headers[i] = h
	}
	rows := [][]interface{}{
		{fmt.Sprintf("DETALLE DE TRANSACCIONES - %s", sel.ArtistName)},
		{fmt.Sprintf("Periodo: %s", monthLabel(sel.StatementMonth))},
		{},
		headers,
	}
	for i := range txns {
		rows = append(rows, transactionRow(&txns[i]))
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"", "", "", "", "TOTALES:"},
		[]interface{}{"", "", "", "", "Ingresos:", formatMoney(sel.TotalIncome)},
		[]interface{}{"", "", "", "", "Gastos:", formatMoney(sel.TotalExpenses)},
		[]interface{}{"", "", "", "", "Balance:", formatMoney(sel.Balance)},
	)
	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r); err != nil {
			return err
		}
	}

	widths := []float64{12, 12, 10, 15, 35, 15, 13, 13, 13, 12, 14, 13, 12, 15}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func buildArtistSheet(f *excelize.File, stmts []Statement) error {
	sheet := constants.SheetNameByArtist
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := make([]interface{}, len(constants.ArtistAnalysisHeaders))
	for i, h := range constants.ArtistAnalysisHeaders {
		headers[i] = h
	}
	rows := [][]interface{}{
		{"ANÁLISIS POR ARTISTA"},
		{},
		headers,
	}
	for _, r := range RollupByArtist(stmts) {
		rows = append(rows, []interface{}{
			r.Artist,
			r.Statements,
			r.Transactions,
			formatMoney(r.Income),
			formatMoney(r.Expenses),
			formatMoney(r.Advances.Abs()),
			formatMoney(r.Balance),
			formatMoney(r.AvgPerStatement()),
		})
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 25)
}

func buildMonthSheet(f *excelize.File, stmts []Statement) error {
	sheet := constants.SheetNameByMonth
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := make([]interface{}, len(constants.MonthAnalysisHeaders))
	for i, h := range constants.MonthAnalysisHeaders {
		headers[i] = h
	}
	rows := [][]interface{}{
		{"ANÁLISIS POR MES"},
		{},
		headers,
	}
	for _, r := range RollupByMonth(stmts) {
		rows = append(rows, []interface{}{
			monthLabel(r.Month),
			r.Statements,
			formatMoney(r.Income),
			formatMoney(r.Expenses),
			formatMoney(r.Advances.Abs()),
			formatMoney(r.Balance),
		})
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 20)
}

// BuildPDFReport renders the same field set as the workbook into an A4
// landscape table: title block, summary, then the statement table with
// the header row repeated per page and a page-number footer.
func BuildPDFReport(data *ReportData) ([]byte, error) {
	stmts := visibleOnly(data.Statements)
	sort.SliceStable(stmts, func(i, j int) bool {
		return stmts[i].PeriodStart.After(stmts[j].PeriodStart)
	})

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetCreationDate(data.GeneratedAt)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// title block
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(30, 41, 59)
	pdf.Cell(0, 12, tr(constants.ReportPDFTitle))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.Cell(0, 5, tr("Generado: "+data.GeneratedAt.Format(constants.DateTimeFormat)))
	pdf.Ln(5)
	for _, line := range filterDescription(data) {
		pdf.Cell(0, 5, tr(line))
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, tr(fmt.Sprintf("Total de Estados de Cuenta: %d", len(stmts))))
	pdf.Ln(10)

	// executive summary table
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 41, 59)
	pdf.Cell(0, 8, tr("Resumen Ejecutivo"))
	pdf.Ln(9)
	summary := [][2]string{
		{"Ingresos Totales", formatMoney(data.Totals.TotalIncome)},
		{"Gastos Totales", formatMoney(data.Totals.TotalExpenses)},
		{"Avances Totales", formatMoney(data.Totals.TotalAdvances.Abs())},
		{"Balance Total", formatMoney(data.Totals.TotalBalance)},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(71, 85, 105)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(130, 7, tr("Métrica"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(130, 7, "Monto", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(30, 41, 59)
	for _, row := range summary {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(130, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(130, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	// statements table
	widths := []float64{34, 36, 26, 22, 22, 26, 26, 26, 26, 22}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(71, 85, 105)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range constants.StatementHeaders {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 41, 59)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr("Estados de Cuenta"))
	pdf.Ln(9)
	drawHeader()

	_, pageH := pdf.GetPageSize()
	bottom := pageH - 20
	for i := range stmts {
		if pdf.GetY()+7 > bottom {
			pdf.AddPage()
			drawHeader()
		}
		cells := statementRow(&stmts[i])
		for c, v := range cells {
			align := "L"
			if c >= 5 {
				align = "R"
			}
			pdf.CellFormat(widths[c], 7, tr(truncate(fmt.Sprint(v), 28)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
