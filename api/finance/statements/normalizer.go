package statements

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// columnMap resolves the index of every recognized field in one sheet's
// header row. -1 means the column is absent from this workbook, which is
// treated as always-blank for every row, not as an error.
type columnMap struct {
	date          int
	invoiceNumber int
	typeCode      int
	paymentMethod int
	concept       int
	invoiceValue  int
	bankCharges   int
	countryShare  int
	commission    int
	legalShare    int
	taxRetention  int
	netPayment    int
	advance       int
	balance       int
}

// Header aliases follow the workbooks the label team actually sends:
// Spanish headers, matched case-insensitively by substring.
var headerAliases = map[string][]string{
	"date":          {"fecha"},
	"invoiceNumber": {"nº factura", "no. factura", "numero factura", "número"},
	"typeCode":      {"tipo"},
	"paymentMethod": {"método", "metodo"},
	"concept":       {"concepto"},
	"invoiceValue":  {"valor factura", "valor"},
	"bankCharges":   {"cargos banc", "cargo"},
	"countryShare":  {"80%", "país", "pais"},
	"commission":    {"20%", "comisión", "comision"},
	"legalShare":    {"5%", "legal"},
	"taxRetention":  {"retención", "retencion", "iva"},
	"netPayment":    {"pagado", "mvpx"},
	"advance":       {"avance"},
	"balance":       {"balance"},
}

func findColumn(headers []string, field string) int {
	for i, h := range headers {
		hl := strings.ToLower(strings.TrimSpace(h))
		if hl == "" {
			continue
		}
		for _, alias := range headerAliases[field] {
			if strings.Contains(hl, alias) {
				return i
			}
		}
	}
	return -1
}

func newColumnMap(headers []string) columnMap {
	return columnMap{
		date:          findColumn(headers, "date"),
		invoiceNumber: findColumn(headers, "invoiceNumber"),
		typeCode:      findColumn(headers, "typeCode"),
		paymentMethod: findColumn(headers, "paymentMethod"),
		concept:       findColumn(headers, "concept"),
		invoiceValue:  findColumn(headers, "invoiceValue"),
		bankCharges:   findColumn(headers, "bankCharges"),
		countryShare:  findColumn(headers, "countryShare"),
		commission:    findColumn(headers, "commission"),
		legalShare:    findColumn(headers, "legalShare"),
		taxRetention:  findColumn(headers, "taxRetention"),
		netPayment:    findColumn(headers, "netPayment"),
		advance:       findColumn(headers, "advance"),
		balance:       findColumn(headers, "balance"),
	}
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseMoney parses a monetary cell permissively: currency symbols and
// grouping separators are stripped, blank means absent. Returns nil for
// blank, an error only for genuine junk.
func parseMoney(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "—" || s == "-" {
		return nil, nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", "€", "", "USD", "", " ", "", " ", "").Replace(s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal point, the other groups thousands
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// "1.234,56"-style files use comma decimals; "1,234" uses it for grouping
		if len(s)-lastComma-1 <= 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if neg {
		d = d.Neg()
	}
	return &d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02/01/06",
	"01-02-06",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
}

// excelEpoch is day zero of the 1900 date system (which counts the
// phantom 1900-02-29, hence Dec 30 and not 31).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// unformatted cells surface Excel date serials as plain numbers
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 && serial < 200000 {
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

// dateNormalizer caches parses per raw string; workbooks repeat the same
// handful of date strings thousands of times.
type dateNormalizer struct {
	mu sync.Mutex
	m  map[string]time.Time
	ok map[string]bool
}

func newDateNormalizer() *dateNormalizer {
	return &dateNormalizer{m: make(map[string]time.Time), ok: make(map[string]bool)}
}

func (d *dateNormalizer) ParseCached(s string) (time.Time, bool) {
	d.mu.Lock()
	if ok, seen := d.ok[s]; seen {
		t := d.m[s]
		d.mu.Unlock()
		return t, ok
	}
	d.mu.Unlock()
	t, ok := parseDate(s)
	d.mu.Lock()
	d.m[s] = t
	d.ok[s] = ok
	d.mu.Unlock()
	return t, ok
}

type moneyCell struct {
	name string
	idx  int
	dst  **decimal.Decimal
}

// NormalizeRow maps one raw sheet row onto a transaction candidate.
// Returns (nil, nil) for blank spacer rows, (nil, *RowError) when a cell
// is malformed, and a candidate with Kind/Category resolved otherwise.
// Amount and RunningBalance are left for the ledger builder.
func NormalizeRow(cm columnMap, row []string, rowNum int, dn *dateNormalizer) (*Transaction, *RowError) {
	concept := cellAt(row, cm.concept)

	t := &Transaction{
		Concept:       concept,
		InvoiceNumber: cellAt(row, cm.invoiceNumber),
		TypeCode:      cellAt(row, cm.typeCode),
		PaymentMethod: cellAt(row, cm.paymentMethod),
	}
	monetary := []moneyCell{
		{"valor factura", cm.invoiceValue, &t.InvoiceValue},
		{"cargos bancarios", cm.bankCharges, &t.BankCharges},
		{"80% país", cm.countryShare, &t.CountryShare},
		{"20% comisión", cm.commission, &t.CommissionShare},
		{"5% legal", cm.legalShare, &t.LegalShare},
		{"retención", cm.taxRetention, &t.TaxRetention},
		{"pagado mvpx", cm.netPayment, &t.NetPayment},
		{"avance", cm.advance, &t.AdvanceAmount},
		{"balance", cm.balance, &t.SheetBalance},
	}

	anyMonetary := false
	for _, mcell := range monetary {
		raw := cellAt(row, mcell.idx)
		if raw == "" {
			continue
		}
		anyMonetary = true
		d, err := parseMoney(raw)
		if err != nil {
			return nil, &RowError{Row: rowNum, Reason: "invalid " + mcell.name + " value: " + raw}
		}
		*mcell.dst = d
	}

	// blank spacer row: no concept, no money anywhere
	if concept == "" && !anyMonetary {
		return nil, nil
	}
	if concept == "" {
		return nil, &RowError{Row: rowNum, Reason: "missing concept"}
	}

	rawDate := cellAt(row, cm.date)
	if rawDate == "" {
		return nil, &RowError{Row: rowNum, Reason: "missing date"}
	}
	date, ok := dn.ParseCached(rawDate)
	if !ok {
		return nil, &RowError{Row: rowNum, Reason: "unparseable date: " + rawDate}
	}
	t.Date = date

	t.Kind, t.Category = classifyRow(t)
	return t, nil
}

// classifyRow infers the transaction kind, first from the type code and
// concept keywords the label uses in its workbooks, then from which
// monetary columns are filled, and as a last resort from the sign of
// whatever value is present.
func classifyRow(t *Transaction) (TxKind, string) {
	text := strings.ToLower(t.TypeCode + " " + t.Concept)

	switch {
	case strings.Contains(text, "avance") || strings.Contains(text, "adelanto"):
		return TxAdvance, "Avance"
	case strings.Contains(text, "factura"):
		return TxIncome, "Factura"
	case strings.Contains(text, "pago"):
		return TxExpense, "Pago por servicios"
	case strings.Contains(text, "gasto") || strings.Contains(text, "viatico"):
		return TxExpense, "Gastos de producción"
	case strings.Contains(text, "video") || strings.Contains(text, "produccion") || strings.Contains(text, "producción"):
		return TxExpense, "Gastos de producción"
	}

	// column semantics
	if t.AdvanceAmount != nil {
		return TxAdvance, "Avance"
	}
	if t.InvoiceValue != nil || t.NetPayment != nil {
		return TxIncome, "Otros"
	}
	if t.BankCharges != nil || t.CountryShare != nil || t.CommissionShare != nil ||
		t.LegalShare != nil || t.TaxRetention != nil {
		return TxExpense, "Otros"
	}

	// sign of the first present value
	for _, d := range []*decimal.Decimal{t.InvoiceValue, t.NetPayment, t.SheetBalance} {
		if d != nil && d.IsNegative() {
			return TxExpense, "Otros"
		}
	}
	return TxIncome, "Otros"
}
