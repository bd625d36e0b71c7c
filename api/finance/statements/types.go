package statements

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxKind classifies a ledger row.
type TxKind string

const (
	TxIncome  TxKind = "income"
	TxExpense TxKind = "expense"
	TxAdvance TxKind = "advance"
)

// Transaction is one ledger entry inside a statement. Optional monetary
// cells from the sheet stay nil when the cell was blank; Amount and
// RunningBalance are always computed by the ledger builder, never read
// from the workbook.
type Transaction struct {
	ID              string           `json:"id"`
	StatementID     string           `json:"statement_id"`
	ArtistID        string           `json:"artist_id"`
	Date            time.Time        `json:"transaction_date"`
	InvoiceNumber   string           `json:"invoice_number,omitempty"`
	TypeCode        string           `json:"transaction_type_code,omitempty"`
	PaymentMethod   string           `json:"payment_method_detail,omitempty"`
	Concept         string           `json:"concept"`
	InvoiceValue    *decimal.Decimal `json:"invoice_value,omitempty"`
	BankCharges     *decimal.Decimal `json:"bank_charges_amount,omitempty"`
	CountryShare    *decimal.Decimal `json:"country_percentage,omitempty"`
	CommissionShare *decimal.Decimal `json:"commission_20_percentage,omitempty"`
	LegalShare      *decimal.Decimal `json:"legal_5_percentage,omitempty"`
	TaxRetention    *decimal.Decimal `json:"tax_retention,omitempty"`
	NetPayment      *decimal.Decimal `json:"mvpx_payment,omitempty"`
	AdvanceAmount   *decimal.Decimal `json:"advance_amount,omitempty"`
	SheetBalance    *decimal.Decimal `json:"final_balance,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	RunningBalance  decimal.Decimal  `json:"running_balance"`
	Kind            TxKind           `json:"transaction_type"`
	Category        string           `json:"category,omitempty"`
	RowIndex        int              `json:"row_index"`
	Hidden          bool             `json:"hidden"`
}

// Statement is one artist's ledger summary for one calendar month,
// keyed uniquely by (ArtistID, StatementMonth). Totals are derived from
// the visible transactions and never edited independently.
type Statement struct {
	ID               string          `json:"id"`
	ArtistID         string          `json:"artist_id"`
	ArtistName       string          `json:"artist_name,omitempty"`
	LegalName        string          `json:"legal_name,omitempty"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        *time.Time      `json:"period_end,omitempty"`
	StatementMonth   string          `json:"statement_month"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalAdvances    decimal.Decimal `json:"total_advances"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"total_transactions"`
	Hidden           bool            `json:"hidden"`
}

// Artist is the slice of the external artist record the engine needs.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArtistImportSummary is the per-sheet outcome returned to the caller.
type ArtistImportSummary struct {
	ArtistName       string          `json:"artistName"`
	TransactionCount int             `json:"transactionCount"`
	Balance          decimal.Decimal `json:"balance"`
	Status           string          `json:"status"`
	Error            string          `json:"error,omitempty"`
}

// ImportResult is the full report for one workbook import. Partial
// success is the normal case: every sheet shows up either in PerArtist
// or in SkippedSheets.
type ImportResult struct {
	Success           bool                  `json:"success"`
	TotalArtists      int                   `json:"totalArtists"`
	TotalTransactions int                   `json:"totalTransactions"`
	SuccessfulImports int                   `json:"successfulImports"`
	FailedImports     int                   `json:"failedImports"`
	PerArtist         []ArtistImportSummary `json:"perArtist"`
	SkippedSheets     []string              `json:"skippedSheets,omitempty"`
	Errors            []string              `json:"errors"`
}

// RowError records one malformed cell in an otherwise parseable row.
// Collected per sheet, never aborts the sheet.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// SheetError aborts a single sheet (no artist name, no header row, or
// zero parseable rows).
type SheetError struct {
	Sheet  string
	Reason string
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
}

// AuthorizationError marks a sheet or record the requester may not
// touch. Only the affected sheet fails, the rest of the batch proceeds.
type AuthorizationError struct {
	ArtistName string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized for artist %q", e.ArtistName)
}

// PersistenceError wraps a failed store call for one statement.
// Already-committed sibling statements in the same batch stay committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
