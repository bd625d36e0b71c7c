package statements

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"MvpxArtistSaas/api/constants"
	"MvpxArtistSaas/internal/config"
)

// ListFilter narrows a statement listing. Empty or "all" means no
// restriction on that axis.
type ListFilter struct {
	ArtistID string
	Month    string
}

// ImportRecord is the audit row written once per workbook import.
type ImportRecord struct {
	FileName          string
	FileSize          int64
	FileChecksum      string
	TotalArtists      int
	TotalTransactions int
	SuccessfulImports int
	FailedImports     int
	Summary           []ArtistImportSummary
	Errors            []string
	ImportedBy        string
}

// Store is the persistence boundary of the engine. Statements are
// upserted per (artist, statement month) so re-imports update in place;
// nothing is ever physically deleted, hiding is a flag flip that
// re-derives the affected aggregates.
type Store interface {
	FindArtistByName(ctx context.Context, name string) (*Artist, error)
	CreateArtist(ctx context.Context, name, legalName, userID string) (*Artist, error)
	UpsertStatement(ctx context.Context, stmt *Statement, txns []Transaction, source string) error
	ListStatements(ctx context.Context, f ListFilter) ([]Statement, error)
	StatementByID(ctx context.Context, id string) (*Statement, error)
	Transactions(ctx context.Context, statementID string) ([]Transaction, error)
	TransactionsForStatements(ctx context.Context, statementIDs []string) ([]Transaction, error)
	SetStatementHidden(ctx context.Context, statementID string, hidden bool) error
	SetTransactionHidden(ctx context.Context, transactionID string, hidden bool) error
	RecordImport(ctx context.Context, rec *ImportRecord) error
}

// Visibility predicates. Every read path filters through these, the
// legacy OR-null pattern is confined to this one place.
const (
	visibleStmt = "(s.hidden IS NOT TRUE)"
	visibleTxn  = "(t.hidden IS NOT TRUE)"
)

// PgStore is the Postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (ps *PgStore) FindArtistByName(ctx context.Context, name string) (*Artist, error) {
	var a Artist
	err := ps.pool.QueryRow(ctx,
		`SELECT id, name FROM artists WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "find artist", Err: err}
	}
	return &a, nil
}

func (ps *PgStore) CreateArtist(ctx context.Context, name, legalName, userID string) (*Artist, error) {
	a := Artist{ID: uuid.New().String(), Name: name}
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO artists (id, name, legal_name, genre, country, user_id, created_at)
		VALUES ($1, $2, NULLIF($3,''), 'Unknown', 'US', $4, now())`,
		a.ID, name, legalName, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "create artist", Err: err}
	}
	return &a, nil
}

func decStr(d decimal.Decimal) string { return d.String() }

func decPtrStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpsertStatement persists one statement and its full transaction list
// atomically: the statement row is upserted on (artist_id,
// statement_month), prior transactions of that statement are replaced
// wholesale. Last writer wins with its complete recomputed aggregate,
// never a partial merge.
func (ps *PgStore) UpsertStatement(ctx context.Context, stmt *Statement, txns []Transaction, source string) error {
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: constants.ErrTxStartFailed, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var periodEnd *time.Time
	if stmt.PeriodEnd != nil {
		periodEnd = stmt.PeriodEnd
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO artist_statements
			(id, artist_id, period_start, period_end, statement_month, legal_name,
			 total_income, total_expenses, total_advances, balance,
			 total_transactions, hidden, last_import_date, import_source)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11,FALSE,now(),$12)
		ON CONFLICT (artist_id, statement_month) DO UPDATE SET
			period_start       = EXCLUDED.period_start,
			period_end         = EXCLUDED.period_end,
			legal_name         = EXCLUDED.legal_name,
			total_income       = EXCLUDED.total_income,
			total_expenses     = EXCLUDED.total_expenses,
			total_advances     = EXCLUDED.total_advances,
			balance            = EXCLUDED.balance,
			total_transactions = EXCLUDED.total_transactions,
			last_import_date   = EXCLUDED.last_import_date,
			import_source      = EXCLUDED.import_source
		RETURNING id`,
		uuid.New().String(), stmt.ArtistID, stmt.PeriodStart, periodEnd,
		stmt.StatementMonth, stmt.LegalName,
		decStr(stmt.TotalIncome), decStr(stmt.TotalExpenses),
		decStr(stmt.TotalAdvances), decStr(stmt.Balance),
		stmt.TransactionCount, source,
	).Scan(&stmt.ID)
	if err != nil {
		return &PersistenceError{Op: "upsert statement", Err: err}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM statement_transactions WHERE statement_id = $1`, stmt.ID); err != nil {
		return &PersistenceError{Op: "replace transactions", Err: err}
	}

	for start := 0; start < len(txns); start += config.InsertBatchSize {
		end := start + config.InsertBatchSize
		if end > len(txns) {
			end = len(txns)
		}
		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			t := &txns[i]
			t.ID = uuid.New().String()
			t.StatementID = stmt.ID
			t.ArtistID = stmt.ArtistID
			batch.Queue(`
				INSERT INTO statement_transactions
					(id, statement_id, artist_id, transaction_date, invoice_number,
					 transaction_type_code, payment_method_detail, concept,
					 invoice_value, bank_charges_amount, country_percentage,
					 commission_20_percentage, legal_5_percentage, tax_retention,
					 mvpx_payment, advance_amount, final_balance,
					 amount, transaction_type, category, running_balance, row_index, hidden)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NULLIF($20,''),$21,$22,FALSE)`,
				t.ID, t.StatementID, t.ArtistID, t.Date,
				nullIfEmpty(t.InvoiceNumber), nullIfEmpty(t.TypeCode),
				nullIfEmpty(t.PaymentMethod), t.Concept,
				decPtrStr(t.InvoiceValue), decPtrStr(t.BankCharges),
				decPtrStr(t.CountryShare), decPtrStr(t.CommissionShare),
				decPtrStr(t.LegalShare), decPtrStr(t.TaxRetention),
				decPtrStr(t.NetPayment), decPtrStr(t.AdvanceAmount),
				decPtrStr(t.SheetBalance),
				decStr(t.Amount), string(t.Kind), t.Category, decStr(t.RunningBalance),
				t.RowIndex)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return &PersistenceError{Op: "insert transactions", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: constants.ErrTxCommitFailed, Err: err}
	}
	committed = true
	return nil
}

func scanDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func scanDecPtr(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	d := scanDec(*s)
	return &d
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const stmtColumns = `
	s.id, s.artist_id, COALESCE(a.name,''), COALESCE(s.legal_name,''),
	s.period_start, s.period_end, s.statement_month,
	s.total_income::text, s.total_expenses::text, s.total_advances::text,
	s.balance::text, s.total_transactions, COALESCE(s.hidden, FALSE)`

func scanStatement(row pgx.Row) (*Statement, error) {
	var (
		st                              Statement
		periodEnd                       *time.Time
		income, expenses, advances, bal string
	)
	err := row.Scan(&st.ID, &st.ArtistID, &st.ArtistName, &st.LegalName,
		&st.PeriodStart, &periodEnd, &st.StatementMonth,
		&income, &expenses, &advances, &bal,
		&st.TransactionCount, &st.Hidden)
	if err != nil {
		return nil, err
	}
	st.PeriodEnd = periodEnd
	st.TotalIncome = scanDec(income)
	st.TotalExpenses = scanDec(expenses)
	st.TotalAdvances = scanDec(advances)
	st.Balance = scanDec(bal)
	return &st, nil
}

// ListStatements returns visible statements, newest period first. The
// access filter is applied by the caller on top of this.
func (ps *PgStore) ListStatements(ctx context.Context, f ListFilter) ([]Statement, error) {
	query := `
		SELECT ` + stmtColumns + `
		FROM artist_statements s
		LEFT JOIN artists a ON a.id = s.artist_id
		WHERE ` + visibleStmt
	args := []any{}
	if f.ArtistID != "" && f.ArtistID != "all" {
		args = append(args, f.ArtistID)
		query += ` AND s.artist_id = $1`
	}
	if f.Month != "" && f.Month != "all" {
		args = append(args, f.Month)
		if len(args) == 1 {
			query += ` AND s.statement_month = $1`
		} else {
			query += ` AND s.statement_month = $2`
		}
	}
	query += ` ORDER BY s.period_start DESC, a.name ASC`

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "list statements", Err: err}
	}
	defer rows.Close()

	var out []Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "scan statement", Err: err}
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (ps *PgStore) StatementByID(ctx context.Context, id string) (*Statement, error) {
	st, err := scanStatement(ps.pool.QueryRow(ctx, `
		SELECT `+stmtColumns+`
		FROM artist_statements s
		LEFT JOIN artists a ON a.id = s.artist_id
		WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(constants.ErrStatementNotFound)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "fetch statement", Err: err}
	}
	return st, nil
}

const txnColumns = `
	t.id, t.statement_id, t.artist_id, t.transaction_date,
	t.invoice_number, t.transaction_type_code, t.payment_method_detail, t.concept,
	t.invoice_value::text, t.bank_charges_amount::text, t.country_percentage::text,
	t.commission_20_percentage::text, t.legal_5_percentage::text, t.tax_retention::text,
	t.mvpx_payment::text, t.advance_amount::text, t.final_balance::text,
	t.amount::text, t.transaction_type, COALESCE(t.category,''),
	t.running_balance::text, t.row_index, COALESCE(t.hidden, FALSE)`

func scanTransactionRows(rows pgx.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		var (
			t                                                 Transaction
			invoiceNo, typeCode, payMethod                    *string
			invVal, bankCh, country, commission, legal        *string
			taxRet, netPay, advance, sheetBal                 *string
			amount, kind, running                             string
		)
		err := rows.Scan(&t.ID, &t.StatementID, &t.ArtistID, &t.Date,
			&invoiceNo, &typeCode, &payMethod, &t.Concept,
			&invVal, &bankCh, &country, &commission, &legal,
			&taxRet, &netPay, &advance, &sheetBal,
			&amount, &kind, &t.Category, &running, &t.RowIndex, &t.Hidden)
		if err != nil {
			return nil, err
		}
		t.InvoiceNumber = strOrEmpty(invoiceNo)
		t.TypeCode = strOrEmpty(typeCode)
		t.PaymentMethod = strOrEmpty(payMethod)
		t.InvoiceValue = scanDecPtr(invVal)
		t.BankCharges = scanDecPtr(bankCh)
		t.CountryShare = scanDecPtr(country)
		t.CommissionShare = scanDecPtr(commission)
		t.LegalShare = scanDecPtr(legal)
		t.TaxRetention = scanDecPtr(taxRet)
		t.NetPayment = scanDecPtr(netPay)
		t.AdvanceAmount = scanDecPtr(advance)
		t.SheetBalance = scanDecPtr(sheetBal)
		t.Amount = scanDec(amount)
		t.Kind = TxKind(kind)
		t.RunningBalance = scanDec(running)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Transactions returns the visible transactions of one statement in
// ledger order.
func (ps *PgStore) Transactions(ctx context.Context, statementID string) ([]Transaction, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT `+txnColumns+`
		FROM statement_transactions t
		WHERE t.statement_id = $1 AND `+visibleTxn+`
		ORDER BY t.transaction_date ASC, t.row_index ASC`, statementID)
	if err != nil {
		return nil, &PersistenceError{Op: "list transactions", Err: err}
	}
	defer rows.Close()
	out, err := scanTransactionRows(rows)
	if err != nil {
		return nil, &PersistenceError{Op: "scan transaction", Err: err}
	}
	return out, nil
}

// TransactionsForStatements fetches the visible transactions of many
// statements at once, for the aggregator and comparator read paths.
func (ps *PgStore) TransactionsForStatements(ctx context.Context, statementIDs []string) ([]Transaction, error) {
	if len(statementIDs) == 0 {
		return nil, nil
	}
	rows, err := ps.pool.Query(ctx, `
		SELECT `+txnColumns+`
		FROM statement_transactions t
		WHERE t.statement_id = ANY($1) AND `+visibleTxn+`
		ORDER BY t.transaction_date ASC, t.row_index ASC`, statementIDs)
	if err != nil {
		return nil, &PersistenceError{Op: "list transactions", Err: err}
	}
	defer rows.Close()
	out, err := scanTransactionRows(rows)
	if err != nil {
		return nil, &PersistenceError{Op: "scan transaction", Err: err}
	}
	return out, nil
}

func (ps *PgStore) SetStatementHidden(ctx context.Context, statementID string, hidden bool) error {
	tag, err := ps.pool.Exec(ctx,
		`UPDATE artist_statements SET hidden = $2 WHERE id = $1`, statementID, hidden)
	if err != nil {
		return &PersistenceError{Op: "hide statement", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return errors.New(constants.ErrStatementNotFound)
	}
	return nil
}

// SetTransactionHidden flips one transaction's visibility and rebuilds
// the running balances and statement totals over the surviving visible
// rows. Stored amounts are never touched.
func (ps *PgStore) SetTransactionHidden(ctx context.Context, transactionID string, hidden bool) error {
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: constants.ErrTxStartFailed, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var statementID string
	err = tx.QueryRow(ctx, `
		UPDATE statement_transactions SET hidden = $2 WHERE id = $1
		RETURNING statement_id`, transactionID, hidden).Scan(&statementID)
	if err != nil {
		return &PersistenceError{Op: "hide transaction", Err: err}
	}

	rows, err := tx.Query(ctx, `
		SELECT `+txnColumns+`
		FROM statement_transactions t
		WHERE t.statement_id = $1
		ORDER BY t.transaction_date ASC, t.row_index ASC`, statementID)
	if err != nil {
		return &PersistenceError{Op: "reload transactions", Err: err}
	}
	txns, err := scanTransactionRows(rows)
	rows.Close()
	if err != nil {
		return &PersistenceError{Op: "scan transaction", Err: err}
	}

	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].RowIndex < txns[j].RowIndex
	})
	RecomputeRunningBalances(txns)
	totals := RecomputeTotals(txns)

	batch := &pgx.Batch{}
	for i := range txns {
		batch.Queue(`UPDATE statement_transactions SET running_balance = $2 WHERE id = $1`,
			txns[i].ID, decStr(txns[i].RunningBalance))
	}
	batch.Queue(`
		UPDATE artist_statements SET
			total_income = $2, total_expenses = $3, total_advances = $4,
			balance = $5, total_transactions = $6
		WHERE id = $1`,
		statementID, decStr(totals.TotalIncome), decStr(totals.TotalExpenses),
		decStr(totals.TotalAdvances), decStr(totals.Balance), totals.TransactionCount)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &PersistenceError{Op: "recompute balances", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: constants.ErrTxCommitFailed, Err: err}
	}
	committed = true
	return nil
}

func (ps *PgStore) RecordImport(ctx context.Context, rec *ImportRecord) error {
	summary, _ := json.Marshal(rec.Summary)
	errs, _ := json.Marshal(rec.Errors)
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO statement_imports
			(id, file_name, file_size, file_checksum, total_artists, total_transactions,
			 successful_imports, failed_imports, import_summary, errors,
			 imported_by, created_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11,now())`,
		uuid.New().String(), rec.FileName, rec.FileSize, rec.FileChecksum,
		rec.TotalArtists, rec.TotalTransactions,
		rec.SuccessfulImports, rec.FailedImports,
		summary, errs, rec.ImportedBy)
	if err != nil {
		return &PersistenceError{Op: "record import", Err: err}
	}
	return nil
}
