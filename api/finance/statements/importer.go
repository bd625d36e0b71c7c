package statements

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"MvpxArtistSaas/api/constants"
	"MvpxArtistSaas/internal/checksum"
	"MvpxArtistSaas/internal/config"
)

// keyedMutex serializes persistence per (artist, statement month) so
// concurrent imports of the same period cannot interleave partial
// writes; last writer wins with its full recomputed aggregate.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (km *keyedMutex) Lock(key string) *sync.Mutex {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &sync.Mutex{}
		km.locks[key] = l
	}
	km.mu.Unlock()
	l.Lock()
	return l
}

// Importer drives one workbook upload end to end: parse sheets in
// parallel, build each artist's ledger, then persist serially per
// statement key.
type Importer struct {
	store    Store
	keyLocks *keyedMutex
	archiver *Archiver
	now      func() time.Time
}

func NewImporter(store Store) *Importer {
	return &Importer{
		store:    store,
		keyLocks: newKeyedMutex(),
		now:      time.Now,
	}
}

// WithArchiver attaches the optional raw-upload archiver.
func (imp *Importer) WithArchiver(a *Archiver) *Importer {
	imp.archiver = a
	return imp
}

// sheetOutcome is the result of parsing one sheet, before persistence.
type sheetOutcome struct {
	index      int
	sheetName  string
	info       ArtistInfo
	candidates []*Transaction
	rowErrors  []RowError
	skipped    bool
	err        error
}

// parseSheet runs the row normalizer over one sheet. Pure; touches only
// this sheet's data.
func parseSheet(sheet SheetData, dn *dateNormalizer) sheetOutcome {
	out := sheetOutcome{sheetName: sheet.Name}
	if sheet.Name == "" {
		out.err = &SheetError{Sheet: "?", Reason: "sheet has no artist name"}
		return out
	}

	out.info = extractArtistInfo(sheet.Rows, dn)
	headerIdx := findHeaderRow(sheet.Rows)
	if headerIdx < 0 {
		out.err = &SheetError{Sheet: sheet.Name, Reason: constants.ErrNoHeaderRow}
		return out
	}

	cm := newColumnMap(sheet.Rows[headerIdx])
	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		candidate, rowErr := NormalizeRow(cm, sheet.Rows[i], i+1, dn)
		if rowErr != nil {
			out.rowErrors = append(out.rowErrors, *rowErr)
			continue
		}
		if candidate != nil {
			out.candidates = append(out.candidates, candidate)
		}
	}

	switch {
	case len(out.candidates) == 0 && len(out.rowErrors) == 0:
		// formatting-only sheet, not a failure
		out.skipped = true
	case len(out.candidates) == 0:
		out.err = &SheetError{Sheet: sheet.Name, Reason: constants.ErrNoParseableRows}
	}
	return out
}

// statementMonth derives the YYYY-MM key from the sheet's period start,
// falling back to the current month like the legacy importer did.
func (imp *Importer) statementMonth(info ArtistInfo) (time.Time, string) {
	start := info.PeriodStart
	if start.IsZero() {
		now := imp.now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return start, start.Format(constants.MonthFormat)
}

// ImportWorkbook processes one uploaded workbook for the requester.
// Every sheet's outcome lands in the returned report; only a workbook
// that cannot be opened at all fails outright.
func (imp *Importer) ImportWorkbook(ctx context.Context, rq Requester, filename string, data []byte) (*ImportResult, error) {
	result := &ImportResult{
		PerArtist: []ArtistImportSummary{},
		Errors:    []string{},
	}

	sheets, err := ParseWorkbook(data, filename)
	if err != nil {
		return nil, err
	}

	if imp.archiver != nil {
		if err := imp.archiver.Archive(ctx, filename, data); err != nil {
			log.Printf("[WARN] workbook archive failed for %s: %v", filename, err)
		}
	}

	// parse sheets in parallel; each parse is pure
	outcomes := make([]sheetOutcome, len(sheets))
	dn := newDateNormalizer()
	sem := make(chan struct{}, config.SheetWorkers)
	var wg sync.WaitGroup
	for i, sheet := range sheets {
		wg.Add(1)
		go func(i int, sheet SheetData) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = parseSheet(sheet, dn)
			outcomes[i].index = i
		}(i, sheet)
	}
	wg.Wait()

	// persist serially in workbook order so the report reads like the file
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })
	for _, oc := range outcomes {
		if oc.skipped {
			result.SkippedSheets = append(result.SkippedSheets, oc.sheetName)
			continue
		}
		result.TotalArtists++
		if oc.err != nil {
			imp.recordFailure(result, oc.sheetName, oc.err)
			continue
		}

		summary, err := imp.persistSheet(ctx, rq, oc)
		if err != nil {
			imp.recordFailure(result, oc.sheetName, err)
			continue
		}
		for _, re := range oc.rowErrors {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", oc.sheetName, re.Error()))
		}
		result.SuccessfulImports++
		result.TotalTransactions += summary.TransactionCount
		result.PerArtist = append(result.PerArtist, *summary)
	}

	result.Success = result.SuccessfulImports > 0
	imp.recordImport(ctx, rq, filename, int64(len(data)), checksum.Fingerprint(data), result)
	return result, nil
}

func (imp *Importer) recordFailure(result *ImportResult, sheetName string, err error) {
	result.FailedImports++
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sheetName, err))
	result.PerArtist = append(result.PerArtist, ArtistImportSummary{
		ArtistName: sheetName,
		Balance:    decimal.Zero,
		Status:     "error",
		Error:      err.Error(),
	})
}

// persistSheet resolves the artist, enforces ownership, builds the
// ledger and upserts the statement under the per-key lock.
func (imp *Importer) persistSheet(ctx context.Context, rq Requester, oc sheetOutcome) (*ArtistImportSummary, error) {
	artist, err := imp.store.FindArtistByName(ctx, oc.sheetName)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		if !rq.IsAdmin() {
			return nil, &AuthorizationError{ArtistName: oc.sheetName}
		}
		artist, err = imp.store.CreateArtist(ctx, oc.sheetName, oc.info.LegalName, rq.UserID)
		if err != nil {
			return nil, err
		}
	}
	if !rq.CanAccessArtist(artist.ID) {
		return nil, &AuthorizationError{ArtistName: oc.sheetName}
	}

	periodStart, month := imp.statementMonth(oc.info)
	txns, totals := BuildLedger(oc.candidates)

	stmt := &Statement{
		ArtistID:         artist.ID,
		ArtistName:       artist.Name,
		LegalName:        oc.info.LegalName,
		PeriodStart:      periodStart,
		StatementMonth:   month,
		TotalIncome:      totals.TotalIncome,
		TotalExpenses:    totals.TotalExpenses,
		TotalAdvances:    totals.TotalAdvances,
		Balance:          totals.Balance,
		TransactionCount: totals.TransactionCount,
	}
	if !oc.info.PeriodEnd.IsZero() {
		end := oc.info.PeriodEnd
		stmt.PeriodEnd = &end
	}

	lock := imp.keyLocks.Lock(artist.ID + "|" + month)
	defer lock.Unlock()
	if err := imp.store.UpsertStatement(ctx, stmt, txns, "excel"); err != nil {
		return nil, err
	}

	return &ArtistImportSummary{
		ArtistName:       artist.Name,
		TransactionCount: len(txns),
		Balance:          totals.Balance,
		Status:           "success",
	}, nil
}

func (imp *Importer) recordImport(ctx context.Context, rq Requester, filename string, size int64, sum string, result *ImportResult) {
	rec := &ImportRecord{
		FileName:          filename,
		FileSize:          size,
		FileChecksum:      sum,
		TotalArtists:      result.TotalArtists,
		TotalTransactions: result.TotalTransactions,
		SuccessfulImports: result.SuccessfulImports,
		FailedImports:     result.FailedImports,
		Summary:           result.PerArtist,
		Errors:            result.Errors,
		ImportedBy:        rq.UserID,
	}
	if err := imp.store.RecordImport(ctx, rec); err != nil {
		log.Printf("[WARN] import audit record failed for %s: %v", filename, err)
	}
}
