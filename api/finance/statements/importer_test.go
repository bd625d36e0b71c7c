package statements

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeStore is an in-memory Store for importer tests.
type fakeStore struct {
	mu         sync.Mutex
	artists    map[string]*Artist    // keyed by name
	statements map[string]*Statement // keyed by artistID|month
	txns       map[string][]Transaction
	imports    []*ImportRecord
	upserts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists:    make(map[string]*Artist),
		statements: make(map[string]*Statement),
		txns:       make(map[string][]Transaction),
	}
}

func (fs *fakeStore) addArtist(id, name string) {
	fs.artists[name] = &Artist{ID: id, Name: name}
}

func (fs *fakeStore) FindArtistByName(_ context.Context, name string) (*Artist, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.artists[name], nil
}

func (fs *fakeStore) CreateArtist(_ context.Context, name, _, _ string) (*Artist, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	a := &Artist{ID: "art-" + name, Name: name}
	fs.artists[name] = a
	return a, nil
}

func (fs *fakeStore) UpsertStatement(_ context.Context, stmt *Statement, txns []Transaction, _ string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.upserts++
	key := stmt.ArtistID + "|" + stmt.StatementMonth
	stmt.ID = key
	cp := *stmt
	fs.statements[key] = &cp
	fs.txns[key] = append([]Transaction(nil), txns...)
	return nil
}

func (fs *fakeStore) ListStatements(_ context.Context, _ ListFilter) ([]Statement, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]Statement, 0, len(fs.statements))
	for _, s := range fs.statements {
		out = append(out, *s)
	}
	return out, nil
}

func (fs *fakeStore) StatementByID(_ context.Context, id string) (*Statement, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if s, ok := fs.statements[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, fmt.Errorf("statement %s not found", id)
}

func (fs *fakeStore) Transactions(_ context.Context, statementID string) ([]Transaction, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]Transaction(nil), fs.txns[statementID]...), nil
}

func (fs *fakeStore) TransactionsForStatements(ctx context.Context, ids []string) ([]Transaction, error) {
	var out []Transaction
	for _, id := range ids {
		txns, err := fs.Transactions(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, txns...)
	}
	return out, nil
}

func (fs *fakeStore) SetStatementHidden(_ context.Context, id string, hidden bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if s, ok := fs.statements[id]; ok {
		s.Hidden = hidden
	}
	return nil
}

func (fs *fakeStore) SetTransactionHidden(_ context.Context, _ string, _ bool) error {
	return nil
}

func (fs *fakeStore) RecordImport(_ context.Context, rec *ImportRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.imports = append(fs.imports, rec)
	return nil
}

type testSheet struct {
	name string
	rows [][]interface{}
}

func buildWorkbook(t *testing.T, sheets []testSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet.name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func ledgerSheet(name string) testSheet {
	return testSheet{
		name: name,
		rows: [][]interface{}{
			{"", "Nombre legal", "", "", name + " SAS"},
			{"", "Fecha de inicio", "", "", "01/01/2024"},
			{},
			{"Fecha", "Nº Factura", "Tipo", "Método Pago", "Concepto",
				"Valor Factura", "Cargos Banc.", "80% País", "20% Comisión",
				"5% Legal", "Retención IVA", "Pagado MVPX", "Avance", "Balance"},
			{"05/01/2024", "F-001", "FACTURA", "", "Factura enero", "1000"},
			{"10/01/2024", "", "", "", "Pago estudio", "", "150"},
			{"20/01/2024", "", "", "", "Avance enero", "", "", "", "", "", "", "", "-200"},
		},
	}
}

func adminRequester() Requester {
	return Requester{UserID: "admin-1", Name: "Admin", Role: "admin"}
}

func TestImportWorkbookHappyPath(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)

	data := buildWorkbook(t, []testSheet{ledgerSheet("Sol Media")})
	result, err := imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalArtists)
	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 0, result.FailedImports)
	assert.Equal(t, 3, result.TotalTransactions)
	assert.Empty(t, result.Errors)
	require.Len(t, result.PerArtist, 1)
	assert.Equal(t, "Sol Media", result.PerArtist[0].ArtistName)
	assert.Equal(t, "success", result.PerArtist[0].Status)
	assert.True(t, result.PerArtist[0].Balance.Equal(dec("1050")))

	// artist auto-created by the admin import
	artist, _ := fs.FindArtistByName(context.Background(), "Sol Media")
	require.NotNil(t, artist)

	stmt := fs.statements[artist.ID+"|2024-01"]
	require.NotNil(t, stmt)
	assert.Equal(t, "Sol Media SAS", stmt.LegalName)
	assert.True(t, stmt.TotalIncome.Equal(dec("1000")))
	assert.True(t, stmt.TotalExpenses.Equal(dec("150")))
	assert.True(t, stmt.TotalAdvances.Equal(dec("-200")))
	assert.True(t, stmt.Balance.Equal(dec("1050")))

	txns := fs.txns[stmt.ID]
	require.Len(t, txns, 3)
	assert.True(t, txns[2].RunningBalance.Equal(dec("650")))
	for i := range txns {
		assert.Equal(t, i, txns[i].RowIndex)
	}

	// audit trail with the workbook fingerprint
	require.Len(t, fs.imports, 1)
	assert.Equal(t, "enero.xlsx", fs.imports[0].FileName)
	assert.NotEmpty(t, fs.imports[0].FileChecksum)
}

func TestImportWorkbookIdempotentReimport(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	data := buildWorkbook(t, []testSheet{ledgerSheet("Sol Media")})

	_, err := imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)
	_, err = imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 2, fs.upserts)
	assert.Len(t, fs.statements, 1, "re-import must update in place, not duplicate")
}

func TestImportWorkbookReservedSheetsDropped(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	data := buildWorkbook(t, []testSheet{
		{name: "Base de datos", rows: [][]interface{}{{"interno"}}},
		ledgerSheet("Sol Media"),
		{name: "MODELO", rows: [][]interface{}{{"plantilla"}}},
	})

	result, err := imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalArtists)
	assert.Equal(t, 1, result.SuccessfulImports)
}

func TestImportWorkbookSheetWithoutHeader(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	data := buildWorkbook(t, []testSheet{
		{name: "Sin Cabecera", rows: [][]interface{}{{"solo", "texto"}}},
	})

	result, err := imp.ImportWorkbook(context.Background(), adminRequester(), "malo.xlsx", data)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedImports)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "header row")
}

func TestImportWorkbookFormattingOnlySheetSkipped(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	data := buildWorkbook(t, []testSheet{
		{name: "Notas", rows: [][]interface{}{
			{"Fecha", "Concepto"},
			{},
		}},
		ledgerSheet("Sol Media"),
	})

	result, err := imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notas"}, result.SkippedSheets)
	assert.Equal(t, 1, result.TotalArtists)
}

func TestImportWorkbookUnauthorizedSheetFailsAlone(t *testing.T) {
	fs := newFakeStore()
	fs.addArtist("a1", "Owned Artist")
	fs.addArtist("a2", "Other Artist")
	imp := NewImporter(fs)

	rq := Requester{UserID: "u1", Name: "Manager", Role: "user", OwnedArtistIDs: []string{"a1"}}
	data := buildWorkbook(t, []testSheet{
		ledgerSheet("Owned Artist"),
		ledgerSheet("Other Artist"),
	})

	result, err := imp.ImportWorkbook(context.Background(), rq, "enero.xlsx", data)
	require.NoError(t, err)
	assert.True(t, result.Success, "partial success: the owned sheet still imports")
	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 1, result.FailedImports)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not authorized")

	assert.NotNil(t, fs.statements["a1|2024-01"])
	assert.Nil(t, fs.statements["a2|2024-01"])
}

func TestImportWorkbookUnknownArtistNonAdmin(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	rq := Requester{UserID: "u1", Role: "user"}
	data := buildWorkbook(t, []testSheet{ledgerSheet("Nueva Artista")})

	result, err := imp.ImportWorkbook(context.Background(), rq, "enero.xlsx", data)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedImports)
	// non-admins never create artists as a side effect
	assert.Nil(t, fs.artists["Nueva Artista"])
}

func TestImportWorkbookRowErrorsDoNotAbortSheet(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	sheet := ledgerSheet("Sol Media")
	sheet.rows = append(sheet.rows, []interface{}{"no es fecha", "", "", "", "Factura rara", "100"})
	data := buildWorkbook(t, []testSheet{sheet})

	result, err := imp.ImportWorkbook(context.Background(), adminRequester(), "enero.xlsx", data)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 3, result.TotalTransactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Sol Media")
	assert.Contains(t, result.Errors[0], "date")
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	held := km.Lock("a1|2024-01")

	acquired := make(chan struct{})
	go func() {
		l := km.Lock("a1|2024-01")
		close(acquired)
		l.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the key while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	// a different statement key is independent
	other := km.Lock("a2|2024-01")
	other.Unlock()

	held.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the key after release")
	}
}

func TestImportWorkbookUnsupportedExtension(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs)
	_, err := imp.ImportWorkbook(context.Background(), adminRequester(), "datos.csv", []byte("a,b"))
	require.Error(t, err)
}
