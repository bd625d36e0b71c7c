package statements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"MvpxArtistSaas/api/auth"
	"MvpxArtistSaas/api/constants"
	"MvpxArtistSaas/api/middlewares"
	"MvpxArtistSaas/api/utils"
	"MvpxArtistSaas/internal/config"
	"MvpxArtistSaas/internal/logger"
)

// resolveRequester maps a user_id from the request body to the active
// in-process session, same as every other service does it.
func resolveRequester(userID string) (Requester, error) {
	if userID == "" {
		return Requester{}, errors.New(constants.ErrMissingUserID)
	}
	for _, s := range auth.GetActiveSessions() {
		if s.UserID == userID {
			role := s.Role
			if role != constants.RoleAdmin && middlewares.IsAdminUser(userID) {
				role = constants.RoleAdmin
			}
			return Requester{
				UserID:         s.UserID,
				Name:           s.Name,
				Role:           role,
				OwnedArtistIDs: s.OwnedArtistIDs,
			}, nil
		}
	}
	return Requester{}, errors.New(constants.ErrInvalidSession)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

type listRequest struct {
	UserID      string `json:"user_id"`
	ArtistID    string `json:"artist_id"`
	Month       string `json:"month"`
	StatementID string `json:"statement_id"`
}

func decodeListRequest(r *http.Request) (listRequest, error) {
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New(constants.ErrInvalidJSONBody)
	}
	return req, nil
}

// ImportStatements ingests one uploaded workbook, one sheet per artist.
// Partial success is reported per sheet, never as an HTTP failure.
// The importer is built once per route so its keyed locks serialize
// concurrent uploads of the same (artist, month) across requests.
func ImportStatements(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	imp := NewImporter(store)
	if archiver, err := NewArchiverFromEnv(context.Background()); err != nil {
		log.Printf("[WARN] statement archive disabled: %v", err)
	} else if archiver != nil {
		imp = imp.WithArchiver(archiver)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, constants.ErrMultipartParse)
			return
		}
		rq, err := resolveRequester(r.FormValue("user_id"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			respondError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		fileHeader := files[0]
		file, err := fileHeader.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to open uploaded file: "+fileHeader.Filename)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, config.MaxUploadBytes+1))
		file.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read uploaded file: "+fileHeader.Filename)
			return
		}
		if int64(len(data)) > config.MaxUploadBytes {
			respondError(w, http.StatusRequestEntityTooLarge, constants.ErrFileTooLarge)
			return
		}

		result, err := imp.ImportWorkbook(ctx, rq, fileHeader.Filename, data)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Statement import by %s: file=%s artists=%d ok=%d failed=%d",
				rq.Name, fileHeader.Filename, result.TotalArtists, result.SuccessfulImports, result.FailedImports))
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// ListStatements returns the statements visible to the caller, newest
// period first, optionally narrowed by artist and month.
func ListStatements(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeListRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		stmts, err := store.ListStatements(r.Context(), ListFilter{ArtistID: req.ArtistID, Month: req.Month})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stmts = FilterStatements(rq, stmts)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"statements": stmts,
			"totals":     AggregateTotals(stmts),
		})
	}
}

// GetTransactions returns the ledger rows of one statement in running
// balance order.
func GetTransactions(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeListRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if req.StatementID == "" {
			respondError(w, http.StatusBadRequest, constants.ErrMissingStatementID)
			return
		}
		stmt, err := store.StatementByID(r.Context(), req.StatementID)
		if err != nil {
			respondError(w, http.StatusNotFound, constants.ErrStatementNotFound)
			return
		}
		if !rq.CanAccessArtist(stmt.ArtistID) {
			respondError(w, http.StatusForbidden, constants.ErrArtistNotOwned)
			return
		}
		txns, err := store.Transactions(r.Context(), req.StatementID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := map[string]interface{}{
			"success":      true,
			"statement":    stmt,
			"transactions": txns,
		}
		// paginate only when the caller asks for it
		if r.URL.Query().Get("page") != "" || r.URL.Query().Get("limit") != "" {
			pag, err := utils.ExtractPagination(r)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			pag.SetPaginationStats(len(txns))
			start := pag.Offset
			if start > len(txns) {
				start = len(txns)
			}
			end := start + pag.Limit
			if end > len(txns) {
				end = len(txns)
			}
			payload["transactions"] = txns[start:end]
			payload["pagination"] = pag
		}
		respondJSON(w, http.StatusOK, payload)
	}
}

// visibleTransactionsFor loads the transactions of the caller's visible
// statements, already narrowed by the filter.
func visibleTransactionsFor(r *http.Request, store Store, rq Requester, f ListFilter) ([]Statement, []Transaction, error) {
	stmts, err := store.ListStatements(r.Context(), f)
	if err != nil {
		return nil, nil, err
	}
	stmts = FilterStatements(rq, stmts)
	ids := make([]string, 0, len(stmts))
	for _, s := range stmts {
		ids = append(ids, s.ID)
	}
	txns, err := store.TransactionsForStatements(r.Context(), ids)
	if err != nil {
		return nil, nil, err
	}
	return stmts, txns, nil
}

// AggregateStatements sums the caller's visible statements and breaks
// the result down by category, month and artist.
func AggregateStatements(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeListRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		stmts, txns, err := visibleTransactionsFor(r, store, rq, ListFilter{ArtistID: req.ArtistID, Month: req.Month})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"totals":     AggregateTotals(stmts),
			"byCategory": CategoryBreakdown(txns),
			"byMonth":    MonthlySeries(txns),
			"byArtist":   RollupByArtist(stmts),
		})
	}
}

type compareRequest struct {
	UserID   string `json:"user_id"`
	ArtistID string `json:"artist_id"`
	Period1  string `json:"period1"`
	Period2  string `json:"period2"`
}

// ComparePeriodsHandler compares two YYYY-MM periods over the caller's
// visible transactions.
func ComparePeriodsHandler(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		var req compareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if req.Period1 == "" || req.Period2 == "" {
			respondError(w, http.StatusBadRequest, constants.ErrMissingPeriods)
			return
		}
		for _, p := range []string{req.Period1, req.Period2} {
			if _, err := time.Parse(constants.MonthFormat, p); err != nil {
				respondError(w, http.StatusBadRequest, constants.ErrInvalidPeriod+": "+p)
				return
			}
		}
		_, txns, err := visibleTransactionsFor(r, store, rq, ListFilter{ArtistID: req.ArtistID})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		result := ComparePeriods(txns, req.Period1, req.Period2)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"comparison": result,
		})
	}
}

// buildReportData assembles the filtered view both exporters render.
func buildReportData(r *http.Request, store Store, rq Requester, req listRequest) (*ReportData, error) {
	stmts, err := store.ListStatements(r.Context(), ListFilter{ArtistID: req.ArtistID, Month: req.Month})
	if err != nil {
		return nil, err
	}
	stmts = FilterStatements(rq, stmts)

	data := &ReportData{
		Statements:   stmts,
		Totals:       AggregateTotals(stmts),
		FilterArtist: req.ArtistID,
		FilterMonth:  req.Month,
		GeneratedAt:  time.Now(),
	}
	if req.ArtistID != "" && req.ArtistID != "all" {
		for i := range stmts {
			if stmts[i].ArtistName == req.ArtistID || stmts[i].ArtistID == req.ArtistID {
				data.FilterArtist = stmts[i].ArtistName
				break
			}
		}
	}
	if req.StatementID != "" {
		stmt, err := store.StatementByID(r.Context(), req.StatementID)
		if err != nil {
			return nil, errors.New(constants.ErrStatementNotFound)
		}
		if !rq.CanAccessArtist(stmt.ArtistID) {
			return nil, errors.New(constants.ErrArtistNotOwned)
		}
		txns, err := store.Transactions(r.Context(), req.StatementID)
		if err != nil {
			return nil, err
		}
		data.SelectedStatement = stmt
		data.Transactions = txns
	}
	return data, nil
}

// ExportExcel streams the full report workbook.
func ExportExcel(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeListRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		data, err := buildReportData(r, store, rq, req)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		out, err := BuildExcelReport(data)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		filename := fmt.Sprintf("estados-cuenta-%s.xlsx", data.GeneratedAt.Format(constants.DateFormat))
		w.Header().Set("Content-Type", constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(out)
	}
}

// ExportPDF streams the report as an A4 landscape PDF.
func ExportPDF(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeListRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		data, err := buildReportData(r, store, rq, req)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		out, err := BuildPDFReport(data)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		filename := fmt.Sprintf("estados-cuenta-%s.pdf", data.GeneratedAt.Format(constants.DateFormat))
		w.Header().Set("Content-Type", constants.ContentTypePDF)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(out)
	}
}

type hideRequest struct {
	UserID        string `json:"user_id"`
	StatementID   string `json:"statement_id"`
	TransactionID string `json:"transaction_id"`
	Hidden        bool   `json:"hidden"`
}

// HideStatement flips the hidden flag on one statement. Admin only;
// the row stays stored and recoverable.
func HideStatement(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		var req hideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !rq.IsAdmin() {
			respondError(w, http.StatusForbidden, constants.ErrAdminOnly)
			return
		}
		if req.StatementID == "" {
			respondError(w, http.StatusBadRequest, constants.ErrMissingStatementID)
			return
		}
		if err := store.SetStatementHidden(r.Context(), req.StatementID, req.Hidden); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Statement %s hidden=%v by %s", req.StatementID, req.Hidden, rq.Name))
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// HideTransaction flips the hidden flag on one ledger row and recomputes
// the running balances and totals of its statement.
func HideTransaction(pgxPool *pgxpool.Pool) http.HandlerFunc {
	store := NewPgStore(pgxPool)
	return func(w http.ResponseWriter, r *http.Request) {
		var req hideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
			return
		}
		rq, err := resolveRequester(req.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !rq.IsAdmin() {
			respondError(w, http.StatusForbidden, constants.ErrAdminOnly)
			return
		}
		if req.TransactionID == "" {
			respondError(w, http.StatusBadRequest, constants.ErrMissingTransactionID)
			return
		}
		if err := store.SetTransactionHidden(r.Context(), req.TransactionID, req.Hidden); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Transaction %s hidden=%v by %s", req.TransactionID, req.Hidden, rq.Name))
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
