package finance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"MvpxArtistSaas/api"
	"MvpxArtistSaas/api/finance/statements"
)

func StartFinanceService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/finance/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Finance Service is active"))
	})

	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user != "" && pass != "" && host != "" && port != "" && name != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)

		// shared pgx pool for all statement handlers
		pgxPool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("failed to connect to pgxpool DB: %v", err)
		}

		session := api.SessionMiddleware(db)
		mux.Handle("/finance/statements/import", session(statements.ImportStatements(pgxPool)))
		mux.Handle("/finance/statements/list", session(statements.ListStatements(pgxPool)))
		mux.Handle("/finance/statements/transactions", session(statements.GetTransactions(pgxPool)))
		mux.Handle("/finance/statements/aggregate", session(statements.AggregateStatements(pgxPool)))
		mux.Handle("/finance/statements/compare", session(statements.ComparePeriodsHandler(pgxPool)))
		mux.Handle("/finance/statements/export/excel", session(statements.ExportExcel(pgxPool)))
		mux.Handle("/finance/statements/export/pdf", session(statements.ExportPDF(pgxPool)))
		mux.Handle("/finance/statements/hide", session(statements.HideStatement(pgxPool)))
		mux.Handle("/finance/statements/transactions/hide", session(statements.HideTransaction(pgxPool)))
	} else {
		log.Println("Finance Service: DB env incomplete, statement routes not mounted")
	}

	log.Println("Finance Service started on :6145")
	err := http.ListenAndServe(":6145", mux)
	if err != nil {
		log.Fatalf("Finance Service failed: %v", err)
	}
}
