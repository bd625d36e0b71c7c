package jobs

import (
	"context"
	"fmt"
	"time"

	"MvpxArtistSaas/internal/config"
	"MvpxArtistSaas/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// AuditConfig holds configuration for the statement consistency audit
type AuditConfig struct {
	Schedule string
	TimeZone string
}

func NewDefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Schedule: config.DefaultAuditSchedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunStatementAuditScheduler starts the nightly read-only audit that
// recomputes every visible statement's totals from its visible
// transactions and logs any drift against the stored values.
func RunStatementAuditScheduler(cfg *AuditConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultAuditSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := AuditStatementTotals(db); err != nil {
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Statement audit failed: %v", err))
			}
		}
	})

	if err != nil {
		return fmt.Errorf("unable to schedule statement audit: %v", err)
	}

	c.Start()
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Statement audit scheduler started with schedule: " + cfg.Schedule)
	}

	return nil
}

// AuditStatementTotals compares each stored statement summary against
// the sums of its visible transactions. Read-only: drift is logged,
// never silently corrected.
func AuditStatementTotals(db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := db.Query(ctx, `
		SELECT s.id,
		       s.total_income::text, s.total_expenses::text,
		       s.total_advances::text, s.balance::text, s.total_transactions,
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'income'  THEN t.amount END), 0)::text,
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'expense' THEN ABS(t.amount) END), 0)::text,
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'advance' THEN t.amount END), 0)::text,
		       COUNT(t.id)
		FROM artist_statements s
		LEFT JOIN statement_transactions t
		       ON t.statement_id = s.id AND (t.hidden IS NOT TRUE)
		WHERE (s.hidden IS NOT TRUE)
		GROUP BY s.id`)
	if err != nil {
		return fmt.Errorf("audit query failed: %v", err)
	}
	defer rows.Close()

	checked, drifted := 0, 0
	for rows.Next() {
		var (
			id                                  string
			storedIncome, storedExpenses        string
			storedAdvances, storedBalance       string
			storedCount                         int
			sumIncome, sumExpenses, sumAdvances string
			txnCount                            int
		)
		if err := rows.Scan(&id, &storedIncome, &storedExpenses, &storedAdvances,
			&storedBalance, &storedCount, &sumIncome, &sumExpenses, &sumAdvances, &txnCount); err != nil {
			return err
		}
		checked++

		income := mustDec(sumIncome)
		expenses := mustDec(sumExpenses)
		advances := mustDec(sumAdvances)
		balance := income.Sub(expenses).Sub(advances)

		var drift []string
		if !mustDec(storedIncome).Equal(income) {
			drift = append(drift, fmt.Sprintf("income stored=%s computed=%s", storedIncome, income))
		}
		if !mustDec(storedExpenses).Equal(expenses) {
			drift = append(drift, fmt.Sprintf("expenses stored=%s computed=%s", storedExpenses, expenses))
		}
		if !mustDec(storedAdvances).Equal(advances) {
			drift = append(drift, fmt.Sprintf("advances stored=%s computed=%s", storedAdvances, advances))
		}
		if !mustDec(storedBalance).Equal(balance) {
			drift = append(drift, fmt.Sprintf("balance stored=%s computed=%s", storedBalance, balance))
		}
		if storedCount != txnCount {
			drift = append(drift, fmt.Sprintf("count stored=%d computed=%d", storedCount, txnCount))
		}

		if len(drift) > 0 {
			drifted++
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Statement %s totals drift: %v", id, drift))
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Statement audit completed: %d checked, %d with drift", checked, drifted))
	}
	return nil
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
