package statements

import (
	"sort"

	"github.com/shopspring/decimal"

	"MvpxArtistSaas/api/constants"
)

const uncategorized = "Sin categoría"

// Totals are the straight sums over a filtered set of visible
// statements. TotalAdvances stays signed here; display layers take the
// absolute value.
type Totals struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	TotalAdvances decimal.Decimal `json:"totalAdvances"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
}

// AggregateTotals sums the visible statements element-wise. Hidden
// statements contribute nothing even if the caller forgot to filter.
func AggregateTotals(stmts []Statement) Totals {
	t := Totals{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalAdvances: decimal.Zero,
		TotalBalance:  decimal.Zero,
	}
	for _, s := range stmts {
		if s.Hidden {
			continue
		}
		t.TotalIncome = t.TotalIncome.Add(s.TotalIncome)
		t.TotalExpenses = t.TotalExpenses.Add(s.TotalExpenses)
		t.TotalAdvances = t.TotalAdvances.Add(s.TotalAdvances)
		t.TotalBalance = t.TotalBalance.Add(s.Balance)
	}
	return t
}

// CategoryTotal is one slice of the category breakdown, summed over
// absolute transaction amounts.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryBreakdown groups visible transactions by category, unlabeled
// rows landing in a single uncategorized bucket. Sorted by amount
// descending, ties by name for a stable order.
func CategoryBreakdown(txns []Transaction) []CategoryTotal {
	byCat := make(map[string]decimal.Decimal)
	for i := range txns {
		t := &txns[i]
		if t.Hidden {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = uncategorized
		}
		byCat[cat] = byCat[cat].Add(t.Amount.Abs())
	}
	out := make([]CategoryTotal, 0, len(byCat))
	for cat, amt := range byCat {
		out = append(out, CategoryTotal{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthBucket is one point of the income/expense time series.
type MonthBucket struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"transactions"`
}

// MonthlySeries buckets visible transactions by calendar month, summing
// income and expenses separately with net = income - expenses per
// bucket, ordered chronologically.
func MonthlySeries(txns []Transaction) []MonthBucket {
	byMonth := make(map[string]*MonthBucket)
	for i := range txns {
		t := &txns[i]
		if t.Hidden {
			continue
		}
		key := t.Date.Format(constants.MonthFormat)
		b, ok := byMonth[key]
		if !ok {
			b = &MonthBucket{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
			byMonth[key] = b
		}
		switch t.Kind {
		case TxIncome:
			b.Income = b.Income.Add(t.Amount)
		case TxExpense:
			b.Expenses = b.Expenses.Add(t.Amount.Abs())
		}
		b.Count++
	}
	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		b.Net = b.Income.Sub(b.Expenses)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// ArtistRollup is the per-artist analysis block of the exported report.
type ArtistRollup struct {
	Artist       string          `json:"artist"`
	Statements   int             `json:"statements"`
	Transactions int             `json:"transactions"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Advances     decimal.Decimal `json:"advances"`
	Balance      decimal.Decimal `json:"balance"`
}

// AvgPerStatement returns balance / statements, zero for an empty group.
func (r ArtistRollup) AvgPerStatement() decimal.Decimal {
	if r.Statements == 0 {
		return decimal.Zero
	}
	return r.Balance.Div(decimal.NewFromInt(int64(r.Statements))).Round(2)
}

// RollupByArtist aggregates visible statements per artist, sorted by
// balance descending.
func RollupByArtist(stmts []Statement) []ArtistRollup {
	byArtist := make(map[string]*ArtistRollup)
	for _, s := range stmts {
		if s.Hidden {
			continue
		}
		name := s.ArtistName
		if name == "" {
			name = "Unknown"
		}
		r, ok := byArtist[name]
		if !ok {
			r = &ArtistRollup{
				Artist:   name,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
				Advances: decimal.Zero,
				Balance:  decimal.Zero,
			}
			byArtist[name] = r
		}
		r.Statements++
		r.Transactions += s.TransactionCount
		r.Income = r.Income.Add(s.TotalIncome)
		r.Expenses = r.Expenses.Add(s.TotalExpenses)
		r.Advances = r.Advances.Add(s.TotalAdvances)
		r.Balance = r.Balance.Add(s.Balance)
	}
	out := make([]ArtistRollup, 0, len(byArtist))
	for _, r := range byArtist {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Balance.Equal(out[j].Balance) {
			return out[i].Balance.GreaterThan(out[j].Balance)
		}
		return out[i].Artist < out[j].Artist
	})
	return out
}

// MonthRollup is the per-month analysis block of the exported report.
type MonthRollup struct {
	Month      string          `json:"month"`
	Statements int             `json:"statements"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	Advances   decimal.Decimal `json:"advances"`
	Balance    decimal.Decimal `json:"balance"`
}

// RollupByMonth aggregates visible statements per statement month,
// newest first (the report reads top-down from the current period).
func RollupByMonth(stmts []Statement) []MonthRollup {
	byMonth := make(map[string]*MonthRollup)
	for _, s := range stmts {
		if s.Hidden {
			continue
		}
		r, ok := byMonth[s.StatementMonth]
		if !ok {
			r = &MonthRollup{
				Month:    s.StatementMonth,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
				Advances: decimal.Zero,
				Balance:  decimal.Zero,
			}
			byMonth[s.StatementMonth] = r
		}
		r.Statements++
		r.Income = r.Income.Add(s.TotalIncome)
		r.Expenses = r.Expenses.Add(s.TotalExpenses)
		r.Advances = r.Advances.Add(s.TotalAdvances)
		r.Balance = r.Balance.Add(s.Balance)
	}
	out := make([]MonthRollup, 0, len(byMonth))
	for _, r := range byMonth {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}
