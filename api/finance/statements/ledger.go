package statements

import (
	"sort"

	"github.com/shopspring/decimal"
)

// signedAmount computes the row's net signed contribution from the
// monetary columns actually present:
//
//	income:  +invoiceValue, falling back to +netPayment
//	expense: -(bankCharges + countryShare + commission + legal + tax)
//	advance: advanceAmount as given (already negative when the artist
//	         owes it back)
func signedAmount(t *Transaction) decimal.Decimal {
	val := func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	}

	switch t.Kind {
	case TxIncome:
		if t.InvoiceValue != nil {
			return t.InvoiceValue.Abs()
		}
		return val(t.NetPayment).Abs()
	case TxExpense:
		deductions := val(t.BankCharges).
			Add(val(t.CountryShare)).
			Add(val(t.CommissionShare)).
			Add(val(t.LegalShare)).
			Add(val(t.TaxRetention))
		return deductions.Abs().Neg()
	case TxAdvance:
		return val(t.AdvanceAmount)
	}
	return decimal.Zero
}

// BuildLedger turns an artist's normalized candidates for one statement
// month into the ordered transaction list with amounts and running
// balances, plus the derived statement totals. Candidates are sorted by
// date ascending, stable on original sheet order for ties; RowIndex
// records the resulting ledger position so reloads reproduce the same
// tie order.
func BuildLedger(candidates []*Transaction) ([]Transaction, StatementTotals) {
	txns := make([]Transaction, 0, len(candidates))
	for _, c := range candidates {
		txns = append(txns, *c)
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})

	for i := range txns {
		txns[i].RowIndex = i
		txns[i].Amount = signedAmount(&txns[i]).Round(2)
	}
	RecomputeRunningBalances(txns)
	return txns, RecomputeTotals(txns)
}

// RecomputeRunningBalances rebuilds RunningBalance in place over the
// given (already ordered) transactions. Hidden rows do not move the
// accumulator; they carry the balance as of the previous visible row so
// the audit view still lines up.
func RecomputeRunningBalances(txns []Transaction) {
	acc := decimal.Zero
	for i := range txns {
		if !txns[i].Hidden {
			acc = acc.Add(txns[i].Amount)
		}
		txns[i].RunningBalance = acc
	}
}

// StatementTotals are the derived statement-level sums over visible
// transactions. TotalAdvances keeps its sign; Balance subtracts it, so
// a negative advance (money owed back) raises the balance.
type StatementTotals struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	TotalAdvances    decimal.Decimal
	Balance          decimal.Decimal
	TransactionCount int
}

// RecomputeTotals reduces the non-hidden transactions of one statement.
func RecomputeTotals(txns []Transaction) StatementTotals {
	totals := StatementTotals{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalAdvances: decimal.Zero,
		Balance:       decimal.Zero,
	}
	for i := range txns {
		t := &txns[i]
		if t.Hidden {
			continue
		}
		totals.TransactionCount++
		switch t.Kind {
		case TxIncome:
			totals.TotalIncome = totals.TotalIncome.Add(t.Amount)
		case TxExpense:
			totals.TotalExpenses = totals.TotalExpenses.Add(t.Amount.Abs())
		case TxAdvance:
			totals.TotalAdvances = totals.TotalAdvances.Add(t.Amount)
		}
	}
	totals.Balance = totals.TotalIncome.Sub(totals.TotalExpenses).Sub(totals.TotalAdvances)
	return totals
}
