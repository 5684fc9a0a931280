package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Engine derives ledger views from an in-memory movement set. Pure and
// deterministic: no I/O, no state, invariant under input permutation.
type Engine struct{}

// NewEngine creates a reconciliation engine
func NewEngine() Engine {
	return Engine{}
}

// ComputeBalance returns the aggregate balance of a movement set:
// the sum of purchase amounts minus the sum of payment amounts,
// including payments not linked to any invoice.
func (Engine) ComputeBalance(movements []Movement) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range movements {
		switch m.Type {
		case TypePurchase:
			balance = balance.Add(m.Amount)
		case TypePayment:
			balance = balance.Sub(m.Amount)
		}
	}
	return balance
}

// EnrichPurchases decorates every PURCHASE with the sum of the payments
// referencing it and the remaining balance. Payments whose sum exceeds
// the purchase amount drive the remaining balance negative: that credit
// is reported as-is, never clamped. Global payments contribute to no
// invoice.
func (Engine) EnrichPurchases(movements []Movement) []Invoice {
	paid := make(map[string]decimal.Decimal)
	for _, m := range movements {
		if m.Type == TypePayment && m.RefID != "" {
			paid[m.RefID] = paid[m.RefID].Add(m.Amount)
		}
	}

	invoices := make([]Invoice, 0, len(movements))
	for _, m := range movements {
		if m.Type != TypePurchase {
			continue
		}
		allocated := paid[m.ID]
		invoices = append(invoices, Invoice{
			Movement:         m,
			PaidAmount:       allocated,
			RemainingBalance: m.Amount.Sub(allocated),
		})
	}
	return invoices
}

// Statement combines enriched purchases and untouched payments into one
// list ordered most-recent-date-first. Equal dates order by movement id
// descending so the output is deterministic.
func (e Engine) Statement(movements []Movement) []Entry {
	byID := make(map[string]Invoice)
	for _, inv := range e.EnrichPurchases(movements) {
		byID[inv.ID] = inv
	}

	entries := make([]Entry, 0, len(movements))
	for _, m := range movements {
		entry := Entry{Movement: m}
		if inv, ok := byID[m.ID]; ok {
			paid := inv.PaidAmount
			remaining := inv.RemainingBalance
			entry.PaidAmount = &paid
			entry.RemainingBalance = &remaining
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

// BalancesBySupplier computes each supplier's aggregate balance
// independently of per-invoice enrichment.
func (Engine) BalancesBySupplier(movements []Movement) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, m := range movements {
		switch m.Type {
		case TypePurchase:
			balances[m.SupplierID] = balances[m.SupplierID].Add(m.Amount)
		case TypePayment:
			balances[m.SupplierID] = balances[m.SupplierID].Sub(m.Amount)
		}
	}
	return balances
}
