package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/altamarket/backoffice/internal/domain/sync"
)

// CollectionMovements is the synchronized collection holding the
// supplier accounts-payable movement log.
const CollectionMovements = "supplier_movements"

// MovementType classifies a ledger movement
type MovementType string

const (
	// TypePurchase establishes debt towards a supplier
	TypePurchase MovementType = "PURCHASE"
	// TypePayment reduces debt towards a supplier
	TypePayment MovementType = "PAYMENT"
)

// Movement is one immutable entry of the supplier ledger. The log is
// append-only: mistakes are corrected with compensating entries, never
// by editing. Amount is a non-negative magnitude; the sign is implied
// by the movement type.
type Movement struct {
	ID            string          `json:"id"`
	SupplierID    string          `json:"supplierId"`
	Date          time.Time       `json:"date"`
	Type          MovementType    `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	// RefID links a PAYMENT to the PURCHASE it settles; empty for
	// global payments, which reduce the aggregate balance only.
	RefID  string `json:"refId,omitempty"`
	Method string `json:"method,omitempty"`
	sync.Meta
}

// RecordID returns the movement's identifier
func (m *Movement) RecordID() string { return m.ID }

// SetRecordID assigns a generated identifier
func (m *Movement) SetRecordID(id string) { m.ID = id }

// SortName returns an empty key: movement ordering is the engine's job
func (m *Movement) SortName() string { return "" }

// Invoice is a PURCHASE movement decorated with its payment allocation.
// Derived, never persisted.
type Invoice struct {
	Movement
	PaidAmount       decimal.Decimal `json:"paidAmount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Entry is one row of a supplier statement: every movement, with
// purchases carrying their allocation and payments passing through
// unchanged (nil allocation fields).
type Entry struct {
	Movement
	PaidAmount       *decimal.Decimal `json:"paidAmount,omitempty"`
	RemainingBalance *decimal.Decimal `json:"remainingBalance,omitempty"`
}

// SupplierBalance is a supplier's aggregate outstanding debt.
// Derived, never persisted.
type SupplierBalance struct {
	SupplierID string          `json:"supplierId"`
	Balance    decimal.Decimal `json:"balance"`
}
