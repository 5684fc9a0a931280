package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/altamarket/backoffice/internal/domain/tenant"
)

// CashLedger is the till-accounting collaborator notified of the cash
// outflow behind every supplier payment. It may reject (for instance
// when no cash session is open); the supplier ledger keeps its movement
// regardless, so the two subsystems can diverge under that failure.
type CashLedger interface {
	RegisterExpense(ctx context.Context, id *tenant.Identity, amount decimal.Decimal, description, relatedEntityID, actor string) error
}
