package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/domain/tenant"
	"github.com/altamarket/backoffice/pkg/validator"
)

// CollectionPendingLinks holds the local-only markers for purchases
// whose linked initial payment is not yet confirmed written. Never
// synchronized.
const CollectionPendingLinks = "_orchestration"

// PendingLink marks a purchase that may be missing its initial payment.
// A marker that survives a crash is a repair candidate.
type PendingLink struct {
	PurchaseID string          `json:"purchaseId"`
	SupplierID string          `json:"supplierId"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// RegisterPurchaseRequest carries a new supplier purchase. TotalAmount
// must be positive and PaidAmount within [0, TotalAmount]; both are
// validated before registration.
type RegisterPurchaseRequest struct {
	SupplierID    string          `json:"supplierId" validate:"required"`
	Date          time.Time       `json:"date"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Description   string          `json:"description,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	// Method is the payment method of the initial payment, when any
	Method string `json:"method,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

// RegisterPaymentRequest carries a payment towards a supplier. A RefID
// targets one invoice; without it the payment reduces the aggregate
// balance only.
type RegisterPaymentRequest struct {
	SupplierID  string          `json:"supplierId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	Description string          `json:"description,omitempty"`
	RefID       string          `json:"refId,omitempty"`
	Actor       string          `json:"actor,omitempty"`
}

// Service owns the supplier accounts-payable ledger: the synchronized
// movement log, the derived views over it, and the orchestration of
// purchases with their initial payments.
type Service struct {
	movements *sync.Coordinator[Movement, *Movement]
	engine    Engine
	local     sync.LocalStore
	cash      CashLedger
	valid     validator.Validator
	log       *zap.Logger
}

// NewService creates a ledger service over the given stores. cash may
// be nil, in which case payments skip till registration entirely.
func NewService(
	local sync.LocalStore,
	cloud sync.CloudStore,
	paths *tenant.PathResolver,
	conn sync.Connectivity,
	outbox *sync.Outbox,
	cash CashLedger,
	log *zap.Logger,
) *Service {
	return &Service{
		movements: sync.NewCoordinator[Movement](CollectionMovements, local, cloud, paths, conn, outbox, log),
		engine:    NewEngine(),
		local:     local,
		cash:      cash,
		valid:     validator.New(),
		log:       log,
	}
}

// GetLedger returns one supplier's full statement: purchases enriched
// with their payment allocation, payments untouched, most recent first.
func (s *Service) GetLedger(ctx context.Context, id *tenant.Identity, supplierID string) ([]Entry, error) {
	if supplierID == "" {
		return nil, errors.NewValidationError("supplierId is required")
	}
	movements, err := s.supplierMovements(ctx, id, supplierID)
	if err != nil {
		return nil, err
	}
	return s.engine.Statement(movements), nil
}

// GetBalance returns one supplier's aggregate outstanding balance
func (s *Service) GetBalance(ctx context.Context, id *tenant.Identity, supplierID string) (decimal.Decimal, error) {
	if supplierID == "" {
		return decimal.Zero, errors.NewValidationError("supplierId is required")
	}
	movements, err := s.supplierMovements(ctx, id, supplierID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.engine.ComputeBalance(movements), nil
}

// GetInvoices returns one supplier's purchases enriched with payment
// allocations, most recent first.
func (s *Service) GetInvoices(ctx context.Context, id *tenant.Identity, supplierID string) ([]Invoice, error) {
	if supplierID == "" {
		return nil, errors.NewValidationError("supplierId is required")
	}
	movements, err := s.supplierMovements(ctx, id, supplierID)
	if err != nil {
		return nil, err
	}
	invoices := s.engine.EnrichPurchases(movements)
	sort.SliceStable(invoices, func(i, j int) bool {
		if invoices[i].Date.Equal(invoices[j].Date) {
			return invoices[i].ID > invoices[j].ID
		}
		return invoices[i].Date.After(invoices[j].Date)
	})
	return invoices, nil
}

// GetAllWithBalance returns every supplier seen in the movement log with
// its aggregate balance, largest debt first.
func (s *Service) GetAllWithBalance(ctx context.Context, id *tenant.Identity) ([]SupplierBalance, error) {
	all, err := s.movements.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}
	movements := make([]Movement, 0, len(all))
	for _, m := range all {
		movements = append(movements, *m)
	}

	byID := s.engine.BalancesBySupplier(movements)
	balances := make([]SupplierBalance, 0, len(byID))
	for supplierID, balance := range byID {
		balances = append(balances, SupplierBalance{SupplierID: supplierID, Balance: balance})
	}
	sort.SliceStable(balances, func(i, j int) bool {
		if balances[i].Balance.Equal(balances[j].Balance) {
			return balances[i].SupplierID < balances[j].SupplierID
		}
		return balances[i].Balance.GreaterThan(balances[j].Balance)
	})
	return balances, nil
}

// RegisterPurchase appends a PURCHASE movement and, when the request
// carries an initial paid amount, a linked PAYMENT. The purchase is
// written first; until the payment is confirmed written a local marker
// records the incomplete pair, so a crash between the two writes leaves
// a detectable repair candidate instead of silent missing debt relief.
func (s *Service) RegisterPurchase(ctx context.Context, id *tenant.Identity, req *RegisterPurchaseRequest) (*Invoice, error) {
	if err := s.validatePurchase(req); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	purchase, err := s.movements.Save(ctx, id, &Movement{
		SupplierID:    req.SupplierID,
		Date:          date,
		Type:          TypePurchase,
		Amount:        req.TotalAmount,
		Description:   req.Description,
		InvoiceNumber: req.InvoiceNumber,
	})
	if err != nil {
		return nil, err
	}

	paid := decimal.Zero
	if req.PaidAmount.IsPositive() {
		s.markPendingLink(ctx, purchase, req.PaidAmount)

		payment, err := s.RegisterPayment(ctx, id, &RegisterPaymentRequest{
			SupplierID:  req.SupplierID,
			Amount:      req.PaidAmount,
			Method:      req.Method,
			Description: initialPaymentDescription(req),
			RefID:       purchase.ID,
			Actor:       req.Actor,
		})
		if err != nil {
			// The marker stays behind: the purchase exists without
			// its payment and PendingLinks will report it.
			return nil, err
		}
		s.clearPendingLink(ctx, purchase.ID)
		paid = payment.Amount
	}

	return &Invoice{
		Movement:         *purchase,
		PaidAmount:       paid,
		RemainingBalance: purchase.Amount.Sub(paid),
	}, nil
}

// RegisterPayment appends a PAYMENT movement, then notifies the cash
// ledger of the outflow. A cash-side rejection is logged and swallowed:
// the supplier movement is already durable and stays.
func (s *Service) RegisterPayment(ctx context.Context, id *tenant.Identity, req *RegisterPaymentRequest) (*Movement, error) {
	if err := s.validatePayment(req); err != nil {
		return nil, err
	}

	payment, err := s.movements.Save(ctx, id, &Movement{
		SupplierID:  req.SupplierID,
		Date:        time.Now().UTC(),
		Type:        TypePayment,
		Amount:      req.Amount,
		Description: req.Description,
		RefID:       req.RefID,
		Method:      req.Method,
	})
	if err != nil {
		return nil, err
	}

	if s.cash != nil {
		if err := s.cash.RegisterExpense(ctx, id, req.Amount, req.Description, req.SupplierID, req.Actor); err != nil {
			s.log.Warn("cash ledger rejected supplier payment expense",
				zap.String("supplierId", req.SupplierID),
				zap.String("movementId", payment.ID),
				zap.Error(err))
		}
	}
	return payment, nil
}

// PendingLinks returns the purchases whose initial payment was never
// confirmed written, oldest first. Callers decide whether to replay the
// payment or clear the marker.
func (s *Service) PendingLinks(ctx context.Context) ([]PendingLink, error) {
	docs, err := s.local.GetAll(ctx, CollectionPendingLinks)
	if err != nil {
		return nil, errors.NewInternalError("failed to read orchestration markers", err)
	}
	links := make([]PendingLink, 0, len(docs))
	for _, doc := range docs {
		var link PendingLink
		if err := json.Unmarshal(doc.Body, &link); err != nil {
			s.log.Warn("skipping malformed orchestration marker", zap.String("id", doc.ID))
			continue
		}
		links = append(links, link)
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links, nil
}

// ClearPendingLink removes a marker after the caller repaired or
// dismissed the incomplete pair.
func (s *Service) ClearPendingLink(ctx context.Context, purchaseID string) error {
	if err := s.local.Delete(ctx, CollectionPendingLinks, purchaseID); err != nil {
		return errors.NewInternalError("failed to clear orchestration marker", err)
	}
	return nil
}

func (s *Service) supplierMovements(ctx context.Context, id *tenant.Identity, supplierID string) ([]Movement, error) {
	all, err := s.movements.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}
	movements := make([]Movement, 0, len(all))
	for _, m := range all {
		if m.SupplierID == supplierID {
			movements = append(movements, *m)
		}
	}
	return movements, nil
}

// markPendingLink failures are logged, not surfaced: the marker is a
// safety net around the payment write, not a precondition for it.
func (s *Service) markPendingLink(ctx context.Context, purchase *Movement, paid decimal.Decimal) {
	now := time.Now().UTC()
	body, err := json.Marshal(PendingLink{
		PurchaseID: purchase.ID,
		SupplierID: purchase.SupplierID,
		Amount:     paid,
		CreatedAt:  now,
	})
	if err == nil {
		err = s.local.Put(ctx, CollectionPendingLinks, sync.Doc{ID: purchase.ID, UpdatedAt: now, Body: body})
	}
	if err != nil {
		s.log.Warn("failed to write orchestration marker",
			zap.String("purchaseId", purchase.ID), zap.Error(err))
	}
}

func (s *Service) clearPendingLink(ctx context.Context, purchaseID string) {
	if err := s.local.Delete(ctx, CollectionPendingLinks, purchaseID); err != nil {
		s.log.Warn("failed to clear orchestration marker",
			zap.String("purchaseId", purchaseID), zap.Error(err))
	}
}

func (s *Service) validatePurchase(req *RegisterPurchaseRequest) error {
	if req == nil {
		return errors.NewValidationError("request is required")
	}
	if err := s.valid.Validate(req); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !req.TotalAmount.IsPositive() {
		return errors.NewValidationError("totalAmount must be positive")
	}
	if req.PaidAmount.IsNegative() {
		return errors.NewValidationError("paidAmount cannot be negative")
	}
	if req.PaidAmount.GreaterThan(req.TotalAmount) {
		return errors.NewValidationError("paidAmount cannot exceed totalAmount")
	}
	return nil
}

func (s *Service) validatePayment(req *RegisterPaymentRequest) error {
	if req == nil {
		return errors.NewValidationError("request is required")
	}
	if err := s.valid.Validate(req); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !req.Amount.IsPositive() {
		return errors.NewValidationError("amount must be positive")
	}
	return nil
}

func initialPaymentDescription(req *RegisterPurchaseRequest) string {
	if req.InvoiceNumber != "" {
		return fmt.Sprintf("Initial payment for invoice %s", req.InvoiceNumber)
	}
	return "Initial payment on purchase"
}
