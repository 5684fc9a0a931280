package cash

import (
	"context"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/domain/tenant"
)

// Service owns the till: session lifecycle and the cash movements
// recorded against the open session. It is the cash-side counterpart
// the supplier ledger notifies on every payment.
type Service struct {
	sessions  *sync.Coordinator[Session, *Session]
	movements *sync.Coordinator[Movement, *Movement]
	log       *zap.Logger
}

// NewService creates a cash service over the given stores
func NewService(
	local sync.LocalStore,
	cloud sync.CloudStore,
	paths *tenant.PathResolver,
	conn sync.Connectivity,
	outbox *sync.Outbox,
	log *zap.Logger,
) *Service {
	return &Service{
		sessions:  sync.NewCoordinator[Session](CollectionSessions, local, cloud, paths, conn, outbox, log),
		movements: sync.NewCoordinator[Movement](CollectionMovements, local, cloud, paths, conn, outbox, log),
		log:       log,
	}
}

// OpenSession opens a till session. Fails with a conflict while another
// session is still open.
func (s *Service) OpenSession(ctx context.Context, id *tenant.Identity, openedBy string, openingFloat decimal.Decimal) (*Session, error) {
	if openingFloat.IsNegative() {
		return nil, errors.NewValidationError("openingFloat cannot be negative")
	}
	current, err := s.openSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, errors.NewConflictError("a cash session is already open")
	}

	return s.sessions.Save(ctx, id, &Session{
		ID:           ulid.Make().String(),
		OpenedBy:     openedBy,
		OpenedAt:     time.Now().UTC(),
		State:        SessionOpen,
		OpeningFloat: openingFloat,
	})
}

// CloseSession closes the open session. Fails with a conflict when none
// is open.
func (s *Service) CloseSession(ctx context.Context, id *tenant.Identity) (*Session, error) {
	current, err := s.openSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errors.NewConflictError("no open cash session")
	}

	now := time.Now().UTC()
	current.State = SessionClosed
	current.ClosedAt = &now
	return s.sessions.Save(ctx, id, current)
}

// CurrentSession returns the open session, or nil when none is open
func (s *Service) CurrentSession(ctx context.Context, id *tenant.Identity) (*Session, error) {
	return s.openSession(ctx, id)
}

// RegisterExpense records a cash outflow against the open session.
// Without an open session the expense is rejected with a conflict.
func (s *Service) RegisterExpense(ctx context.Context, id *tenant.Identity, amount decimal.Decimal, description, relatedEntityID, actor string) error {
	return s.register(ctx, id, TypeExpense, amount, description, relatedEntityID, actor)
}

// RegisterIncome records a cash inflow against the open session
func (s *Service) RegisterIncome(ctx context.Context, id *tenant.Identity, amount decimal.Decimal, description, relatedEntityID, actor string) error {
	return s.register(ctx, id, TypeIncome, amount, description, relatedEntityID, actor)
}

// SessionMovements returns the movements of one session, oldest first
func (s *Service) SessionMovements(ctx context.Context, id *tenant.Identity, sessionID string) ([]*Movement, error) {
	all, err := s.movements.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}
	movements := make([]*Movement, 0, len(all))
	for _, m := range all {
		if m.SessionID == sessionID {
			movements = append(movements, m)
		}
	}
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].Date.Before(movements[j].Date)
	})
	return movements, nil
}

func (s *Service) register(ctx context.Context, id *tenant.Identity, kind MovementType, amount decimal.Decimal, description, relatedEntityID, actor string) error {
	if !amount.IsPositive() {
		return errors.NewValidationError("amount must be positive")
	}
	session, err := s.openSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return errors.NewConflictError("no open cash session")
	}

	_, err = s.movements.Save(ctx, id, &Movement{
		SessionID:       session.ID,
		Type:            kind,
		Amount:          amount,
		Description:     description,
		RelatedEntityID: relatedEntityID,
		Actor:           actor,
		Date:            time.Now().UTC(),
	})
	return err
}

// openSession returns the most recently opened OPEN session, nil when
// every session is closed.
func (s *Service) openSession(ctx context.Context, id *tenant.Identity) (*Session, error) {
	all, err := s.sessions.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}
	var open *Session
	for _, session := range all {
		if session.State != SessionOpen {
			continue
		}
		if open == nil || session.OpenedAt.After(open.OpenedAt) {
			open = session
		}
	}
	return open, nil
}
