package cash

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/altamarket/backoffice/internal/domain/sync"
)

// Till collections
const (
	CollectionSessions  = "cash_sessions"
	CollectionMovements = "cash_movements"
)

// SessionStatus is the lifecycle state of a cash session
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// Session is one till shift. At most one session is open per tenant at
// a time; movements can only be recorded against the open one.
type Session struct {
	ID           string          `json:"id"`
	OpenedBy     string          `json:"openedBy"`
	OpenedAt     time.Time       `json:"openedAt"`
	ClosedAt     *time.Time      `json:"closedAt,omitempty"`
	State        SessionStatus   `json:"status"`
	OpeningFloat decimal.Decimal `json:"openingFloat"`
	sync.Meta
}

func (s *Session) RecordID() string      { return s.ID }
func (s *Session) SetRecordID(id string) { s.ID = id }
func (s *Session) SortName() string      { return "" }

// MovementType classifies a till movement
type MovementType string

const (
	TypeIncome  MovementType = "INCOME"
	TypeExpense MovementType = "EXPENSE"
)

// Movement is one cash in or out recorded against a session. Amount is
// a non-negative magnitude; the sign is implied by the movement type.
type Movement struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	Type        MovementType    `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	// RelatedEntityID ties the movement back to its origin, such as the
	// supplier behind a payment expense.
	RelatedEntityID string    `json:"relatedEntityId,omitempty"`
	Actor           string    `json:"actor,omitempty"`
	Date            time.Time `json:"date"`
	sync.Meta
}

func (m *Movement) RecordID() string      { return m.ID }
func (m *Movement) SetRecordID(id string) { m.ID = id }
func (m *Movement) SortName() string      { return "" }
