package processor

import (
	"context"

	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

// CommissionStore defines the database operations required by CommissionProcessor
type CommissionStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
	AppendCommission(ctx context.Context, params store.AppendCommissionParams) (store.Commission, bool, error)
	MarkCommissionPaid(ctx context.Context, commissionID, referrerID uuid.UUID, approvedBy *uuid.UUID) (store.Commission, bool, error)
	GetCommissionsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]store.Commission, error)
}

// Notifier tells a referrer about a newly paid commission. Delivery is
// best-effort; failures are logged, never returned to the credit path.
type Notifier interface {
	SendCommissionEarnedEmail(ctx context.Context, to, firstName string, amount float64) error
}
