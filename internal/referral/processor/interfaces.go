package processor

import (
	"context"

	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

// ReferralStore defines the database operations required by ReferralProcessor
type ReferralStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
	GetUserByReferralCode(ctx context.Context, referralCode string) (store.User, error)
	ReferralCodeExists(ctx context.Context, referralCode string) (bool, error)
	GetDirectReferrals(ctx context.Context, referrerID uuid.UUID) ([]store.User, error)
	CountDirectReferrals(ctx context.Context, referrerID uuid.UUID) (int, error)
	SumPaidCommissions(ctx context.Context, referrerID uuid.UUID) (float64, error)
}
