package processor

import (
	"context"

	commissionprocessor "backoffice-server/internal/commission/processor"
	"backoffice-server/internal/store"
	"backoffice-server/internal/workers/emailer"

	"github.com/google/uuid"
)

// ActivationStore defines the database operations required by ActivationProcessor
type ActivationStore interface {
	GetLeadByID(ctx context.Context, leadID uuid.UUID) (store.Lead, error)
	CreateLead(ctx context.Context, params store.CreateLeadParams) (store.Lead, error)
	ListLeads(ctx context.Context, status *string, limit, offset int) ([]store.Lead, error)
	UpdateLead(ctx context.Context, leadID uuid.UUID, params store.UpdateLeadParams) (store.Lead, error)
	CountLeads(ctx context.Context, status *string) (int, error)
	MarkLeadActivated(ctx context.Context, leadID, userID uuid.UUID) error
	CreateUser(ctx context.Context, params store.CreateUserParams) (store.User, error)
	SetReferredBy(ctx context.Context, userID, referrerID uuid.UUID) error
	ActivateUserAffiliate(ctx context.Context, userID uuid.UUID) error
}

// ReferralService is the slice of the referral processor the activation
// workflow needs: fresh codes for new users, code resolution for linking.
type ReferralService interface {
	GenerateCode(ctx context.Context) (string, error)
	ResolveCode(ctx context.Context, referralCode string) (store.User, error)
	BuildReferralLink(referralCode string) string
}

// CommissionService credits the referrer of an activated user.
type CommissionService interface {
	CreditCommission(ctx context.Context, fromUserID uuid.UUID, approvedBy *uuid.UUID, notes *string) (commissionprocessor.CreditResult, error)
}

// EmailQueue accepts welcome-email jobs for the worker pool.
type EmailQueue interface {
	Enqueue(ctx context.Context, job emailer.Job)
}
