package processor

import (
	"context"

	commissionprocessor "backoffice-server/internal/commission/processor"
	"backoffice-server/internal/store"
	"backoffice-server/internal/workers/emailer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockActivationStore struct {
	mock.Mock
}

func (m *mockActivationStore) GetLeadByID(ctx context.Context, leadID uuid.UUID) (store.Lead, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).(store.Lead), args.Error(1)
}

func (m *mockActivationStore) CreateLead(ctx context.Context, params store.CreateLeadParams) (store.Lead, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(store.Lead), args.Error(1)
}

func (m *mockActivationStore) ListLeads(ctx context.Context, status *string, limit, offset int) ([]store.Lead, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]store.Lead), args.Error(1)
}

func (m *mockActivationStore) UpdateLead(ctx context.Context, leadID uuid.UUID, params store.UpdateLeadParams) (store.Lead, error) {
	args := m.Called(ctx, leadID, params)
	return args.Get(0).(store.Lead), args.Error(1)
}

func (m *mockActivationStore) CountLeads(ctx context.Context, status *string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockActivationStore) MarkLeadActivated(ctx context.Context, leadID, userID uuid.UUID) error {
	args := m.Called(ctx, leadID, userID)
	return args.Error(0)
}

func (m *mockActivationStore) CreateUser(ctx context.Context, params store.CreateUserParams) (store.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockActivationStore) SetReferredBy(ctx context.Context, userID, referrerID uuid.UUID) error {
	args := m.Called(ctx, userID, referrerID)
	return args.Error(0)
}

func (m *mockActivationStore) ActivateUserAffiliate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockReferralService struct {
	mock.Mock
}

func (m *mockReferralService) GenerateCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockReferralService) ResolveCode(ctx context.Context, referralCode string) (store.User, error) {
	args := m.Called(ctx, referralCode)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockReferralService) BuildReferralLink(referralCode string) string {
	args := m.Called(referralCode)
	return args.String(0)
}

type mockCommissionService struct {
	mock.Mock
}

func (m *mockCommissionService) CreditCommission(ctx context.Context, fromUserID uuid.UUID, approvedBy *uuid.UUID, notes *string) (commissionprocessor.CreditResult, error) {
	args := m.Called(ctx, fromUserID, approvedBy, notes)
	return args.Get(0).(commissionprocessor.CreditResult), args.Error(1)
}

// mockEmailQueue records jobs and completes each one synchronously so bulk
// runs never block on email delivery.
type mockEmailQueue struct {
	mock.Mock
	sendResult bool
}

func (m *mockEmailQueue) Enqueue(ctx context.Context, job emailer.Job) {
	m.Called(ctx, job)
	if job.Done != nil {
		job.Done(m.sendResult)
	}
}
