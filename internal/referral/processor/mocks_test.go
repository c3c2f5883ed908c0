package processor

import (
	"context"

	"backoffice-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockReferralStore struct {
	mock.Mock
}

func (m *mockReferralStore) GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockReferralStore) GetUserByReferralCode(ctx context.Context, referralCode string) (store.User, error) {
	args := m.Called(ctx, referralCode)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockReferralStore) ReferralCodeExists(ctx context.Context, referralCode string) (bool, error) {
	args := m.Called(ctx, referralCode)
	return args.Bool(0), args.Error(1)
}

func (m *mockReferralStore) GetDirectReferrals(ctx context.Context, referrerID uuid.UUID) ([]store.User, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).([]store.User), args.Error(1)
}

func (m *mockReferralStore) CountDirectReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	args := m.Called(ctx, referrerID)
	return args.Int(0), args.Error(1)
}

func (m *mockReferralStore) SumPaidCommissions(ctx context.Context, referrerID uuid.UUID) (float64, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).(float64), args.Error(1)
}
