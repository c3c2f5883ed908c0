package processor

import (
	"context"

	"backoffice-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockCommissionStore struct {
	mock.Mock
}

func (m *mockCommissionStore) GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockCommissionStore) AppendCommission(ctx context.Context, params store.AppendCommissionParams) (store.Commission, bool, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(store.Commission), args.Bool(1), args.Error(2)
}

func (m *mockCommissionStore) MarkCommissionPaid(ctx context.Context, commissionID, referrerID uuid.UUID, approvedBy *uuid.UUID) (store.Commission, bool, error) {
	args := m.Called(ctx, commissionID, referrerID, approvedBy)
	return args.Get(0).(store.Commission), args.Bool(1), args.Error(2)
}

func (m *mockCommissionStore) GetCommissionsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]store.Commission, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).([]store.Commission), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendCommissionEarnedEmail(ctx context.Context, to, firstName string, amount float64) error {
	args := m.Called(ctx, to, firstName, amount)
	return args.Error(0)
}
