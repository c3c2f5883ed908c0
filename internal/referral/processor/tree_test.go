package processor

import (
	"context"
	"testing"
	"time"

	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func treeUser(id uuid.UUID, email string, joined time.Time) store.User {
	return store.User{
		ID:              id,
		Email:           email,
		ReferralCode:    "CODE" + email[:4],
		AffiliateStatus: store.AffiliateStatusActive,
		CreatedAt:       joined,
	}
}

func TestGetReferralTree_TwoLevels(t *testing.T) {
	mockStore := new(mockReferralStore)
	logger := observability.NewLogger()
	codeGen, err := NewCodeGenerator(mockStore, 8, logger)
	require.NoError(t, err)
	p := New(mockStore, codeGen, "https://app.example.com", logger)

	now := time.Now()
	rootID := uuid.New()
	childA := treeUser(uuid.New(), "alice@example.com", now.Add(-2*time.Hour))
	childB := treeUser(uuid.New(), "bobby@example.com", now.Add(-time.Hour))
	grandchild := treeUser(uuid.New(), "carl@example.com", now)

	mockStore.On("GetUserByID", mock.Anything, rootID).
		Return(treeUser(rootID, "root@example.com", now.Add(-3*time.Hour)), nil)
	mockStore.On("GetDirectReferrals", mock.Anything, rootID).Return([]store.User{childA, childB}, nil)
	mockStore.On("GetDirectReferrals", mock.Anything, childA.ID).Return([]store.User{grandchild}, nil)
	mockStore.On("GetDirectReferrals", mock.Anything, childB.ID).Return([]store.User{}, nil)
	mockStore.On("GetDirectReferrals", mock.Anything, grandchild.ID).Return([]store.User{}, nil)

	tree, err := p.GetReferralTree(context.Background(), rootID, 0)
	require.NoError(t, err)

	assert.Equal(t, StatusSelf, tree.Status)
	assert.Equal(t, 0, tree.Level)
	assert.Equal(t, 2, tree.ReferralCount)
	require.Len(t, tree.Referrals, 2)
	// children keep signup order
	assert.Equal(t, childA.ID, tree.Referrals[0].UserID)
	assert.Equal(t, childB.ID, tree.Referrals[1].UserID)
	assert.Equal(t, 1, tree.Referrals[0].Level)
	assert.Equal(t, 1, tree.Referrals[1].Level)
	assert.Equal(t, 1, tree.Referrals[0].ReferralCount)
	assert.Equal(t, 0, tree.Referrals[1].ReferralCount)
	require.Len(t, tree.Referrals[0].Referrals, 1)
	assert.Equal(t, grandchild.ID, tree.Referrals[0].Referrals[0].UserID)
	assert.Equal(t, 2, tree.Referrals[0].Referrals[0].Level)
	assert.Empty(t, tree.Referrals[1].Referrals)
}

func TestGetReferralTree_DepthClamped(t *testing.T) {
	mockStore := new(mockReferralStore)
	logger := observability.NewLogger()
	codeGen, err := NewCodeGenerator(mockStore, 8, logger)
	require.NoError(t, err)
	p := New(mockStore, codeGen, "https://app.example.com", logger)

	now := time.Now()
	rootID := uuid.New()
	child := treeUser(uuid.New(), "alice@example.com", now)

	mockStore.On("GetUserByID", mock.Anything, rootID).
		Return(treeUser(rootID, "root@example.com", now), nil)
	mockStore.On("GetDirectReferrals", mock.Anything, rootID).Return([]store.User{child}, nil)
	mockStore.On("CountDirectReferrals", mock.Anything, child.ID).Return(4, nil)

	tree, err := p.GetReferralTree(context.Background(), rootID, 1)
	require.NoError(t, err)

	// depth 1 stops at direct referrals; the child's downline is not loaded,
	// but the clamped leaf still reports its direct-referral count
	require.Len(t, tree.Referrals, 1)
	assert.Empty(t, tree.Referrals[0].Referrals)
	assert.Equal(t, 1, tree.Referrals[0].Level)
	assert.Equal(t, 4, tree.Referrals[0].ReferralCount)
	mockStore.AssertNotCalled(t, "GetDirectReferrals", mock.Anything, child.ID)
}

func TestGetReferralTree_CycleGuard(t *testing.T) {
	mockStore := new(mockReferralStore)
	logger := observability.NewLogger()
	codeGen, err := NewCodeGenerator(mockStore, 8, logger)
	require.NoError(t, err)
	p := New(mockStore, codeGen, "https://app.example.com", logger)

	now := time.Now()
	rootID := uuid.New()
	root := treeUser(rootID, "root@example.com", now)
	child := treeUser(uuid.New(), "alice@example.com", now)

	// Broken data: the child "refers" the root back.
	mockStore.On("GetUserByID", mock.Anything, rootID).Return(root, nil)
	mockStore.On("GetDirectReferrals", mock.Anything, rootID).Return([]store.User{child}, nil)
	mockStore.On("GetDirectReferrals", mock.Anything, child.ID).Return([]store.User{root}, nil)

	tree, err := p.GetReferralTree(context.Background(), rootID, 5)
	require.NoError(t, err)

	require.Len(t, tree.Referrals, 1)
	assert.Empty(t, tree.Referrals[0].Referrals)
}

func TestGetReferralTree_RootNotFound(t *testing.T) {
	mockStore := new(mockReferralStore)
	logger := observability.NewLogger()
	codeGen, err := NewCodeGenerator(mockStore, 8, logger)
	require.NoError(t, err)
	p := New(mockStore, codeGen, "https://app.example.com", logger)

	rootID := uuid.New()
	mockStore.On("GetUserByID", mock.Anything, rootID).Return(store.User{}, store.ErrNotFound)

	_, err = p.GetReferralTree(context.Background(), rootID, 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
