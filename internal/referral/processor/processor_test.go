package processor

import (
	"context"
	"testing"

	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, mockStore *mockReferralStore) ReferralProcessor {
	t.Helper()
	logger := observability.NewLogger()
	codeGen, err := NewCodeGenerator(mockStore, 8, logger)
	require.NoError(t, err)
	return New(mockStore, codeGen, "https://app.example.com/", logger)
}

func TestGenerateCode_Unique(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	mockStore.On("ReferralCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	code, err := p.GenerateCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
	mockStore.AssertExpectations(t)
}

func TestGenerateCode_RetriesOnCollision(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	mockStore.On("ReferralCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Twice()
	mockStore.On("ReferralCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	_, err := p.GenerateCode(context.Background())
	require.NoError(t, err)
	mockStore.AssertNumberOfCalls(t, "ReferralCodeExists", 3)
}

func TestGenerateCode_Exhausted(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	mockStore.On("ReferralCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	_, err := p.GenerateCode(context.Background())
	assert.ErrorIs(t, err, ErrCodeGenerationExhausted)
	mockStore.AssertNumberOfCalls(t, "ReferralCodeExists", maxCodeAttempts)
}

func TestBuildReferralLink(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	assert.Equal(t, "https://app.example.com/signup?ref=AB12CD34", p.BuildReferralLink("AB12CD34"))
}

func TestExtractCodeFromLink(t *testing.T) {
	assert.Equal(t, "AB12CD34", ExtractCodeFromLink("https://app.example.com/signup?ref=AB12CD34"))
	assert.Equal(t, "AB12CD34", ExtractCodeFromLink("ab12cd34"))
	assert.Equal(t, "AB12CD34", ExtractCodeFromLink("  AB12CD34  "))
	assert.Equal(t, "", ExtractCodeFromLink(""))
}

func TestResolveCode(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	owner := store.User{ID: uuid.New(), ReferralCode: "AB12CD34"}
	mockStore.On("GetUserByReferralCode", mock.Anything, "AB12CD34").Return(owner, nil)

	got, err := p.ResolveCode(context.Background(), "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.ID)
}

func TestResolveCode_Unknown(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	mockStore.On("GetUserByReferralCode", mock.Anything, "NOPE1234").Return(store.User{}, store.ErrNotFound)

	_, err := p.ResolveCode(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestResolveCode_Empty(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	_, err := p.ResolveCode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestGetStats(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	userID := uuid.New()
	user := store.User{ID: userID, ReferralCode: "AB12CD34", TotalCommissionEarned: 300}
	mockStore.On("GetUserByID", mock.Anything, userID).Return(user, nil)
	mockStore.On("CountDirectReferrals", mock.Anything, userID).Return(3, nil)
	mockStore.On("SumPaidCommissions", mock.Anything, userID).Return(300.0, nil)

	stats, err := p.GetStats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DirectReferrals)
	assert.Equal(t, 300.0, stats.TotalCommissionEarned)
	assert.Equal(t, "https://app.example.com/signup?ref=AB12CD34", stats.ReferralLink)
}

func TestGetStats_UserNotFound(t *testing.T) {
	mockStore := new(mockReferralStore)
	p := newTestProcessor(t, mockStore)

	userID := uuid.New()
	mockStore.On("GetUserByID", mock.Anything, userID).Return(store.User{}, store.ErrNotFound)

	_, err := p.GetStats(context.Background(), userID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
