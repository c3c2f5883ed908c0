package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestStore_CreateUser_CreateOrGet(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	email := "dup-" + uuid.New().String() + "@example.com"

	first, err := testDB.Store.CreateUser(ctx, CreateUserParams{
		Email:        email,
		ReferralCode: "FIRST" + uuid.New().String()[:8],
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same email again: the existing row comes back, the original referral
	// code stays.
	second, err := testDB.Store.CreateUser(ctx, CreateUserParams{
		Email:        email,
		ReferralCode: "SECOND" + uuid.New().String()[:8],
	})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected existing user back, got %s want %s", second.ID, first.ID)
	}
	if second.ReferralCode != first.ReferralCode {
		t.Errorf("referral code was overwritten: %s -> %s", first.ReferralCode, second.ReferralCode)
	}
}

func TestStore_SetReferredBy_SetOnce(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")
	other := createAffiliate(t, testDB, "other")
	child := createAffiliate(t, testDB, "child")

	if err := testDB.Store.SetReferredBy(ctx, child.ID, referrer.ID); err != nil {
		t.Fatalf("first link failed: %v", err)
	}

	// Linking to the same referrer again is a no-op.
	if err := testDB.Store.SetReferredBy(ctx, child.ID, referrer.ID); err != nil {
		t.Errorf("re-link to same referrer should be a no-op, got %v", err)
	}

	// Linking to a different referrer is rejected.
	err := testDB.Store.SetReferredBy(ctx, child.ID, other.ID)
	if !errors.Is(err, ErrReferrerAlreadySet) {
		t.Errorf("expected ErrReferrerAlreadySet, got %v", err)
	}

	updated, err := testDB.Store.GetUserByID(ctx, child.ID)
	if err != nil {
		t.Fatalf("failed to get child: %v", err)
	}
	if updated.ReferredByID == nil || *updated.ReferredByID != referrer.ID {
		t.Errorf("ReferredByID = %v, want %s", updated.ReferredByID, referrer.ID)
	}
}

func TestStore_DirectReferrals_Symmetry(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")

	children := make(map[uuid.UUID]bool)
	for i := 0; i < 3; i++ {
		child := createAffiliate(t, testDB, "child")
		if err := testDB.Store.SetReferredBy(ctx, child.ID, referrer.ID); err != nil {
			t.Fatalf("link failed: %v", err)
		}
		children[child.ID] = true
	}

	direct, err := testDB.Store.GetDirectReferrals(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get direct referrals: %v", err)
	}
	if len(direct) != len(children) {
		t.Fatalf("expected %d direct referrals, got %d", len(children), len(direct))
	}
	for _, u := range direct {
		if !children[u.ID] {
			t.Errorf("unexpected direct referral %s", u.ID)
		}
		if u.ReferredByID == nil || *u.ReferredByID != referrer.ID {
			t.Errorf("asymmetric link for %s: ReferredByID = %v", u.ID, u.ReferredByID)
		}
	}

	count, err := testDB.Store.CountDirectReferrals(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to count direct referrals: %v", err)
	}
	if count != len(children) {
		t.Errorf("count = %d, want %d", count, len(children))
	}
}

func TestStore_ActivateUserAffiliate_OneWay(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	user := createAffiliate(t, testDB, "user")
	if user.AffiliateStatus != AffiliateStatusInactive {
		t.Fatalf("new user should be inactive, got %s", user.AffiliateStatus)
	}

	if err := testDB.Store.ActivateUserAffiliate(ctx, user.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	// Second activation is idempotent.
	if err := testDB.Store.ActivateUserAffiliate(ctx, user.ID); err != nil {
		t.Errorf("re-activate should be a no-op, got %v", err)
	}

	updated, err := testDB.Store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if updated.AffiliateStatus != AffiliateStatusActive {
		t.Errorf("AffiliateStatus = %s, want active", updated.AffiliateStatus)
	}

	if err := testDB.Store.ActivateUserAffiliate(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}
