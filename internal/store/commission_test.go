package store

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func createAffiliate(t *testing.T, tdb *TestDB, email string) User {
	t.Helper()
	user, err := tdb.Store.CreateUser(tdb.WithContext(), CreateUserParams{
		Email:        email + "-" + uuid.New().String() + "@example.com",
		ReferralCode: "CODE" + uuid.New().String()[:8],
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestStore_AppendCommission_Idempotent(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")
	referred := createAffiliate(t, testDB, "referred")

	params := AppendCommissionParams{
		ReferrerID: referrer.ID,
		FromUserID: referred.ID,
		Amount:     100,
		Status:     CommissionStatusPaid,
	}

	first, created, err := testDB.Store.AppendCommission(ctx, params)
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if !created {
		t.Fatal("expected first append to create an entry")
	}

	second, created, err := testDB.Store.AppendCommission(ctx, params)
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if created {
		t.Error("expected second append to be a no-op")
	}
	if second.ID != first.ID {
		t.Errorf("expected the existing entry back, got %s want %s", second.ID, first.ID)
	}

	entries, err := testDB.Store.GetCommissionsByReferrer(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 ledger entry, got %d", len(entries))
	}

	updated, err := testDB.Store.GetUserByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get referrer: %v", err)
	}
	if updated.TotalCommissionEarned != 100 {
		t.Errorf("TotalCommissionEarned = %v, want 100", updated.TotalCommissionEarned)
	}
}

func TestStore_AppendCommission_ConcurrentSamePair(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")
	referred := createAffiliate(t, testDB, "referred")

	params := AppendCommissionParams{
		ReferrerID: referrer.ID,
		FromUserID: referred.ID,
		Amount:     50,
		Status:     CommissionStatusPaid,
	}

	const attempts = 8
	var wg sync.WaitGroup
	createdCount := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := testDB.Store.AppendCommission(ctx, params)
			if err != nil {
				t.Errorf("append failed: %v", err)
				return
			}
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	creates := 0
	for created := range createdCount {
		if created {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("expected exactly 1 successful create under contention, got %d", creates)
	}

	updated, err := testDB.Store.GetUserByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get referrer: %v", err)
	}
	if updated.TotalCommissionEarned != 50 {
		t.Errorf("TotalCommissionEarned = %v, want 50", updated.TotalCommissionEarned)
	}
}

func TestStore_AppendCommission_AggregateMatchesLedger(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")

	for i := 0; i < 5; i++ {
		referred := createAffiliate(t, testDB, "referred")
		_, _, err := testDB.Store.AppendCommission(ctx, AppendCommissionParams{
			ReferrerID: referrer.ID,
			FromUserID: referred.ID,
			Amount:     25,
			Status:     CommissionStatusPaid,
		})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	updated, err := testDB.Store.GetUserByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get referrer: %v", err)
	}
	ledgerSum, err := testDB.Store.SumPaidCommissions(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to sum ledger: %v", err)
	}
	if updated.TotalCommissionEarned != ledgerSum {
		t.Errorf("aggregate %v diverged from ledger sum %v", updated.TotalCommissionEarned, ledgerSum)
	}
	if ledgerSum != 125 {
		t.Errorf("ledger sum = %v, want 125", ledgerSum)
	}
}

func TestStore_MarkCommissionPaid_ExactlyOnce(t *testing.T) {
	t.Parallel()
	testDB := SetupTestDB(t)
	ctx := testDB.WithContext()

	referrer := createAffiliate(t, testDB, "referrer")
	referred := createAffiliate(t, testDB, "referred")
	admin := uuid.New()

	entry, created, err := testDB.Store.AppendCommission(ctx, AppendCommissionParams{
		ReferrerID: referrer.ID,
		FromUserID: referred.ID,
		Amount:     75,
		Status:     CommissionStatusPending,
	})
	if err != nil || !created {
		t.Fatalf("failed to create pending entry: created=%v err=%v", created, err)
	}

	// Pending entries do not count toward the total.
	afterPending, err := testDB.Store.GetUserByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get referrer: %v", err)
	}
	if afterPending.TotalCommissionEarned != 0 {
		t.Errorf("pending entry counted toward total: %v", afterPending.TotalCommissionEarned)
	}

	paid, transitioned, err := testDB.Store.MarkCommissionPaid(ctx, entry.ID, referrer.ID, &admin)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if !transitioned {
		t.Fatal("expected first mark-paid to transition the entry")
	}
	if paid.Status != CommissionStatusPaid {
		t.Errorf("Status = %v, want paid", paid.Status)
	}

	// Second transition is a no-op and must not double the total.
	_, transitioned, err = testDB.Store.MarkCommissionPaid(ctx, entry.ID, referrer.ID, &admin)
	if err != nil {
		t.Fatalf("second mark paid failed: %v", err)
	}
	if transitioned {
		t.Error("expected second mark-paid to be a no-op")
	}

	updated, err := testDB.Store.GetUserByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("failed to get referrer: %v", err)
	}
	if updated.TotalCommissionEarned != 75 {
		t.Errorf("TotalCommissionEarned = %v, want 75", updated.TotalCommissionEarned)
	}
}
