package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrReferrerAlreadySet is returned when attempting to re-link a user to a
// different referrer. The referrer link is set at most once.
var ErrReferrerAlreadySet = errors.New("referrer already set")

// CreateUserParams represents parameters for creating a user
type CreateUserParams struct {
	Email        string
	FirstName    *string
	LastName     *string
	ReferralCode string
	ReferredByID *uuid.UUID
}

const userColumns = `id, email, first_name, last_name, referral_code, referred_by_id, affiliate_status, total_commission_earned, created_at, updated_at`

const sqlCreateUser = `
INSERT INTO users (email, first_name, last_name, referral_code, referred_by_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
RETURNING ` + userColumns

// CreateUser creates a user, or returns the existing row when the email is
// already registered (create-or-get, atomic under concurrent callers).
func (s *Store) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlCreateUser,
		params.Email,
		params.FirstName,
		params.LastName,
		params.ReferralCode,
		params.ReferredByID)
	if err != nil {
		s.logger.Error(ctx, "failed to create user", err)
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

const sqlGetUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get user by id", err)
		return User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

const sqlGetUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByEmail, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get user by email", err)
		return User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

const sqlGetUserByReferralCode = `
SELECT ` + userColumns + `
FROM users
WHERE referral_code = $1
`

// GetUserByReferralCode retrieves a user by their referral code
func (s *Store) GetUserByReferralCode(ctx context.Context, referralCode string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByReferralCode, referralCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get user by referral code", err)
		return User{}, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

const sqlReferralCodeExists = `
SELECT EXISTS (SELECT 1 FROM users WHERE referral_code = $1)
`

// ReferralCodeExists reports whether a referral code is already assigned
func (s *Store) ReferralCodeExists(ctx context.Context, referralCode string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, sqlReferralCodeExists, referralCode)
	if err != nil {
		s.logger.Error(ctx, "failed to check referral code existence", err)
		return false, fmt.Errorf("failed to check referral code existence: %w", err)
	}
	return exists, nil
}

const sqlSetReferredBy = `
UPDATE users
SET referred_by_id = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND (referred_by_id IS NULL OR referred_by_id = $2)
`

// SetReferredBy links a user to their referrer. The link is set at most once:
// re-linking to the same referrer is a no-op, re-linking to a different
// referrer returns ErrReferrerAlreadySet.
func (s *Store) SetReferredBy(ctx context.Context, userID, referrerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlSetReferredBy, userID, referrerID)
	if err != nil {
		s.logger.Error(ctx, "failed to set referrer", err)
		return fmt.Errorf("failed to set referrer: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Either the user does not exist or is already linked elsewhere.
		if _, err := s.GetUserByID(ctx, userID); err != nil {
			return err
		}
		return ErrReferrerAlreadySet
	}

	return nil
}

const sqlActivateUserAffiliate = `
UPDATE users
SET affiliate_status = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND affiliate_status = $3
`

// ActivateUserAffiliate transitions a user from inactive to active.
// The transition is one-way and idempotent.
func (s *Store) ActivateUserAffiliate(ctx context.Context, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlActivateUserAffiliate, userID, AffiliateStatusActive, AffiliateStatusInactive)
	if err != nil {
		s.logger.Error(ctx, "failed to activate user affiliate status", err)
		return fmt.Errorf("failed to activate user affiliate status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Already active or missing; distinguish the two.
		if _, err := s.GetUserByID(ctx, userID); err != nil {
			return err
		}
	}

	return nil
}

const sqlGetDirectReferrals = `
SELECT ` + userColumns + `
FROM users
WHERE referred_by_id = $1
ORDER BY created_at ASC, id ASC
`

// GetDirectReferrals retrieves the users directly referred by a referrer.
// Ordering is stable across calls against unchanged data.
func (s *Store) GetDirectReferrals(ctx context.Context, referrerID uuid.UUID) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users, sqlGetDirectReferrals, referrerID)
	if err != nil {
		s.logger.Error(ctx, "failed to get direct referrals", err)
		return nil, fmt.Errorf("failed to get direct referrals: %w", err)
	}
	return users, nil
}

const sqlCountDirectReferrals = `
SELECT COUNT(*)
FROM users
WHERE referred_by_id = $1
`

// CountDirectReferrals counts the users directly referred by a referrer
func (s *Store) CountDirectReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountDirectReferrals, referrerID)
	if err != nil {
		s.logger.Error(ctx, "failed to count direct referrals", err)
		return 0, fmt.Errorf("failed to count direct referrals: %w", err)
	}
	return count, nil
}
