package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// AppendCommissionParams represents parameters for appending a ledger entry
type AppendCommissionParams struct {
	ReferrerID uuid.UUID
	FromUserID uuid.UUID
	Amount     float64
	Status     string
	ApprovedBy *uuid.UUID
	Notes      *string
}

const commissionColumns = `id, referrer_id, from_user_id, amount, status, approved_by, notes, created_at, paid_at, updated_at`

const sqlAppendCommission = `
INSERT INTO commissions (referrer_id, from_user_id, amount, status, approved_by, notes, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $4 = 'paid' THEN CURRENT_TIMESTAMP ELSE NULL END)
ON CONFLICT (referrer_id, from_user_id) DO NOTHING
RETURNING ` + commissionColumns

const sqlAddToTotalCommission = `
UPDATE users
SET total_commission_earned = total_commission_earned + $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// AppendCommission appends a ledger entry for (referrer, fromUser), keyed on
// fromUserID. The check-then-append is a single INSERT guarded by the unique
// constraint, so two concurrent appends for the same pair cannot both
// succeed. When the pair is already credited, the existing entry is returned
// with created=false and nothing is written.
//
// The referrer's total is updated in the same transaction as the insert so
// the aggregate never diverges from the ledger.
func (s *Store) AppendCommission(ctx context.Context, params AppendCommissionParams) (Commission, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error(ctx, "failed to begin transaction", err)
		return Commission{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var entry Commission
	err = tx.GetContext(ctx, &entry, sqlAppendCommission,
		params.ReferrerID,
		params.FromUserID,
		params.Amount,
		params.Status,
		params.ApprovedBy,
		params.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict: the pair is already credited. Return the existing
			// entry without touching the ledger or the total.
			existing, getErr := s.GetCommissionByReferrerAndSource(ctx, params.ReferrerID, params.FromUserID)
			if getErr != nil {
				return Commission{}, false, getErr
			}
			return existing, false, nil
		}
		s.logger.Error(ctx, "failed to append commission", err)
		return Commission{}, false, fmt.Errorf("failed to append commission: %w", err)
	}

	if entry.Status == CommissionStatusPaid {
		if _, err := tx.ExecContext(ctx, sqlAddToTotalCommission, params.ReferrerID, params.Amount); err != nil {
			s.logger.Error(ctx, "failed to update total commission earned", err)
			return Commission{}, false, fmt.Errorf("failed to update total commission earned: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error(ctx, "failed to commit commission append", err)
		return Commission{}, false, fmt.Errorf("failed to commit commission append: %w", err)
	}

	return entry, true, nil
}

const sqlMarkCommissionPaid = `
UPDATE commissions
SET status = 'paid', approved_by = $3, paid_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND referrer_id = $2 AND status = 'pending'
RETURNING ` + commissionColumns

// MarkCommissionPaid transitions a pending entry to paid exactly once and
// folds its amount into the referrer's total in the same transaction.
// Marking an already-paid entry is a no-op that returns the existing entry.
func (s *Store) MarkCommissionPaid(ctx context.Context, commissionID, referrerID uuid.UUID, approvedBy *uuid.UUID) (Commission, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error(ctx, "failed to begin transaction", err)
		return Commission{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var entry Commission
	err = tx.GetContext(ctx, &entry, sqlMarkCommissionPaid, commissionID, referrerID, approvedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Not pending: either already paid (no-op) or missing.
			existing, getErr := s.GetCommissionByID(ctx, commissionID, referrerID)
			if getErr != nil {
				return Commission{}, false, getErr
			}
			return existing, false, nil
		}
		s.logger.Error(ctx, "failed to mark commission paid", err)
		return Commission{}, false, fmt.Errorf("failed to mark commission paid: %w", err)
	}

	if _, err := tx.ExecContext(ctx, sqlAddToTotalCommission, referrerID, entry.Amount); err != nil {
		s.logger.Error(ctx, "failed to update total commission earned", err)
		return Commission{}, false, fmt.Errorf("failed to update total commission earned: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error(ctx, "failed to commit commission payment", err)
		return Commission{}, false, fmt.Errorf("failed to commit commission payment: %w", err)
	}

	return entry, true, nil
}

const sqlGetCommissionByID = `
SELECT ` + commissionColumns + `
FROM commissions
WHERE id = $1 AND referrer_id = $2
`

// GetCommissionByID retrieves a single ledger entry
func (s *Store) GetCommissionByID(ctx context.Context, commissionID, referrerID uuid.UUID) (Commission, error) {
	var entry Commission
	err := s.db.GetContext(ctx, &entry, sqlGetCommissionByID, commissionID, referrerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Commission{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get commission", err)
		return Commission{}, fmt.Errorf("failed to get commission: %w", err)
	}
	return entry, nil
}

const sqlGetCommissionByReferrerAndSource = `
SELECT ` + commissionColumns + `
FROM commissions
WHERE referrer_id = $1 AND from_user_id = $2
`

// GetCommissionByReferrerAndSource retrieves the ledger entry keyed on the
// referred user, if one exists
func (s *Store) GetCommissionByReferrerAndSource(ctx context.Context, referrerID, fromUserID uuid.UUID) (Commission, error) {
	var entry Commission
	err := s.db.GetContext(ctx, &entry, sqlGetCommissionByReferrerAndSource, referrerID, fromUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Commission{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get commission by source", err)
		return Commission{}, fmt.Errorf("failed to get commission by source: %w", err)
	}
	return entry, nil
}

const sqlGetCommissionsByReferrer = `
SELECT ` + commissionColumns + `
FROM commissions
WHERE referrer_id = $1
ORDER BY created_at DESC, id DESC
`

// GetCommissionsByReferrer retrieves a referrer's full commission ledger
func (s *Store) GetCommissionsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]Commission, error) {
	var entries []Commission
	err := s.db.SelectContext(ctx, &entries, sqlGetCommissionsByReferrer, referrerID)
	if err != nil {
		s.logger.Error(ctx, "failed to get commissions by referrer", err)
		return nil, fmt.Errorf("failed to get commissions by referrer: %w", err)
	}
	return entries, nil
}

const sqlSumPaidCommissions = `
SELECT COALESCE(SUM(amount), 0)
FROM commissions
WHERE referrer_id = $1 AND status = 'paid'
`

// SumPaidCommissions re-derives the paid total from the ledger. Used by
// consistency checks; the authoritative aggregate lives on the user row.
func (s *Store) SumPaidCommissions(ctx context.Context, referrerID uuid.UUID) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total, sqlSumPaidCommissions, referrerID)
	if err != nil {
		s.logger.Error(ctx, "failed to sum paid commissions", err)
		return 0, fmt.Errorf("failed to sum paid commissions: %w", err)
	}
	return total, nil
}
