package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateLeadParams represents parameters for creating a CRM lead
type CreateLeadParams struct {
	Email        string
	FirstName    *string
	LastName     *string
	Phone        *string
	ReferralCode *string
	Notes        *string
	Metadata     JSONB
}

// UpdateLeadParams represents parameters for updating a CRM lead
type UpdateLeadParams struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Status       *string
	ReferralCode *string
	Notes        *string
	Metadata     JSONB
}

const leadColumns = `id, email, first_name, last_name, phone, status, referral_code, activated_user_id, notes, metadata, created_at, updated_at, activated_at`

const sqlCreateLead = `
INSERT INTO leads (email, first_name, last_name, phone, referral_code, notes, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + leadColumns

// CreateLead creates a new CRM lead
func (s *Store) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var lead Lead
	err := s.db.GetContext(ctx, &lead, sqlCreateLead,
		params.Email,
		params.FirstName,
		params.LastName,
		params.Phone,
		params.ReferralCode,
		params.Notes,
		params.Metadata)
	if err != nil {
		s.logger.Error(ctx, "failed to create lead", err)
		return Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

const sqlGetLeadByID = `
SELECT ` + leadColumns + `
FROM leads
WHERE id = $1
`

// GetLeadByID retrieves a lead by ID
func (s *Store) GetLeadByID(ctx context.Context, leadID uuid.UUID) (Lead, error) {
	var lead Lead
	err := s.db.GetContext(ctx, &lead, sqlGetLeadByID, leadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get lead by id", err)
		return Lead{}, fmt.Errorf("failed to get lead by id: %w", err)
	}
	return lead, nil
}

const sqlListLeads = `
SELECT ` + leadColumns + `
FROM leads
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

// ListLeads retrieves leads with optional status filter and pagination
func (s *Store) ListLeads(ctx context.Context, status *string, limit, offset int) ([]Lead, error) {
	var leads []Lead
	err := s.db.SelectContext(ctx, &leads, sqlListLeads, status, limit, offset)
	if err != nil {
		s.logger.Error(ctx, "failed to list leads", err)
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

const sqlCountLeads = `
SELECT COUNT(*)
FROM leads
WHERE ($1::text IS NULL OR status = $1)
`

// CountLeads counts leads with optional status filter
func (s *Store) CountLeads(ctx context.Context, status *string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountLeads, status)
	if err != nil {
		s.logger.Error(ctx, "failed to count leads", err)
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

const sqlUpdateLead = `
UPDATE leads
SET first_name = COALESCE($2, first_name),
    last_name = COALESCE($3, last_name),
    phone = COALESCE($4, phone),
    status = COALESCE($5, status),
    referral_code = COALESCE($6, referral_code),
    notes = COALESCE($7, notes),
    metadata = COALESCE($8, metadata),
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING ` + leadColumns

// UpdateLead updates a lead's editable fields
func (s *Store) UpdateLead(ctx context.Context, leadID uuid.UUID, params UpdateLeadParams) (Lead, error) {
	var lead Lead
	err := s.db.GetContext(ctx, &lead, sqlUpdateLead,
		leadID,
		params.FirstName,
		params.LastName,
		params.Phone,
		params.Status,
		params.ReferralCode,
		params.Notes,
		params.Metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update lead", err)
		return Lead{}, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

const sqlMarkLeadActivated = `
UPDATE leads
SET status = 'activated',
    activated_user_id = $2,
    activated_at = CURRENT_TIMESTAMP,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status <> 'activated'
`

// MarkLeadActivated records the lead-to-user conversion. Idempotent: marking
// an already-activated lead affects no rows and returns nil.
func (s *Store) MarkLeadActivated(ctx context.Context, leadID, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlMarkLeadActivated, leadID, userID)
	if err != nil {
		s.logger.Error(ctx, "failed to mark lead activated", err)
		return fmt.Errorf("failed to mark lead activated: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		if _, err := s.GetLeadByID(ctx, leadID); err != nil {
			return err
		}
	}

	return nil
}
