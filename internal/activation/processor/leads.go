package processor

import (
	"context"
	"errors"
	"strings"

	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

// CreateLeadRequest carries the fields accepted when registering a lead.
type CreateLeadRequest struct {
	Email        string
	FirstName    *string
	LastName     *string
	Phone        *string
	ReferralCode *string
	Notes        *string
	Metadata     store.JSONB
}

// CreateLead registers a new CRM lead.
func (p *ActivationProcessor) CreateLead(ctx context.Context, req CreateLeadRequest) (store.Lead, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return store.Lead{}, ErrInvalidLead
	}

	var referralCode *string
	if req.ReferralCode != nil {
		if code := strings.ToUpper(strings.TrimSpace(*req.ReferralCode)); code != "" {
			referralCode = &code
		}
	}

	lead, err := p.store.CreateLead(ctx, store.CreateLeadParams{
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		ReferralCode: referralCode,
		Notes:        req.Notes,
		Metadata:     req.Metadata,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create lead", err)
		return store.Lead{}, err
	}
	return lead, nil
}

// UpdateLeadRequest carries the editable lead fields. Nil fields keep the
// stored value.
type UpdateLeadRequest struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Status       *string
	ReferralCode *string
	Notes        *string
	Metadata     store.JSONB
}

// UpdateLead edits a lead's CRM fields. Activation status is owned by the
// activation flow, so "activated" cannot be set here.
func (p *ActivationProcessor) UpdateLead(ctx context.Context, leadID uuid.UUID, req UpdateLeadRequest) (store.Lead, error) {
	if req.Status != nil {
		switch *req.Status {
		case store.LeadStatusNew, store.LeadStatusContacted:
		default:
			return store.Lead{}, ErrInvalidLead
		}
	}
	if req.ReferralCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.ReferralCode))
		req.ReferralCode = &code
	}

	lead, err := p.store.UpdateLead(ctx, leadID, store.UpdateLeadParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Status:       req.Status,
		ReferralCode: req.ReferralCode,
		Notes:        req.Notes,
		Metadata:     req.Metadata,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Lead{}, ErrLeadNotFound
		}
		p.logger.Error(ctx, "failed to update lead", err)
		return store.Lead{}, err
	}
	return lead, nil
}

// GetLead fetches one lead by id.
func (p *ActivationProcessor) GetLead(ctx context.Context, leadID uuid.UUID) (store.Lead, error) {
	lead, err := p.store.GetLeadByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Lead{}, ErrLeadNotFound
		}
		p.logger.Error(ctx, "failed to get lead", err)
		return store.Lead{}, err
	}
	return lead, nil
}

// LeadPage is one page of the lead list.
type LeadPage struct {
	Leads      []store.Lead `json:"leads"`
	TotalCount int          `json:"total_count"`
	HasMore    bool         `json:"has_more"`
}

// ListLeads returns a page of leads, optionally filtered by status.
func (p *ActivationProcessor) ListLeads(ctx context.Context, status *string, page, limit int) (LeadPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "page", Value: page},
		observability.Field{Key: "limit", Value: limit},
	)

	offset := (page - 1) * limit
	leads, err := p.store.ListLeads(ctx, status, limit, offset)
	if err != nil {
		p.logger.Error(ctx, "failed to list leads", err)
		return LeadPage{}, err
	}
	if leads == nil {
		leads = []store.Lead{}
	}

	totalCount, err := p.store.CountLeads(ctx, status)
	if err != nil {
		p.logger.Error(ctx, "failed to count leads", err)
		return LeadPage{}, err
	}

	return LeadPage{
		Leads:      leads,
		TotalCount: totalCount,
		HasMore:    page*limit < totalCount,
	}, nil
}
