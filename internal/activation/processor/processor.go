// Package processor implements the lead activation workflow: promoting CRM
// leads to platform users, linking referrers best-effort, crediting
// commissions, and running bulk activation jobs with live progress.
package processor

import (
	"context"
	"errors"
	"strings"

	"backoffice-server/internal/monitoring"
	"backoffice-server/internal/observability"
	"backoffice-server/internal/progress"
	referralprocessor "backoffice-server/internal/referral/processor"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound         = errors.New("lead not found")
	ErrInvalidLead          = errors.New("lead is missing required fields")
	ErrLeadAlreadyActivated = errors.New("lead already activated")
	ErrEmptyBatch           = errors.New("lead batch is empty")
)

type ActivationProcessor struct {
	store      ActivationStore
	referral   ReferralService
	commission CommissionService
	progress   progress.Store
	emailQueue EmailQueue
	logger     *observability.Logger
}

func New(
	store ActivationStore,
	referral ReferralService,
	commission CommissionService,
	progressStore progress.Store,
	emailQueue EmailQueue,
	logger *observability.Logger,
) ActivationProcessor {
	return ActivationProcessor{
		store:      store,
		referral:   referral,
		commission: commission,
		progress:   progressStore,
		emailQueue: emailQueue,
		logger:     logger,
	}
}

// ActivationResult describes a successful activation. Partial is set when
// the user was created but the referral side degraded (lookup outage,
// commission write failure); the item still counts as activated.
type ActivationResult struct {
	Lead              store.Lead `json:"lead"`
	User              store.User `json:"user"`
	ReferralLink      string     `json:"referral_link"`
	ReferrerLinked    bool       `json:"referrer_linked"`
	CommissionCreated bool       `json:"commission_created"`
	Partial           bool       `json:"partial"`
}

// ActivateLead promotes a single lead to an active platform user.
//
// The user side is authoritative: lead validation, user creation, and the
// final lead update are fatal on error. The referral side is best-effort: an
// unknown or stale referral code, a failed referrer lookup, or a failed
// commission write degrade the result instead of failing it.
func (p *ActivationProcessor) ActivateLead(ctx context.Context, leadID uuid.UUID) (ActivationResult, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "lead_id", Value: leadID.String()})

	lead, err := p.store.GetLeadByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ActivationResult{}, ErrLeadNotFound
		}
		p.logger.Error(ctx, "failed to load lead", err)
		return ActivationResult{}, err
	}

	if lead.Status == store.LeadStatusActivated || lead.ActivatedUserID != nil {
		return ActivationResult{}, ErrLeadAlreadyActivated
	}
	if !strings.Contains(lead.Email, "@") {
		return ActivationResult{}, ErrInvalidLead
	}

	referralCode, err := p.referral.GenerateCode(ctx)
	if err != nil {
		p.logger.Error(ctx, "failed to generate referral code for lead", err)
		return ActivationResult{}, err
	}

	// Create-or-get: re-running a failed activation for the same email
	// returns the existing user instead of erroring.
	user, err := p.store.CreateUser(ctx, store.CreateUserParams{
		Email:        strings.ToLower(strings.TrimSpace(lead.Email)),
		FirstName:    lead.FirstName,
		LastName:     lead.LastName,
		ReferralCode: referralCode,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create user for lead", err)
		return ActivationResult{}, err
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "user_id", Value: user.ID.String()})

	if err := p.store.ActivateUserAffiliate(ctx, user.ID); err != nil {
		p.logger.Error(ctx, "failed to activate user affiliate status", err)
		return ActivationResult{}, err
	}

	result := ActivationResult{
		Lead:         lead,
		User:         user,
		ReferralLink: p.referral.BuildReferralLink(user.ReferralCode),
	}
	p.linkReferrer(ctx, lead, user, &result)

	if err := p.store.MarkLeadActivated(ctx, lead.ID, user.ID); err != nil {
		p.logger.Error(ctx, "failed to mark lead activated", err)
		return ActivationResult{}, err
	}

	monitoring.LeadsActivatedTotal.WithLabelValues("activated").Inc()
	p.logger.Info(ctx, "lead activated",
		observability.Field{Key: "referrer_linked", Value: result.ReferrerLinked},
		observability.Field{Key: "partial", Value: result.Partial},
	)
	return result, nil
}

// linkReferrer resolves the lead's referral code and wires the new user into
// the referral graph. Every failure here is non-fatal.
func (p *ActivationProcessor) linkReferrer(ctx context.Context, lead store.Lead, user store.User, result *ActivationResult) {
	if lead.ReferralCode == nil || strings.TrimSpace(*lead.ReferralCode) == "" {
		return
	}

	referrer, err := p.referral.ResolveCode(ctx, *lead.ReferralCode)
	if err != nil {
		if errors.Is(err, referralprocessor.ErrInvalidReferralCode) {
			p.logger.Warn(ctx, "lead carries unknown referral code, activating without link",
				observability.Field{Key: "lead_referral_code", Value: *lead.ReferralCode},
			)
			return
		}
		p.logger.Error(ctx, "referrer lookup failed, activating without link", err)
		result.Partial = true
		return
	}

	if referrer.ID == user.ID {
		p.logger.Warn(ctx, "lead referral code resolves to the activated user, skipping self-referral")
		return
	}

	if err := p.store.SetReferredBy(ctx, user.ID, referrer.ID); err != nil {
		if errors.Is(err, store.ErrReferrerAlreadySet) {
			// Set-once: an earlier run linked a different referrer. The
			// commission guard below still keys on the stored referrer.
			p.logger.Info(ctx, "user already has a referrer, keeping existing link")
		} else {
			p.logger.Error(ctx, "failed to link referrer", err)
			result.Partial = true
			return
		}
	} else {
		result.ReferrerLinked = true
	}

	creditResult, err := p.commission.CreditCommission(ctx, user.ID, nil, nil)
	if err != nil {
		p.logger.Error(ctx, "failed to credit commission, user remains activated", err)
		result.Partial = true
		return
	}
	result.CommissionCreated = creditResult.Created
}
