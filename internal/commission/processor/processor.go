// Package processor implements the commission ledger: crediting referrers
// when their referrals activate, approving payouts, and reading ledgers.
//
// Crediting is at-most-once per source user. The guard is the ledger's
// unique (referrer_id, from_user_id) constraint, so concurrent credits for
// the same activation collapse into a single entry regardless of which
// instance or goroutine wins.
package processor

import (
	"context"
	"errors"

	"backoffice-server/internal/monitoring"
	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrInvalidAmount      = errors.New("commission amount must be positive")
)

type CommissionProcessor struct {
	store    CommissionStore
	amount   float64
	notifier Notifier
	logger   *observability.Logger
}

// New creates a CommissionProcessor. amount is the flat commission credited
// per activated referral, in USDT. notifier may be nil, in which case no
// commission emails are sent.
func New(store CommissionStore, amount float64, notifier Notifier, logger *observability.Logger) CommissionProcessor {
	return CommissionProcessor{
		store:    store,
		amount:   amount,
		notifier: notifier,
		logger:   logger,
	}
}

// CreditResult reports the outcome of a credit attempt.
type CreditResult struct {
	// Credited is false when the source user has no referrer.
	Credited bool
	// Created is false when the ledger already held an entry for this
	// source user and the call was a no-op.
	Created    bool
	Commission store.Commission
	Referrer   store.User
}

// CreditCommission credits the referrer of fromUserID with the flat
// commission amount, paid immediately. approvedBy and notes are optional
// audit fields recorded on the ledger entry; the automatic activation path
// passes nil for both. Calling it again for the same source user is a no-op
// that returns the existing entry. A source user without a referrer yields
// Credited=false and no error.
func (p *CommissionProcessor) CreditCommission(ctx context.Context, fromUserID uuid.UUID, approvedBy *uuid.UUID, notes *string) (CreditResult, error) {
	return p.credit(ctx, fromUserID, store.CommissionStatusPaid, approvedBy, notes)
}

// CreditPendingCommission is the administrative variant: the entry is
// created pending and rolls into the referrer's total only once approved.
func (p *CommissionProcessor) CreditPendingCommission(ctx context.Context, fromUserID uuid.UUID, approvedBy *uuid.UUID, notes *string) (CreditResult, error) {
	return p.credit(ctx, fromUserID, store.CommissionStatusPending, approvedBy, notes)
}

func (p *CommissionProcessor) credit(ctx context.Context, fromUserID uuid.UUID, status string, approvedBy *uuid.UUID, notes *string) (CreditResult, error) {
	if p.amount <= 0 {
		return CreditResult{}, ErrInvalidAmount
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "from_user_id", Value: fromUserID.String()})

	fromUser, err := p.store.GetUserByID(ctx, fromUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CreditResult{}, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to load source user", err)
		return CreditResult{}, err
	}

	if fromUser.ReferredByID == nil {
		p.logger.Info(ctx, "source user has no referrer, nothing to credit")
		return CreditResult{}, nil
	}

	referrerID := *fromUser.ReferredByID
	ctx = observability.WithFields(ctx, observability.Field{Key: "referrer_id", Value: referrerID.String()})

	referrer, err := p.store.GetUserByID(ctx, referrerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Referrer row deleted out from under us. Treat as unreferred.
			p.logger.Warn(ctx, "referrer no longer exists, skipping credit")
			return CreditResult{}, nil
		}
		p.logger.Error(ctx, "failed to load referrer", err)
		return CreditResult{}, err
	}

	commission, created, err := p.store.AppendCommission(ctx, store.AppendCommissionParams{
		ReferrerID: referrerID,
		FromUserID: fromUserID,
		Amount:     p.amount,
		Status:     status,
		ApprovedBy: approvedBy,
		Notes:      notes,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to append commission", err)
		return CreditResult{}, err
	}

	if created {
		monitoring.CommissionsCreditedTotal.Inc()
		monitoring.CommissionsCreditedAmount.Add(p.amount)
		p.logger.Info(ctx, "commission credited",
			observability.Field{Key: "commission_id", Value: commission.ID.String()},
			observability.Field{Key: "amount", Value: p.amount},
		)
		if status == store.CommissionStatusPaid {
			p.notify(ctx, referrer, commission.Amount)
		}
	} else {
		monitoring.CommissionsDuplicateTotal.Inc()
		p.logger.Info(ctx, "commission already credited for this source user",
			observability.Field{Key: "commission_id", Value: commission.ID.String()},
		)
	}

	return CreditResult{
		Credited:   true,
		Created:    created,
		Commission: commission,
		Referrer:   referrer,
	}, nil
}

// ApproveCommission transitions a pending entry to paid and rolls its amount
// into the referrer's running total. Approving an already-paid entry is a
// no-op returning the entry unchanged.
func (p *CommissionProcessor) ApproveCommission(ctx context.Context, commissionID, referrerID uuid.UUID, approvedBy *uuid.UUID) (store.Commission, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "commission_id", Value: commissionID.String()},
		observability.Field{Key: "referrer_id", Value: referrerID.String()},
	)

	commission, transitioned, err := p.store.MarkCommissionPaid(ctx, commissionID, referrerID, approvedBy)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Commission{}, ErrCommissionNotFound
		}
		p.logger.Error(ctx, "failed to approve commission", err)
		return store.Commission{}, err
	}

	if transitioned {
		p.logger.Info(ctx, "commission approved and paid")
		if p.notifier != nil {
			referrer, err := p.store.GetUserByID(ctx, referrerID)
			if err != nil {
				p.logger.Warn(ctx, "failed to load referrer for commission email",
					observability.Field{Key: "error", Value: err.Error()},
				)
			} else {
				p.notify(ctx, referrer, commission.Amount)
			}
		}
	} else {
		p.logger.Info(ctx, "commission already paid, approval is a no-op")
	}
	return commission, nil
}

// notify emails the referrer about a paid commission. Failures never
// propagate back into the credit or approval path.
func (p *CommissionProcessor) notify(ctx context.Context, referrer store.User, amount float64) {
	if p.notifier == nil {
		return
	}

	firstName := ""
	if referrer.FirstName != nil {
		firstName = *referrer.FirstName
	}
	if err := p.notifier.SendCommissionEarnedEmail(ctx, referrer.Email, firstName, amount); err != nil {
		p.logger.Warn(ctx, "failed to send commission earned email",
			observability.Field{Key: "error", Value: err.Error()},
		)
	}
}

// Ledger is a referrer's full commission history with aggregate totals.
// TotalEarned comes from the stored aggregate, which the store keeps in
// lockstep with paid entries inside the crediting transaction.
type Ledger struct {
	ReferrerID   uuid.UUID          `json:"referrer_id"`
	Entries      []store.Commission `json:"entries"`
	PendingTotal float64            `json:"pending_total"`
	PaidTotal    float64            `json:"paid_total"`
	TotalEarned  float64            `json:"total_earned"`
}

// GetLedger returns all commission entries for a referrer, newest first,
// with pending and paid totals computed from the entries themselves.
func (p *CommissionProcessor) GetLedger(ctx context.Context, referrerID uuid.UUID) (Ledger, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "referrer_id", Value: referrerID.String()})

	referrer, err := p.store.GetUserByID(ctx, referrerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Ledger{}, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to load referrer", err)
		return Ledger{}, err
	}

	entries, err := p.store.GetCommissionsByReferrer(ctx, referrerID)
	if err != nil {
		p.logger.Error(ctx, "failed to load commission ledger", err)
		return Ledger{}, err
	}
	if entries == nil {
		entries = []store.Commission{}
	}

	ledger := Ledger{
		ReferrerID:  referrerID,
		Entries:     entries,
		TotalEarned: referrer.TotalCommissionEarned,
	}
	for _, entry := range entries {
		switch entry.Status {
		case store.CommissionStatusPaid:
			ledger.PaidTotal += entry.Amount
		case store.CommissionStatusPending:
			ledger.PendingTotal += entry.Amount
		}
	}
	return ledger, nil
}
