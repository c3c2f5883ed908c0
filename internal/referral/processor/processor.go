// Package processor implements referral program operations: code resolution,
// referral links, per-user stats, and the downline tree.
package processor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidReferralCode = errors.New("invalid referral code")
)

type ReferralProcessor struct {
	store     ReferralStore
	codeGen   *CodeGenerator
	webAppURI string
	logger    *observability.Logger
}

func New(store ReferralStore, codeGen *CodeGenerator, webAppURI string, logger *observability.Logger) ReferralProcessor {
	return ReferralProcessor{
		store:     store,
		codeGen:   codeGen,
		webAppURI: strings.TrimSuffix(webAppURI, "/"),
		logger:    logger,
	}
}

// GenerateCode produces a fresh unique referral code.
func (p *ReferralProcessor) GenerateCode(ctx context.Context) (string, error) {
	return p.codeGen.Generate(ctx)
}

// BuildReferralLink renders the public signup link for a referral code.
func (p *ReferralProcessor) BuildReferralLink(referralCode string) string {
	return fmt.Sprintf("%s/signup?ref=%s", p.webAppURI, url.QueryEscape(referralCode))
}

// ExtractCodeFromLink pulls the referral code out of a signup link. It
// accepts either a full link or a bare code.
func ExtractCodeFromLink(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return NormalizeCode(trimmed)
	}
	if ref := parsed.Query().Get("ref"); ref != "" {
		return NormalizeCode(ref)
	}
	return NormalizeCode(trimmed)
}

// NormalizeCode canonicalizes user-entered referral codes. Codes are stored
// uppercase; lowercase lookalike input is accepted.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode looks up the owner of a referral code.
func (p *ReferralProcessor) ResolveCode(ctx context.Context, referralCode string) (store.User, error) {
	code := NormalizeCode(referralCode)
	if code == "" {
		return store.User{}, ErrInvalidReferralCode
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "referral_code", Value: code})

	user, err := p.store.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrInvalidReferralCode
		}
		p.logger.Error(ctx, "failed to resolve referral code", err)
		return store.User{}, err
	}
	return user, nil
}

// GetDirectReferrals lists the users directly referred by userID, oldest
// signup first.
func (p *ReferralProcessor) GetDirectReferrals(ctx context.Context, userID uuid.UUID) ([]store.User, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "user_id", Value: userID.String()})

	if _, err := p.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to get user", err)
		return nil, err
	}

	referrals, err := p.store.GetDirectReferrals(ctx, userID)
	if err != nil {
		p.logger.Error(ctx, "failed to list direct referrals", err)
		return nil, err
	}
	if referrals == nil {
		referrals = []store.User{}
	}
	return referrals, nil
}

// ReferralStats summarizes a user's standing in the referral program.
type ReferralStats struct {
	UserID                uuid.UUID `json:"user_id"`
	ReferralCode          string    `json:"referral_code"`
	ReferralLink          string    `json:"referral_link"`
	DirectReferrals       int       `json:"direct_referrals"`
	TotalCommissionEarned float64   `json:"total_commission_earned"`
	PaidCommissionTotal   float64   `json:"paid_commission_total"`
}

// GetStats returns referral stats for a single user.
func (p *ReferralProcessor) GetStats(ctx context.Context, userID uuid.UUID) (ReferralStats, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "user_id", Value: userID.String()})

	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReferralStats{}, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to get user", err)
		return ReferralStats{}, err
	}

	count, err := p.store.CountDirectReferrals(ctx, userID)
	if err != nil {
		p.logger.Error(ctx, "failed to count direct referrals", err)
		return ReferralStats{}, err
	}

	paidTotal, err := p.store.SumPaidCommissions(ctx, userID)
	if err != nil {
		p.logger.Error(ctx, "failed to sum paid commissions", err)
		return ReferralStats{}, err
	}

	return ReferralStats{
		UserID:                user.ID,
		ReferralCode:          user.ReferralCode,
		ReferralLink:          p.BuildReferralLink(user.ReferralCode),
		DirectReferrals:       count,
		TotalCommissionEarned: user.TotalCommissionEarned,
		PaidCommissionTotal:   paidTotal,
	}, nil
}
