package processor

import (
	"context"
	"errors"
	"fmt"

	"backoffice-server/internal/monitoring"
	"backoffice-server/internal/observability"

	"github.com/jaevor/go-nanoid"
)

// codeAlphabet excludes I, O, l and similar lookalikes so codes survive
// being read over the phone or retyped from a screenshot.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTUVWXYZ"

// maxCodeAttempts bounds collision re-rolls before giving up.
const maxCodeAttempts = 5

var (
	ErrCodeGenerationExhausted = errors.New("referral code generation exhausted")
	ErrStoreUnavailable        = errors.New("store unavailable")
)

// CodeGenerator produces unique referral codes. Uniqueness is checked
// against the store and enforced by the column's unique index; a collision
// is re-rolled up to maxCodeAttempts times.
type CodeGenerator struct {
	generate func() string
	store    ReferralStore
	logger   *observability.Logger
}

func NewCodeGenerator(store ReferralStore, length int, logger *observability.Logger) (*CodeGenerator, error) {
	if length < 4 {
		length = 8
	}
	generate, err := nanoid.CustomASCII(codeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("failed to build code generator: %w", err)
	}
	return &CodeGenerator{
		generate: generate,
		store:    store,
		logger:   logger,
	}, nil
}

// Generate returns a referral code not currently held by any user.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := g.generate()

		exists, err := g.store.ReferralCodeExists(ctx, code)
		if err != nil {
			g.logger.Error(ctx, "failed to check referral code uniqueness", err)
			return "", fmt.Errorf("%w: %s", ErrStoreUnavailable, err.Error())
		}
		if !exists {
			return code, nil
		}

		monitoring.ReferralCodeRetriesTotal.Inc()
		g.logger.Warn(ctx, "referral code collision, re-rolling",
			observability.Field{Key: "attempt", Value: attempt + 1},
		)
	}

	return "", ErrCodeGenerationExhausted
}
