package apierrors

import (
	"errors"

	activationprocessor "backoffice-server/internal/activation/processor"
	authprocessor "backoffice-server/internal/auth/processor"
	commissionprocessor "backoffice-server/internal/commission/processor"
	"backoffice-server/internal/email"
	"backoffice-server/internal/progress"
	referralprocessor "backoffice-server/internal/referral/processor"
	"backoffice-server/internal/store"
)

// MapError translates processor and store sentinel errors into the APIError
// shape sent to clients. An error that is already an *APIError passes through
// unchanged; anything unrecognized becomes a 500 without leaking internals.
func MapError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// auth
	case errors.Is(err, authprocessor.ErrExpiredToken),
		errors.Is(err, authprocessor.ErrInvalidJWTToken),
		errors.Is(err, authprocessor.ErrParseJWTToken):
		return Unauthorized("Authentication required")

	// referral
	case errors.Is(err, referralprocessor.ErrUserNotFound),
		errors.Is(err, commissionprocessor.ErrUserNotFound):
		return NotFound(CodeUserNotFound, "User not found")
	case errors.Is(err, referralprocessor.ErrInvalidReferralCode):
		return BadRequest(CodeInvalidReferral, "Unknown referral code")
	case errors.Is(err, referralprocessor.ErrCodeGenerationExhausted):
		return ServiceUnavailable(CodeCodeGenExhausted, "Could not allocate a referral code, try again", err)
	case errors.Is(err, referralprocessor.ErrStoreUnavailable):
		return ServiceUnavailable(CodeStoreUnavailable, "Service temporarily unavailable", err)

	// commission
	case errors.Is(err, commissionprocessor.ErrCommissionNotFound):
		return NotFound(CodeCommissionNotFound, "Commission not found")
	case errors.Is(err, commissionprocessor.ErrInvalidAmount):
		return BadRequest(CodeInvalidInput, "Commission amount must be positive")

	// activation
	case errors.Is(err, activationprocessor.ErrLeadNotFound):
		return NotFound(CodeLeadNotFound, "Lead not found")
	case errors.Is(err, activationprocessor.ErrInvalidLead):
		return BadRequest(CodeInvalidInput, "Lead is missing required fields")
	case errors.Is(err, activationprocessor.ErrLeadAlreadyActivated):
		return Conflict(CodeInvalidInput, "Lead is already activated")
	case errors.Is(err, activationprocessor.ErrEmptyBatch):
		return BadRequest(CodeEmptyBatch, "Lead batch is empty")

	// progress sessions
	case errors.Is(err, progress.ErrSessionNotFound):
		return NotFound(CodeSessionNotFound, "Session not found or expired")
	case errors.Is(err, progress.ErrSessionExists):
		return Conflict(CodeSessionExists, "Session already exists")

	// referral graph
	case errors.Is(err, store.ErrReferrerAlreadySet):
		return Conflict(CodeReferrerAlreadySet, "User already has a referrer")
	case errors.Is(err, store.ErrNotFound):
		return NotFound(CodeNotFound, "Resource not found")

	// email
	case errors.Is(err, email.ErrInvalidEmailAddress):
		return BadRequest(CodeInvalidInput, "Invalid email address")
	case errors.Is(err, email.ErrSendingEmail):
		return ServiceUnavailable(CodeEmailServiceError, "Email delivery failed", err)

	default:
		return InternalError(err)
	}
}
