package apierrors

import (
	"fmt"
	"net/http"
	"testing"

	activationprocessor "backoffice-server/internal/activation/processor"
	"backoffice-server/internal/progress"
	referralprocessor "backoffice-server/internal/referral/processor"
	"backoffice-server/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestMapError_Sentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"lead not found", activationprocessor.ErrLeadNotFound, http.StatusNotFound, CodeLeadNotFound},
		{"already activated", activationprocessor.ErrLeadAlreadyActivated, http.StatusConflict, CodeInvalidInput},
		{"empty batch", activationprocessor.ErrEmptyBatch, http.StatusBadRequest, CodeEmptyBatch},
		{"unknown referral code", referralprocessor.ErrInvalidReferralCode, http.StatusBadRequest, CodeInvalidReferral},
		{"codegen exhausted", referralprocessor.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, CodeCodeGenExhausted},
		{"session gone", progress.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
		{"referrer already set", store.ErrReferrerAlreadySet, http.StatusConflict, CodeReferrerAlreadySet},
		{"row not found", store.ErrNotFound, http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestMapError_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("activating: %w", activationprocessor.ErrLeadNotFound)
	apiErr := MapError(err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestMapError_PassthroughAPIError(t *testing.T) {
	orig := BadRequest(CodeInvalidInput, "bad id")
	assert.Same(t, orig, MapError(orig))
}

func TestMapError_UnknownBecomesInternal(t *testing.T) {
	apiErr := MapError(fmt.Errorf("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, CodeInternalError, apiErr.Code)
}
