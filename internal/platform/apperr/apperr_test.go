// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
)

/*
TestConstructors_StatusMapping verifies the code-to-HTTP-status mapping.
*/
func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"not_found", apperr.NotFound("Book"), apperr.CodeNotFound, http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("nope"), apperr.CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("nope"), apperr.CodeForbidden, http.StatusForbidden},
		{"conflict", apperr.Conflict("taken"), apperr.CodeConflict, http.StatusConflict},
		{"validation", apperr.ValidationError("bad"), apperr.CodeValidation, http.StatusBadRequest},
		{"timeout", apperr.Timeout("slow", nil), apperr.CodeTimeout, http.StatusGatewayTimeout},
		{"network", apperr.Unavailable("down", nil), apperr.CodeNetwork, http.StatusBadGateway},
		{"not_configured", apperr.NotConfigured("unset"), apperr.CodeNotConfigured, http.StatusServiceUnavailable},
		{"internal", apperr.Internal(errors.New("boom")), apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

/*
TestCode_UnwrapsWrappedErrors verifies classification through fmt.Errorf chains.
*/
func TestCode_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("book_service_get_failed: %w", apperr.NotFound("Book"))

	assert.Equal(t, apperr.CodeNotFound, apperr.Code(wrapped))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "Book not found", ae.Message)
}

func TestCode_NonAppErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperr.CodeInternal, apperr.Code(errors.New("raw failure")))
}

/*
TestIsRetryable pins down which failure classes a retry loop may re-attempt.
Import retry policy depends on this split, so it is asserted exhaustively.
*/
func TestIsRetryable(t *testing.T) {
	retryable := []error{
		apperr.Timeout("slow", nil),
		apperr.Unavailable("down", nil),
		apperr.Internal(errors.New("boom")),
		errors.New("unclassified"),
	}
	terminal := []error{
		apperr.ValidationError("bad"),
		apperr.NotFound("Book"),
		apperr.Unauthorized("nope"),
		apperr.Forbidden("nope"),
		apperr.Conflict("taken"),
		apperr.NotConfigured("unset"),
	}

	for _, err := range retryable {
		assert.True(t, apperr.IsRetryable(err), err.Error())
	}
	for _, err := range terminal {
		assert.False(t, apperr.IsRetryable(err), err.Error())
	}
}

func TestWithCause_PreservesClientMessage(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := apperr.Conflict("Slug is taken").WithCause(cause)

	assert.Equal(t, "Slug is taken", err.Error())
	assert.True(t, errors.Is(err, cause))
}
