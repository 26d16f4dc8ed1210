package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("duration must be positive")
	assert.Equal(t, "VALIDATION: duration must be positive", err.Error())

	wrapped := NewSettlementError("settlement failed", errors.New("gateway down"))
	assert.Equal(t, "SETTLEMENT: settlement failed: gateway down", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("gateway down")
	err := NewSettlementError("settlement failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	err := NewConflictError("slot taken")

	assert.True(t, IsType(err, ErrorTypeConflict))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeConflict))
	assert.False(t, IsType(nil, ErrorTypeConflict))
}

func TestIsType_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("saga step failed: %w", NewCompensationError("rollback failed", nil))

	assert.True(t, IsType(err, ErrorTypeCompensation))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err      *AppError
		wantType ErrorType
	}{
		{NewNotFoundError("x"), ErrorTypeNotFound},
		{NewValidationError("x"), ErrorTypeValidation},
		{NewConflictError("x"), ErrorTypeConflict},
		{NewSettlementError("x", nil), ErrorTypeSettlement},
		{NewCompensationError("x", nil), ErrorTypeCompensation},
		{NewRefundStateError("x"), ErrorTypeRefundState},
		{NewUnauthorizedError("x"), ErrorTypeUnauthorized},
		{NewInternalError("x", nil), ErrorTypeInternal},
		{NewExternalError("x", nil), ErrorTypeExternal},
	}

	for _, tt := range tests {
		require.NotNil(t, tt.err)
		assert.Equal(t, tt.wantType, tt.err.Type)
	}
}
