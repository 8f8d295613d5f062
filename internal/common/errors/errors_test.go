package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"assessment-workers/internal/valuation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreInputError(t *testing.T) error {
	t.Helper()
	item := valuation.NewLineItem("bldg-1", nil, valuation.DefaultPolicy())
	err := item.SetArea(decimal.NewFromInt(-5))
	require.Error(t, err)
	return err
}

func TestFromValuationError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedCode  ErrorCode
		expectedRetry bool
		expectedField interface{}
	}{
		{
			name:          "core input error",
			err:           coreInputError(t),
			expectedCode:  ErrCodeInvalidInput,
			expectedField: "area",
		},
		{
			name:         "wrapped sentinel",
			err:          fmt.Errorf("line item 3: %w", valuation.ErrInvalidInput),
			expectedCode: ErrCodeInvalidInput,
		},
		{
			name:         "unresolved bracket",
			err:          fmt.Errorf("residential: %w", valuation.ErrUnresolvedBracket),
			expectedCode: ErrCodeUnresolvedBracket,
		},
		{
			name:          "deadline",
			err:           fmt.Errorf("execute: %w", context.DeadlineExceeded),
			expectedCode:  ErrCodeTimeout,
			expectedRetry: true,
		},
		{
			name:         "standard error passes through",
			err:          NewParseError(stderrors.New("unexpected EOF")),
			expectedCode: ErrCodeParseError,
		},
		{
			name:         "anything else",
			err:          stderrors.New("boom"),
			expectedCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromValuationError(tt.err)

			require.NotNil(t, stdErr)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.expectedRetry, stdErr.Retryable)
			if tt.expectedField != nil {
				assert.Equal(t, tt.expectedField, stdErr.Metadata["field"])
			}
		})
	}

	assert.Nil(t, FromValuationError(nil))
}

func TestFromValuationError_KeepsCause(t *testing.T) {
	stdErr := FromValuationError(coreInputError(t))

	assert.True(t, stderrors.Is(stdErr, valuation.ErrInvalidInput))
	var inputErr *valuation.InputError
	assert.True(t, stderrors.As(stdErr, &inputErr))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		stdErr          *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "invalid input is thrown",
			stdErr:          NewInvalidInputError("depreciationPercent", "140", "outside 0-100"),
			expectedCode:    "INVALID_INPUT",
			expectedRetries: 0,
		},
		{
			name:            "schema violation is thrown",
			stdErr:          NewSchemaValidationError([]string{"lineItems: Invalid type"}),
			expectedCode:    "SCHEMA_VALIDATION_FAILED",
			expectedRetries: 0,
		},
		{
			name:            "catalog failure is retried",
			stdErr:          NewCatalogLoadFailedError("postgres", stderrors.New("connection refused")),
			expectedCode:    "CATALOG_LOAD_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "timeout is retried",
			stdErr:          NewTimeoutError("zeebe", stderrors.New("deadline")),
			expectedCode:    "TIMEOUT_ERROR",
			expectedRetries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.stdErr)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.stdErr.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidInputError("area", "-1", "must not be negative"))

	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "INVALID_INPUT", vars["errorCode"])
	assert.Equal(t, "area", vars["errorField"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars["errorDetails"], "must not be negative")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeParseError))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeSchemaValidationFailed))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogLoadFailed))
	assert.Equal(t, "ASSESSMENT", GetErrorCategory(ErrCodeUnresolvedBracket))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeTimeout))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogLoadFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeExternalService))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeParseError))
}

func TestRetriesLeft(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: retries}}
	}
	bpmnErr := &BPMNError{Retries: 3}

	assert.Equal(t, int32(3), retriesLeft(job(5), bpmnErr))
	assert.Equal(t, int32(1), retriesLeft(job(2), bpmnErr))
	assert.Equal(t, int32(0), retriesLeft(job(1), bpmnErr))
	assert.Equal(t, int32(0), retriesLeft(job(0), bpmnErr))
}
