package validation

import (
	stderrors "errors"
	"testing"

	"assessment-workers/internal/common/errors"
	"assessment-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.LoadRegistry("../../../configs/activity-registry.json")
	require.NoError(t, err)
	v, err := NewValidator(reg)
	require.NoError(t, err)
	return v
}

func TestNewValidator_CompilesRegistry(t *testing.T) {
	v := loadValidator(t)

	assert.Equal(t, []string{
		"calculate-assessment",
		"compute-appraisal",
		"list-available-usages",
		"resolve-assessment-level",
	}, v.TaskTypes())
}

func TestNewValidator_BadSchema(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:          "broken",
		TaskType:    "broken",
		InputSchema: map[string]interface{}{"type": 42},
	}}}

	_, err := NewValidator(reg)

	assert.ErrorContains(t, err, "broken")
}

func TestValidateVariables(t *testing.T) {
	v := loadValidator(t)

	tests := []struct {
		name         string
		taskType     string
		variables    string
		expectedCode errors.ErrorCode
	}{
		{
			name:      "valid assessment",
			taskType:  "calculate-assessment",
			variables: `{"lineItems":[{"id":"a","area":"120.5","constructionType":"I-A","usage":"commercial"}],"buildingCategory":"commercial","effectiveYear":2027,"processRef":"x"}`,
		},
		{
			name:      "numbers and numeric strings both accepted",
			taskType:  "resolve-assessment-level",
			variables: `{"buildingCategory":"residential","marketValue":299200}`,
		},
		{
			name:         "missing line items",
			taskType:     "compute-appraisal",
			variables:    `{}`,
			expectedCode: errors.ErrCodeSchemaValidationFailed,
		},
		{
			name:         "non numeric area",
			taskType:     "compute-appraisal",
			variables:    `{"lineItems":[{"area":"wide"}]}`,
			expectedCode: errors.ErrCodeSchemaValidationFailed,
		},
		{
			name:         "unknown category",
			taskType:     "resolve-assessment-level",
			variables:    `{"buildingCategory":"industrial","marketValue":"1"}`,
			expectedCode: errors.ErrCodeSchemaValidationFailed,
		},
		{
			name:         "malformed json",
			taskType:     "resolve-assessment-level",
			variables:    `{"buildingCategory":`,
			expectedCode: errors.ErrCodeParseError,
		},
		{
			name:      "task type without schema",
			taskType:  "unknown",
			variables: `not even json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateVariables(tt.taskType, tt.variables)
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.expectedCode, stdErr.Code)
		})
	}
}

func TestValidateVariables_NilValidator(t *testing.T) {
	var v *Validator
	assert.NoError(t, v.ValidateVariables("compute-appraisal", `{}`))
}
