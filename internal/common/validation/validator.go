package validation

import (
	"fmt"
	"sort"

	"assessment-workers/internal/common/errors"
	"assessment-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks job variables against the input schemas of the activity registry.
// Schemas are compiled once; a Validator is safe for concurrent use.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the input schema of every activity that declares one.
func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	if reg == nil {
		return v, nil
	}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("activity %s: compile input schema: %w", a.ID, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// TaskTypes lists the task types that have a compiled schema.
func (v *Validator) TaskTypes() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ValidateVariables validates the raw job variables of taskType. Task types without a schema,
// and a nil Validator, accept everything.
func (v *Validator) ValidateVariables(taskType, variables string) error {
	if v == nil {
		return nil
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return errors.NewParseError(err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		violations[i] = desc.String()
	}
	return errors.NewSchemaValidationError(violations)
}
