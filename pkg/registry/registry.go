// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Save writes the registry with two-space indentation and a refreshed LastUpdated.
func Save(path string, reg *ActivityRegistry) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal activity registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// FindByTaskType returns the activity bound to a job type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// FindByID returns the activity with the given id.
func (r *ActivityRegistry) FindByID(id string) (*Activity, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Upsert replaces the activity with the same id or appends it.
func (r *ActivityRegistry) Upsert(a Activity) (updated bool) {
	for i := range r.Activities {
		if r.Activities[i].ID == a.ID {
			r.Activities[i] = a
			return true
		}
	}
	r.Activities = append(r.Activities, a)
	return false
}

// Check reports structural problems: missing ids or task types and duplicates.
func (r *ActivityRegistry) Check() []string {
	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for i, a := range r.Activities {
		if a.ID == "" {
			problems = append(problems, fmt.Sprintf("activity %d: id is required", i))
		} else if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate id", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %s: taskType is required", a.ID))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate taskType %s", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true
	}
	return problems
}
