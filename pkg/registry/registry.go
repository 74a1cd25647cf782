package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"technician-dispatch/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Check reports every activity whose definition is unusable: missing ids,
// duplicate task types, bad timeouts or input schemas that do not compile.
func (r *ActivityRegistry) Check() []error {
	var problems []error
	seen := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			problems = append(problems, fmt.Errorf("activity %q: id and taskType are required", a.ID))
			continue
		}
		if seen[a.TaskType] {
			problems = append(problems, fmt.Errorf("activity %q: duplicate taskType %q", a.ID, a.TaskType))
		}
		seen[a.TaskType] = true

		if !knownStatuses[a.ImplementationStatus] {
			problems = append(problems, fmt.Errorf("activity %q: unknown implementationStatus %q", a.ID, a.ImplementationStatus))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Errorf("activity %q: %w", a.ID, err))
		}
		if len(a.InputSchema) > 0 {
			if _, err := validation.Compile(a.InputSchema); err != nil {
				problems = append(problems, fmt.Errorf("activity %q: %w", a.ID, err))
			}
		}
	}
	return problems
}
