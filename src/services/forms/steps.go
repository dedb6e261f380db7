package forms

import (
	"sort"

	"formhive-backend/src/models"
)

// StepFields returns the fields of one step, sorted by field order. A form
// whose steps declare no fields at all is an implicit single-step form:
// index 0 returns every field. When steps do declare fields, a field
// assigned to no step is excluded from every step.
func StepFields(form *models.Form, stepIndex int) []models.FieldSchema {
	if !hasAssignedFields(form) {
		if stepIndex == 0 {
			return sortFields(form.Fields)
		}
		return nil
	}

	if stepIndex < 0 || stepIndex >= len(form.Steps) {
		return nil
	}

	byID := make(map[string]models.FieldSchema, len(form.Fields))
	for _, f := range form.Fields {
		byID[f.ID] = f
	}

	var fields []models.FieldSchema
	for _, id := range form.Steps[stepIndex].Fields {
		if f, ok := byID[id]; ok {
			fields = append(fields, f)
		}
	}
	return sortFields(fields)
}

// StepCount returns how many steps the form renders as.
func StepCount(form *models.Form) int {
	if !hasAssignedFields(form) {
		return 1
	}
	return len(form.Steps)
}

// StepValidation reports which fields of a step block advancing.
type StepValidation struct {
	Valid        bool     `json:"valid"`
	FailedFields []string `json:"failedFields,omitempty"`
}

// ValidateStep checks that every visible, effectively-required field of the
// step has a valid answer. On failure no skip_to or step advance applies;
// the caller is told which fields failed.
func ValidateStep(form *models.Form, stepIndex int, answers map[string]interface{}) StepValidation {
	states := EvaluateRules(form.ConditionalLogic, answers)

	var failed []string
	for _, field := range StepFields(form, stepIndex) {
		if field.Type.IsPresentational() {
			continue
		}
		if !IsFieldVisible(states, field.ID) {
			continue
		}
		field.Required = IsFieldRequired(field, states)
		if res := ValidateField(field, answers[field.ID]); !res.Valid {
			failed = append(failed, field.ID)
		}
	}

	return StepValidation{Valid: len(failed) == 0, FailedFields: failed}
}

// NextStep resolves the step to render after stepIndex given the current
// answers. An active skip_to rule on one of the step's fields wins;
// otherwise the next step in order. Returns stepIndex unchanged when the
// step does not validate.
func NextStep(form *models.Form, stepIndex int, answers map[string]interface{}) int {
	if v := ValidateStep(form, stepIndex, answers); !v.Valid {
		return stepIndex
	}

	states := EvaluateRules(form.ConditionalLogic, answers)
	for _, field := range StepFields(form, stepIndex) {
		state, ok := states[field.ID]
		if !ok || state.SkipToStepID == "" {
			continue
		}
		for i, step := range form.Steps {
			if step.ID == state.SkipToStepID {
				return i
			}
		}
	}

	next := stepIndex + 1
	if max := StepCount(form) - 1; next > max {
		return max
	}
	return next
}

func hasAssignedFields(form *models.Form) bool {
	for _, step := range form.Steps {
		if len(step.Fields) > 0 {
			return true
		}
	}
	return false
}

func sortFields(fields []models.FieldSchema) []models.FieldSchema {
	sorted := make([]models.FieldSchema, len(fields))
	copy(sorted, fields)
	// stable: ties keep insertion order
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}
