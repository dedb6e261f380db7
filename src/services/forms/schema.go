package forms

import (
	"fmt"
	"strings"

	"formhive-backend/src/models"
)

// SchemaError is a structural invariant violation of a form. It blocks
// publishing but never blocks saving a draft.
type SchemaError struct {
	FieldID string `json:"fieldId,omitempty"`
	Message string `json:"message"`
}

func (e SchemaError) Error() string {
	if e.FieldID != "" {
		return fmt.Sprintf("field %s: %s", e.FieldID, e.Message)
	}
	return e.Message
}

// SchemaValidationError aggregates every schema violation of a publish
// attempt. The message surfaces the first few and a count of the rest.
type SchemaValidationError struct {
	Errors []SchemaError `json:"errors"`
}

func (e *SchemaValidationError) Error() string {
	const maxShown = 3
	msgs := make([]string, 0, maxShown)
	for i, se := range e.Errors {
		if i == maxShown {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(e.Errors)-maxShown))
			break
		}
		msgs = append(msgs, se.Error())
	}
	return "schema invalid: " + strings.Join(msgs, "; ")
}

// ValidateFormSchema checks the structural invariants a form must satisfy
// before it may be published.
func ValidateFormSchema(form *models.Form) []SchemaError {
	var errs []SchemaError

	if len(form.Fields) == 0 {
		errs = append(errs, SchemaError{Message: "form must have at least one field"})
	}

	for _, field := range form.Fields {
		if !field.Type.IsPresentational() && strings.TrimSpace(field.Label) == "" {
			errs = append(errs, SchemaError{FieldID: field.ID, Message: "field label is required"})
		}

		if field.Type.IsSelectionType() {
			if len(field.Options) == 0 {
				errs = append(errs, SchemaError{FieldID: field.ID, Message: fmt.Sprintf("%s field must have at least one option", field.Type)})
			}
			for _, opt := range field.Options {
				if strings.TrimSpace(opt.Label) == "" {
					errs = append(errs, SchemaError{FieldID: field.ID, Message: "option label must not be empty"})
				}
			}
		}
	}

	// a field id may appear in at most one step
	seen := make(map[string]string)
	fieldIDs := make(map[string]bool, len(form.Fields))
	for _, f := range form.Fields {
		fieldIDs[f.ID] = true
	}
	for _, step := range form.Steps {
		for _, id := range step.Fields {
			if !fieldIDs[id] {
				errs = append(errs, SchemaError{FieldID: id, Message: fmt.Sprintf("step %q references unknown field", step.Title)})
				continue
			}
			if prev, dup := seen[id]; dup {
				errs = append(errs, SchemaError{FieldID: id, Message: fmt.Sprintf("field assigned to both step %q and step %q", prev, step.Title)})
				continue
			}
			seen[id] = step.Title
		}
	}

	return errs
}
