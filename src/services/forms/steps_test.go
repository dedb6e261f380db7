package forms

import (
	"testing"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
)

func wizardForm() *models.Form {
	return &models.Form{
		Fields: []models.FieldSchema{
			{ID: "name", Type: models.FieldShortText, Label: "Name", Required: true, Order: 1},
			{ID: "company", Type: models.FieldShortText, Label: "Company", Order: 2},
			{ID: "plan", Type: models.FieldDropdown, Label: "Plan", Required: true, Order: 3,
				Options: []models.FieldOption{{ID: "o1", Label: "Free", Value: "free"}, {ID: "o2", Label: "Premium", Value: "premium"}}},
			{ID: "card", Type: models.FieldShortText, Label: "Card", Order: 4},
			{ID: "notes", Type: models.FieldLongText, Label: "Notes", Order: 5},
		},
		Steps: []models.FormStep{
			{ID: "s1", Title: "About you", Fields: []string{"name", "company"}, Order: 1},
			{ID: "s2", Title: "Plan", Fields: []string{"plan", "card"}, Order: 2},
			{ID: "s3", Title: "Wrap up", Fields: []string{"notes"}, Order: 3},
		},
	}
}

func TestStepFields(t *testing.T) {
	form := wizardForm()

	t.Run("AssignedFieldsPerStep", func(t *testing.T) {
		fields := StepFields(form, 0)
		assert.Len(t, fields, 2)
		assert.Equal(t, "name", fields[0].ID)
		assert.Equal(t, "company", fields[1].ID)
		assert.Equal(t, 3, StepCount(form))
	})

	t.Run("OutOfRangeIndex", func(t *testing.T) {
		assert.Nil(t, StepFields(form, -1))
		assert.Nil(t, StepFields(form, 3))
	})

	t.Run("UnknownFieldIDsAreSkipped", func(t *testing.T) {
		form := wizardForm()
		form.Steps[0].Fields = append(form.Steps[0].Fields, "ghost")
		assert.Len(t, StepFields(form, 0), 2)
	})

	t.Run("SortedByFieldOrder", func(t *testing.T) {
		form := wizardForm()
		form.Fields[0].Order = 9 // name now sorts after company
		fields := StepFields(form, 0)
		assert.Equal(t, "company", fields[0].ID)
		assert.Equal(t, "name", fields[1].ID)
	})
}

func TestImplicitSingleStep(t *testing.T) {
	form := wizardForm()
	form.Steps = nil

	assert.Equal(t, 1, StepCount(form))
	assert.Len(t, StepFields(form, 0), 5)
	assert.Nil(t, StepFields(form, 1))

	// steps that exist but assign nothing behave the same way
	form.Steps = []models.FormStep{{ID: "s1", Title: "All"}, {ID: "s2", Title: "Empty"}}
	assert.Equal(t, 1, StepCount(form))
	assert.Len(t, StepFields(form, 0), 5)
}

func TestFieldInNoStepIsExcluded(t *testing.T) {
	form := wizardForm()
	form.Fields = append(form.Fields, models.FieldSchema{ID: "orphan", Type: models.FieldShortText, Label: "Orphan", Order: 6})

	for i := range form.Steps {
		for _, f := range StepFields(form, i) {
			assert.NotEqual(t, "orphan", f.ID)
		}
	}
}

func TestValidateStep(t *testing.T) {
	form := wizardForm()

	t.Run("MissingRequiredFieldBlocks", func(t *testing.T) {
		v := ValidateStep(form, 0, map[string]interface{}{})
		assert.False(t, v.Valid)
		assert.Equal(t, []string{"name"}, v.FailedFields)
	})

	t.Run("CompleteStepPasses", func(t *testing.T) {
		v := ValidateStep(form, 0, map[string]interface{}{"name": "Ada"})
		assert.True(t, v.Valid)
		assert.Empty(t, v.FailedFields)
	})

	t.Run("HiddenRequiredFieldDoesNotBlock", func(t *testing.T) {
		form := wizardForm()
		form.ConditionalLogic = []models.ConditionalRule{{
			ID:            "r1",
			Conditions:    []models.Condition{{FieldID: "company", Operator: models.OpIsNotEmpty}},
			LogicOperator: models.LogicAnd,
			Action:        models.ActionShow,
			TargetFieldID: "name",
		}}
		// company empty, so required "name" is hidden and skipped
		v := ValidateStep(form, 0, map[string]interface{}{})
		assert.True(t, v.Valid)
	})
}

func TestNextStep(t *testing.T) {
	form := wizardForm()

	t.Run("AdvancesWhenValid", func(t *testing.T) {
		next := NextStep(form, 0, map[string]interface{}{"name": "Ada"})
		assert.Equal(t, 1, next)
	})

	t.Run("StaysWhenInvalid", func(t *testing.T) {
		next := NextStep(form, 0, map[string]interface{}{})
		assert.Equal(t, 0, next)
	})

	t.Run("ClampsAtLastStep", func(t *testing.T) {
		next := NextStep(form, 2, map[string]interface{}{"name": "Ada", "plan": "free"})
		assert.Equal(t, 2, next)
	})
}

func TestNextStepSkipTo(t *testing.T) {
	form := wizardForm()
	form.Fields = append(form.Fields, models.FieldSchema{ID: "extra", Type: models.FieldShortText, Label: "Extra", Order: 6})
	form.Steps = append(form.Steps, models.FormStep{ID: "s4", Title: "Extra", Fields: []string{"extra"}, Order: 4})
	form.ConditionalLogic = []models.ConditionalRule{{
		ID:            "skip",
		Conditions:    []models.Condition{{FieldID: "plan", Operator: models.OpEquals, Value: "free"}},
		LogicOperator: models.LogicAnd,
		Action:        models.ActionSkipTo,
		TargetFieldID: "plan",
		SkipToStepID:  "s4",
	}}

	t.Run("ActiveSkipJumps", func(t *testing.T) {
		next := NextStep(form, 1, map[string]interface{}{"name": "Ada", "plan": "free"})
		assert.Equal(t, 3, next) // straight to s4, skipping s3
	})

	t.Run("InactiveSkipAdvancesNormally", func(t *testing.T) {
		next := NextStep(form, 1, map[string]interface{}{"name": "Ada", "plan": "premium"})
		assert.Equal(t, 2, next)
	})

	t.Run("SkipIgnoredWhenStepInvalid", func(t *testing.T) {
		// plan is required; no answer means the step does not validate
		next := NextStep(form, 1, map[string]interface{}{"name": "Ada"})
		assert.Equal(t, 1, next)
	})
}
