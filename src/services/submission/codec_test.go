package submission

import (
	"testing"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func surveyForm() *models.Form {
	return &models.Form{
		ID: primitive.NewObjectID(),
		Fields: []models.FieldSchema{
			{ID: "name", Type: models.FieldShortText, Label: "Name"},
			{ID: "age", Type: models.FieldNumber, Label: "Age"},
			{ID: "newsletter", Type: models.FieldCheckbox, Label: "Newsletter"},
			{ID: "colors", Type: models.FieldMultiSelect, Label: "Colors",
				Options: []models.FieldOption{{ID: "o1", Label: "Red", Value: "red"}, {ID: "o2", Label: "Blue", Value: "blue"}}},
			{ID: "birthday", Type: models.FieldDate, Label: "Birthday"},
			{ID: "stay", Type: models.FieldDateRange, Label: "Stay"},
			{ID: "cv", Type: models.FieldFileUpload, Label: "CV"},
			{ID: "grid", Type: models.FieldMatrix, Label: "Grid", Rows: []string{"r1"}, Columns: []string{"c1", "c2"}},
			{ID: "heading", Type: models.FieldSectionHeader, Label: "Section"},
		},
	}
}

func TestEncodeValuesOneSlotPerRecord(t *testing.T) {
	form := surveyForm()
	subID := primitive.NewObjectID()

	answers := map[string]interface{}{
		"name":       "Ada",
		"age":        float64(36),
		"newsletter": true,
		"colors":     []interface{}{"red", "blue"},
		"birthday":   "1990-12-10",
		"stay":       []string{"2026-01-01", "2026-01-05"},
		"cv":         []string{"file-abc"},
		"grid":       map[string]interface{}{"r1": "c2"},
	}

	values := EncodeValues(form, subID, answers)
	require.Len(t, values, 8)

	byField := make(map[string]models.SubmissionValue)
	for _, v := range values {
		assert.Equal(t, subID, v.SubmissionID)
		assert.Equal(t, form.ID, v.FormID)
		byField[v.FieldID] = v

		// exactly one typed slot per record
		slots := 0
		if v.ValueText != nil {
			slots++
		}
		if v.ValueNumber != nil {
			slots++
		}
		if v.ValueBoolean != nil {
			slots++
		}
		if v.ValueDate != nil {
			slots++
		}
		if v.ValueArray != nil {
			slots++
		}
		if v.ValueFileIDs != nil {
			slots++
		}
		assert.Equal(t, 1, slots, "field %s", v.FieldID)
	}

	assert.Equal(t, "Ada", *byField["name"].ValueText)
	assert.Equal(t, 36.0, *byField["age"].ValueNumber)
	assert.True(t, *byField["newsletter"].ValueBoolean)
	assert.Equal(t, []string{"red", "blue"}, byField["colors"].ValueArray)
	assert.Equal(t, "1990-12-10", *byField["birthday"].ValueDate)
	assert.Equal(t, []string{"2026-01-01", "2026-01-05"}, byField["stay"].ValueArray)
	assert.Equal(t, []string{"file-abc"}, byField["cv"].ValueFileIDs)
	assert.JSONEq(t, `{"r1":"c2"}`, *byField["grid"].ValueText)
}

func TestEncodeValuesSkips(t *testing.T) {
	form := surveyForm()
	subID := primitive.NewObjectID()

	t.Run("EmptyAnswersProduceNoRecord", func(t *testing.T) {
		values := EncodeValues(form, subID, map[string]interface{}{
			"name": "  ",
			"age":  nil,
		})
		assert.Empty(t, values)
	})

	t.Run("UndeclaredFieldsAreDropped", func(t *testing.T) {
		values := EncodeValues(form, subID, map[string]interface{}{
			"ghost": "boo",
			"name":  "Ada",
		})
		require.Len(t, values, 1)
		assert.Equal(t, "name", values[0].FieldID)
	})

	t.Run("PresentationalFieldsNeverEncode", func(t *testing.T) {
		values := EncodeValues(form, subID, map[string]interface{}{
			"heading": "should not persist",
		})
		assert.Empty(t, values)
	})
}

func TestDecodeValuesRoundTrip(t *testing.T) {
	form := surveyForm()
	subID := primitive.NewObjectID()

	answers := map[string]interface{}{
		"name":       "Ada",
		"age":        float64(36),
		"newsletter": true,
		"colors":     []string{"red"},
		"birthday":   "1990-12-10",
		"grid":       map[string]interface{}{"r1": "c1"},
	}

	decoded := DecodeValues(EncodeValues(form, subID, answers))

	assert.Equal(t, "Ada", decoded["name"])
	assert.Equal(t, 36.0, decoded["age"])
	assert.Equal(t, true, decoded["newsletter"])
	assert.Equal(t, []string{"red"}, decoded["colors"])
	assert.Equal(t, "1990-12-10", decoded["birthday"])
	assert.Equal(t, map[string]interface{}{"r1": "c1"}, decoded["grid"])

	// unanswered fields have no key at all
	_, ok := decoded["cv"]
	assert.False(t, ok)
}

func TestCheckboxWithOptionsEncodesArray(t *testing.T) {
	form := &models.Form{
		ID: primitive.NewObjectID(),
		Fields: []models.FieldSchema{
			{ID: "toppings", Type: models.FieldCheckbox, Label: "Toppings",
				Options: []models.FieldOption{{ID: "o1", Label: "Cheese", Value: "cheese"}}},
		},
	}

	values := EncodeValues(form, primitive.NewObjectID(), map[string]interface{}{
		"toppings": []interface{}{"cheese"},
	})
	require.Len(t, values, 1)
	assert.Nil(t, values[0].ValueBoolean)
	assert.Equal(t, []string{"cheese"}, values[0].ValueArray)
}

func TestValidationFailedErrorMessage(t *testing.T) {
	err := &ValidationFailedError{FieldErrors: map[string]string{
		"a": "a is required",
		"b": "b is required",
		"c": "c is required",
		"d": "d is required",
	}}
	msg := err.Error()
	assert.Contains(t, msg, "a is required")
	assert.Contains(t, msg, "c is required")
	assert.NotContains(t, msg, "d is required")
	assert.Contains(t, msg, "and 1 more")
}
