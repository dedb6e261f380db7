package forms

import (
	"testing"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateFieldRequired(t *testing.T) {
	field := models.FieldSchema{
		ID:       "f1",
		Type:     models.FieldShortText,
		Label:    "Full Name",
		Required: true,
	}

	t.Run("EmptyValuesFail", func(t *testing.T) {
		for _, v := range []interface{}{nil, "", "   ", []interface{}{}, []string{}, false} {
			res := ValidateField(field, v)
			assert.False(t, res.Valid, "value %#v should fail required", v)
			assert.Equal(t, "Full Name is required", res.Message)
		}
	})

	t.Run("NonEmptyValuePasses", func(t *testing.T) {
		res := ValidateField(field, "Ada Lovelace")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Message)
	})

	t.Run("OptionalEmptySkipsAllRules", func(t *testing.T) {
		optional := models.FieldSchema{
			ID:    "f2",
			Type:  models.FieldEmail,
			Label: "Email",
			Validation: []models.ValidationRule{
				{Type: models.RuleEmailFormat},
				{Type: models.RuleMinLength, Value: float64(5)},
			},
		}
		res := ValidateField(optional, "")
		assert.True(t, res.Valid)
	})
}

func TestValidateFieldRuleOrder(t *testing.T) {
	field := models.FieldSchema{
		ID:    "f1",
		Type:  models.FieldShortText,
		Label: "Code",
		Validation: []models.ValidationRule{
			{Type: models.RuleMinLength, Value: float64(5), Message: "too short"},
			{Type: models.RuleMaxLength, Value: float64(10), Message: "too long"},
		},
	}

	// first failing rule wins
	res := ValidateField(field, "abc")
	assert.False(t, res.Valid)
	assert.Equal(t, "too short", res.Message)

	res = ValidateField(field, "abcdefghijklmnop")
	assert.False(t, res.Valid)
	assert.Equal(t, "too long", res.Message)

	res = ValidateField(field, "abcdef")
	assert.True(t, res.Valid)
}

func TestValidateFieldNumericBounds(t *testing.T) {
	field := models.FieldSchema{
		ID:    "age",
		Type:  models.FieldNumber,
		Label: "Age",
		Validation: []models.ValidationRule{
			{Type: models.RuleMinValue, Value: float64(18)},
			{Type: models.RuleMaxValue, Value: float64(99)},
		},
	}

	assert.False(t, ValidateField(field, float64(17)).Valid)
	assert.True(t, ValidateField(field, float64(18)).Valid)
	assert.True(t, ValidateField(field, "42").Valid)
	assert.False(t, ValidateField(field, float64(100)).Valid)
	assert.False(t, ValidateField(field, "not a number").Valid)
}

func TestValidateFieldFormats(t *testing.T) {
	t.Run("Email", func(t *testing.T) {
		field := models.FieldSchema{ID: "e", Label: "Email", Validation: []models.ValidationRule{{Type: models.RuleEmailFormat}}}
		assert.True(t, ValidateField(field, "name@example.com").Valid)
		assert.False(t, ValidateField(field, "name@no-tld").Valid)
		assert.False(t, ValidateField(field, "two words@example.com").Valid)
	})

	t.Run("Phone", func(t *testing.T) {
		field := models.FieldSchema{ID: "p", Label: "Phone", Validation: []models.ValidationRule{{Type: models.RulePhoneFormat}}}
		assert.True(t, ValidateField(field, "+1 555 123 4567").Valid)
		assert.True(t, ValidateField(field, "0812345678").Valid)
		assert.False(t, ValidateField(field, "call me").Valid)
	})

	t.Run("URL", func(t *testing.T) {
		field := models.FieldSchema{ID: "u", Label: "Website", Validation: []models.ValidationRule{{Type: models.RuleURLFormat}}}
		assert.True(t, ValidateField(field, "https://example.com/path").Valid)
		assert.True(t, ValidateField(field, "example.com").Valid)
		assert.False(t, ValidateField(field, "not a url").Valid)
	})

	t.Run("Regex", func(t *testing.T) {
		field := models.FieldSchema{ID: "r", Label: "SKU", Validation: []models.ValidationRule{
			{Type: models.RuleRegex, Value: "^SKU-[0-9]{4}$", Message: "expected SKU-0000"},
		}}
		assert.True(t, ValidateField(field, "SKU-1234").Valid)
		res := ValidateField(field, "SKU-12")
		assert.False(t, res.Valid)
		assert.Equal(t, "expected SKU-0000", res.Message)
	})

	t.Run("BrokenRegexIsSkipped", func(t *testing.T) {
		field := models.FieldSchema{ID: "r", Label: "SKU", Validation: []models.ValidationRule{
			{Type: models.RuleRegex, Value: "(unclosed"},
		}}
		assert.True(t, ValidateField(field, "anything").Valid)
	})
}

func TestCustomMessageOverridesDefault(t *testing.T) {
	field := models.FieldSchema{
		ID:    "f",
		Label: "Nickname",
		Validation: []models.ValidationRule{
			{Type: models.RuleMaxLength, Value: float64(3), Message: "keep it short"},
		},
	}
	res := ValidateField(field, "toolong")
	assert.False(t, res.Valid)
	assert.Equal(t, "keep it short", res.Message)
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue("  "))
	assert.True(t, IsEmptyValue(false))
	assert.True(t, IsEmptyValue([]interface{}{}))
	assert.True(t, IsEmptyValue(map[string]interface{}{}))
	assert.False(t, IsEmptyValue("x"))
	assert.False(t, IsEmptyValue(true))
	assert.False(t, IsEmptyValue(float64(0))) // zero is an answer
	assert.False(t, IsEmptyValue([]string{"a"}))
}

func TestToNumber(t *testing.T) {
	n, ok := ToNumber(" 42.5 ")
	assert.True(t, ok)
	assert.Equal(t, 42.5, n)

	_, ok = ToNumber("abc")
	assert.False(t, ok)

	n, ok = ToNumber(7)
	assert.True(t, ok)
	assert.Equal(t, 7.0, n)
}
