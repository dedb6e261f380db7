package submission

import (
	"encoding/json"
	"time"

	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// codec.go fans a submission's answer map out into typed SubmissionValue
// records and back. Exactly one typed slot is populated per record, chosen
// by the field's type, so values stay individually queryable.

// EncodeValues converts an answer map into SubmissionValue records. Fields
// with an empty answer produce no record, and answers for fields the form
// does not declare are dropped.
func EncodeValues(form *models.Form, submissionID primitive.ObjectID, answers map[string]interface{}) []models.SubmissionValue {
	var values []models.SubmissionValue

	for _, field := range form.Fields {
		if field.Type.IsPresentational() {
			continue
		}
		answer, ok := answers[field.ID]
		if !ok || forms.IsEmptyValue(answer) {
			continue
		}

		value := models.SubmissionValue{
			ID:           primitive.NewObjectID(),
			SubmissionID: submissionID,
			FormID:       form.ID,
			FieldID:      field.ID,
			FieldLabel:   field.Label,
			FieldType:    field.Type,
		}
		fillSlot(&value, field.Type, answer)
		values = append(values, value)
	}

	return values
}

// DecodeValues is the exact inverse of EncodeValues: it reconstructs the
// answer map from the typed records. Keys for unanswered fields are never
// present, so callers must not rely on key presence for "answered vs not".
func DecodeValues(values []models.SubmissionValue) map[string]interface{} {
	answers := make(map[string]interface{}, len(values))
	for _, v := range values {
		answers[v.FieldID] = decodeSlot(v)
	}
	return answers
}

func fillSlot(value *models.SubmissionValue, fieldType models.FieldType, answer interface{}) {
	switch fieldType {
	case models.FieldNumber, models.FieldCurrency, models.FieldRating, models.FieldScale:
		if n, ok := forms.ToNumber(answer); ok {
			value.ValueNumber = &n
			return
		}

	case models.FieldDate, models.FieldDateTime, models.FieldTime:
		s := dateString(answer)
		value.ValueDate = &s
		return

	case models.FieldCheckbox:
		if b, ok := answer.(bool); ok {
			value.ValueBoolean = &b
			return
		}
		value.ValueArray = toStringSlice(answer)
		return

	case models.FieldMultiSelect, models.FieldDateRange:
		value.ValueArray = toStringSlice(answer)
		return

	case models.FieldFileUpload, models.FieldImageUpload:
		value.ValueFileIDs = toStringSlice(answer)
		return

	case models.FieldMatrix:
		// matrix answers are row→selection maps, kept as a JSON string
		if data, err := json.Marshal(answer); err == nil {
			s := string(data)
			value.ValueText = &s
			return
		}
	}

	// text-like and unknown types fall back to the text slot
	s := forms.ToString(answer)
	value.ValueText = &s
}

func decodeSlot(value models.SubmissionValue) interface{} {
	switch {
	case value.ValueNumber != nil:
		return *value.ValueNumber
	case value.ValueBoolean != nil:
		return *value.ValueBoolean
	case value.ValueDate != nil:
		return *value.ValueDate
	case value.ValueArray != nil:
		return value.ValueArray
	case value.ValueFileIDs != nil:
		return value.ValueFileIDs
	case value.ValueText != nil:
		if value.FieldType == models.FieldMatrix {
			var m map[string]interface{}
			if err := json.Unmarshal([]byte(*value.ValueText), &m); err == nil {
				return m
			}
		}
		return *value.ValueText
	}
	return nil
}

func dateString(answer interface{}) string {
	if t, ok := answer.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return forms.ToString(answer)
}

func toStringSlice(answer interface{}) []string {
	switch v := answer.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, forms.ToString(item))
		}
		return out
	default:
		return []string{forms.ToString(answer)}
	}
}
