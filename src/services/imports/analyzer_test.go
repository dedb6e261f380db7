package imports

import (
	"fmt"
	"strings"
	"testing"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedFrom(t *testing.T, csv string) *models.ParsedFileData {
	t.Helper()
	parsed, err := ParseUpload("test.csv", []byte(csv))
	require.NoError(t, err)
	return parsed
}

func fieldByLabel(t *testing.T, result *models.AnalyzeResult, label string) models.DetectedField {
	t.Helper()
	for _, f := range result.DetectedFields {
		if f.Label == label {
			return f
		}
	}
	t.Fatalf("no detected field labeled %q", label)
	return models.DetectedField{}
}

func TestAnalyzeFileTypeDetection(t *testing.T) {
	csv := "Email,Phone,Amount,Joined,Comment\n" +
		"ada@example.com,+1 555 123 4567,1200.50,2024-01-15,loved it\n" +
		"grace@example.com,02 123-4567,85,2024-02-20,fine\n" +
		"alan@example.com,+44 20 7946 0958,$3.50,2024-03-01,meh\n"

	result := AnalyzeFile("customers.csv", parsedFrom(t, csv))

	assert.Equal(t, models.FieldEmail, fieldByLabel(t, result, "Email").Type)
	assert.Equal(t, models.FieldPhone, fieldByLabel(t, result, "Phone").Type)
	assert.Equal(t, models.FieldNumber, fieldByLabel(t, result, "Amount").Type)
	assert.Equal(t, models.FieldDate, fieldByLabel(t, result, "Joined").Type)

	for _, label := range []string{"Email", "Phone", "Amount", "Joined"} {
		assert.Equal(t, 1.0, fieldByLabel(t, result, label).Confidence, label)
	}
}

func TestAnalyzeFileDigitRunsAreNumbersNotPhones(t *testing.T) {
	csv := "Code\n12345678\n87654321\n11223344\n"
	result := AnalyzeFile("codes.csv", parsedFrom(t, csv))
	assert.Equal(t, models.FieldNumber, fieldByLabel(t, result, "Code").Type)
}

func TestAnalyzeFileDropdownDetection(t *testing.T) {
	var b strings.Builder
	b.WriteString("Status\n")
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			b.WriteString("active\n")
		} else {
			b.WriteString("inactive\n")
		}
	}

	result := AnalyzeFile("statuses.csv", parsedFrom(t, b.String()))
	field := fieldByLabel(t, result, "Status")

	require.Equal(t, models.FieldDropdown, field.Type)
	assert.Equal(t, 1.0, field.Confidence)
	require.Len(t, field.Options, 2)
	assert.Equal(t, "active", field.Options[0].Value)
	assert.NotEmpty(t, field.Options[0].ID)
}

func TestAnalyzeFileTooManyOptionsFallsBackToText(t *testing.T) {
	var b strings.Builder
	b.WriteString("City\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "city-%d\n", i%25) // 25 distinct, above the 20 cap
	}

	result := AnalyzeFile("cities.csv", parsedFrom(t, b.String()))
	field := fieldByLabel(t, result, "City")

	assert.Equal(t, models.FieldShortText, field.Type)
	assert.Empty(t, field.Options)

	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, "option limit")
}

func TestAnalyzeFileMismatchWarning(t *testing.T) {
	// 3 of 4 values are emails: above threshold, below full confidence
	csv := "Contact\nada@example.com\ngrace@example.com\nalan@example.com\nnot-an-email\n"
	result := AnalyzeFile("contacts.csv", parsedFrom(t, csv))
	field := fieldByLabel(t, result, "Contact")

	assert.Equal(t, models.FieldEmail, field.Type)
	assert.Equal(t, 0.75, field.Confidence)

	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, `"not-an-email"`)
	assert.Contains(t, joined, "row 4")
}

func TestAnalyzeFileLowConfidenceWarning(t *testing.T) {
	// 2 of 3 emails: 0.67 clears the 0.6 threshold but not the 0.7 bar
	csv := "Contact\nada@example.com\ngrace@example.com\nnope\n"
	result := AnalyzeFile("contacts.csv", parsedFrom(t, csv))
	field := fieldByLabel(t, result, "Contact")

	assert.Equal(t, models.FieldEmail, field.Type)
	assert.Less(t, field.Confidence, LowConfidence)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "low confidence")
}

func TestAnalyzeFileRequiredDetection(t *testing.T) {
	csv := "Always,Sometimes\nA,\nB,x\nC,y\n"
	result := AnalyzeFile("req.csv", parsedFrom(t, csv))

	assert.True(t, fieldByLabel(t, result, "Always").Required)
	assert.False(t, fieldByLabel(t, result, "Sometimes").Required)
}

func TestAnalyzeFileLongText(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 10) // ~270 chars
	csv := "Feedback\n" + long + "\n" + long + "\n" + long + "x\n"
	result := AnalyzeFile("fb.csv", parsedFrom(t, csv))
	assert.Equal(t, models.FieldLongText, fieldByLabel(t, result, "Feedback").Type)
}

func TestAnalyzeFileEmptyColumn(t *testing.T) {
	csv := "Name,Blank\nAda,\nGrace,\n"
	result := AnalyzeFile("e.csv", parsedFrom(t, csv))
	field := fieldByLabel(t, result, "Blank")

	assert.Equal(t, models.FieldShortText, field.Type)
	assert.Equal(t, 0.0, field.Confidence)
	assert.False(t, field.Required)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "empty")
}

func TestAnalyzeFileNameNormalization(t *testing.T) {
	csv := "First Name!,First Name?,TOTAL ($)\nA,B,1\nC,D,2\n"
	result := AnalyzeFile("n.csv", parsedFrom(t, csv))

	assert.Equal(t, "first_name", result.DetectedFields[0].Name)
	assert.Equal(t, "first_name_2", result.DetectedFields[1].Name)
	assert.Equal(t, "total", result.DetectedFields[2].Name)
}

func TestAnalyzeFileIsIdempotent(t *testing.T) {
	csv := "Email,Status\nada@example.com,active\ngrace@example.com,inactive\nalan@example.com,active\n"
	parsed := parsedFrom(t, csv)

	first := AnalyzeFile("x.csv", parsed)
	second := AnalyzeFile("x.csv", parsed)

	require.Equal(t, len(first.DetectedFields), len(second.DetectedFields))
	for i := range first.DetectedFields {
		assert.Equal(t, first.DetectedFields[i].Type, second.DetectedFields[i].Type)
		assert.Equal(t, first.DetectedFields[i].Confidence, second.DetectedFields[i].Confidence)
		assert.Equal(t, first.DetectedFields[i].Name, second.DetectedFields[i].Name)
	}
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestSuggestFormName(t *testing.T) {
	assert.Equal(t, "Customer Survey 2025", suggestFormName("customer_survey-2025.xlsx"))
	assert.Equal(t, "Leads", suggestFormName("/tmp/uploads/leads.csv"))
	assert.Equal(t, "Imported Form", suggestFormName(".csv"))
}
