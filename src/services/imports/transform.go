package imports

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"
)

// TransformResult is the outcome of coercing one raw cell into a field's
// canonical value shape. Failures are row-and-field scoped and never abort
// the batch.
type TransformResult struct {
	Success bool        `json:"success"`
	Value   interface{} `json:"value,omitempty"`
	Error   string      `json:"error,omitempty"`
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Date layouts accepted by the importer; dates are normalized to ISO-8601.
var (
	dateLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
	}
	dateTimeLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"1/2/2006 15:04", "01/02/2006 15:04:05",
	}
	timeLayouts = []string{"15:04:05", "15:04", "3:04 PM", "3:04PM", "3:04 pm"}
)

// BuildColumnMapping pairs spreadsheet columns with form fields by position:
// column i maps to field i. Explicit user edits override this default.
func BuildColumnMapping(columns []string, fields []models.FieldSchema) map[string]string {
	mapping := make(map[string]string, len(columns))
	for i, column := range columns {
		if i >= len(fields) {
			break
		}
		mapping[column] = fields[i].ID
	}
	return mapping
}

// TransformValue coerces a raw cell into the mapped field's value shape.
// An empty cell is a successful nil value; required-ness is the validation
// engine's concern, not the transformer's.
func TransformValue(raw string, field *models.FieldSchema) TransformResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TransformResult{Success: true, Value: nil}
	}

	switch field.Type {
	case models.FieldNumber, models.FieldCurrency, models.FieldRating, models.FieldScale:
		n, ok := parseNumber(raw)
		if !ok {
			return failure(field, raw, "is not a valid number")
		}
		return TransformResult{Success: true, Value: n}

	case models.FieldDate:
		iso, _, ok := parseDate(raw)
		if !ok {
			return failure(field, raw, "is not a recognized date")
		}
		return TransformResult{Success: true, Value: iso}

	case models.FieldDateTime:
		iso, hasTime, ok := parseDate(raw)
		if !ok {
			return failure(field, raw, "is not a recognized date/time")
		}
		if !hasTime {
			// midnight when the cell only carries a date
			iso += "T00:00:00Z"
		}
		return TransformResult{Success: true, Value: iso}

	case models.FieldTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return TransformResult{Success: true, Value: t.Format("15:04:05")}
			}
		}
		return failure(field, raw, "is not a recognized time")

	case models.FieldDateRange:
		return transformDateRange(raw, field)

	case models.FieldDropdown, models.FieldRadio:
		if v, ok := matchOption(raw, field.Options); ok {
			return TransformResult{Success: true, Value: v}
		}
		return failure(field, raw, "does not match any option")

	case models.FieldCheckbox, models.FieldMultiSelect:
		return transformMultiValue(raw, field)

	case models.FieldEmail:
		if !forms.EmailPattern.MatchString(raw) {
			return failure(field, raw, "is not a valid email address")
		}
		return TransformResult{Success: true, Value: strings.ToLower(raw)}

	case models.FieldPhone:
		if !forms.PhonePattern.MatchString(raw) {
			return failure(field, raw, "is not a valid phone number")
		}
		return TransformResult{Success: true, Value: raw}

	case models.FieldURL:
		if !forms.URLPattern.MatchString(raw) {
			return failure(field, raw, "is not a valid URL")
		}
		return TransformResult{Success: true, Value: raw}

	case models.FieldFileUpload, models.FieldImageUpload:
		return failure(field, raw, "cannot be imported from a spreadsheet")
	}

	// text-like types pass through as-is
	return TransformResult{Success: true, Value: raw}
}

func transformMultiValue(raw string, field *models.FieldSchema) TransformResult {
	// a checkbox without options is a single consent flag
	if field.Type == models.FieldCheckbox && len(field.Options) == 0 {
		if b, ok := parseBool(raw); ok {
			return TransformResult{Success: true, Value: b}
		}
		return failure(field, raw, "is not a yes/no value")
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	var values []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, ok := matchOption(part, field.Options)
		if !ok {
			return failure(field, part, "does not match any option")
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return TransformResult{Success: true, Value: nil}
	}
	return TransformResult{Success: true, Value: values}
}

func transformDateRange(raw string, field *models.FieldSchema) TransformResult {
	for _, sep := range []string{" - ", " to ", ".."} {
		parts := strings.SplitN(raw, sep, 2)
		if len(parts) != 2 {
			continue
		}
		start, _, okStart := parseDate(strings.TrimSpace(parts[0]))
		end, _, okEnd := parseDate(strings.TrimSpace(parts[1]))
		if okStart && okEnd {
			return TransformResult{Success: true, Value: []string{start, end}}
		}
	}
	return failure(field, raw, `is not a date range (expected "start - end")`)
}

// matchOption resolves a cell against the declared options,
// case-insensitively on both value and label, returning the canonical value.
func matchOption(raw string, options []models.FieldOption) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(raw, opt.Value) || strings.EqualFold(raw, opt.Label) {
			return opt.Value, true
		}
	}
	return "", false
}

// parseNumber is locale-agnostic: currency symbols, thousands separators
// and accounting negatives ("(123.45)") are stripped before parsing.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range []string{"$", "€", "£", ",", "%"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDate normalizes a cell to ISO-8601, reporting whether it carried a
// time component.
func parseDate(raw string) (string, bool, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339), true, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), false, true
		}
	}
	return "", false, false
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

func failure(field *models.FieldSchema, raw, problem string) TransformResult {
	return TransformResult{
		Success: false,
		Error:   fmt.Sprintf("value %q %s", raw, problem),
	}
}

// suggestionFor pairs an error with a concrete fix the uploader can apply.
func suggestionFor(fieldType models.FieldType) string {
	switch fieldType {
	case models.FieldEmail:
		return "Use a full email address like name@example.com"
	case models.FieldPhone:
		return "Use digits with an optional + prefix, e.g. +1 555 123 4567"
	case models.FieldURL:
		return "Use a full URL like https://example.com"
	case models.FieldNumber, models.FieldCurrency, models.FieldRating, models.FieldScale:
		return "Remove currency symbols and use a plain decimal number"
	case models.FieldDate, models.FieldDateTime:
		return "Use an ISO date like 2025-01-31"
	case models.FieldTime:
		return "Use a 24-hour time like 14:30"
	case models.FieldDropdown, models.FieldRadio, models.FieldCheckbox, models.FieldMultiSelect:
		return "Use one of the form's declared options"
	case models.FieldFileUpload, models.FieldImageUpload:
		return "Upload files through the form instead of the spreadsheet"
	default:
		return ""
	}
}
