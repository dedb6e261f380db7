package imports

import (
	"fmt"
	"path/filepath"
	"strings"

	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"

	"github.com/google/uuid"
)

// Type-inference tuning. Detection is approximate on purpose: a proposed
// type always ships with a confidence score and a human override path.
var (
	// SampleLimit bounds how many rows are inspected per column.
	SampleLimit = 1000
	// DetectThreshold is the minimum fraction of samples that must match a
	// pattern type before it is proposed.
	DetectThreshold = 0.6
	// LowConfidence is the score under which a warning is surfaced.
	LowConfidence = 0.7
	// MaxDropdownOptions caps how many distinct values may become options.
	MaxDropdownOptions = 20
	// LongTextAvgLen is the average length above which short_text becomes long_text.
	LongTextAvgLen = 100
)

type columnSample struct {
	values   []string // non-empty values, trimmed
	rows     []int    // 1-based data row of each value
	hasEmpty bool
}

// AnalyzeFile infers a field schema per column of a parsed spreadsheet,
// with a confidence score and warnings for anything the inference is
// unsure about.
func AnalyzeFile(fileName string, parsed *models.ParsedFileData) *models.AnalyzeResult {
	result := &models.AnalyzeResult{
		Columns:           parsed.Columns,
		Preview:           parsed.Preview,
		Warnings:          []string{},
		SuggestedFormName: suggestFormName(fileName),
	}

	usedNames := make(map[string]int)
	for _, column := range parsed.Columns {
		sample := sampleColumn(parsed, column)
		field, warnings := detectField(column, sample, parsed.RowCount)
		field.Name = uniqueName(normalizeName(column), usedNames)
		result.DetectedFields = append(result.DetectedFields, field)
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result
}

func sampleColumn(parsed *models.ParsedFileData, column string) columnSample {
	var sample columnSample
	for i, row := range parsed.Rows {
		if len(sample.values) >= SampleLimit {
			break
		}
		v := strings.TrimSpace(row[column])
		if v == "" {
			sample.hasEmpty = true
			continue
		}
		sample.values = append(sample.values, v)
		sample.rows = append(sample.rows, i+1)
	}
	return sample
}

// detectField applies the type heuristics in priority order: email, phone,
// number, date, then dropdown by cardinality, then short/long text.
func detectField(column string, sample columnSample, rowCount int) (models.DetectedField, []string) {
	field := models.DetectedField{
		Label:    column,
		Type:     models.FieldShortText,
		Required: !sample.hasEmpty && len(sample.values) > 0,
	}

	if len(sample.values) == 0 {
		field.Confidence = 0
		field.Required = false
		return field, []string{fmt.Sprintf("column %q is empty and was defaulted to short text", column)}
	}

	var warnings []string

	type candidate struct {
		fieldType models.FieldType
		matches   func(string) bool
	}
	candidates := []candidate{
		{models.FieldEmail, forms.EmailPattern.MatchString},
		{models.FieldPhone, isPhoneValue},
		{models.FieldNumber, isNumericValue},
		{models.FieldDate, isDateValue},
	}

	bestFrac := 0.0
	for _, c := range candidates {
		matched := 0
		firstMissRow, firstMissValue := 0, ""
		for i, v := range sample.values {
			if c.matches(v) {
				matched++
			} else if firstMissRow == 0 {
				firstMissRow, firstMissValue = sample.rows[i], v
			}
		}
		frac := float64(matched) / float64(len(sample.values))
		if frac > bestFrac {
			bestFrac = frac
		}
		if frac < DetectThreshold {
			continue
		}

		field.Type = c.fieldType
		field.Confidence = frac
		if frac < 1 {
			warnings = append(warnings, fmt.Sprintf(
				"column %q: value %q at row %d does not look like %s", column, firstMissValue, firstMissRow, c.fieldType))
		}
		if frac < LowConfidence {
			warnings = append(warnings, fmt.Sprintf(
				"column %q: low confidence (%.0f%%) for detected type %s", column, frac*100, c.fieldType))
		}
		return field, warnings
	}

	// cardinality: few distinct values relative to row count become a dropdown
	distinct := distinctValues(sample.values)
	categorical := len(distinct) > 1 && float64(len(distinct)) <= float64(rowCount)*0.5 && len(sample.values) >= 3
	if categorical {
		if len(distinct) <= MaxDropdownOptions {
			field.Type = models.FieldDropdown
			field.Confidence = 1
			for _, v := range distinct {
				field.Options = append(field.Options, models.FieldOption{
					ID:    uuid.NewString(),
					Label: v,
					Value: v,
				})
			}
			return field, warnings
		}
		warnings = append(warnings, fmt.Sprintf(
			"column %q: %d distinct values exceed the %d option limit, using short text instead of dropdown",
			column, len(distinct), MaxDropdownOptions))
	}

	if bestFrac >= 0.3 {
		warnings = append(warnings, fmt.Sprintf(
			"column %q mixes value types and was defaulted to text", column))
	}

	field.Type = models.FieldShortText
	field.Confidence = 1
	if averageLength(sample.values) > float64(LongTextAvgLen) {
		field.Type = models.FieldLongText
	}
	return field, warnings
}

// isPhoneValue is stricter than the validation pattern: a bare digit run is
// a number column and a dash date like 2024-01-15 is a date column, not a
// phone column.
func isPhoneValue(v string) bool {
	if !forms.PhonePattern.MatchString(v) || !strings.ContainsAny(v, "+-(). ") {
		return false
	}
	return !isDateValue(v)
}

func isNumericValue(v string) bool {
	_, ok := parseNumber(v)
	return ok
}

func isDateValue(v string) bool {
	_, _, ok := parseDate(v)
	return ok
}

func distinctValues(values []string) []string {
	seen := make(map[string]bool, len(values))
	var distinct []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}

func averageLength(values []string) float64 {
	total := 0
	for _, v := range values {
		total += len(v)
	}
	return float64(total) / float64(len(values))
}

// normalizeName derives a stable identifier from a column header.
func normalizeName(header string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "column"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, used[name])
}

func suggestFormName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Imported Form"
	}
	return strings.Join(words, " ")
}
