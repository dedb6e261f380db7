package imports

import (
	"context"
	"fmt"

	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"
)

// ImportBatchSize is how many rows are created between progress persists
// and cancellation checks.
var ImportBatchSize = 50

// RowWriter persists one transformed row. rowNumber is 1-based.
type RowWriter func(ctx context.Context, rowNumber int, answers map[string]interface{}) error

// ProgressSink receives monotonically-increasing counters for polling.
type ProgressSink func(status models.ImportJobStatus, processed, success, errCount int)

// CancelCheck is consulted between row batches; in-flight rows complete.
type CancelCheck func() bool

// RunOutcome is the terminal result of driving one parsed file through the
// transform/validate/import phases.
type RunOutcome struct {
	Status        models.ImportJobStatus
	TotalRows     int
	ProcessedRows int
	SuccessCount  int
	ErrorCount    int
	RowErrors     []models.RowError
	Err           string
}

type preparedRow struct {
	answers map[string]interface{}
	bad     bool
}

// RunRows drives the validating and importing phases of an import job over
// an already-parsed file. Row- and field-scoped failures are accumulated,
// never fatal; created rows are independent and are not rolled back on
// cancellation.
func RunRows(
	ctx context.Context,
	parsed *models.ParsedFileData,
	fields []models.FieldSchema,
	mapping map[string]string,
	strict bool,
	write RowWriter,
	progress ProgressSink,
	cancelled CancelCheck,
) *RunOutcome {
	outcome := &RunOutcome{TotalRows: parsed.RowCount}

	fieldsByID := make(map[string]models.FieldSchema, len(fields))
	for _, f := range fields {
		fieldsByID[f.ID] = f
	}

	// validating: transform and validate every row up front
	progress(models.ImportValidating, 0, 0, 0)

	prepared := make([]preparedRow, len(parsed.Rows))
	for i, row := range parsed.Rows {
		rowNumber := i + 1
		answers := make(map[string]interface{})
		bad := false

		for column, fieldID := range mapping {
			field, ok := fieldsByID[fieldID]
			if !ok {
				continue
			}
			raw := row[column]

			tr := TransformValue(raw, &field)
			if !tr.Success {
				outcome.RowErrors = append(outcome.RowErrors, rowError(rowNumber, field, raw, tr.Error))
				bad = true
				continue
			}
			if res := forms.ValidateField(field, tr.Value); !res.Valid {
				outcome.RowErrors = append(outcome.RowErrors, rowError(rowNumber, field, raw, res.Message))
				bad = true
				continue
			}
			if tr.Value != nil {
				answers[field.ID] = tr.Value
			}
		}

		if bad {
			outcome.ErrorCount++
		}
		prepared[i] = preparedRow{answers: answers, bad: bad}
	}

	progress(models.ImportValidating, 0, 0, outcome.ErrorCount)

	if strict && outcome.ErrorCount > 0 {
		outcome.Status = models.ImportFailed
		outcome.Err = fmt.Sprintf("strict mode: %d row(s) failed validation", outcome.ErrorCount)
		return outcome
	}

	// importing: create rows in batches, best-effort
	progress(models.ImportImporting, 0, 0, outcome.ErrorCount)

	for start := 0; start < len(prepared); start += ImportBatchSize {
		if cancelled() {
			outcome.Status = models.ImportCancelled
			progress(models.ImportCancelled, outcome.ProcessedRows, outcome.SuccessCount, outcome.ErrorCount)
			return outcome
		}

		end := start + ImportBatchSize
		if end > len(prepared) {
			end = len(prepared)
		}

		for i := start; i < end; i++ {
			outcome.ProcessedRows++
			if prepared[i].bad {
				continue // error already recorded during validation
			}
			if err := write(ctx, i+1, prepared[i].answers); err != nil {
				outcome.ErrorCount++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{
					Row:     i + 1,
					Message: fmt.Sprintf("failed to save row: %v", err),
				})
				continue
			}
			outcome.SuccessCount++
		}

		progress(models.ImportImporting, outcome.ProcessedRows, outcome.SuccessCount, outcome.ErrorCount)
	}

	outcome.Status = models.ImportCompleted
	progress(models.ImportCompleted, outcome.ProcessedRows, outcome.SuccessCount, outcome.ErrorCount)
	return outcome
}

func rowError(rowNumber int, field models.FieldSchema, raw, message string) models.RowError {
	return models.RowError{
		Row:        rowNumber,
		FieldName:  field.Label,
		FieldType:  string(field.Type),
		Value:      raw,
		Message:    message,
		Suggestion: suggestionFor(field.Type),
	}
}
