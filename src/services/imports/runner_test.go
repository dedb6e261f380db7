package imports

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importFixture(t *testing.T, rows int, badEmailRows ...int) (*models.ParsedFileData, []models.FieldSchema, map[string]string) {
	t.Helper()

	bad := make(map[int]bool)
	for _, r := range badEmailRows {
		bad[r] = true
	}

	var b strings.Builder
	b.WriteString("Name,Email\n")
	for i := 1; i <= rows; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if bad[i] {
			email = "not-an-email"
		}
		fmt.Fprintf(&b, "User %d,%s\n", i, email)
	}

	parsed, err := ParseUpload("users.csv", []byte(b.String()))
	require.NoError(t, err)

	fields := []models.FieldSchema{
		{ID: "name", Type: models.FieldShortText, Label: "Name", Required: true},
		{ID: "email", Type: models.FieldEmail, Label: "Email"},
	}
	return parsed, fields, BuildColumnMapping(parsed.Columns, fields)
}

func neverCancelled() bool { return false }

func noProgress(models.ImportJobStatus, int, int, int) {}

func TestRunRowsAllValid(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 10)

	var written []map[string]interface{}
	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		written = append(written, answers)
		return nil
	}

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, neverCancelled)

	assert.Equal(t, models.ImportCompleted, outcome.Status)
	assert.Equal(t, 10, outcome.TotalRows)
	assert.Equal(t, 10, outcome.ProcessedRows)
	assert.Equal(t, 10, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.ErrorCount)
	assert.Empty(t, outcome.RowErrors)
	require.Len(t, written, 10)
	assert.Equal(t, "User 1", written[0]["name"])
	assert.Equal(t, "user1@example.com", written[0]["email"])
}

func TestRunRowsNonStrictKeepsGoing(t *testing.T) {
	// 100 rows, one bad: the batch completes with 99 created rows
	parsed, fields, mapping := importFixture(t, 100, 7)

	writes := 0
	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		writes++
		assert.NotEqual(t, 7, rowNumber, "failed row must not be written")
		return nil
	}

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, neverCancelled)

	assert.Equal(t, models.ImportCompleted, outcome.Status)
	assert.Equal(t, 100, outcome.ProcessedRows)
	assert.Equal(t, 99, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.ErrorCount)
	assert.Equal(t, 99, writes)

	require.Len(t, outcome.RowErrors, 1)
	re := outcome.RowErrors[0]
	assert.Equal(t, 7, re.Row)
	assert.Equal(t, "Email", re.FieldName)
	assert.Equal(t, "not-an-email", re.Value)
	assert.NotEmpty(t, re.Suggestion)
}

func TestRunRowsStrictFailsWithoutWriting(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 20, 3, 11)

	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		t.Fatal("strict mode must not write any row")
		return nil
	}

	outcome := RunRows(context.Background(), parsed, fields, mapping, true, write, noProgress, neverCancelled)

	assert.Equal(t, models.ImportFailed, outcome.Status)
	assert.Equal(t, 0, outcome.ProcessedRows)
	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 2, outcome.ErrorCount)
	assert.Contains(t, outcome.Err, "2 row(s)")
	assert.Len(t, outcome.RowErrors, 2)
}

func TestRunRowsCancellationAtBatchBoundary(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 100)

	writes := 0
	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		writes++
		return nil
	}

	// raise the flag once the first batch has been written
	cancelled := func() bool { return writes >= ImportBatchSize }

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, cancelled)

	assert.Equal(t, models.ImportCancelled, outcome.Status)
	assert.Equal(t, ImportBatchSize, outcome.ProcessedRows)
	assert.Equal(t, ImportBatchSize, outcome.SuccessCount)
	assert.Equal(t, ImportBatchSize, writes, "in-flight batch completes, later batches never start")
	assert.Equal(t, 100, outcome.TotalRows)
}

func TestRunRowsImmediateCancel(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 10)

	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		t.Fatal("no row may be written after an early cancel")
		return nil
	}

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, func() bool { return true })

	assert.Equal(t, models.ImportCancelled, outcome.Status)
	assert.Equal(t, 0, outcome.ProcessedRows)
	assert.Equal(t, 0, outcome.SuccessCount)
}

func TestRunRowsWriteErrorsAreRowScoped(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 5)

	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		if rowNumber == 3 {
			return fmt.Errorf("connection reset")
		}
		return nil
	}

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, neverCancelled)

	assert.Equal(t, models.ImportCompleted, outcome.Status)
	assert.Equal(t, 5, outcome.ProcessedRows)
	assert.Equal(t, 4, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.ErrorCount)
	require.Len(t, outcome.RowErrors, 1)
	assert.Equal(t, 3, outcome.RowErrors[0].Row)
	assert.Contains(t, outcome.RowErrors[0].Message, "failed to save row")
}

func TestRunRowsProgressIsMonotonic(t *testing.T) {
	parsed, fields, mapping := importFixture(t, 120)

	var processed []int
	progress := func(status models.ImportJobStatus, p, s, e int) {
		processed = append(processed, p)
	}
	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error { return nil }

	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, progress, neverCancelled)

	assert.Equal(t, models.ImportCompleted, outcome.Status)
	last := 0
	for _, p := range processed {
		assert.GreaterOrEqual(t, p, last)
		last = p
	}
	assert.Equal(t, 120, last)
}

func TestRunRowsRequiredFieldEnforced(t *testing.T) {
	csv := "Name,Email\n,missing@example.com\nAda,ada@example.com\n"
	parsed, err := ParseUpload("req.csv", []byte(csv))
	require.NoError(t, err)

	fields := []models.FieldSchema{
		{ID: "name", Type: models.FieldShortText, Label: "Name", Required: true},
		{ID: "email", Type: models.FieldEmail, Label: "Email"},
	}
	mapping := BuildColumnMapping(parsed.Columns, fields)

	write := func(ctx context.Context, rowNumber int, answers map[string]interface{}) error { return nil }
	outcome := RunRows(context.Background(), parsed, fields, mapping, false, write, noProgress, neverCancelled)

	assert.Equal(t, 1, outcome.ErrorCount)
	assert.Equal(t, 1, outcome.SuccessCount)
	require.Len(t, outcome.RowErrors, 1)
	assert.Equal(t, "Name", outcome.RowErrors[0].FieldName)
	assert.Contains(t, outcome.RowErrors[0].Message, "required")
}

func TestErrorReportCSV(t *testing.T) {
	job := &models.ImportJob{
		Errors: []models.RowError{
			{Row: 7, FieldName: "Email", FieldType: "email", Value: "nope", Message: "value \"nope\" is not a valid email address", Suggestion: "Use a full email address like name@example.com"},
		},
	}

	data, err := ErrorReportCSV(job)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "RowNumber,FieldName,FieldType,Value,ErrorMessage,Suggestion", lines[0])
	assert.Contains(t, lines[1], "7,Email,email,nope")
}