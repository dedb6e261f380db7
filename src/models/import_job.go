package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImportJobStatus is the import job state machine. Transitions are one-way:
// pending → parsing → validating → importing → {completed | failed | cancelled}.
type ImportJobStatus string

const (
	ImportPending    ImportJobStatus = "pending"
	ImportParsing    ImportJobStatus = "parsing"
	ImportValidating ImportJobStatus = "validating"
	ImportImporting  ImportJobStatus = "importing"
	ImportCompleted  ImportJobStatus = "completed"
	ImportFailed     ImportJobStatus = "failed"
	ImportCancelled  ImportJobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s ImportJobStatus) IsTerminal() bool {
	return s == ImportCompleted || s == ImportFailed || s == ImportCancelled
}

// RowError is one row-and-field scoped failure recorded during an import.
type RowError struct {
	Row        int    `bson:"row" json:"row"` // 1-based data row number
	FieldName  string `bson:"fieldName" json:"fieldName"`
	FieldType  string `bson:"fieldType" json:"fieldType"`
	Value      string `bson:"value" json:"value"`
	Message    string `bson:"message" json:"message"`
	Suggestion string `bson:"suggestion,omitempty" json:"suggestion,omitempty"`
}

// ImportJob is a tracked unit of work that turns a spreadsheet into a batch
// of submissions. Progress counters update monotonically so the job can be
// polled while running.
type ImportJob struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompanyID     primitive.ObjectID `bson:"companyId" json:"companyId"`
	FormID        primitive.ObjectID `bson:"formId" json:"formId"`
	FileID        primitive.ObjectID `bson:"fileId" json:"fileId"`
	FileName      string             `bson:"fileName" json:"fileName"`
	Status        ImportJobStatus    `bson:"status" json:"status"`
	Strict        bool               `bson:"strict" json:"strict"`
	ColumnMapping map[string]string  `bson:"columnMapping,omitempty" json:"columnMapping,omitempty"`
	TotalRows     int                `bson:"totalRows" json:"totalRows"`
	ProcessedRows int                `bson:"processedRows" json:"processedRows"`
	SuccessCount  int                `bson:"successCount" json:"successCount"`
	ErrorCount    int                `bson:"errorCount" json:"errorCount"`
	Errors        []RowError         `bson:"errors,omitempty" json:"errors,omitempty"`
	CancelRequested bool             `bson:"cancelRequested,omitempty" json:"cancelRequested,omitempty"`
	Error         string             `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt     *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedBy     string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ImportProgress is the polling snapshot of a running job.
type ImportProgress struct {
	JobID         string          `json:"jobId"`
	Status        ImportJobStatus `json:"status"`
	TotalRows     int             `json:"totalRows"`
	ProcessedRows int             `json:"processedRows"`
	SuccessCount  int             `json:"successCount"`
	ErrorCount    int             `json:"errorCount"`
	Percentage    float64         `json:"percentage"`
	Error         string          `json:"error,omitempty"`
}

// Progress derives the polling snapshot from the job's persisted counters.
func (j *ImportJob) Progress() ImportProgress {
	p := ImportProgress{
		JobID:         j.ID.Hex(),
		Status:        j.Status,
		TotalRows:     j.TotalRows,
		ProcessedRows: j.ProcessedRows,
		SuccessCount:  j.SuccessCount,
		ErrorCount:    j.ErrorCount,
		Error:         j.Error,
	}
	if j.TotalRows > 0 {
		p.Percentage = float64(j.ProcessedRows) / float64(j.TotalRows) * 100
	}
	return p
}

// ImportFile holds the raw bytes of an uploaded spreadsheet while its job is
// alive. Stands in for the external object storage collaborator.
type ImportFile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompanyID   primitive.ObjectID `bson:"companyId" json:"companyId"`
	Name        string             `bson:"name" json:"name"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Data        []byte             `bson:"data" json:"-"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

// ParsedFileData is the normalized output of spreadsheet parsing.
type ParsedFileData struct {
	Columns  []string            `json:"columns"`
	Rows     []map[string]string `json:"rows"`
	RowCount int                 `json:"rowCount"`
	Preview  []map[string]string `json:"preview"` // first 5 rows
}

// DetectedField is one proposed field schema for a spreadsheet column.
type DetectedField struct {
	Name       string        `json:"name"`
	Label      string        `json:"label"`
	Type       FieldType     `json:"type"`
	Required   bool          `json:"required"`
	Options    []FieldOption `json:"options,omitempty"`
	Confidence float64       `json:"confidence"`
}

// AnalyzeResult is the analyzer output surfaced to the import UI.
type AnalyzeResult struct {
	FileID            string              `json:"fileId,omitempty"`
	Columns           []string            `json:"columns"`
	Preview           []map[string]string `json:"preview"`
	DetectedFields    []DetectedField     `json:"detectedFields"`
	Warnings          []string            `json:"warnings"`
	SuggestedFormName string              `json:"suggestedFormName"`
}

// StartImportRequest starts an import job for an uploaded file. When FormID
// is empty a draft form is created from Fields (the confirmed detection).
type StartImportRequest struct {
	FileID        string            `json:"fileId" validate:"required"`
	FormID        string            `json:"formId,omitempty"`
	Fields        []DetectedField   `json:"fields,omitempty"`
	FormName      string            `json:"formName,omitempty"`
	ColumnMapping map[string]string `json:"columnMapping,omitempty"`
	Strict        bool              `json:"strict,omitempty"`
}
