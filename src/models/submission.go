package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmissionStatus is the submission lifecycle state.
type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionCompleted SubmissionStatus = "completed"
)

// FormSubmission is one respondent's set of answers to a form at a specific
// schema version. Answers themselves are fanned out into SubmissionValue
// records by the submissions codec.
type FormSubmission struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	FormID           primitive.ObjectID  `bson:"formId" json:"formId"`
	FormVersion      int                 `bson:"formVersion" json:"formVersion"`
	CompanyID        primitive.ObjectID  `bson:"companyId,omitempty" json:"companyId,omitempty"`
	Status           SubmissionStatus    `bson:"status" json:"status"`
	SubmittedBy      *primitive.ObjectID `bson:"submittedBy,omitempty" json:"submittedBy,omitempty"`
	SubmittedByEmail string              `bson:"submittedByEmail,omitempty" json:"submittedByEmail,omitempty"`
	IsAnonymous      bool                `bson:"isAnonymous" json:"isAnonymous"`
	StartedAt        time.Time           `bson:"startedAt" json:"startedAt"`
	SubmittedAt      *time.Time          `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	LastSavedAt      time.Time           `bson:"lastSavedAt" json:"lastSavedAt"`
	FileUploads      []string            `bson:"fileUploads,omitempty" json:"fileUploads,omitempty"`
}

// SubmissionValue is one answered field of a submission, denormalized so it
// can be queried, filtered and exported on its own. Exactly one of the typed
// value slots is populated, chosen by FieldType.
type SubmissionValue struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SubmissionID primitive.ObjectID `bson:"submissionId" json:"submissionId"`
	FormID       primitive.ObjectID `bson:"formId,omitempty" json:"formId,omitempty"`
	FieldID      string             `bson:"fieldId" json:"fieldId"`
	FieldLabel   string             `bson:"fieldLabel" json:"fieldLabel"`
	FieldType    FieldType          `bson:"fieldType" json:"fieldType"`

	ValueText    *string  `bson:"valueText,omitempty" json:"valueText,omitempty"`
	ValueNumber  *float64 `bson:"valueNumber,omitempty" json:"valueNumber,omitempty"`
	ValueBoolean *bool    `bson:"valueBoolean,omitempty" json:"valueBoolean,omitempty"`
	ValueDate    *string  `bson:"valueDate,omitempty" json:"valueDate,omitempty"` // ISO-8601
	ValueArray   []string `bson:"valueArray,omitempty" json:"valueArray,omitempty"`
	ValueFileIDs []string `bson:"valueFileIds,omitempty" json:"valueFileIds,omitempty"`
}

// SubmitFormRequest is the payload for submitting answers to a form.
type SubmitFormRequest struct {
	Answers     map[string]interface{} `json:"answers" validate:"required"`
	Email       string                 `json:"email,omitempty" validate:"omitempty,email"`
	IsAnonymous bool                   `json:"isAnonymous,omitempty"`
	FileUploads []string               `json:"fileUploads,omitempty"`
}

// SaveDraftRequest is the payload for the periodic auto-save of a submission
// in progress. Saving a draft never validates answers.
type SaveDraftRequest struct {
	SubmissionID string                 `json:"submissionId,omitempty"`
	Answers      map[string]interface{} `json:"answers" validate:"required"`
	Email        string                 `json:"email,omitempty" validate:"omitempty,email"`
}
