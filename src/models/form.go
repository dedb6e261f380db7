package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType is the closed set of field variants a form may contain.
type FieldType string

const (
	FieldShortText     FieldType = "short_text"
	FieldLongText      FieldType = "long_text"
	FieldEmail         FieldType = "email"
	FieldPhone         FieldType = "phone"
	FieldURL           FieldType = "url"
	FieldNumber        FieldType = "number"
	FieldCurrency      FieldType = "currency"
	FieldDate          FieldType = "date"
	FieldDateTime      FieldType = "datetime"
	FieldTime          FieldType = "time"
	FieldDateRange     FieldType = "date_range"
	FieldDropdown      FieldType = "dropdown"
	FieldRadio         FieldType = "radio"
	FieldCheckbox      FieldType = "checkbox"
	FieldMultiSelect   FieldType = "multi_select"
	FieldFileUpload    FieldType = "file_upload"
	FieldImageUpload   FieldType = "image_upload"
	FieldRating        FieldType = "rating"
	FieldScale         FieldType = "scale"
	FieldMatrix        FieldType = "matrix"
	FieldLocation      FieldType = "location"
	FieldAddress       FieldType = "address"
	FieldRichText      FieldType = "rich_text"
	FieldSectionHeader FieldType = "section_header"
	FieldDivider       FieldType = "divider"
)

// IsSelectionType reports whether the field type carries an option list.
func (t FieldType) IsSelectionType() bool {
	switch t {
	case FieldDropdown, FieldRadio, FieldCheckbox, FieldMultiSelect:
		return true
	}
	return false
}

// IsPresentational reports whether the field never receives an answer.
func (t FieldType) IsPresentational() bool {
	return t == FieldSectionHeader || t == FieldDivider
}

// ValidationRuleType enumerates the rule kinds a field may declare.
type ValidationRuleType string

const (
	RuleRequired    ValidationRuleType = "required"
	RuleMinLength   ValidationRuleType = "min_length"
	RuleMaxLength   ValidationRuleType = "max_length"
	RuleMinValue    ValidationRuleType = "min_value"
	RuleMaxValue    ValidationRuleType = "max_value"
	RuleRegex       ValidationRuleType = "regex"
	RuleEmailFormat ValidationRuleType = "email_format"
	RulePhoneFormat ValidationRuleType = "phone_format"
	RuleURLFormat   ValidationRuleType = "url_format"
	RuleCustom      ValidationRuleType = "custom"
)

// ValidationRule is one declared rule on a field. Rules are evaluated in
// declared order; the first failing rule's message is returned.
type ValidationRule struct {
	Type    ValidationRuleType `json:"type"`
	Value   interface{}        `json:"value,omitempty"`
	Message string             `json:"message"`
}

// LayoutWidth controls how wide a field renders.
type LayoutWidth string

const (
	WidthFull    LayoutWidth = "full"
	WidthHalf    LayoutWidth = "half"
	WidthThird   LayoutWidth = "third"
	WidthQuarter LayoutWidth = "quarter"
	WidthAuto    LayoutWidth = "auto"
)

type FieldLayout struct {
	Width LayoutWidth `json:"width"`
}

// FieldOption is one selectable choice of a selection-type field.
type FieldOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldSchema is one typed input unit of a Form. The variant-specific
// attributes are optional and only meaningful for the matching types.
type FieldSchema struct {
	ID          string           `json:"id"`
	Type        FieldType        `json:"type"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required"`
	Validation  []ValidationRule `json:"validation,omitempty"`
	Layout      FieldLayout      `json:"layout"`
	Order       int              `json:"order"`

	// Selection fields (dropdown, radio, checkbox, multi_select)
	Options []FieldOption `json:"options,omitempty"`

	// Numeric fields (number, currency, rating, scale)
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// File fields (file_upload, image_upload)
	MaxSize      int64    `json:"maxSize,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	MaxFiles     int      `json:"maxFiles,omitempty"`

	// Matrix fields
	Rows    []string `json:"rows,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// ConditionOperator enumerates the comparison operators of a ConditionalRule.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not_equals"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpIsEmpty     ConditionOperator = "is_empty"
	OpIsNotEmpty  ConditionOperator = "is_not_empty"
)

// ConditionAction is what an active rule does to its target field.
type ConditionAction string

const (
	ActionShow    ConditionAction = "show"
	ActionHide    ConditionAction = "hide"
	ActionRequire ConditionAction = "require"
	ActionSkipTo  ConditionAction = "skip_to"
)

type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Condition compares one field's current answer against a value.
type Condition struct {
	FieldID  string            `json:"fieldId"`
	Operator ConditionOperator `json:"operator"`
	Value    interface{}       `json:"value,omitempty"`
}

// ConditionalRule is a show/hide/require/skip directive evaluated against
// current answers.
type ConditionalRule struct {
	ID            string          `json:"id"`
	Conditions    []Condition     `json:"conditions"`
	LogicOperator LogicOperator   `json:"logicOperator"`
	Action        ConditionAction `json:"action"`
	TargetFieldID string          `json:"targetFieldId"`
	SkipToStepID  string          `json:"skipToStepId,omitempty"`
}

// FormStep is an ordered grouping of fields presented together.
type FormStep struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Fields      []string `json:"fields"`
	Order       int      `json:"order"`
}

type FormSettings struct {
	AutoSaveInterval    int      `json:"autoSaveInterval"` // seconds, 0 = disabled
	AllowAnonymous      bool     `json:"allowAnonymous"`
	RequireLogin        bool     `json:"requireLogin"`
	MultipleSubmissions bool     `json:"multipleSubmissions"`
	NotificationEmails  []string `json:"notificationEmails,omitempty"`
}

type FormTheme struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
}

type FormAccessControl struct {
	Visibility     string     `json:"visibility,omitempty"` // public, private, link
	MaxSubmissions int        `json:"maxSubmissions,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// FormMetadata holds denormalized counters maintained at submit time.
type FormMetadata struct {
	SubmissionCount  int64      `json:"submissionCount"`
	LastSubmissionAt *time.Time `json:"lastSubmissionAt,omitempty"`
}

// FormStatus is the form lifecycle state.
type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormPublished FormStatus = "published"
	FormArchived  FormStatus = "archived"
)

// Form is the in-memory shape of a form. It is never persisted directly;
// SerializeForm/DeserializeForm translate it to and from FormDocument.
type Form struct {
	ID               primitive.ObjectID `json:"id,omitempty"`
	CompanyID        primitive.ObjectID `json:"companyId,omitempty"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Status           FormStatus         `json:"status"`
	Version          int                `json:"version"`
	Fields           []FieldSchema      `json:"fields"`
	Steps            []FormStep         `json:"steps,omitempty"`
	ConditionalLogic []ConditionalRule  `json:"conditionalLogic,omitempty"`
	Settings         FormSettings       `json:"settings"`
	Theme            FormTheme          `json:"theme"`
	AccessControl    FormAccessControl  `json:"accessControl"`
	Metadata         FormMetadata       `json:"metadata"`
	CreatedBy        string             `json:"createdBy,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// FormDocument is the persisted record. Structured sub-objects are stored as
// opaque JSON blobs; only the forms codec may interpret them.
type FormDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	CompanyID        primitive.ObjectID `bson:"companyId,omitempty"`
	Title            string             `bson:"title"`
	Description      string             `bson:"description,omitempty"`
	Status           FormStatus         `bson:"status"`
	Version          int                `bson:"version"`
	Fields           string             `bson:"fields"`
	Steps            string             `bson:"steps"`
	ConditionalLogic string             `bson:"conditionalLogic"`
	Settings         string             `bson:"settings"`
	Theme            string             `bson:"theme"`
	AccessControl    string             `bson:"accessControl"`
	Metadata         string             `bson:"metadata"`
	CreatedBy        string             `bson:"createdBy,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

// CreateFormRequest is the payload for creating a form.
type CreateFormRequest struct {
	Title            string            `json:"title" validate:"required,min=1,max=200"`
	Description      string            `json:"description,omitempty"`
	Fields           []FieldSchema     `json:"fields,omitempty"`
	Steps            []FormStep        `json:"steps,omitempty"`
	ConditionalLogic []ConditionalRule `json:"conditionalLogic,omitempty"`
	Settings         *FormSettings     `json:"settings,omitempty"`
	Theme            *FormTheme        `json:"theme,omitempty"`
	AccessControl    *FormAccessControl `json:"accessControl,omitempty"`
}

// UpdateFormRequest is the payload for updating a form's schema. Any non-nil
// section replaces the stored one and bumps the form version.
type UpdateFormRequest struct {
	Title            *string            `json:"title,omitempty"`
	Description      *string            `json:"description,omitempty"`
	Fields           []FieldSchema      `json:"fields,omitempty"`
	Steps            []FormStep         `json:"steps,omitempty"`
	ConditionalLogic []ConditionalRule  `json:"conditionalLogic,omitempty"`
	Settings         *FormSettings      `json:"settings,omitempty"`
	Theme            *FormTheme         `json:"theme,omitempty"`
	AccessControl    *FormAccessControl `json:"accessControl,omitempty"`
}
