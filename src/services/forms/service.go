package forms

import (
	"context"
	"errors"
	"time"

	DB "formhive-backend/src/database"
	"formhive-backend/src/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrFormNotFound = errors.New("form not found")

// CreateForm creates a new draft form owned by a company.
func CreateForm(ctx context.Context, companyID primitive.ObjectID, createdBy string, req *models.CreateFormRequest) (*models.Form, error) {
	now := time.Now()

	form := &models.Form{
		ID:               primitive.NewObjectID(),
		CompanyID:        companyID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           models.FormDraft,
		Version:          1,
		Fields:           req.Fields,
		Steps:            req.Steps,
		ConditionalLogic: req.ConditionalLogic,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.Settings != nil {
		form.Settings = *req.Settings
	}
	if req.Theme != nil {
		form.Theme = *req.Theme
	}
	if req.AccessControl != nil {
		form.AccessControl = *req.AccessControl
	}

	normalizeSchema(form)

	if _, err := DB.FormCollection.InsertOne(ctx, SerializeForm(form)); err != nil {
		return nil, err
	}
	return form, nil
}

// GetFormByID loads and deserializes one form regardless of owner. Only the
// respondent-facing paths use this; builder operations go through
// GetCompanyForm.
func GetFormByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error) {
	return findForm(ctx, bson.M{"_id": id})
}

// GetCompanyForm loads a form that belongs to the given company. Forms of
// other tenants are reported as not found.
func GetCompanyForm(ctx context.Context, companyID, id primitive.ObjectID) (*models.Form, error) {
	return findForm(ctx, DB.ScopedID(id, companyID))
}

func findForm(ctx context.Context, filter bson.M) (*models.Form, error) {
	var doc models.FormDocument
	err := DB.FormCollection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return DeserializeForm(&doc), nil
}

// GetForms retrieves a company's forms with pagination and optional title search.
func GetForms(ctx context.Context, companyID primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse, error) {
	filter := bson.M{"companyId": companyID}
	if params.Search != "" {
		filter["title"] = bson.M{"$regex": params.Search, "$options": "i"}
	}

	total, err := DB.FormCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit)).
		SetSort(params.GetSortOrder())

	cursor, err := DB.FormCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.FormDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	forms := make([]*models.Form, 0, len(docs))
	for i := range docs {
		forms = append(forms, DeserializeForm(&docs[i]))
	}

	return models.NewPaginatedResponse(forms, total, params), nil
}

// UpdateForm applies a partial update. Any change to fields, steps or
// conditional logic bumps the form version, since it changes how in-flight
// submissions are interpreted.
func UpdateForm(ctx context.Context, companyID, id primitive.ObjectID, req *models.UpdateFormRequest) (*models.Form, error) {
	form, err := GetCompanyForm(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	schemaChanged := false
	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.Fields != nil {
		form.Fields = req.Fields
		schemaChanged = true
	}
	if req.Steps != nil {
		form.Steps = req.Steps
		schemaChanged = true
	}
	if req.ConditionalLogic != nil {
		form.ConditionalLogic = req.ConditionalLogic
		schemaChanged = true
	}
	if req.Settings != nil {
		form.Settings = *req.Settings
	}
	if req.Theme != nil {
		form.Theme = *req.Theme
	}
	if req.AccessControl != nil {
		form.AccessControl = *req.AccessControl
	}

	if schemaChanged {
		form.Version++
		normalizeSchema(form)
	}
	form.UpdatedAt = time.Now()

	if _, err := DB.FormCollection.ReplaceOne(ctx, bson.M{"_id": id}, SerializeForm(form)); err != nil {
		return nil, err
	}
	return form, nil
}

// DeleteForm removes a form document owned by the company.
func DeleteForm(ctx context.Context, companyID, id primitive.ObjectID) error {
	res, err := DB.FormCollection.DeleteOne(ctx, DB.ScopedID(id, companyID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFormNotFound
	}
	return nil
}

// PublishForm validates the schema invariants and moves the form to
// published. An archived form may be re-published.
func PublishForm(ctx context.Context, companyID, id primitive.ObjectID) (*models.Form, error) {
	form, err := GetCompanyForm(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if errs := ValidateFormSchema(form); len(errs) > 0 {
		return nil, &SchemaValidationError{Errors: errs}
	}

	form.Status = models.FormPublished
	form.UpdatedAt = time.Now()

	if _, err := DB.FormCollection.ReplaceOne(ctx, bson.M{"_id": id}, SerializeForm(form)); err != nil {
		return nil, err
	}
	return form, nil
}

// ArchiveForm stops the form from accepting submissions.
func ArchiveForm(ctx context.Context, companyID, id primitive.ObjectID) (*models.Form, error) {
	form, err := GetCompanyForm(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	form.Status = models.FormArchived
	form.UpdatedAt = time.Now()

	if _, err := DB.FormCollection.ReplaceOne(ctx, bson.M{"_id": id}, SerializeForm(form)); err != nil {
		return nil, err
	}
	return form, nil
}

// DuplicateForm copies a form as a fresh draft with new ids.
func DuplicateForm(ctx context.Context, companyID, id primitive.ObjectID, createdBy string) (*models.Form, error) {
	src, err := GetCompanyForm(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	copyForm := *src
	copyForm.ID = primitive.NewObjectID()
	copyForm.Title = src.Title + " (Copy)"
	copyForm.Status = models.FormDraft
	copyForm.Version = 1
	copyForm.Metadata = models.FormMetadata{}
	copyForm.CreatedBy = createdBy
	copyForm.CreatedAt = now
	copyForm.UpdatedAt = now

	// new field ids, remapped through steps, logic and option lists
	idMap := make(map[string]string, len(src.Fields))
	copyForm.Fields = make([]models.FieldSchema, len(src.Fields))
	for i, f := range src.Fields {
		nf := f
		nf.ID = uuid.NewString()
		idMap[f.ID] = nf.ID
		nf.Options = make([]models.FieldOption, len(f.Options))
		for j, opt := range f.Options {
			opt.ID = uuid.NewString()
			nf.Options[j] = opt
		}
		copyForm.Fields[i] = nf
	}
	copyForm.Steps = make([]models.FormStep, len(src.Steps))
	for i, step := range src.Steps {
		ns := step
		ns.ID = uuid.NewString()
		ns.Fields = make([]string, 0, len(step.Fields))
		for _, fid := range step.Fields {
			if mapped, ok := idMap[fid]; ok {
				ns.Fields = append(ns.Fields, mapped)
			}
		}
		copyForm.Steps[i] = ns
	}
	copyForm.ConditionalLogic = make([]models.ConditionalRule, len(src.ConditionalLogic))
	for i, rule := range src.ConditionalLogic {
		nr := rule
		nr.ID = uuid.NewString()
		nr.TargetFieldID = idMap[rule.TargetFieldID]
		nr.Conditions = make([]models.Condition, len(rule.Conditions))
		for j, cond := range rule.Conditions {
			cond.FieldID = idMap[cond.FieldID]
			nr.Conditions[j] = cond
		}
		copyForm.ConditionalLogic[i] = nr
	}

	if _, err := DB.FormCollection.InsertOne(ctx, SerializeForm(&copyForm)); err != nil {
		return nil, err
	}
	return &copyForm, nil
}

// normalizeSchema fills in ids, default layout and sequence numbers so the
// stored schema is always addressable.
func normalizeSchema(form *models.Form) {
	for i := range form.Fields {
		f := &form.Fields[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if f.Layout.Width == "" {
			f.Layout.Width = models.WidthFull
		}
		if f.Order == 0 {
			f.Order = i + 1
		}
		for j := range f.Options {
			if f.Options[j].ID == "" {
				f.Options[j].ID = uuid.NewString()
			}
			if f.Options[j].Value == "" {
				f.Options[j].Value = f.Options[j].Label
			}
		}
	}
	for i := range form.Steps {
		if form.Steps[i].ID == "" {
			form.Steps[i].ID = uuid.NewString()
		}
		if form.Steps[i].Order == 0 {
			form.Steps[i].Order = i + 1
		}
	}
	for i := range form.ConditionalLogic {
		if form.ConditionalLogic[i].ID == "" {
			form.ConditionalLogic[i].ID = uuid.NewString()
		}
	}
}
