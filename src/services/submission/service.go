package submission

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	DB "formhive-backend/src/database"
	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrFormClosed         = errors.New("form is not accepting submissions")
	ErrLoginRequired      = errors.New("this form requires login")
	ErrAnonymousBlocked   = errors.New("this form does not accept anonymous submissions")
)

// ValidationFailedError carries the per-field failures of a submit attempt.
// Field-scoped errors are local and non-fatal; the message surfaces the
// first few plus a count of the remainder.
type ValidationFailedError struct {
	FieldErrors map[string]string `json:"fieldErrors"`
}

func (e *ValidationFailedError) Error() string {
	const maxShown = 3
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, maxShown)
	for i, k := range keys {
		if i == maxShown {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(keys)-maxShown))
			break
		}
		msgs = append(msgs, e.FieldErrors[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// SubmitForm validates answers against the form's schema and conditional
// logic, then stores the submission and fans its answers out into
// SubmissionValue records. Fields hidden by an active rule are neither
// validated nor stored, whatever their own required flag says.
func SubmitForm(ctx context.Context, form *models.Form, req *models.SubmitFormRequest, userID *primitive.ObjectID) (*models.FormSubmission, error) {
	if err := checkAccess(form, req, userID); err != nil {
		return nil, err
	}

	states := forms.EvaluateRules(form.ConditionalLogic, req.Answers)

	answers := make(map[string]interface{}, len(req.Answers))
	fieldErrors := make(map[string]string)
	for _, field := range form.Fields {
		if field.Type.IsPresentational() {
			continue
		}
		if !forms.IsFieldVisible(states, field.ID) {
			continue // hidden: not validated, not stored
		}
		field.Required = forms.IsFieldRequired(field, states)
		answer := req.Answers[field.ID]
		if res := forms.ValidateField(field, answer); !res.Valid {
			fieldErrors[field.ID] = res.Message
			continue
		}
		if !forms.IsEmptyValue(answer) {
			answers[field.ID] = answer
		}
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationFailedError{FieldErrors: fieldErrors}
	}

	now := time.Now()
	sub := &models.FormSubmission{
		ID:               primitive.NewObjectID(),
		FormID:           form.ID,
		FormVersion:      form.Version,
		CompanyID:        form.CompanyID,
		Status:           models.SubmissionCompleted,
		SubmittedBy:      userID,
		SubmittedByEmail: req.Email,
		IsAnonymous:      req.IsAnonymous || userID == nil,
		StartedAt:        now,
		SubmittedAt:      &now,
		LastSavedAt:      now,
		FileUploads:      req.FileUploads,
	}

	if _, err := DB.SubmissionCollection.InsertOne(ctx, sub); err != nil {
		return nil, err
	}

	if values := EncodeValues(form, sub.ID, answers); len(values) > 0 {
		docs := make([]interface{}, len(values))
		for i, v := range values {
			docs[i] = v
		}
		if _, err := DB.SubmissionValueCollection.InsertMany(ctx, docs); err != nil {
			// the submission exists; value fan-out is retried by reindexing
			log.Printf("❌ failed to store values for submission %s: %v", sub.ID.Hex(), err)
		}
	}

	bumpSubmissionCount(ctx, form, now)

	return sub, nil
}

// SaveDraft is the best-effort periodic auto-save. Answers are stored
// without validation; a failed save is the caller's to log and retry on the
// next tick, never a blocking error for the respondent.
func SaveDraft(ctx context.Context, form *models.Form, req *models.SaveDraftRequest, userID *primitive.ObjectID) (*models.FormSubmission, error) {
	now := time.Now()

	var id primitive.ObjectID
	if req.SubmissionID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("invalid submission id: %w", err)
		}
		id = parsed
	} else {
		id = primitive.NewObjectID()
	}

	sub := &models.FormSubmission{
		ID:               id,
		FormID:           form.ID,
		FormVersion:      form.Version,
		CompanyID:        form.CompanyID,
		Status:           models.SubmissionDraft,
		SubmittedBy:      userID,
		SubmittedByEmail: req.Email,
		IsAnonymous:      userID == nil,
		StartedAt:        now,
		LastSavedAt:      now,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := DB.SubmissionCollection.ReplaceOne(ctx, bson.M{"_id": id}, sub, opts); err != nil {
		return nil, err
	}

	// drafts keep their current values; replace them wholesale
	if _, err := DB.SubmissionValueCollection.DeleteMany(ctx, bson.M{"submissionId": id}); err != nil {
		log.Printf("⚠️ draft %s: could not clear old values: %v", id.Hex(), err)
	}
	if values := EncodeValues(form, id, req.Answers); len(values) > 0 {
		docs := make([]interface{}, len(values))
		for i, v := range values {
			docs[i] = v
		}
		if _, err := DB.SubmissionValueCollection.InsertMany(ctx, docs); err != nil {
			log.Printf("⚠️ draft %s: could not store values: %v", id.Hex(), err)
		}
	}

	return sub, nil
}

// GetSubmissionByID retrieves one submission owned by the company.
func GetSubmissionByID(ctx context.Context, companyID, id primitive.ObjectID) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := DB.SubmissionCollection.FindOne(ctx, DB.ScopedID(id, companyID)).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// GetSubmissionAnswers reconstructs a submission's answer map from its
// value records.
func GetSubmissionAnswers(ctx context.Context, id primitive.ObjectID) (map[string]interface{}, error) {
	cursor, err := DB.SubmissionValueCollection.Find(ctx, bson.M{"submissionId": id})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var values []models.SubmissionValue
	if err := cursor.All(ctx, &values); err != nil {
		return nil, err
	}
	return DecodeValues(values), nil
}

// GetSubmissionsByFormID retrieves a form's submissions with pagination.
func GetSubmissionsByFormID(ctx context.Context, companyID, formID primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse, error) {
	filter := bson.M{"formId": formID, "companyId": companyID}

	total, err := DB.SubmissionCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: "startedAt", Value: -1}})

	cursor, err := DB.SubmissionCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.FormSubmission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}

	return models.NewPaginatedResponse(subs, total, params), nil
}

// DeleteSubmission removes a company's submission and its value records as
// a unit.
func DeleteSubmission(ctx context.Context, companyID, id primitive.ObjectID) error {
	res, err := DB.SubmissionCollection.DeleteOne(ctx, DB.ScopedID(id, companyID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrSubmissionNotFound
	}
	if _, err := DB.SubmissionValueCollection.DeleteMany(ctx, bson.M{"submissionId": id}); err != nil {
		return err
	}
	return nil
}

// FieldValueCount is one (field, value) bucket of the answer distribution.
type FieldValueCount struct {
	FieldID string      `json:"fieldId" bson:"fieldId"`
	Value   interface{} `json:"value" bson:"value"`
	Count   int64       `json:"count" bson:"count"`
}

// GetFieldAnalytics aggregates answer distribution per field across a
// form's value records.
func GetFieldAnalytics(ctx context.Context, formID primitive.ObjectID) ([]FieldValueCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"formId": formID}},
		{"$group": bson.M{
			"_id": bson.M{
				"fieldId": "$fieldId",
				"value": bson.M{"$ifNull": []interface{}{
					"$valueText", "$valueNumber", "$valueBoolean", "$valueDate", "$valueArray",
				}},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"fieldId": "$_id.fieldId",
			"value":   "$_id.value",
			"count":   1,
			"_id":     0,
		}},
		{"$sort": bson.M{"fieldId": 1, "count": -1}},
	}

	cur, err := DB.SubmissionValueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []FieldValueCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportSubmissionsCSV renders every completed submission of a form as CSV,
// one column per field in form order.
func ExportSubmissionsCSV(ctx context.Context, form *models.Form) ([]byte, error) {
	fields := exportableFields(form)

	cursor, err := DB.SubmissionCollection.Find(ctx,
		bson.M{"formId": form.ID, "status": models.SubmissionCompleted},
		options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.FormSubmission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}

	// one value query for the whole batch
	ids := make([]primitive.ObjectID, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	valuesBySubmission := make(map[primitive.ObjectID][]models.SubmissionValue)
	if len(ids) > 0 {
		vcur, err := DB.SubmissionValueCollection.Find(ctx, bson.M{"submissionId": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		defer vcur.Close(ctx)
		var values []models.SubmissionValue
		if err := vcur.All(ctx, &values); err != nil {
			return nil, err
		}
		for _, v := range values {
			valuesBySubmission[v.SubmissionID] = append(valuesBySubmission[v.SubmissionID], v)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Submitted At", "Email"}
	for _, f := range fields {
		header = append(header, f.Label)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, sub := range subs {
		answers := DecodeValues(valuesBySubmission[sub.ID])
		row := []string{submittedAtString(sub), sub.SubmittedByEmail}
		for _, f := range fields {
			row = append(row, cellString(answers[f.ID]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportableFields(form *models.Form) []models.FieldSchema {
	var fields []models.FieldSchema
	for _, f := range form.Fields {
		if !f.Type.IsPresentational() {
			fields = append(fields, f)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields
}

func submittedAtString(sub models.FormSubmission) string {
	if sub.SubmittedAt == nil {
		return ""
	}
	return sub.SubmittedAt.Format(time.RFC3339)
}

func cellString(answer interface{}) string {
	switch v := answer.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, ", ")
	default:
		return forms.ToString(answer)
	}
}

func checkAccess(form *models.Form, req *models.SubmitFormRequest, userID *primitive.ObjectID) error {
	if form.Status != models.FormPublished {
		return ErrFormClosed
	}
	if exp := form.AccessControl.ExpiresAt; exp != nil && time.Now().After(*exp) {
		return ErrFormClosed
	}
	if max := form.AccessControl.MaxSubmissions; max > 0 && form.Metadata.SubmissionCount >= int64(max) {
		return ErrFormClosed
	}
	if form.Settings.RequireLogin && (req.IsAnonymous || userID == nil) {
		return ErrLoginRequired
	}
	if req.IsAnonymous && !form.Settings.AllowAnonymous {
		return ErrAnonymousBlocked
	}
	return nil
}

// bumpSubmissionCount maintains the denormalized metadata counters. The
// counter is append-only; a lost race only delays metadata accuracy.
func bumpSubmissionCount(ctx context.Context, form *models.Form, at time.Time) {
	form.Metadata.SubmissionCount++
	form.Metadata.LastSubmissionAt = &at

	_, err := DB.FormCollection.UpdateOne(ctx,
		bson.M{"_id": form.ID},
		bson.M{"$set": bson.M{"metadata": forms.SerializeMetadata(form.Metadata)}},
	)
	if err != nil {
		log.Printf("⚠️ form %s: could not update submission counters: %v", form.ID.Hex(), err)
	}
}
