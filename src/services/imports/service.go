package imports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	DB "formhive-backend/src/database"
	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"
	"formhive-backend/src/services/submission"
	"formhive-backend/src/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrJobNotFound       = errors.New("import job not found")
	ErrFileNotFound      = errors.New("import file not found")
	ErrJobAlreadyRunning = errors.New("an import job is already running for this form")
	ErrJobFinished       = errors.New("import job already finished")
)

// AnalyzeUpload stores the uploaded spreadsheet and returns the analyzer's
// proposed schema for it.
func AnalyzeUpload(ctx context.Context, companyID primitive.ObjectID, fileName, contentType string, data []byte) (*models.AnalyzeResult, error) {
	parsed, err := ParseUpload(fileName, data)
	if err != nil {
		return nil, err
	}

	file := &models.ImportFile{
		ID:          primitive.NewObjectID(),
		CompanyID:   companyID,
		Name:        fileName,
		Size:        int64(len(data)),
		ContentType: contentType,
		Data:        data,
		UploadedAt:  time.Now(),
	}
	if _, err := DB.ImportFileCollection.InsertOne(ctx, file); err != nil {
		return nil, err
	}

	result := AnalyzeFile(fileName, parsed)
	result.FileID = file.ID.Hex()
	return result, nil
}

// StartImport creates an import job for an uploaded file and queues it for
// the worker. When the request names no form, a draft form is created from
// the confirmed field detection. At most one job may be active per form.
func StartImport(ctx context.Context, companyID primitive.ObjectID, createdBy string, req *models.StartImportRequest) (*models.ImportJob, error) {
	fileID, err := primitive.ObjectIDFromHex(req.FileID)
	if err != nil {
		return nil, fmt.Errorf("invalid file id: %w", err)
	}

	file, err := getImportFile(ctx, companyID, fileID)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseUpload(file.Name, file.Data)
	if err != nil {
		return nil, err
	}

	form, err := resolveTargetForm(ctx, companyID, createdBy, file.Name, parsed, req)
	if err != nil {
		return nil, err
	}

	// single active job per form
	count, err := DB.ImportJobCollection.CountDocuments(ctx, bson.M{
		"formId": form.ID,
		"status": bson.M{"$in": []models.ImportJobStatus{
			models.ImportPending, models.ImportParsing, models.ImportValidating, models.ImportImporting,
		}},
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrJobAlreadyRunning
	}

	mapping := req.ColumnMapping
	if len(mapping) == 0 {
		mapping = BuildColumnMapping(parsed.Columns, form.Fields)
	}

	now := time.Now()
	job := &models.ImportJob{
		ID:            primitive.NewObjectID(),
		CompanyID:     companyID,
		FormID:        form.ID,
		FileID:        file.ID,
		FileName:      file.Name,
		Status:        models.ImportPending,
		Strict:        req.Strict,
		ColumnMapping: mapping,
		TotalRows:     parsed.RowCount,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := DB.ImportJobCollection.InsertOne(ctx, job); err != nil {
		return nil, err
	}

	if err := enqueueImportTask(job.ID.Hex()); err != nil {
		markJobFailed(ctx, job.ID, fmt.Sprintf("could not queue job: %v", err))
		return nil, err
	}

	return job, nil
}

// RunImportJob drives one queued job through its state machine. Called from
// the asynq worker; returning nil for domain failures keeps asynq from
// retrying a job that is terminally failed by design.
func RunImportJob(ctx context.Context, jobID primitive.ObjectID) error {
	job, err := loadJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		log.Printf("⚠️ import job %s already %s, skipping", jobID.Hex(), job.Status)
		return nil
	}

	// pending → parsing
	started := time.Now()
	setJobPhase(ctx, jobID, models.ImportParsing, bson.M{"startedAt": started})

	file, err := getImportFile(ctx, job.CompanyID, job.FileID)
	if err != nil {
		markJobFailed(ctx, jobID, fmt.Sprintf("source file unavailable: %v", err))
		return nil
	}

	parsed, err := ParseUpload(file.Name, file.Data)
	if err != nil {
		markJobFailed(ctx, jobID, err.Error())
		return nil
	}

	form, err := forms.GetCompanyForm(ctx, job.CompanyID, job.FormID)
	if err != nil {
		markJobFailed(ctx, jobID, fmt.Sprintf("target form unavailable: %v", err))
		return nil
	}

	mapping := job.ColumnMapping
	if len(mapping) == 0 {
		mapping = BuildColumnMapping(parsed.Columns, form.Fields)
	}

	outcome := RunRows(ctx, parsed, form.Fields, mapping, job.Strict,
		submissionWriter(form),
		progressPersister(jobID),
		cancelChecker(jobID),
	)

	finishJob(ctx, jobID, outcome)
	utils.ClearImportCancel(jobID.Hex())
	return nil
}

// CancelImport requests cooperative cancellation. A pending job is
// cancelled immediately; a running one stops at the next batch boundary.
// Rows already created stay created.
func CancelImport(ctx context.Context, companyID, jobID primitive.ObjectID) error {
	job, err := GetImportJob(ctx, companyID, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return ErrJobFinished
	}

	utils.RequestImportCancel(jobID.Hex())
	update := bson.M{"cancelRequested": true, "updatedAt": time.Now()}
	if job.Status == models.ImportPending {
		now := time.Now()
		update["status"] = models.ImportCancelled
		update["completedAt"] = now
	}

	_, err = DB.ImportJobCollection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": update})
	return err
}

// GetImportJob retrieves one of the company's jobs.
func GetImportJob(ctx context.Context, companyID, jobID primitive.ObjectID) (*models.ImportJob, error) {
	return findJob(ctx, DB.ScopedID(jobID, companyID))
}

// loadJob fetches a job without tenant scoping. Only the worker uses it; the
// job id arrives via the queue, never from a request.
func loadJob(ctx context.Context, jobID primitive.ObjectID) (*models.ImportJob, error) {
	return findJob(ctx, bson.M{"_id": jobID})
}

func findJob(ctx context.Context, filter bson.M) (*models.ImportJob, error) {
	var job models.ImportJob
	err := DB.ImportJobCollection.FindOne(ctx, filter).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// GetImportProgress returns the polling snapshot for a job.
func GetImportProgress(ctx context.Context, companyID, jobID primitive.ObjectID) (*models.ImportProgress, error) {
	job, err := GetImportJob(ctx, companyID, jobID)
	if err != nil {
		return nil, err
	}
	progress := job.Progress()
	return &progress, nil
}

// ListImportJobs retrieves a company's jobs, newest first.
func ListImportJobs(ctx context.Context, companyID primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse, error) {
	filter := bson.M{"companyId": companyID}

	total, err := DB.ImportJobCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := DB.ImportJobCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []models.ImportJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}

	return models.NewPaginatedResponse(jobs, total, params), nil
}

// ErrorReportCSV renders a job's accumulated row errors as a CSV report.
func ErrorReportCSV(job *models.ImportJob) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"RowNumber", "FieldName", "FieldType", "Value", "ErrorMessage", "Suggestion"}); err != nil {
		return nil, err
	}
	for _, re := range job.Errors {
		row := []string{strconv.Itoa(re.Row), re.FieldName, re.FieldType, re.Value, re.Message, re.Suggestion}
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

// DeleteImportFile drops the stored upload once its job is terminal.
func DeleteImportFile(ctx context.Context, companyID, fileID primitive.ObjectID) error {
	res, err := DB.ImportFileCollection.DeleteOne(ctx, DB.ScopedID(fileID, companyID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFileNotFound
	}
	return nil
}

func getImportFile(ctx context.Context, companyID, fileID primitive.ObjectID) (*models.ImportFile, error) {
	var file models.ImportFile
	err := DB.ImportFileCollection.FindOne(ctx, DB.ScopedID(fileID, companyID)).Decode(&file)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func resolveTargetForm(ctx context.Context, companyID primitive.ObjectID, createdBy, fileName string, parsed *models.ParsedFileData, req *models.StartImportRequest) (*models.Form, error) {
	if req.FormID != "" {
		formID, err := primitive.ObjectIDFromHex(req.FormID)
		if err != nil {
			return nil, fmt.Errorf("invalid form id: %w", err)
		}
		return forms.GetCompanyForm(ctx, companyID, formID)
	}

	detected := req.Fields
	if len(detected) == 0 {
		detected = AnalyzeFile(fileName, parsed).DetectedFields
	}

	title := req.FormName
	if title == "" {
		title = suggestFormName(fileName)
	}

	fields := make([]models.FieldSchema, len(detected))
	for i, d := range detected {
		fields[i] = models.FieldSchema{
			Type:     d.Type,
			Label:    d.Label,
			Required: d.Required,
			Options:  d.Options,
			Order:    i + 1,
		}
	}

	return forms.CreateForm(ctx, companyID, createdBy, &models.CreateFormRequest{
		Title:  title,
		Fields: fields,
	})
}

// submissionWriter persists one imported row as a completed submission plus
// its fanned-out value records. Each row is an independent, non-reversible
// write.
func submissionWriter(form *models.Form) RowWriter {
	return func(ctx context.Context, rowNumber int, answers map[string]interface{}) error {
		now := time.Now()
		sub := &models.FormSubmission{
			ID:          primitive.NewObjectID(),
			FormID:      form.ID,
			FormVersion: form.Version,
			CompanyID:   form.CompanyID,
			Status:      models.SubmissionCompleted,
			IsAnonymous: true,
			StartedAt:   now,
			SubmittedAt: &now,
			LastSavedAt: now,
		}
		if _, err := DB.SubmissionCollection.InsertOne(ctx, sub); err != nil {
			return err
		}

		if values := submission.EncodeValues(form, sub.ID, answers); len(values) > 0 {
			docs := make([]interface{}, len(values))
			for i, v := range values {
				docs[i] = v
			}
			if _, err := DB.SubmissionValueCollection.InsertMany(ctx, docs); err != nil {
				return err
			}
		}
		return nil
	}
}

func progressPersister(jobID primitive.ObjectID) ProgressSink {
	return func(status models.ImportJobStatus, processed, success, errCount int) {
		_, err := DB.ImportJobCollection.UpdateOne(context.Background(),
			bson.M{"_id": jobID},
			bson.M{"$set": bson.M{
				"status":        status,
				"processedRows": processed,
				"successCount":  success,
				"errorCount":    errCount,
				"updatedAt":     time.Now(),
			}},
		)
		if err != nil {
			log.Printf("⚠️ import job %s: could not persist progress: %v", jobID.Hex(), err)
		}
	}
}

func cancelChecker(jobID primitive.ObjectID) CancelCheck {
	return func() bool {
		if utils.IsImportCancelled(jobID.Hex()) {
			return true
		}
		// fallback when redis is unavailable
		var job models.ImportJob
		err := DB.ImportJobCollection.FindOne(context.Background(), bson.M{"_id": jobID}).Decode(&job)
		return err == nil && job.CancelRequested
	}
}

func setJobPhase(ctx context.Context, jobID primitive.ObjectID, status models.ImportJobStatus, extra bson.M) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	for k, v := range extra {
		set[k] = v
	}
	if _, err := DB.ImportJobCollection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": set}); err != nil {
		log.Printf("⚠️ import job %s: could not enter %s: %v", jobID.Hex(), status, err)
	}
}

// markJobFailed is terminal; partial progress counters are preserved for
// diagnostics.
func markJobFailed(ctx context.Context, jobID primitive.ObjectID, reason string) {
	now := time.Now()
	_, err := DB.ImportJobCollection.UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$set": bson.M{
			"status":      models.ImportFailed,
			"error":       reason,
			"completedAt": now,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		log.Printf("❌ import job %s: could not mark failed: %v", jobID.Hex(), err)
	}
	log.Printf("❌ import job %s failed: %s", jobID.Hex(), reason)
}

func finishJob(ctx context.Context, jobID primitive.ObjectID, outcome *RunOutcome) {
	now := time.Now()
	set := bson.M{
		"status":        outcome.Status,
		"totalRows":     outcome.TotalRows,
		"processedRows": outcome.ProcessedRows,
		"successCount":  outcome.SuccessCount,
		"errorCount":    outcome.ErrorCount,
		"errors":        outcome.RowErrors,
		"completedAt":   now,
		"updatedAt":     now,
	}
	if outcome.Err != "" {
		set["error"] = outcome.Err
	}
	if _, err := DB.ImportJobCollection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": set}); err != nil {
		log.Printf("❌ import job %s: could not persist final state: %v", jobID.Hex(), err)
	}
	log.Printf("✅ import job %s finished: %s (%d ok, %d failed of %d)",
		jobID.Hex(), outcome.Status, outcome.SuccessCount, outcome.ErrorCount, outcome.TotalRows)
}
