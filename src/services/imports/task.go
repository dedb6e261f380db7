package imports

import (
	"context"
	"encoding/json"
	"log"

	DB "formhive-backend/src/database"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TypeRunImport = "import:run"

type ImportTaskPayload struct {
	JobID string `json:"jobId"`
}

func NewRunImportTask(jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRunImport, payload), nil
}

// enqueueImportTask hands the job to the worker. Without Redis the job runs
// in-process so local development still works end to end.
func enqueueImportTask(jobID string) error {
	if DB.AsynqClient == nil {
		log.Println("⚠️ Asynq not available, running import job in-process:", jobID)
		id, err := primitive.ObjectIDFromHex(jobID)
		if err != nil {
			return err
		}
		go func() {
			if err := RunImportJob(context.Background(), id); err != nil {
				log.Println("❌ In-process import job failed:", err)
			}
		}()
		return nil
	}

	task, err := NewRunImportTask(jobID)
	if err != nil {
		return err
	}
	info, err := DB.AsynqClient.Enqueue(task)
	if err != nil {
		return err
	}
	log.Println("✅ Import job queued:", info.ID)
	return nil
}

// HandleRunImportTask is the asynq handler for queued import jobs.
func HandleRunImportTask(ctx context.Context, t *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Println("❌ Payload decode error:", err)
		return err
	}

	jobID, err := primitive.ObjectIDFromHex(payload.JobID)
	if err != nil {
		log.Println("❌ Invalid job id in payload:", payload.JobID)
		return nil // malformed payload, retrying won't help
	}

	if err := RunImportJob(ctx, jobID); err != nil {
		if err == ErrJobNotFound {
			log.Println("⚠️ Import job not found. Possibly deleted. Skipping task:", payload.JobID)
			return nil
		}
		return err
	}
	return nil
}
