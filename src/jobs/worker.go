package jobs

import (
	"log"
	"os"

	"formhive-backend/src/services/imports"

	"github.com/hibiken/asynq"
)

// StartWorker runs the asynq worker that processes queued import jobs.
// Blocks; run it in its own goroutine.
func StartWorker() {
	redisURI := os.Getenv("REDIS_URI")
	if redisURI == "" {
		log.Println("⚠️ REDIS_URI not set. Worker will not start.")
		return
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisURI},
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(imports.TypeRunImport, imports.HandleRunImportTask)

	log.Println("✅ Import worker started")
	if err := srv.Run(mux); err != nil {
		log.Fatal("❌ Worker failed to start:", err)
	}
}
