package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	DB "formhive-backend/src/database"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()

// cancelTTL keeps stale cancel flags from accumulating when a worker dies
// before clearing them.
var cancelTTL = 24 * time.Hour

// ensureClient returns the shared Redis client managed by the database
// package. Nil when Redis was not initialized; callers treat that as
// "flag not set" and fall back to the job document.
func ensureClient() *redis.Client {
	return DB.RedisClient
}

func cancelKey(jobID string) string {
	return fmt.Sprintf("import_cancel:%s", jobID)
}

// RequestImportCancel raises the cancel flag for a running import job.
// No-op without Redis; the job document carries the flag instead.
func RequestImportCancel(jobID string) {
	client := ensureClient()
	if client == nil {
		return
	}
	if err := client.Set(Ctx, cancelKey(jobID), "1", cancelTTL).Err(); err != nil {
		log.Println("⚠️ Failed to set cancel flag:", err)
	}
}

// IsImportCancelled reports whether a cancel was requested for the job.
// Returns false without Redis so the caller checks the job document.
func IsImportCancelled(jobID string) bool {
	client := ensureClient()
	if client == nil {
		return false
	}
	_, err := client.Get(Ctx, cancelKey(jobID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Println("⚠️ Failed to check cancel flag:", err)
		}
		return false
	}
	return true
}

// ClearImportCancel drops the flag once the job reached a terminal state.
func ClearImportCancel(jobID string) {
	client := ensureClient()
	if client == nil {
		return
	}
	if err := client.Del(Ctx, cancelKey(jobID)).Err(); err != nil {
		log.Println("⚠️ Failed to clear cancel flag:", err)
	}
}
