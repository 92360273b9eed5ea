// internal/workflow/context.go
package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// runContext carries everything scoped to one submission run: the run id,
// the ordered structured log, and the cleanup stack executed on every exit
// path.
type runContext struct {
	runID     string
	record    *schemas.CaseRecord
	startedAt time.Time
	logger    *zap.Logger

	mu       sync.Mutex
	keys     []string
	values   map[string]string
	cleanups []func()
}

func newRunContext(record *schemas.CaseRecord, logger *zap.Logger) *runContext {
	id := uuid.NewString()
	return &runContext{
		runID:     id,
		record:    record,
		startedAt: time.Now(),
		logger:    logger.With(zap.String("run_id", id), zap.String("record_id", record.RecordID)),
		values:    map[string]string{},
	}
}

// Log appends one ordered key/value entry. Re-logging an existing key
// overwrites its value in place, keeping the original position, so retried
// steps do not inflate the log.
func (rc *runContext) Log(key, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, seen := rc.values[key]; !seen {
		rc.keys = append(rc.keys, key)
	}
	rc.values[key] = value
}

// Entries returns the log in insertion order.
func (rc *runContext) Entries() []schemas.LogEntry {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entries := make([]schemas.LogEntry, 0, len(rc.keys))
	for _, k := range rc.keys {
		entries = append(entries, schemas.LogEntry{Key: k, Value: rc.values[k]})
	}
	return entries
}

// AddCleanup registers a teardown step. Cleanups run LIFO.
func (rc *runContext) AddCleanup(fn func()) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cleanups = append(rc.cleanups, fn)
}

// Cleanup runs and clears the registered teardown steps. Idempotent.
func (rc *runContext) Cleanup() {
	rc.mu.Lock()
	fns := rc.cleanups
	rc.cleanups = nil
	rc.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
