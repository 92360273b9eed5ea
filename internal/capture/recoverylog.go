// internal/capture/recoverylog.go
package capture

import (
	"encoding/base64"

	"go.uber.org/zap"

	"formpilot/internal/config"
	"formpilot/internal/observability"
)

// RecoveryLog is the append-only audit trail for captured artifacts. Every
// payload is recorded here, base64-encoded, BEFORE any persistence attempt:
// if the storage gateway fails afterwards, the bytes can be recovered from
// the log by hand. Rotation keeps it an operational convenience rather than
// an unbounded liability.
type RecoveryLog struct {
	logger *zap.Logger
}

// NewRecoveryLog opens (or creates) the rotating recovery log configured for
// the capture pipeline.
func NewRecoveryLog(cfg config.CaptureConfig) *RecoveryLog {
	return &RecoveryLog{
		logger: observability.NewRotatingLogger(cfg.RecoveryLogPath, cfg.RecoveryMaxSizeMB, cfg.RecoveryMaxBackups),
	}
}

// Record writes one audit entry. Safe on a nil log, which disables auditing.
func (r *RecoveryLog) Record(job *Job, strategy string, data []byte) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Info("artifact captured",
		zap.String("run_id", job.RunID),
		zap.String("record_id", job.RecordID),
		zap.String("entity", job.EntityName),
		zap.String("logical_name", job.LogicalName),
		zap.String("strategy", strategy),
		zap.Int("byte_length", len(data)),
		zap.String("payload_b64", base64.StdEncoding.EncodeToString(data)),
	)
}

// Sync flushes buffered entries to disk.
func (r *RecoveryLog) Sync() {
	if r == nil || r.logger == nil {
		return
	}
	_ = r.logger.Sync()
}
