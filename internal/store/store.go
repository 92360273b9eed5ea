package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"formpilot/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the ledger can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the PostgreSQL run ledger: one row per submission run, plus the
// artifact metadata the run produced. Payload bytes never enter the
// database; they live in object storage and the recovery log.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a ledger instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

var _ schemas.RunStore = (*Store)(nil)

const sqlUpsertRun = `
        INSERT INTO runs (id, record_id, success, completion_number, classification, failure_code, failure_message, run_log, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            success = EXCLUDED.success,
            completion_number = EXCLUDED.completion_number,
            classification = EXCLUDED.classification,
            failure_code = EXCLUDED.failure_code,
            failure_message = EXCLUDED.failure_message,
            run_log = EXCLUDED.run_log,
            finished_at = EXCLUDED.finished_at;
    `

const sqlInsertArtifact = `
        INSERT INTO run_artifacts (run_id, logical_name, record_id, content_type, client_visible, byte_length, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (run_id, logical_name) DO NOTHING;
    `

// SaveRun persists one run outcome and its artifact metadata in a single
// transaction. Re-saving the same run id overwrites the outcome, so a
// retried persistence attempt cannot duplicate ledger rows.
func (s *Store) SaveRun(ctx context.Context, result *schemas.RunResult, startedAt, finishedAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	runLog, err := json.Marshal(result.Log)
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}
	if len(runLog) == 0 || string(runLog) == "null" {
		runLog = json.RawMessage("[]")
	}

	if _, err := tx.Exec(ctx, sqlUpsertRun,
		result.RunID, result.RecordID, result.Success,
		result.CompletionNumber, string(result.Classification),
		result.FailureCode, result.FailureMessage,
		json.RawMessage(runLog),
		startedAt.UTC(), finishedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	if err := s.persistArtifacts(ctx, tx, result); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) persistArtifacts(ctx context.Context, tx pgx.Tx, result *schemas.RunResult) error {
	if len(result.Artifacts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, a := range result.Artifacts {
		batch.Queue(sqlInsertArtifact,
			result.RunID, a.LogicalName, a.RecordID,
			a.ContentType, a.ClientVisible, len(a.Payload), now)
	}

	br := tx.SendBatch(ctx, batch)
	if br == nil {
		return fmt.Errorf("failed to send batch: batch results is nil")
	}
	defer func() {
		_ = br.Close()
	}()

	for i := range result.Artifacts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to execute batch insert for artifact %s (index %d): %w",
				result.Artifacts[i].LogicalName, i, err)
		}
	}
	return nil
}

// RunRecord is one ledger row, the stored run outcome plus its wall-clock
// bounds.
type RunRecord struct {
	schemas.RunResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// GetRunsByRecordID returns every run attempted for a record, newest first.
func (s *Store) GetRunsByRecordID(ctx context.Context, recordID string) ([]RunRecord, error) {
	query := `
        SELECT id, success, completion_number, classification, failure_code, failure_message, run_log, started_at, finished_at
        FROM runs
        WHERE record_id = $1
        ORDER BY started_at DESC;
    `
	rows, err := s.pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			r              RunRecord
			classification string
			runLog         []byte
		)
		if err := rows.Scan(
			&r.RunID, &r.Success, &r.CompletionNumber,
			&classification, &r.FailureCode, &r.FailureMessage,
			&runLog, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.RecordID = recordID
		r.Classification = schemas.FailureClass(classification)
		if len(runLog) > 0 {
			if err := json.Unmarshal(runLog, &r.Log); err != nil {
				return nil, fmt.Errorf("failed to decode run log: %w", err)
			}
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}
