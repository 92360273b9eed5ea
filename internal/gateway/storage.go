// internal/gateway/storage.go
//
// Package gateway holds the outward-facing collaborators: object storage
// for artifacts and logs, and the CRM-style notification channel.
package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FilesystemStorage persists artifacts and logs under a base directory, one
// subdirectory per record. It stands in for a bucket-style object store and
// returns file:// URLs.
type FilesystemStorage struct {
	baseDir string
	logger  *zap.Logger
}

func NewFilesystemStorage(cfg config.StorageConfig, logger *zap.Logger) (*FilesystemStorage, error) {
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage base dir: %w", err)
	}
	return &FilesystemStorage{baseDir: cfg.BaseDir, logger: logger.Named("storage")}, nil
}

var _ schemas.StorageGateway = (*FilesystemStorage)(nil)

func (s *FilesystemStorage) UploadArtifact(ctx context.Context, artifact schemas.ArtifactDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := ".pdf"
	if artifact.ContentType != "application/pdf" {
		ext = ".bin"
	}
	path, err := s.write(artifact.RecordID, artifact.LogicalName+ext, artifact.Payload)
	if err != nil {
		return "", err
	}

	s.logger.Info("Artifact stored.",
		zap.String("record_id", artifact.RecordID),
		zap.String("path", path),
		zap.Bool("client_visible", artifact.ClientVisible))
	return "file://" + path, nil
}

func (s *FilesystemStorage) UploadStructuredLog(ctx context.Context, recordID string, entries []schemas.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run log: %w", err)
	}
	_, err = s.write(recordID, "run-log.json", data)
	return err
}

func (s *FilesystemStorage) UploadDiagnosticLog(ctx context.Context, recordID string, text []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.write(recordID, "diagnostic.txt", text)
	if err != nil {
		return "", err
	}
	return "file://" + path, nil
}

func (s *FilesystemStorage) write(recordID, name string, data []byte) (string, error) {
	dir := filepath.Join(s.baseDir, sanitize(recordID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating record dir: %w", err)
	}
	path := filepath.Join(dir, sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// sanitize keeps record-supplied names from escaping the base directory.
func sanitize(name string) string {
	cleaned := filepath.Base(filepath.Clean(name))
	if cleaned == "." || cleaned == string(filepath.Separator) || cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
