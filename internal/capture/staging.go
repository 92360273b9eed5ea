// internal/capture/staging.go
//
// Package capture obtains the confirmation artifact from the portal through
// an ordered chain of capture strategies and guarantees an audit trail for
// every payload before it is handed off for persistence.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// partialSuffixes mark in-progress browser downloads that must not be read.
var partialSuffixes = []string{".crdownload", ".tmp", ".part"}

// Staging manages the per-run download directories the browser is pointed
// at.
type Staging struct {
	root string
	poll time.Duration
}

func NewStaging(root string, poll time.Duration) *Staging {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	return &Staging{root: root, poll: poll}
}

// RunDir creates and returns an isolated staging directory for one run.
func (s *Staging) RunDir(runID string) (string, error) {
	dir := filepath.Join(s.root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}
	return dir, nil
}

// WaitForFile polls dir until a completed download appears or the deadline
// passes. Partial downloads are ignored until the browser renames them.
func (s *Staging) WaitForFile(ctx context.Context, dir string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		if path, ok := completedFileIn(dir); ok {
			return path, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("no download appeared in %s within %s", dir, timeout)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// completedFileIn returns the first finished file in dir.
func completedFileIn(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || isPartial(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		return filepath.Join(dir, entry.Name()), true
	}
	return "", false
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Cleanup removes a run's staging directory and everything in it.
func (s *Staging) Cleanup(dir string) error {
	if dir == "" || dir == s.root {
		return nil
	}
	return os.RemoveAll(dir)
}
