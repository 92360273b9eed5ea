// internal/capture/download.go
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"formpilot/internal/interact"
)

// FileDownload triggers the portal's own download control and waits for the
// browser to finish writing the file into the staging directory.
type FileDownload struct {
	it      *interact.Interactor
	staging *Staging
	trigger interact.Locator
	dir     string
	timeout time.Duration
	logger  *zap.Logger
}

func NewFileDownload(it *interact.Interactor, staging *Staging, trigger interact.Locator, dir string, timeout time.Duration, logger *zap.Logger) *FileDownload {
	return &FileDownload{
		it:      it,
		staging: staging,
		trigger: trigger,
		dir:     dir,
		timeout: timeout,
		logger:  logger.Named("download"),
	}
}

func (d *FileDownload) Name() string { return "download-click" }

func (d *FileDownload) Capture(ctx context.Context, _ *Job) ([]byte, error) {
	ok, err := d.it.Click(ctx, d.trigger)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("download control %s unreachable", d.trigger)
	}

	path, err := d.staging.WaitForFile(ctx, d.dir, d.timeout)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Remove the staged copy so a later re-poll waits for a genuinely new
	// download instead of re-reading this one.
	if err := os.Remove(path); err != nil {
		d.logger.Warn("Could not remove staged download.", zap.String("path", path), zap.Error(err))
	}
	return data, nil
}

// DownloadRepoll gives an already-triggered download a second chance: slow
// portals sometimes finish writing the file well after the first poll gave
// up. The staged copy is removed once its bytes are in hand, since the
// recovery log carries them from that point on.
type DownloadRepoll struct {
	staging *Staging
	dir     string
	timeout time.Duration
	logger  *zap.Logger
}

func NewDownloadRepoll(staging *Staging, dir string, timeout time.Duration, logger *zap.Logger) *DownloadRepoll {
	return &DownloadRepoll{
		staging: staging,
		dir:     dir,
		timeout: timeout,
		logger:  logger.Named("repoll"),
	}
}

func (d *DownloadRepoll) Name() string { return "download-repoll" }

func (d *DownloadRepoll) Capture(ctx context.Context, _ *Job) ([]byte, error) {
	path, err := d.staging.WaitForFile(ctx, d.dir, d.timeout)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		d.logger.Warn("Could not remove staged download.", zap.String("path", path), zap.Error(err))
	}
	return data, nil
}
