// internal/capture/print.go
package capture

import (
	"context"
	"time"

	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/config"
	"formpilot/internal/interact"
)

// PrintToPDF renders the current page through the browser's print pipeline.
// It needs no cooperating control on the page, which makes it the terminal
// fallback of the chain.
type PrintToPDF struct {
	page   schemas.PagePrimitives
	logger *zap.Logger
}

func NewPrintToPDF(page schemas.PagePrimitives, logger *zap.Logger) *PrintToPDF {
	return &PrintToPDF{page: page, logger: logger.Named("print")}
}

func (p *PrintToPDF) Name() string { return "print-to-pdf" }

func (p *PrintToPDF) Capture(ctx context.Context, _ *Job) ([]byte, error) {
	return p.page.PrintToPDF(ctx)
}

// DefaultChain assembles the standard strategy order: trigger the portal's
// download, re-poll the staging directory, then print the page.
func DefaultChain(page schemas.PagePrimitives, it *interact.Interactor, staging *Staging, dir string, trigger interact.Locator, cfg config.CaptureConfig, logger *zap.Logger) []Strategy {
	repollTimeout := cfg.DownloadTimeout / 2
	if repollTimeout < time.Second {
		repollTimeout = time.Second
	}
	return []Strategy{
		NewFileDownload(it, staging, trigger, dir, cfg.DownloadTimeout, logger),
		NewDownloadRepoll(staging, dir, repollTimeout, logger),
		NewPrintToPDF(page, logger),
	}
}
