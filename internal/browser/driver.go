// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"formpilot/api/schemas"
	"formpilot/internal/config"
)

// Driver is the chromedp-backed implementation of schemas.PagePrimitives.
// One Driver owns one Chrome tab exclusively for the lifetime of a run; it
// is not safe for concurrent use.
type Driver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	cfg         config.BrowserConfig

	closeOnce sync.Once
}

var _ schemas.PagePrimitives = (*Driver)(nil)

// execOptions translates the browser config into chromedp allocator options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		// Recommended for stability in containers and headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}

	for _, arg := range cfg.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// NewDriver launches Chrome, opens a tab, and routes its downloads into
// downloadDir. The returned driver must be closed by the caller on every
// exit path.
func NewDriver(parentCtx context.Context, cfg config.BrowserConfig, downloadDir string, logger *zap.Logger) (*Driver, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, execOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	d := &Driver{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      logger.Named("browser"),
		cfg:         cfg,
	}

	// Establish the CDP connection and route downloads to the staging dir.
	initCtx, initCancel := context.WithTimeout(tabCtx, cfg.NavigationTimeout)
	defer initCancel()

	err := chromedp.Run(initCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to initialize browser target: %w", err)
	}

	d.logger.Debug("Browser driver initialized.", zap.String("download_dir", downloadDir))
	return d, nil
}

// run executes chromedp actions bounded by both the driver lifecycle and
// the caller's context, plus the configured per-action timeout.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := CombineContext(d.ctx, ctx)
	defer opCancel()

	actCtx, actCancel := context.WithTimeout(opCtx, timeout)
	defer actCancel()

	if err := chromedp.Run(actCtx, actions...); err != nil {
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		return err
	}
	return nil
}

// queryOption picks the chromedp query strategy for a selector. XPath
// expressions are routed through DOM search; everything else is a CSS query.
func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// jsElementExpr builds a JS expression that resolves the selector to an
// element (or null), handling both CSS and XPath forms.
func jsElementExpr(selector string) string {
	quoted := strconv.Quote(selector)
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			quoted)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, quoted)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating", zap.String("url", url))
	err := d.run(ctx, d.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (d *Driver) WaitVisible(ctx context.Context, selector string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.WaitVisible(selector, queryOption(selector)))
}

func (d *Driver) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`%s !== null`, jsElementExpr(selector))
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.Click(selector, queryOption(selector)))
}

func (d *Driver) ScrollIntoView(ctx context.Context, selector string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.ScrollIntoView(selector, queryOption(selector)))
}

func (d *Driver) Clear(ctx context.Context, selector string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.Clear(selector, queryOption(selector)))
}

func (d *Driver) SendKeys(ctx context.Context, selector, text string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.SendKeys(selector, text, queryOption(selector)))
}

func (d *Driver) SetValue(ctx context.Context, selector, value string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.SetValue(selector, value, queryOption(selector)))
}

func (d *Driver) Options(ctx context.Context, selector string) ([]schemas.SelectOption, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el || !el.options) { return []; }
		return Array.from(el.options).map(o => ({value: o.value, text: o.textContent.trim()}));
	})()`, jsElementExpr(selector))

	var opts []schemas.SelectOption
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Evaluate(script, &opts)); err != nil {
		return nil, fmt.Errorf("failed to list options for %q: %w", selector, err)
	}
	return opts, nil
}

// SelectValue sets the select's value directly and dispatches the input and
// change events so framework bindings observe the selection.
func (d *Driver) SelectValue(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { return false; }
		el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return el.value === %s;
	})()`, jsElementExpr(selector), strconv.Quote(value), strconv.Quote(value))

	var ok bool
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("option %q not accepted by select %q", value, selector)
	}
	return nil
}

func (d *Driver) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Text(selector, &text, queryOption(selector))); err != nil {
		return "", err
	}
	return text, nil
}

func (d *Driver) PageText(ctx context.Context) (string, error) {
	var text string
	script := `document.body ? document.body.innerText : ""`
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Evaluate(script, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	var markup string
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return markup, nil
}

func (d *Driver) Evaluate(ctx context.Context, script string, res any) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.Evaluate(script, res))
}

// PrintToPDF renders the current page through Chrome's print pipeline with
// fixed layout parameters: single column, background graphics, Letter size,
// zero margins.
func (d *Driver) PrintToPDF(ctx context.Context) ([]byte, error) {
	var pdf []byte
	action := chromedp.ActionFunc(func(c context.Context) error {
		buf, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(8.5).
			WithPaperHeight(11).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithScale(1).
			Do(c)
		if err != nil {
			return err
		}
		pdf = buf
		return nil
	})

	if err := d.run(ctx, d.cfg.NavigationTimeout, action); err != nil {
		return nil, fmt.Errorf("print to PDF failed: %w", err)
	}
	return pdf, nil
}

// Close tears down the tab and the allocator. Idempotent.
func (d *Driver) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.logger.Debug("Closing browser driver.")
		d.cancel()
		d.allocCancel()
	})
	return nil
}
