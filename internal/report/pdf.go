package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer prints report markdown to PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

// ChromiumPDFRenderer prints through a headless Chromium driven by chromedp.
type ChromiumPDFRenderer struct {
	html       *HTMLRenderer
	chromePath string
	timeout    time.Duration
}

func NewChromiumPDFRenderer(html *HTMLRenderer) *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{
		html:       html,
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
	}
}

// Report pages are US Letter printed landscape so the sensitivity and trend
// tables fit without wrapping. Dimensions are inches.
const (
	pageWidthIn   = 8.5
	pageHeightIn  = 11
	marginSideIn  = 0.45
	marginTopIn   = 0.5
	marginFootIn  = 0.75
	pageFooterTpl = `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
		`TCO comparison · page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
)

func reportPrintParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithLandscape(true).
		WithPaperWidth(pageWidthIn).
		WithPaperHeight(pageHeightIn).
		WithMarginTop(marginTopIn).
		WithMarginBottom(marginFootIn).
		WithMarginLeft(marginSideIn).
		WithMarginRight(marginSideIn).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(`<div></div>`).
		WithFooterTemplate(pageFooterTpl)
}

func (r *ChromiumPDFRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return opts
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, markdown string) ([]byte, error) {
	htmlDoc, err := r.html.Render(markdown)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(htmlDoc))),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = reportPrintParams().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print report: %w", err)
	}
	return pdf, nil
}

func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
