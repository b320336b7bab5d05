package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type ChromedpRenderer struct {
	chromePath string
	timeout    time.Duration
}

func NewChromedpRenderer(chromePath string) *ChromedpRenderer {
	return &ChromedpRenderer{chromePath: chromePath, timeout: 60 * time.Second}
}

func (r *ChromedpRenderer) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

// RenderHTMLToPDF prints html on paper of the given size in inches. The
// document's own @page rule wins when it sets one.
func (r *ChromedpRenderer) RenderHTMLToPDF(ctx context.Context, html string, widthIn, heightIn float64) ([]byte, error) {
	allocCtx, cancel := r.allocator(ctx)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx2, cancel2 := context.WithTimeout(cctx, r.timeout)
	defer cancel2()

	tmpDir, err := os.MkdirTemp("", "resume-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, err
	}

	var pdfBuf []byte
	err = chromedp.Run(ctx2,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(widthIn).
				WithPaperHeight(heightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// Tab is a browser tab kept open across several measurements.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenTab starts a browser on about:blank. Close releases it.
func (r *ChromedpRenderer) OpenTab(ctx context.Context) (*Tab, error) {
	allocCtx, cancelAlloc := r.allocator(ctx)
	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	if err := chromedp.Run(cctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return &Tab{ctx: cctx, cancel: cancel}, nil
}

// MeasureHeight loads html into the tab and returns the rendered height in
// CSS pixels of the first element matching selector.
func (t *Tab) MeasureHeight(html, selector string) (float64, error) {
	var h float64
	js := fmt.Sprintf(`(function(){var el=document.querySelector(%q);return el?el.getBoundingClientRect().height:-1;})()`, selector)
	err := chromedp.Run(t.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(js, &h),
	)
	if err != nil {
		return 0, err
	}
	if h < 0 {
		return 0, fmt.Errorf("no element matches %s", selector)
	}
	return h, nil
}

func (t *Tab) Close() { t.cancel() }
