// Package paginate keeps a live document split across fixed-size page nodes.
//
// The Paginator is notified on every structural change. Notifications are
// debounced into a single overflow check; a check moves at most one block
// from the first overflowing page to the start of the following page
// (creating one if needed). The move is itself a change, so cascading
// overflow is handled on the next tick and the loop goes quiet once no page
// overflows.
package paginate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/editor"
)

const (
	DefaultDelay       = 100 * time.Millisecond
	DefaultTolerancePx = 2.0
)

// OriginPaginator tags transactions produced by the paginator.
const OriginPaginator = "paginator"

// Measurer reports the rendered height of a page, in CSS pixels. ok=false
// means no measurement is available; that page is treated as fitting.
type Measurer interface {
	MeasurePage(index int, page *doctree.Node) (height float64, ok bool)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(index int, page *doctree.Node) (float64, bool)

func (f MeasurerFunc) MeasurePage(index int, page *doctree.Node) (float64, bool) {
	return f(index, page)
}

// Surface is the editing surface the paginator observes and edits through.
// *editor.Session implements it.
type Surface interface {
	Snapshot() (*doctree.Node, int64)
	DispatchAt(tr *editor.Transaction, version int64) error
}

// Options tunes a Paginator. Zero values take the defaults.
type Options struct {
	Delay       time.Duration
	TolerancePx float64
	Logger      *slog.Logger
}

// Paginator is either idle or has one check scheduled.
type Paginator struct {
	surface  Surface
	measurer Measurer
	delay    time.Duration
	tol      float64
	log      *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

// New builds a paginator over surface. It does not subscribe itself; wire
// Notify to the surface's change events.
func New(surface Surface, m Measurer, opts Options) *Paginator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.TolerancePx <= 0 {
		opts.TolerancePx = DefaultTolerancePx
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Paginator{surface: surface, measurer: m, delay: opts.Delay, tol: opts.TolerancePx, log: opts.Logger}
}

// Notify schedules an overflow check after the debounce delay, replacing any
// check that is already scheduled.
func (p *Paginator) Notify() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.pending = true
	p.timer = time.AfterFunc(p.delay, p.fire)
}

func (p *Paginator) fire() {
	p.mu.Lock()
	if !p.pending || p.stopped {
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.timer = nil
	p.mu.Unlock()

	if _, err := p.Check(); err != nil {
		// A rejected transaction is superseded by the next edit's check.
		p.log.Warn("pagination check failed", "error", err)
	}
}

// Pending reports whether a check is scheduled.
func (p *Paginator) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Stop cancels any scheduled check and ignores further notifications.
func (p *Paginator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.pending = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Check runs one overflow check and reports whether a block was moved.
func (p *Paginator) Check() (bool, error) {
	doc, version := p.surface.Snapshot()
	tr := Plan(doc, p.measurer, p.tol)
	if tr == nil {
		return false, nil
	}
	if err := p.surface.DispatchAt(tr, version); err != nil {
		if errors.Is(err, editor.ErrStale) {
			// An edit landed in between; it has scheduled its own check.
			return false, nil
		}
		return false, err
	}
	p.log.Debug("moved overflowing block", "version", version, "steps", len(tr.Steps))
	return true, nil
}

// Settle runs checks back to back until nothing moves, maxTicks is reached
// or ctx is done. It returns the number of moves made. It is meant for
// offline use (export) where there is no user editing concurrently.
func (p *Paginator) Settle(ctx context.Context, maxTicks int) (int, error) {
	moves := 0
	for moves < maxTicks {
		if err := ctx.Err(); err != nil {
			return moves, err
		}
		moved, err := p.Check()
		if err != nil {
			return moves, err
		}
		if !moved {
			return moves, nil
		}
		moves++
	}
	p.log.Warn("pagination did not settle", "max_ticks", maxTicks)
	return moves, nil
}

// Plan returns the transaction a check would dispatch for doc, or nil when
// no page overflows. Pages are scanned in order; the first overflowing page
// holding at least two blocks loses its last block to the start of the next
// page, or to a new page with the same format and background inserted right
// after it. A page with a single block that does not fit is left as is, and
// the scan continues with the following pages instead of stopping at it.
// Trailing nil children are ignored.
func Plan(doc *doctree.Node, m Measurer, tolerancePx float64) *editor.Transaction {
	pages := doctree.Pages(doc)
	for i, ref := range pages {
		height, ok := m.MeasurePage(i, ref.Node)
		if !ok {
			continue
		}
		target := LookupFormat(ref.Node.StringAttr(doctree.AttrFormat)).HeightPx()
		if height <= target+tolerancePx {
			continue
		}
		n := len(ref.Node.Content)
		for n > 0 && ref.Node.Content[n-1] == nil {
			n--
		}
		if n < 2 {
			continue
		}

		page := editor.Path{ref.Index}
		moved := ref.Node.Content[n-1]
		tr := &editor.Transaction{Origin: OriginPaginator}
		tr.Steps = append(tr.Steps, editor.Delete(page, n-1))

		if i+1 < len(pages) {
			tr.Steps = append(tr.Steps, editor.Insert(editor.Path{pages[i+1].Index}, 0, moved))
		} else {
			next := &doctree.Node{Type: doctree.TypePage, Content: []*doctree.Node{moved}}
			for _, k := range []string{doctree.AttrFormat, doctree.AttrBackgroundColor} {
				if v, ok := ref.Node.Attrs[k]; ok {
					next.SetAttr(k, v)
				}
			}
			tr.Steps = append(tr.Steps, editor.Insert(editor.Path{}, ref.Index+1, next))
		}
		return tr
	}
	return nil
}
