package paginate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-studio/internal/doctree"
	"resume-studio/internal/editor"
)

// block returns a paragraph whose rendered height the fake measurer reads
// from its "h" attribute.
func block(label string, h float64) *doctree.Node {
	p := doctree.NewParagraph(label)
	p.SetAttr("h", h)
	return p
}

var sumHeights = MeasurerFunc(func(_ int, page *doctree.Node) (float64, bool) {
	total := 0.0
	for _, c := range page.Content {
		h, _ := c.Attrs["h"].(float64)
		total += h
	}
	return total, true
})

func labels(page *doctree.Node) []string {
	var out []string
	for _, c := range page.Content {
		out = append(out, doctree.Text(c))
	}
	return out
}

func TestLookupFormat(t *testing.T) {
	assert.Equal(t, A4, LookupFormat(""))
	assert.Equal(t, A4, LookupFormat("letter"))
	assert.Equal(t, A3, LookupFormat("A3"))
	assert.Equal(t, A5, LookupFormat("a5"))
	assert.InDelta(t, 1122.52, A4.HeightPx(), 0.01)
	assert.InDelta(t, 11.69, A4.HeightInches(), 0.01)
}

func TestCheckMovesExactlyOneBlock(t *testing.T) {
	page := doctree.NewPage("a4", "#fafafa",
		block("1", 250), block("2", 250), block("3", 250), block("4", 250), block("5", 200))
	s := editor.NewSession(doctree.NewDoc(page))
	p := New(s, sumHeights, Options{})

	moved, err := p.Check()
	require.NoError(t, err)
	require.True(t, moved)

	doc := s.Doc()
	require.Len(t, doc.Content, 2)
	assert.Equal(t, []string{"1", "2", "3", "4"}, labels(doc.Content[0]))
	assert.Equal(t, []string{"5"}, labels(doc.Content[1]))
	assert.Equal(t, doctree.TypePage, doc.Content[1].Type)
	assert.Equal(t, "a4", doc.Content[1].StringAttr(doctree.AttrFormat))
	assert.Equal(t, "#fafafa", doc.Content[1].StringAttr(doctree.AttrBackgroundColor))

	moved, err = p.Check()
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestCheckPrependsToFollowingPage(t *testing.T) {
	doc := doctree.NewDoc(
		doctree.NewPage("a4", "", block("1", 600), block("2", 600)),
		doctree.NewPage("a4", "", block("3", 100)),
	)
	s := editor.NewSession(doc)
	moved, err := New(s, sumHeights, Options{}).Check()
	require.NoError(t, err)
	require.True(t, moved)

	got := s.Doc()
	require.Len(t, got.Content, 2)
	assert.Equal(t, []string{"1"}, labels(got.Content[0]))
	assert.Equal(t, []string{"2", "3"}, labels(got.Content[1]))
}

func TestPlanRespectsFormatAndTolerance(t *testing.T) {
	target := A5.HeightPx()
	fits := doctree.NewDoc(doctree.NewPage("a5", "", block("1", target), block("2", DefaultTolerancePx)))
	assert.Nil(t, Plan(fits, sumHeights, DefaultTolerancePx))

	over := doctree.NewDoc(doctree.NewPage("a5", "", block("1", target), block("2", DefaultTolerancePx+1)))
	assert.NotNil(t, Plan(over, sumHeights, DefaultTolerancePx))

	// The same content fits an A3 page.
	a3 := doctree.NewDoc(doctree.NewPage("a3", "", block("1", target), block("2", 50)))
	assert.Nil(t, Plan(a3, sumHeights, DefaultTolerancePx))
}

func TestPlanLeavesSingleOversizedBlock(t *testing.T) {
	doc := doctree.NewDoc(doctree.NewPage("a4", "", block("huge", 5000)))
	assert.Nil(t, Plan(doc, sumHeights, DefaultTolerancePx))

	// Later pages are still handled.
	doc.Content = append(doc.Content, doctree.NewPage("a4", "", block("a", 700), block("b", 700)))
	tr := Plan(doc, sumHeights, DefaultTolerancePx)
	require.NotNil(t, tr)
	assert.Equal(t, editor.Delete(editor.Path{1}, 1), tr.Steps[0])
}

func TestPlanIgnoresTrailingNilChildren(t *testing.T) {
	page := doctree.NewPage("a4", "", doctree.NewParagraph("a"), doctree.NewParagraph("b"), nil, nil)
	doc := doctree.NewDoc(page)
	tall := MeasurerFunc(func(int, *doctree.Node) (float64, bool) { return 2000, true })

	tr := Plan(doc, tall, DefaultTolerancePx)
	require.NotNil(t, tr)
	assert.Equal(t, editor.Delete(editor.Path{0}, 1), tr.Steps[0])

	next, err := tr.Apply(doc)
	require.NoError(t, err)
	require.Len(t, next.Content, 2)
	require.Len(t, next.Content[1].Content, 1)
	require.NotNil(t, next.Content[1].Content[0])
	assert.Equal(t, "b", doctree.Text(next.Content[1].Content[0]))

	// Only nils after a single block: nothing to move.
	lone := doctree.NewDoc(doctree.NewPage("a4", "", doctree.NewParagraph("a"), nil))
	assert.Nil(t, Plan(lone, tall, DefaultTolerancePx))
}

func TestPlanSkipsUnmeasuredPages(t *testing.T) {
	doc := doctree.NewDoc(doctree.NewPage("a4", "", block("a", 900), block("b", 900)))
	unavailable := MeasurerFunc(func(int, *doctree.Node) (float64, bool) { return 0, false })
	assert.Nil(t, Plan(doc, unavailable, DefaultTolerancePx))
}

func TestSettleTerminates(t *testing.T) {
	var blocks []*doctree.Node
	for i := 0; i < 12; i++ {
		blocks = append(blocks, block(fmt.Sprint(i), 300))
	}
	s := editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "", blocks...)))
	p := New(s, sumHeights, Options{})

	moves, err := p.Settle(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 18, moves)

	doc := s.Doc()
	require.Len(t, doc.Content, 4)
	var all []string
	for _, page := range doc.Content {
		assert.Len(t, page.Content, 3)
		h, _ := sumHeights.MeasurePage(0, page)
		assert.LessOrEqual(t, h, A4.HeightPx())
		all = append(all, labels(page)...)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}, all)
}

func TestSettleHonoursMaxTicks(t *testing.T) {
	s := editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "", block("a", 900), block("b", 900), block("c", 900))))
	moves, err := New(s, sumHeights, Options{}).Settle(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, moves)
}

type countingSurface struct {
	*editor.Session
	snapshots atomic.Int32
}

func (c *countingSurface) Snapshot() (*doctree.Node, int64) {
	c.snapshots.Add(1)
	return c.Session.Snapshot()
}

func TestNotifyDebounces(t *testing.T) {
	surface := &countingSurface{Session: editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "", block("a", 10))))}
	p := New(surface, sumHeights, Options{Delay: 20 * time.Millisecond})
	defer p.Stop()

	for i := 0; i < 10; i++ {
		p.Notify()
	}
	assert.True(t, p.Pending())

	require.Eventually(t, func() bool { return !p.Pending() }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), surface.snapshots.Load())
}

func TestNotifyLoopConverges(t *testing.T) {
	var blocks []*doctree.Node
	for i := 0; i < 7; i++ {
		blocks = append(blocks, block(fmt.Sprint(i), 300))
	}
	s := editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "", blocks...)))
	p := New(s, sumHeights, Options{Delay: 5 * time.Millisecond})
	defer p.Stop()
	s.OnChange(func(int64) { p.Notify() })

	p.Notify()
	require.Eventually(t, func() bool {
		doc := s.Doc()
		return len(doc.Content) == 3 && len(doc.Content[2].Content) == 1 && !p.Pending()
	}, 2*time.Second, 10*time.Millisecond)

	doc := s.Doc()
	assert.Equal(t, []string{"0", "1", "2"}, labels(doc.Content[0]))
	assert.Equal(t, []string{"3", "4", "5"}, labels(doc.Content[1]))
	assert.Equal(t, []string{"6"}, labels(doc.Content[2]))
}

func TestStopCancelsPendingCheck(t *testing.T) {
	surface := &countingSurface{Session: editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "")))}
	p := New(surface, sumHeights, Options{Delay: 10 * time.Millisecond})
	p.Notify()
	p.Stop()
	p.Notify()
	time.Sleep(40 * time.Millisecond)
	assert.False(t, p.Pending())
	assert.Equal(t, int32(0), surface.snapshots.Load())
}

type staleSurface struct{ *editor.Session }

func (staleSurface) DispatchAt(*editor.Transaction, int64) error { return editor.ErrStale }

func TestCheckTreatsStaleAsSuperseded(t *testing.T) {
	s := staleSurface{editor.NewSession(doctree.NewDoc(doctree.NewPage("a4", "", block("a", 900), block("b", 900))))}
	moved, err := New(s, sumHeights, Options{}).Check()
	require.NoError(t, err)
	assert.False(t, moved)
}
