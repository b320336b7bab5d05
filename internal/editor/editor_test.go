package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-studio/internal/doctree"
)

func sampleDoc() *doctree.Node {
	return doctree.NewDoc(
		doctree.NewPage("a4", "", doctree.NewParagraph("a"), doctree.NewParagraph("b")),
		doctree.NewPage("a4", "", doctree.NewParagraph("c")),
	)
}

func texts(page *doctree.Node) []string {
	var out []string
	for _, c := range page.Content {
		out = append(out, doctree.Text(c))
	}
	return out
}

func TestTransactionMoveBlock(t *testing.T) {
	doc := sampleDoc()
	tr := &Transaction{Steps: []Step{
		Delete(Path{0}, 1),
		Insert(Path{1}, 0, doctree.NewParagraph("b")),
	}}

	next, err := tr.Apply(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, texts(next.Content[0]))
	assert.Equal(t, []string{"b", "c"}, texts(next.Content[1]))

	// The input is untouched.
	assert.Equal(t, []string{"a", "b"}, texts(doc.Content[0]))
}

func TestTransactionIsAtomic(t *testing.T) {
	doc := sampleDoc()
	tr := &Transaction{Steps: []Step{
		Delete(Path{0}, 0),
		Insert(Path{7}, 0, doctree.NewParagraph("x")),
	}}
	_, err := tr.Apply(doc)
	require.ErrorIs(t, err, ErrInvalidStep)

	s := NewSession(doc)
	require.Error(t, s.Dispatch(tr))
	assert.Equal(t, int64(0), s.Version())
	assert.Equal(t, []string{"a", "b"}, texts(s.Doc().Content[0]))
}

func TestTransactionRejectsBadSteps(t *testing.T) {
	cases := map[string]Step{
		"delete out of range": Delete(Path{0}, 5),
		"insert out of range": Insert(Path{0}, 3, doctree.NewParagraph("x")),
		"insert nil":          Insert(Path{0}, 0, nil),
		"unknown kind":        {Kind: "move", Parent: Path{0}},
		"bad path":            Delete(Path{0, 0, 0, 0}, 0),
	}
	for name, st := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := (&Transaction{Steps: []Step{st}}).Apply(sampleDoc())
			assert.Error(t, err)
		})
	}
}

func TestTransactionKeepsPageLayout(t *testing.T) {
	cases := map[string][]Step{
		"block under root": {
			Insert(Path{}, 1, doctree.NewParagraph("stray")),
		},
		"block replaces last page": {
			Insert(Path{}, 2, doctree.NewParagraph("stray")),
			Delete(Path{}, 0),
			Delete(Path{}, 0),
		},
		"page inside page": {
			Insert(Path{0}, 0, doctree.NewPage("a4", "")),
		},
		"page inside list item": {
			Insert(Path{0}, 0, &doctree.Node{Type: doctree.TypeBulletList, Content: []*doctree.Node{
				{Type: doctree.TypeListItem, Content: []*doctree.Node{doctree.NewPage("a4", "")}},
			}}),
		},
		"every page deleted": {
			Delete(Path{}, 1),
			Delete(Path{}, 0),
		},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSession(sampleDoc())
			err := s.Dispatch(&Transaction{Steps: steps})
			require.ErrorIs(t, err, ErrInvalidStep)
			assert.ErrorIs(t, err, doctree.ErrInvalidShape)
			assert.Equal(t, int64(0), s.Version())
			assert.NoError(t, doctree.CheckPageTree(s.Doc()))
		})
	}

	// Adding a whole page under the root is fine.
	s := NewSession(sampleDoc())
	require.NoError(t, s.Dispatch(&Transaction{Steps: []Step{Insert(Path{}, 2, doctree.NewPage("a5", ""))}}))
	assert.Len(t, s.Doc().Content, 3)
}

func TestSessionListenersAndUndo(t *testing.T) {
	s := NewSession(sampleDoc())
	var seen []int64
	s.OnChange(func(v int64) { seen = append(seen, v) })

	require.NoError(t, s.Dispatch(&Transaction{Steps: []Step{Delete(Path{1}, 0)}}))
	assert.Empty(t, s.Doc().Content[1].Content)

	require.NoError(t, s.Undo())
	assert.Equal(t, []string{"c"}, texts(s.Doc().Content[1]))
	assert.Equal(t, []int64{1, 2}, seen)

	require.NoError(t, s.Undo())
	assert.True(t, errors.Is(s.Undo(), ErrNothingToUndo))
}

func TestSessionDispatchAt(t *testing.T) {
	s := NewSession(sampleDoc())
	_, v := s.Snapshot()

	require.NoError(t, s.DispatchAt(&Transaction{Steps: []Step{Delete(Path{0}, 0)}}, v))
	err := s.DispatchAt(&Transaction{Steps: []Step{Delete(Path{0}, 0)}}, v)
	assert.True(t, errors.Is(err, ErrStale))
	assert.Equal(t, []string{"b"}, texts(s.Doc().Content[0]))
}

func TestSessionDocIsACopy(t *testing.T) {
	s := NewSession(sampleDoc())
	d := s.Doc()
	d.Content[0].Content = nil
	assert.Len(t, s.Doc().Content[0].Content, 2)
}

func TestSessionReplace(t *testing.T) {
	s := NewSession(sampleDoc())
	s.Replace(doctree.NewDoc(doctree.NewPage("a5", "")))
	doc, v := s.Snapshot()
	assert.Equal(t, int64(1), v)
	assert.Equal(t, "a5", doc.Content[0].StringAttr(doctree.AttrFormat))
}
