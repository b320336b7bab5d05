package formatters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
)

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON(`  {"a":1} `)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	raw, err = ExtractJSON("```json\n{\"a\":{\"b\":2}}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":2}}`, string(raw))

	_, err = ExtractJSON("no json { here")
	assert.ErrorIs(t, err, ErrNotJSON)

	_, err = ExtractJSON(`[1,2]`)
	assert.ErrorIs(t, err, ErrNotJSON)
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"example.com/me", "https://example.com/me", true},
		{"http://blog.example.co.uk", "http://blog.example.co.uk", true},
		{"mailto:ada@example.com", "mailto:ada@example.com", true},
		{"ftp://example.com", "", false},
		{"javascript:alert(1)", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeURL(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSanitizeLinksKeepsOtherMarks(t *testing.T) {
	leaf := doctree.NewText("x",
		doctree.Mark{Type: "bold"},
		doctree.Mark{Type: "link", Attrs: map[string]any{"href": "example.org"}},
	)
	bad := doctree.NewText("y", doctree.Mark{Type: "link"})
	doc := doctree.NewDoc(doctree.NewPage("", "", &doctree.Node{
		Type: doctree.TypeParagraph, Content: []*doctree.Node{leaf, bad},
	}))

	SanitizeLinks(doc)
	require.Len(t, leaf.Marks, 2)
	assert.Equal(t, "https://example.org", leaf.Marks[1].Attrs["href"])
	assert.Nil(t, bad.Marks)
}

func TestSanitizeData(t *testing.T) {
	d := model.NewResumeData()
	d.Fields[model.FieldWebsite] = "not a url"
	d.Sections[model.SectionProjects] = []model.Item{{model.FieldProjURL: "github.com/ada"}}

	SanitizeData(d)
	assert.NotContains(t, d.Fields, model.FieldWebsite)
	assert.Equal(t, "https://github.com/ada", d.Sections[model.SectionProjects][0][model.FieldProjURL])
}
