package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-studio/internal/adapter/repository"
	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
	"resume-studio/internal/transform"
	"resume-studio/pkg/ai/formatters"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeDrafter struct {
	data  []model.ResumeData
	doc   *doctree.Node
	calls int
	reqs  []formatters.FieldsRequest
}

func (f *fakeDrafter) GenerateResumeData(_ context.Context, req formatters.FieldsRequest) (model.ResumeData, error) {
	f.reqs = append(f.reqs, req)
	if f.calls >= len(f.data) {
		return model.ResumeData{}, errors.New("no more drafts")
	}
	d := f.data[f.calls]
	f.calls++
	return d, nil
}

func (f *fakeDrafter) GenerateDocument(context.Context, string) (*doctree.Node, error) {
	if f.doc == nil {
		return nil, formatters.ErrNotJSON
	}
	return f.doc, nil
}

type fakeRenderer struct {
	failures int
	calls    atomic.Int32
	widthIn  float64
}

func (f *fakeRenderer) RenderHTMLToPDF(_ context.Context, html string, widthIn, _ float64) ([]byte, error) {
	n := int(f.calls.Add(1))
	f.widthIn = widthIn
	if n <= f.failures {
		return nil, errors.New("chrome crashed")
	}
	return []byte("%PDF-1.4 " + html), nil
}

// blockProbe measures 300px per paragraph.
type blockProbe struct{ closed bool }

func (p *blockProbe) MeasureHeight(html, selector string) (float64, error) {
	if selector != ".page" {
		return 0, fmt.Errorf("unexpected selector %s", selector)
	}
	return float64(strings.Count(html, "<p>")) * 300, nil
}

func (p *blockProbe) Close() { p.closed = true }

type fixture struct {
	proc     *Processor
	docs     *repository.DocumentsRepo
	profiles *repository.ProfileAggregator
	drafter  *fakeDrafter
	renderer *fakeRenderer
	probe    *blockProbe
	outDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates, err := repository.NewTemplatesRepo(nil)
	require.NoError(t, err)
	f := &fixture{
		docs:     repository.NewDocumentsRepo(nil),
		profiles: repository.NewProfileAggregator(nil),
		drafter:  &fakeDrafter{},
		renderer: &fakeRenderer{},
		probe:    &blockProbe{},
		outDir:   t.TempDir(),
	}
	f.proc = NewProcessor(Deps{
		Documents: f.docs,
		Templates: templates,
		Profiles:  f.profiles,
		Drafter:   f.drafter,
		Renderer:  f.renderer,
		OpenProbe: func(context.Context) (HeightProbe, error) { return f.probe, nil },
		CountPDFPages: func(b []byte) (int, error) {
			return strings.Count(string(b), `class="page"`), nil
		},
	}, Options{
		OutputDir:     f.outDir,
		RenderBackoff: time.Millisecond,
		Logger:        quietLog,
	})
	return f
}

func paragraphs(n int) *doctree.Node {
	var blocks []*doctree.Node
	for i := 0; i < n; i++ {
		blocks = append(blocks, doctree.NewParagraph(fmt.Sprintf("block%d", i)))
	}
	return doctree.NewDoc(doctree.NewPage("a4", "", blocks...))
}

func sampleData() model.ResumeData {
	d := model.NewResumeData()
	d.Fields[model.FieldName] = "Grace Hopper"
	d.Fields[model.FieldSummary] = "Compiler pioneer."
	d.Sections[model.SectionExperience] = []model.Item{
		{model.FieldExpRole: "Rear Admiral", model.FieldExpDescription: "COBOL\nFLOW-MATIC"},
		{model.FieldExpRole: "Programmer", model.FieldExpCompany: "Harvard"},
	}
	return d
}

func TestCreateFromDefaultTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplateID, doc.TemplateID)
	assert.Equal(t, "Classic", doc.Title)

	_, err = f.proc.Create(ctx, CreateRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), Content: &doctree.Node{Type: doctree.TypeDoc}})
	assert.ErrorIs(t, err, doctree.ErrInvalidShape)

	_, err = f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), TemplateID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFillThenExtract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = f.proc.Fill(ctx, doc.ID, sampleData())
	require.NoError(t, err)

	data, err := f.proc.ExtractData(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", data.Fields[model.FieldName])
	require.Len(t, data.Sections[model.SectionExperience], 2)
	assert.Equal(t, "COBOL\nFLOW-MATIC", data.Sections[model.SectionExperience][0][model.FieldExpDescription])
	assert.Equal(t, "Harvard", data.Sections[model.SectionExperience][1][model.FieldExpCompany])
}

func TestDecodeResumeData(t *testing.T) {
	data, err := DecodeResumeData(map[string]interface{}{
		"fields":   map[string]interface{}{"name": "Ada"},
		"sections": map[string]interface{}{"skills": []interface{}{map[string]interface{}{"skill-name": "Go"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", data.Fields["name"])
	assert.Equal(t, "Go", data.Sections["skills"][0]["skill-name"])

	_, err = DecodeResumeData(map[string]interface{}{"fields": map[string]interface{}{"name": 3}})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSwitchTemplateKeepsData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = f.proc.Fill(ctx, doc.ID, sampleData())
	require.NoError(t, err)

	before, err := f.proc.ExtractData(ctx, doc.ID)
	require.NoError(t, err)

	switched, err := f.proc.SwitchTemplate(ctx, doc.ID, "two-column")
	require.NoError(t, err)
	assert.Equal(t, "two-column", switched.TemplateID)

	after, err := f.proc.ExtractData(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Fields[model.FieldName], after.Fields[model.FieldName])
	assert.Equal(t, before.Sections[model.SectionExperience], after.Sections[model.SectionExperience])
}

func TestSaveAsTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = f.proc.Fill(ctx, doc.ID, sampleData())
	require.NoError(t, err)

	_, err = f.proc.SaveAsTemplate(ctx, doc.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	tpl, err := f.proc.SaveAsTemplate(ctx, doc.ID, "Hopper style")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", tpl.Sample.Fields[model.FieldName])

	list, err := f.proc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	copyDoc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), TemplateID: tpl.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hopper style", copyDoc.Title)
}

func TestFillFromProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	doc, err := f.proc.Create(ctx, CreateRequest{UserID: user})
	require.NoError(t, err)

	_, err = f.proc.FillFromProfile(ctx, doc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	f.profiles.Put(user, model.Resume{
		Meta:         model.Meta{Name: "Ada Lovelace", Contact: map[string]string{"email": "ada@example.com"}},
		Skills:       []string{"Math", "Poetry"},
		Publications: []string{"Notes on the Analytical Engine", "Sketch of the Engine"},
	})
	_, err = f.proc.FillFromProfile(ctx, doc.ID)
	require.NoError(t, err)

	data, err := f.proc.ExtractData(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", data.Fields[model.FieldEmail])
	assert.Len(t, data.Sections[model.SectionSkills], 2)
	require.Len(t, data.Sections[model.SectionPublications], 2)
	assert.Equal(t, "Notes on the Analytical Engine", data.Sections[model.SectionPublications][0][model.FieldPubTitle])
}

func TestGenerateEnrichesIncompleteDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := model.NewResumeData()
	first.Fields[model.FieldHeadline] = "Engineer"
	first.Fields[model.FieldSummary] = "Builds things."
	for _, s := range []string{model.SectionExperience, model.SectionEducation, model.SectionProjects, model.SectionSkills, model.SectionCertifications, model.SectionPublications} {
		first.Sections[s] = []model.Item{{}}
	}
	second := model.NewResumeData()
	second.Fields[model.FieldName] = "Linus"
	f.drafter.data = []model.ResumeData{first, second}

	doc, err := f.proc.Generate(ctx, GenerateRequest{UserID: uuid.New(), Prompt: "kernel hacker"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.drafter.calls)
	assert.Equal(t, "Linus", doc.Title)
	assert.Contains(t, f.drafter.reqs[0].Fields, model.FieldName)
	assert.Contains(t, f.drafter.reqs[0].Sections[model.SectionExperience], model.FieldExpRole)
	require.NotNil(t, f.drafter.reqs[1].Current)

	data, err := transform.Extract(doc.Content)
	require.NoError(t, err)
	assert.Equal(t, "Engineer", data.Fields[model.FieldHeadline])
}

func TestGenerateDocumentMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.Generate(ctx, GenerateRequest{UserID: uuid.New(), Prompt: "x", Mode: ModeDocument})
	assert.ErrorIs(t, err, formatters.ErrNotJSON)

	f.drafter.doc = paragraphs(2)
	doc, err := f.proc.Generate(ctx, GenerateRequest{UserID: uuid.New(), Prompt: "x", Mode: ModeDocument, Title: "Draft"})
	require.NoError(t, err)
	assert.Equal(t, "Draft", doc.Title)
	assert.Empty(t, doc.TemplateID)

	_, err = f.proc.Generate(ctx, GenerateRequest{UserID: uuid.New(), Prompt: "x", Mode: "poem"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportMarkdown(t *testing.T) {
	f := newFixture(t)
	doc, err := f.proc.Import(context.Background(), uuid.New(), "", []byte("# Title\n\nBody"))
	require.NoError(t, err)
	assert.Equal(t, "Resume", doc.Title)
	assert.Equal(t, "Title\nBody", doctree.Text(doc.Content))

	_, err = f.proc.Import(context.Background(), uuid.New(), "", []byte("  "))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportPaginatesAndWritesArtifacts(t *testing.T) {
	f := newFixture(t)
	f.renderer.failures = 1
	ctx := context.Background()

	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), Content: paragraphs(6), Title: "Six"})
	require.NoError(t, err)

	res, err := f.proc.Export(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Moves)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, res.PDFPages)
	assert.EqualValues(t, 2, f.renderer.calls.Load())
	assert.InDelta(t, 8.27, f.renderer.widthIn, 0.01)
	assert.True(t, f.probe.closed)

	for _, p := range []string{res.HTMLPath, res.PDFPath, res.UserCopy} {
		assert.FileExists(t, p)
		assert.True(t, strings.HasPrefix(p, f.outDir), p)
	}
	pdf, err := os.ReadFile(res.UserCopy)
	require.NoError(t, err)
	assert.Equal(t, res.PDF, pdf)

	stored, err := f.proc.Get(ctx, doc.ID)
	require.NoError(t, err)
	pages := doctree.Pages(stored.Content)
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Node.Content, 3)
	assert.Len(t, pages[1].Node.Content, 3)
}

func TestExportWithoutProbeKeepsLayout(t *testing.T) {
	f := newFixture(t)
	f.proc.OpenProbe = nil
	ctx := context.Background()

	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), Content: paragraphs(6)})
	require.NoError(t, err)
	res, err := f.proc.Export(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Moves)
	assert.Equal(t, 1, res.Pages)
}

func TestExportGivesUpAfterRenderAttempts(t *testing.T) {
	f := newFixture(t)
	f.renderer.failures = 10
	ctx := context.Background()

	doc, err := f.proc.Create(ctx, CreateRequest{UserID: uuid.New(), Content: paragraphs(1)})
	require.NoError(t, err)
	_, err = f.proc.Export(ctx, doc.ID)
	require.Error(t, err)
	assert.EqualValues(t, 3, f.renderer.calls.Load())
}
