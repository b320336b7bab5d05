package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"
	"resume-studio/internal/editor"
	"resume-studio/internal/importer"
	"resume-studio/internal/model"
	"resume-studio/internal/paginate"
	"resume-studio/internal/render"
	"resume-studio/internal/transform"
	"resume-studio/pkg/infrastructure"

	"github.com/google/uuid"
)

// DefaultTemplateID is used when a request names no template.
const DefaultTemplateID = "classic"

type Deps struct {
	Documents DocumentsRepo
	Templates TemplatesRepo
	Profiles  ProfileSource
	Drafter   Drafter
	Renderer  Renderer
	OpenProbe ProbeOpener
	// CountPDFPages defaults to infrastructure.PDFPageCount.
	CountPDFPages func([]byte) (int, error)
}

type Options struct {
	OutputDir      string
	RenderAttempts int
	RenderBackoff  time.Duration
	TolerancePx    float64
	MaxTicks       int
	Logger         *slog.Logger
}

type Processor struct {
	Deps
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

func NewProcessor(d Deps, opts Options) *Processor {
	if opts.RenderAttempts <= 0 {
		opts.RenderAttempts = 3
	}
	if opts.RenderBackoff <= 0 {
		opts.RenderBackoff = time.Second
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = 500
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "resume-data"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if d.CountPDFPages == nil {
		d.CountPDFPages = infrastructure.PDFPageCount
	}
	return &Processor{Deps: d, opts: opts, log: opts.Logger, now: timeNow}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Create stores a new document built from a template or from raw content.
func (p *Processor) Create(ctx context.Context, req CreateRequest) (*domain.ResumeDocument, error) {
	if req.UserID == uuid.Nil {
		return nil, invalid("user_id is required")
	}
	content := req.Content
	if content == nil {
		tplID := req.TemplateID
		if tplID == "" {
			tplID = DefaultTemplateID
		}
		tpl, err := p.Templates.Get(ctx, tplID)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tplID, err)
		}
		content = tpl.Content
		req.TemplateID = tpl.ID
		if req.Title == "" {
			req.Title = tpl.Name
		}
	}
	if err := doctree.CheckShape(content); err != nil {
		return nil, err
	}
	return p.create(ctx, req.UserID, req.TemplateID, req.Title, content)
}

func (p *Processor) create(ctx context.Context, userID uuid.UUID, templateID, title string, content *doctree.Node) (*domain.ResumeDocument, error) {
	if title == "" {
		title = titleFor(content)
	}
	now := p.now()
	doc := &domain.ResumeDocument{
		ID:         uuid.New(),
		UserID:     userID,
		TemplateID: templateID,
		Title:      title,
		Content:    doctree.Clone(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	p.log.Info("document created", "doc_id", doc.ID, "template_id", templateID)
	return doc, nil
}

// titleFor prefers the person's name, like the generated resume rows did.
func titleFor(content *doctree.Node) string {
	if data, err := transform.Extract(content); err == nil {
		if name := strings.TrimSpace(data.Fields[model.FieldName]); name != "" {
			return name
		}
	}
	return "Resume"
}

func (p *Processor) Get(ctx context.Context, id uuid.UUID) (*domain.ResumeDocument, error) {
	return p.Documents.Get(ctx, id)
}

func (p *Processor) List(ctx context.Context, userID uuid.UUID) ([]domain.ResumeDocument, error) {
	return p.Documents.ListByUser(ctx, userID)
}

func (p *Processor) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	return p.Templates.List(ctx)
}

func (p *Processor) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	return p.Templates.Get(ctx, id)
}

// Update replaces a document's content.
func (p *Processor) Update(ctx context.Context, id uuid.UUID, content *doctree.Node) (*domain.ResumeDocument, error) {
	if err := doctree.CheckShape(content); err != nil {
		return nil, err
	}
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Content = content
	return doc, p.save(ctx, doc)
}

func (p *Processor) save(ctx context.Context, doc *domain.ResumeDocument) error {
	doc.UpdatedAt = p.now()
	return p.Documents.Save(ctx, doc)
}

// ExtractData reads a document's tagged content.
func (p *Processor) ExtractData(ctx context.Context, id uuid.UUID) (model.ResumeData, error) {
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return model.ResumeData{}, err
	}
	return transform.Extract(doc.Content)
}

// DecodeResumeData validates a raw payload against the ResumeData schema and
// decodes it.
func DecodeResumeData(raw map[string]interface{}) (model.ResumeData, error) {
	if err := model.ValidateResumeData(raw); err != nil {
		return model.ResumeData{}, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return model.ResumeData{}, err
	}
	data := model.NewResumeData()
	if err := json.Unmarshal(b, &data); err != nil {
		return model.ResumeData{}, err
	}
	if data.Fields == nil {
		data.Fields = map[string]string{}
	}
	if data.Sections == nil {
		data.Sections = map[string][]model.Item{}
	}
	return data, nil
}

// Fill injects data into the document's own tree.
func (p *Processor) Fill(ctx context.Context, id uuid.UUID, data model.ResumeData) (*domain.ResumeDocument, error) {
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := transform.Inject(doc.Content, data)
	if err != nil {
		return nil, err
	}
	doc.Content = out
	return doc, p.save(ctx, doc)
}

// SwitchTemplate moves a document's data onto another template's layout.
func (p *Processor) SwitchTemplate(ctx context.Context, id uuid.UUID, templateID string) (*domain.ResumeDocument, error) {
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl, err := p.Templates.Get(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	data, err := transform.Extract(doc.Content)
	if err != nil {
		return nil, err
	}
	out, err := transform.Inject(tpl.Content, data)
	if err != nil {
		return nil, err
	}
	doc.Content = out
	doc.TemplateID = tpl.ID
	if err := p.save(ctx, doc); err != nil {
		return nil, err
	}
	p.log.Info("template switched", "doc_id", id, "template_id", tpl.ID)
	return doc, nil
}

// SaveAsTemplate copies a document into the template catalog with its
// current data as the sample.
func (p *Processor) SaveAsTemplate(ctx context.Context, id uuid.UUID, name string) (*domain.Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name is required")
	}
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := transform.Extract(doc.Content)
	if err != nil {
		return nil, err
	}
	tpl := &domain.Template{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Content:   doctree.Clone(doc.Content),
		Sample:    data,
		CreatedAt: p.now(),
	}
	if err := p.Templates.Save(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// FillFromProfile injects the owner's stored profile into the document.
func (p *Processor) FillFromProfile(ctx context.Context, id uuid.UUID) (*domain.ResumeDocument, error) {
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Profiles == nil {
		return nil, invalid("no profile source configured")
	}
	profile, err := p.Profiles.ResumeForUser(ctx, doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("profile for %s: %w", doc.UserID, err)
	}
	return p.Fill(ctx, id, profile.ToResumeData())
}

// Import creates a document from Markdown.
func (p *Processor) Import(ctx context.Context, userID uuid.UUID, title string, markdown []byte) (*domain.ResumeDocument, error) {
	if userID == uuid.Nil {
		return nil, invalid("user_id is required")
	}
	if len(bytes.TrimSpace(markdown)) == 0 {
		return nil, invalid("empty markdown")
	}
	return p.create(ctx, userID, "", title, importer.Markdown(markdown))
}

// Generate drafts a document with the AI service.
func (p *Processor) Generate(ctx context.Context, req GenerateRequest) (*domain.ResumeDocument, error) {
	if req.UserID == uuid.Nil {
		return nil, invalid("user_id is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalid("prompt is required")
	}
	if p.Drafter == nil {
		return nil, invalid("no ai service configured")
	}

	if req.Mode == ModeDocument {
		content, err := p.Drafter.GenerateDocument(ctx, req.Prompt)
		if err != nil {
			return nil, fmt.Errorf("generate document: %w", err)
		}
		return p.create(ctx, req.UserID, "", req.Title, content)
	}
	if req.Mode != "" && req.Mode != ModeData {
		return nil, invalid("unknown mode %q", req.Mode)
	}

	tplID := req.TemplateID
	if tplID == "" {
		tplID = DefaultTemplateID
	}
	tpl, err := p.Templates.Get(ctx, tplID)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tplID, err)
	}
	fr, err := vocabulary(tpl.Content)
	if err != nil {
		return nil, err
	}
	fr.Prompt = req.Prompt
	if req.UseProfile && p.Profiles != nil {
		if profile, err := p.Profiles.ResumeForUser(ctx, req.UserID); err == nil {
			fr.Profile = &profile
		} else {
			p.log.Warn("profile unavailable for generation", "user_id", req.UserID, "error", err)
		}
	}

	data, err := p.Drafter.GenerateResumeData(ctx, fr)
	if err != nil {
		return nil, fmt.Errorf("generate resume data: %w", err)
	}
	if check := checkDraft(data, fr); !check.OK() {
		p.log.Info("draft incomplete, enriching", "missing_fields", check.MissingFields, "empty_sections", check.EmptySections)
		if enriched, err := enrichDraft(ctx, p.Drafter, fr, data, check); err == nil {
			data = enriched
		} else {
			p.log.Warn("enrich draft failed", "error", err)
		}
	}

	content, err := transform.Inject(tpl.Content, data)
	if err != nil {
		return nil, err
	}
	return p.create(ctx, req.UserID, tpl.ID, req.Title, content)
}

// Export paginates the document against browser measurements, renders it
// and prints it to PDF, keeping HTML and PDF artifacts under OutputDir.
func (p *Processor) Export(ctx context.Context, id uuid.UUID) (*ExportResult, error) {
	if p.Renderer == nil {
		return nil, invalid("no renderer configured")
	}
	doc, err := p.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doctree.CheckShape(doc.Content); err != nil {
		return nil, err
	}
	res := &ExportResult{DocumentID: id}

	content := doc.Content
	if p.OpenProbe != nil {
		settled, moves, err := p.settle(ctx, content)
		if err != nil {
			p.log.Warn("export pagination skipped", "doc_id", id, "error", err)
		} else if moves > 0 {
			content = settled
			doc.Content = settled
			if err := p.save(ctx, doc); err != nil {
				return nil, err
			}
		}
		res.Moves = moves
	}
	res.Pages = len(doctree.Pages(content))

	first := paginate.LookupFormat(doctree.Pages(content)[0].Node.StringAttr(doctree.AttrFormat))
	css := fmt.Sprintf("@page { size: %gmm %gmm; margin: 0; }\n@media print { body { background: #fff; } .page { margin: 0; } }\n",
		first.WidthMM, first.HeightMM)
	html, err := render.HTML(content, render.Options{Title: doc.Title, CSS: css})
	if err != nil {
		return nil, err
	}

	ts := p.now().Format("20060102T150405")
	genDir := filepath.Join(p.opts.OutputDir, "generated")
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return nil, err
	}
	// save HTML before rendering so it's preserved even if rendering fails
	res.HTMLPath = filepath.Join(genDir, fmt.Sprintf("%s_%s.html", id, ts))
	if err := os.WriteFile(res.HTMLPath, []byte(html), 0o644); err != nil {
		return nil, err
	}

	pdf, err := p.renderPDF(ctx, html, first)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	res.PDF = pdf

	if n, err := p.CountPDFPages(pdf); err != nil {
		p.log.Warn("pdf page count unavailable", "doc_id", id, "error", err)
	} else {
		res.PDFPages = n
		if n != res.Pages {
			p.log.Warn("pdf page count differs from document", "doc_id", id, "pages", res.Pages, "pdf_pages", n)
		}
	}

	res.PDFPath = filepath.Join(genDir, fmt.Sprintf("%s_%s.pdf", id, ts))
	if err := os.WriteFile(res.PDFPath, pdf, 0o644); err != nil {
		return nil, err
	}
	userDir := filepath.Join(p.opts.OutputDir, "resumes", doc.UserID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, err
	}
	res.UserCopy = filepath.Join(userDir, id.String()+".pdf")
	if err := os.WriteFile(res.UserCopy, pdf, 0o644); err != nil {
		return nil, err
	}

	p.log.Info("document exported", "doc_id", id, "pages", res.Pages, "moves", res.Moves, "pdf", res.PDFPath)
	return res, nil
}

// settle runs the paginator to quiescence on a private session.
func (p *Processor) settle(ctx context.Context, content *doctree.Node) (*doctree.Node, int, error) {
	probe, err := p.OpenProbe(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer probe.Close()

	session := editor.NewSession(content)
	pag := paginate.New(session, newProbeMeasurer(probe, p.log), paginate.Options{
		TolerancePx: p.opts.TolerancePx,
		Logger:      p.log,
	})
	moves, err := pag.Settle(ctx, p.opts.MaxTicks)
	if err != nil {
		return nil, moves, err
	}
	return session.Doc(), moves, nil
}

// renderPDF retries with exponential backoff until the renderer returns
// something that looks like a PDF.
func (p *Processor) renderPDF(ctx context.Context, html string, f paginate.Format) ([]byte, error) {
	var (
		pdf       []byte
		renderErr error
	)
	for i := 0; i < p.opts.RenderAttempts; i++ {
		pdf, renderErr = p.Renderer.RenderHTMLToPDF(ctx, html, f.WidthInches(), f.HeightInches())
		if renderErr == nil {
			if bytes.HasPrefix(pdf, []byte("%PDF")) {
				return pdf, nil
			}
			renderErr = fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
		}
		p.log.Warn("render attempt failed", "attempt", i+1, "error", renderErr)
		if i < p.opts.RenderAttempts-1 {
			backoff := p.opts.RenderBackoff * time.Duration(1<<i)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, renderErr
}
