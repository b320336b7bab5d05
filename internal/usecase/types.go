package usecase

import (
	"context"
	"errors"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"
	"resume-studio/internal/model"
	"resume-studio/pkg/ai/formatters"

	"github.com/google/uuid"
)

// ErrInvalidInput marks requests rejected before any work is done.
var ErrInvalidInput = errors.New("invalid input")

type DocumentsRepo interface {
	Save(ctx context.Context, d *domain.ResumeDocument) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ResumeDocument, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ResumeDocument, error)
}

type TemplatesRepo interface {
	Get(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Save(ctx context.Context, t *domain.Template) error
}

type ProfileSource interface {
	ResumeForUser(ctx context.Context, userID uuid.UUID) (model.Resume, error)
}

// Drafter produces resume content with the AI service.
type Drafter interface {
	GenerateResumeData(ctx context.Context, req formatters.FieldsRequest) (model.ResumeData, error)
	GenerateDocument(ctx context.Context, prompt string) (*doctree.Node, error)
}

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string, widthIn, heightIn float64) ([]byte, error)
}

// HeightProbe measures rendered HTML in a live browser tab.
type HeightProbe interface {
	MeasureHeight(html, selector string) (float64, error)
	Close()
}

// ProbeOpener starts a HeightProbe. It may be nil, in which case export
// skips server-side pagination.
type ProbeOpener func(ctx context.Context) (HeightProbe, error)

type CreateRequest struct {
	UserID     uuid.UUID     `json:"user_id"`
	TemplateID string        `json:"template_id"`
	Title      string        `json:"title"`
	Content    *doctree.Node `json:"content"`
}

// Generation modes.
const (
	ModeData     = "data"
	ModeDocument = "document"
)

type GenerateRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
	// Mode is ModeData (default: draft ResumeData and inject it into the
	// template) or ModeDocument (draft a whole tree).
	Mode       string `json:"mode"`
	UseProfile bool   `json:"use_profile"`
}

type ExportResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Pages      int       `json:"pages"`
	PDFPages   int       `json:"pdf_pages"`
	Moves      int       `json:"moves"`
	HTMLPath   string    `json:"html_path"`
	PDFPath    string    `json:"pdf_path"`
	UserCopy   string    `json:"user_copy"`
	PDF        []byte    `json:"-"`
}

var timeNow = func() time.Time { return time.Now().UTC() }
