package formatters

import (
	"context"
	"errors"
	"strings"

	"resume-studio/internal/doctree"
	"resume-studio/internal/importer"
	"resume-studio/internal/model"
)

type DocumentFormatter struct {
	chat     Chatter
	language string
}

func NewDocumentFormatter(chat Chatter, language string) *DocumentFormatter {
	return &DocumentFormatter{chat: chat, language: language}
}

const documentInstructions = `Return ONLY a single JSON object: a document tree of the form
{"type":"doc","content":[{"type":"page","attrs":{"format":"a4"},"content":[...blocks...]}]}
Blocks are heading (attrs.level 1-3), paragraph, bulletList/orderedList of listItem, horizontalRule.
Inline content is {"type":"text","text":"...","marks":[{"type":"bold"}]}; marks are bold, italic, underline, link (attrs.href).
Tag semantic nodes with attrs.field (name, headline, email, phone, location, website, summary) and
repeatable lists with attrs.section (experience, education, projects, skills) whose entries carry attrs.scope "item".
If you cannot produce JSON, answer in Markdown instead.`

// Format asks for a complete document tree. Output that holds no JSON object
// is read as Markdown. Links are sanitized either way.
func (f *DocumentFormatter) Format(ctx context.Context, prompt string) (*doctree.Node, error) {
	userCtx := map[string]interface{}{
		"request":      prompt,
		"instructions": languageLine(f.language) + documentInstructions,
	}
	out, err := f.chat.Chat(ctx, "Draft a resume document:\n"+mustMarshal(userCtx))
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(out)
	if errors.Is(err, ErrNotJSON) {
		if strings.TrimSpace(out) == "" {
			return nil, ErrNotJSON
		}
		doc := importer.Markdown([]byte(out))
		SanitizeLinks(doc)
		return doc, nil
	}
	if err := model.ValidateDocumentJSON(raw); err != nil {
		return nil, err
	}
	doc, err := doctree.Parse(raw)
	if err != nil {
		return nil, err
	}
	SanitizeLinks(doc)
	return doc, nil
}
