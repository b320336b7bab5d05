package formatters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"resume-studio/internal/model"
)

// FieldsRequest describes the data a template can hold and what to base it on.
type FieldsRequest struct {
	Prompt string
	// Fields are the top-level field names the template uses.
	Fields []string
	// Sections maps each section name to the field names of one item.
	Sections map[string][]string
	// Profile and Current are optional context.
	Profile *model.Resume
	Current *model.ResumeData
}

type FieldsFormatter struct {
	chat     Chatter
	language string
}

func NewFieldsFormatter(chat Chatter, language string) *FieldsFormatter {
	return &FieldsFormatter{chat: chat, language: language}
}

// Format asks for tag-keyed resume data and validates the answer. Values the
// model returns as arrays are joined with newlines; list fields split them
// again on injection.
func (f *FieldsFormatter) Format(ctx context.Context, req FieldsRequest) (model.ResumeData, error) {
	sections := make([]string, 0, len(req.Sections))
	for s := range req.Sections {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	var shape strings.Builder
	shape.WriteString(`{"fields": {`)
	for i, name := range req.Fields {
		if i > 0 {
			shape.WriteString(", ")
		}
		fmt.Fprintf(&shape, "%q: \"...\"", name)
	}
	shape.WriteString(`}, "sections": {`)
	for i, s := range sections {
		if i > 0 {
			shape.WriteString(", ")
		}
		fmt.Fprintf(&shape, "%q: [{", s)
		for j, name := range req.Sections[s] {
			if j > 0 {
				shape.WriteString(", ")
			}
			fmt.Fprintf(&shape, "%q: \"...\"", name)
		}
		shape.WriteString("}]")
	}
	shape.WriteString("}}")

	instr := languageLine(f.language) +
		"Return ONLY a single JSON object shaped exactly like the skeleton below and NOTHING ELSE: no commentary, no markdown, no code fences.\n" +
		"Every value is a plain string. Multi-line values (bullet points) use \\n between lines. Omit keys you have no content for. Sections are arrays with one object per entry.\n\n" +
		"SKELETON:\n" + shape.String()

	userCtx := map[string]interface{}{"request": req.Prompt, "instructions": instr}
	if req.Profile != nil {
		userCtx["profile"] = req.Profile
	}
	if req.Current != nil {
		userCtx["current"] = req.Current
	}

	out, err := f.chat.Chat(ctx, "Draft resume content:\n"+mustMarshal(userCtx))
	if err != nil {
		return model.ResumeData{}, err
	}
	raw, err := ExtractJSON(out)
	if err != nil {
		return model.ResumeData{}, err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.ResumeData{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	coerceResumeData(m)
	if err := model.ValidateResumeData(m); err != nil {
		return model.ResumeData{}, err
	}

	data := model.NewResumeData()
	if err := json.Unmarshal([]byte(mustMarshal(m)), &data); err != nil {
		return model.ResumeData{}, err
	}
	if data.Fields == nil {
		data.Fields = map[string]string{}
	}
	if data.Sections == nil {
		data.Sections = map[string][]model.Item{}
	}
	SanitizeData(data)
	return data, nil
}

// coerceResumeData rewrites scalar and array values into strings so that the
// common near-misses of the model pass validation. It mutates m in place.
func coerceResumeData(m map[string]interface{}) {
	delete(m, "$schema")
	if fields, ok := m["fields"].(map[string]interface{}); ok {
		coerceValues(fields)
	}
	sections, ok := m["sections"].(map[string]interface{})
	if !ok {
		return
	}
	for name, raw := range sections {
		items, ok := raw.([]interface{})
		if !ok {
			delete(sections, name)
			continue
		}
		kept := items[:0]
		for _, it := range items {
			if obj, ok := it.(map[string]interface{}); ok {
				coerceValues(obj)
				kept = append(kept, obj)
			}
		}
		sections[name] = kept
	}
}

func coerceValues(obj map[string]interface{}) {
	for k, v := range obj {
		switch t := v.(type) {
		case string:
		case nil:
			delete(obj, k)
		case float64:
			obj[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			obj[k] = strconv.FormatBool(t)
		case []interface{}:
			lines := make([]string, 0, len(t))
			for _, e := range t {
				if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
					lines = append(lines, strings.TrimSpace(s))
				}
			}
			obj[k] = strings.Join(lines, "\n")
		default:
			obj[k] = mustMarshal(t)
		}
	}
}
