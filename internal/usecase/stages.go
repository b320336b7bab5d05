package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
	"resume-studio/internal/transform"
	"resume-studio/pkg/ai/formatters"
)

// vocabulary lists the fields and per-section item fields a template
// carries, read from its own tags.
func vocabulary(template *doctree.Node) (formatters.FieldsRequest, error) {
	data, err := transform.Extract(template)
	if err != nil {
		return formatters.FieldsRequest{}, err
	}
	req := formatters.FieldsRequest{Sections: map[string][]string{}}
	for f := range data.Fields {
		req.Fields = append(req.Fields, f)
	}
	sort.Strings(req.Fields)
	for s, items := range data.Sections {
		seen := map[string]bool{}
		keys := []string{}
		for _, it := range items {
			for k := range it {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
		sort.Strings(keys)
		req.Sections[s] = keys
	}
	return req, nil
}

// DraftCheck is what a drafted record still lacks for its template.
type DraftCheck struct {
	MissingFields []string
	EmptySections []string
}

func (c DraftCheck) OK() bool { return len(c.MissingFields) == 0 && len(c.EmptySections) == 0 }

// requiredFields must be present whenever the template uses them.
var requiredFields = []string{model.FieldName, model.FieldHeadline, model.FieldSummary}

func checkDraft(data model.ResumeData, req formatters.FieldsRequest) DraftCheck {
	var c DraftCheck
	uses := map[string]bool{}
	for _, f := range req.Fields {
		uses[f] = true
	}
	for _, f := range requiredFields {
		if uses[f] && strings.TrimSpace(data.Fields[f]) == "" {
			c.MissingFields = append(c.MissingFields, f)
		}
	}
	for s := range req.Sections {
		if len(data.Sections[s]) == 0 {
			c.EmptySections = append(c.EmptySections, s)
		}
	}
	sort.Strings(c.EmptySections)
	return c
}

// enrichDraft asks once more for what check found missing and merges only
// those keys into data.
func enrichDraft(ctx context.Context, d Drafter, req formatters.FieldsRequest, data model.ResumeData, check DraftCheck) (model.ResumeData, error) {
	follow := req
	follow.Current = &data
	follow.Prompt = fmt.Sprintf("%s\n\nThe previous draft is in 'current'. Provide ONLY these missing parts: fields %v, sections %v.",
		req.Prompt, check.MissingFields, check.EmptySections)

	more, err := d.GenerateResumeData(ctx, follow)
	if err != nil {
		return data, err
	}
	for _, f := range check.MissingFields {
		if v := strings.TrimSpace(more.Fields[f]); v != "" {
			data.Fields[f] = v
		}
	}
	for _, s := range check.EmptySections {
		if items := more.Sections[s]; len(items) > 0 {
			data.Sections[s] = items
		}
	}
	return data, nil
}
