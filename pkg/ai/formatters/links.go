package formatters

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
)

// NormalizeURL adds a missing https scheme and rejects anything that is not
// an http(s) URL on a registrable domain. ok is false for rejected input.
func NormalizeURL(raw string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", false
	}
	if strings.HasPrefix(candidate, "mailto:") {
		return candidate, strings.Contains(candidate, "@")
	}
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		if strings.Contains(candidate, "://") {
			return "", false
		}
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	host := parsed.Hostname()
	if host == "" {
		return "", false
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return "", false
	}
	return parsed.String(), true
}

// SanitizeLinks normalizes every link mark in doc and drops those that do
// not point to a real domain. The text they annotate stays.
func SanitizeLinks(doc *doctree.Node) {
	doctree.Walk(doc, func(n, _ *doctree.Node, _ int) bool {
		if len(n.Marks) == 0 {
			return true
		}
		kept := n.Marks[:0]
		for _, m := range n.Marks {
			if m.Type != "link" {
				kept = append(kept, m)
				continue
			}
			href, _ := m.Attrs["href"].(string)
			clean, ok := NormalizeURL(href)
			if !ok {
				continue
			}
			m.Attrs["href"] = clean
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			kept = nil
		}
		n.Marks = kept
		return true
	})
}

// urlFields hold links in drafted resume data.
var urlFields = []string{model.FieldWebsite, model.FieldProjURL}

// SanitizeData normalizes URL-valued fields and removes invalid ones.
func SanitizeData(d model.ResumeData) {
	fix := func(m map[string]string) {
		for _, k := range urlFields {
			v, ok := m[k]
			if !ok {
				continue
			}
			if clean, ok := NormalizeURL(v); ok {
				m[k] = clean
			} else {
				delete(m, k)
			}
		}
	}
	fix(d.Fields)
	for _, items := range d.Sections {
		for _, it := range items {
			fix(it)
		}
	}
}
