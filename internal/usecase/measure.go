package usecase

import (
	"log/slog"

	"resume-studio/internal/doctree"
	"resume-studio/internal/render"
)

// probeMeasurer measures pages one at a time in a browser tab. Heights are
// cached by page content, so a settle loop only re-measures the two pages a
// move touched.
type probeMeasurer struct {
	probe HeightProbe
	cache map[string]float64
	log   *slog.Logger
}

func newProbeMeasurer(probe HeightProbe, log *slog.Logger) *probeMeasurer {
	return &probeMeasurer{probe: probe, cache: map[string]float64{}, log: log}
}

func (m *probeMeasurer) MeasurePage(index int, page *doctree.Node) (float64, bool) {
	raw, err := doctree.Marshal(page)
	if err != nil {
		return 0, false
	}
	key := string(raw)
	if h, ok := m.cache[key]; ok {
		return h, true
	}

	html, err := render.HTML(doctree.NewDoc(page), render.Options{Measure: true})
	if err != nil {
		m.log.Warn("render page for measurement", "page", index, "error", err)
		return 0, false
	}
	h, err := m.probe.MeasureHeight(html, "."+render.PageClass)
	if err != nil {
		m.log.Warn("measure page", "page", index, "error", err)
		return 0, false
	}
	m.cache[key] = h
	return h, true
}
