package model

import "strings"

// Item is one entry of a section: field name -> plain text, scoped to that
// entry's subtree.
type Item map[string]string

// ResumeData is the normalized form of a resume, keyed by the semantic tags
// found in a document tree.
type ResumeData struct {
	Fields   map[string]string `json:"fields"`
	Sections map[string][]Item `json:"sections"`
}

// NewResumeData returns an empty record with allocated maps.
func NewResumeData() ResumeData {
	return ResumeData{Fields: map[string]string{}, Sections: map[string][]Item{}}
}

// Profile records below are the typed shape of the data the profile
// aggregator and the AI service produce. ToResumeData maps them onto the
// tag vocabulary.

type Meta struct {
	Name     string            `json:"name"`
	Headline string            `json:"headline"`
	Contact  map[string]string `json:"contact,omitempty"`
}

type Role struct {
	Company string   `json:"company"`
	Title   string   `json:"title"`
	Period  string   `json:"period,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Period string `json:"period,omitempty"`
}

type Project struct {
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Stack       string   `json:"stack,omitempty"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets,omitempty"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Resume struct {
	Meta           Meta            `json:"meta"`
	Summary        string          `json:"summary"`
	Experience     []Role          `json:"experience"`
	Education      []Education     `json:"education,omitempty"`
	Projects       []Project       `json:"projects"`
	Skills         []string        `json:"skills,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Publications   []string        `json:"publications,omitempty"`
}

// ToResumeData flattens a profile into tag-keyed fields and section items.
// Bullet lists become newline-joined values, which list-typed fields split
// back into list items on injection. Empty values are omitted.
func (r Resume) ToResumeData() ResumeData {
	d := NewResumeData()
	put := func(m map[string]string, k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			m[k] = v
		}
	}

	put(d.Fields, FieldName, r.Meta.Name)
	put(d.Fields, FieldHeadline, r.Meta.Headline)
	put(d.Fields, FieldSummary, r.Summary)
	for k, v := range r.Meta.Contact {
		switch k {
		case "email":
			put(d.Fields, FieldEmail, v)
		case "phone":
			put(d.Fields, FieldPhone, v)
		case "location":
			put(d.Fields, FieldLocation, v)
		case "website", "url":
			put(d.Fields, FieldWebsite, v)
		}
	}

	for _, e := range r.Experience {
		it := Item{}
		put(it, FieldExpCompany, e.Company)
		put(it, FieldExpRole, e.Title)
		put(it, FieldExpPeriod, e.Period)
		put(it, FieldExpDescription, strings.Join(e.Bullets, "\n"))
		d.Sections[SectionExperience] = append(d.Sections[SectionExperience], it)
	}
	for _, e := range r.Education {
		it := Item{}
		put(it, FieldEduSchool, e.School)
		put(it, FieldEduDegree, e.Degree)
		put(it, FieldEduPeriod, e.Period)
		d.Sections[SectionEducation] = append(d.Sections[SectionEducation], it)
	}
	for _, p := range r.Projects {
		it := Item{}
		put(it, FieldProjName, p.Title)
		put(it, FieldProjURL, p.URL)
		put(it, FieldProjStack, p.Stack)
		desc := p.Description
		if len(p.Bullets) > 0 {
			desc = strings.Join(append([]string{desc}, p.Bullets...), "\n")
		}
		put(it, FieldProjDescription, desc)
		d.Sections[SectionProjects] = append(d.Sections[SectionProjects], it)
	}
	for _, s := range r.Skills {
		it := Item{}
		put(it, FieldSkillName, s)
		if len(it) > 0 {
			d.Sections[SectionSkills] = append(d.Sections[SectionSkills], it)
		}
	}
	for _, c := range r.Certifications {
		it := Item{}
		put(it, FieldCertName, c.Name)
		put(it, FieldCertIssuer, c.Issuer)
		put(it, FieldCertDate, c.Date)
		d.Sections[SectionCertifications] = append(d.Sections[SectionCertifications], it)
	}
	for _, pub := range r.Publications {
		it := Item{}
		put(it, FieldPubTitle, pub)
		if len(it) > 0 {
			d.Sections[SectionPublications] = append(d.Sections[SectionPublications], it)
		}
	}
	return d
}
