package model

// Field names used by the built-in templates and the profile mapping.
// Templates may use any other name; these are conventions, not a closed set.
const (
	FieldName     = "name"
	FieldHeadline = "headline"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLocation = "location"
	FieldWebsite  = "website"
	FieldSummary  = "summary"

	FieldExpCompany     = "exp-company"
	FieldExpRole        = "exp-role"
	FieldExpPeriod      = "exp-period"
	FieldExpDescription = "exp-description"

	FieldEduSchool = "edu-school"
	FieldEduDegree = "edu-degree"
	FieldEduPeriod = "edu-period"

	FieldProjName        = "proj-name"
	FieldProjURL         = "proj-url"
	FieldProjStack       = "proj-stack"
	FieldProjDescription = "proj-description"

	FieldSkillName = "skill-name"

	FieldCertName   = "cert-name"
	FieldCertIssuer = "cert-issuer"
	FieldCertDate   = "cert-date"

	FieldPubTitle = "pub-title"
)

// Section names.
const (
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionProjects       = "projects"
	SectionSkills         = "skills"
	SectionCertifications = "certifications"
	SectionPublications   = "publications"
)
