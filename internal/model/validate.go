package model

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schema/resume_data.schema.json
	resumeDataSchema string
	//go:embed schema/document.schema.json
	documentSchema string
	//go:embed schema/node.schema.json
	nodeSchema string

	resumeDataLoader = gojsonschema.NewStringLoader(resumeDataSchema)
	documentLoader   = gojsonschema.NewStringLoader(documentSchema)
	nodeLoader       = gojsonschema.NewStringLoader(nodeSchema)
)

// ValidationError lists every schema violation found in a payload.
type ValidationError struct {
	Subject string
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s schema validation failed: %s", e.Subject, strings.Join(e.Details, "; "))
}

// ValidateResumeData validates a decoded ResumeData payload (as a generic
// map, the way it arrives from clients and the AI service).
func ValidateResumeData(m map[string]interface{}) error {
	return validate("resume data", resumeDataLoader, gojsonschema.NewGoLoader(m))
}

// ValidateDocumentJSON checks that raw is a doc root whose children are all
// pages. Deeper nodes only need a type; the core tolerates anything else.
func ValidateDocumentJSON(raw []byte) error {
	return validate("document", documentLoader, gojsonschema.NewBytesLoader(raw))
}

// ValidateNodeJSON checks a single subtree, e.g. a node a client inserts
// into a live document.
func ValidateNodeJSON(raw []byte) error {
	return validate("node", nodeLoader, gojsonschema.NewBytesLoader(raw))
}

func validate(subject string, schema, doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schema, doc)
	if err != nil {
		return fmt.Errorf("%s schema validation: %w", subject, err)
	}
	if res.Valid() {
		return nil
	}
	verr := &ValidationError{Subject: subject}
	for _, e := range res.Errors() {
		verr.Details = append(verr.Details, e.String())
	}
	return verr
}
