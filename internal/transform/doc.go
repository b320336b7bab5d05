// Package transform moves resume content between document trees and the
// normalized ResumeData record.
//
// Extract reads the semantic tags (field, section, scope=item) of a tree into
// ResumeData; Inject writes a ResumeData record into a deep copy of a
// template tree. Neither mutates its input, so one template can serve any
// number of injections.
package transform
