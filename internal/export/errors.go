// Package export serializes user-entered form values back into a document
// byte stream. The original bytes are never mutated in place; export either
// yields a complete new stream or fails outright, leaving in-memory state
// untouched so the user can retry.
package export

import "fmt"

// UnsupportedFieldError reports a structured field whose type the authoring
// layer cannot set. Recovered locally by drawing the value as literal text;
// not surfaced unless the fallback also fails.
type UnsupportedFieldError struct {
	Name string
	Type FieldType
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("field %q has unsupported type %q", e.Name, e.Type)
}

// ExportError wraps a failure in the document-authoring collaborator.
// Surfaced as a dismissible alert; retry-safe.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
