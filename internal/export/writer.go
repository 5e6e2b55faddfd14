package export

// FieldType classifies a structured field defined by the document format.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeSelect    FieldType = "select"
	FieldTypeSignature FieldType = "signature"
	FieldTypeUnknown   FieldType = "unknown"
)

// Field is one structured field of the document.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	Page int       `json:"page"`
}

// Writer is the document-authoring collaborator: a mutable handle over the
// original bytes. Implementations must leave the input untouched and produce
// a fresh stream from Bytes.
type Writer interface {
	// ListFields returns the structured fields the document itself defines.
	ListFields() []Field
	// SetTextField writes a string into the named text field.
	SetTextField(name, value string) error
	// SetCheckBox checks or unchecks the named checkbox field.
	SetCheckBox(name string, checked bool) error
	// DrawText draws literal text on a 1-based page at (x, y) in native
	// units measured from the bottom-left corner.
	DrawText(page int, x, y float64, text string) error
	// Bytes re-serializes the document with all mutations applied.
	Bytes() ([]byte, error)
}
