package export

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/formview/formview/internal/overlay"
	"github.com/formview/formview/internal/segment"
)

// Serializer writes entered form values back into a document byte stream.
type Serializer struct {
	log zerolog.Logger

	// openWriter is the authoring-collaborator constructor, replaceable in
	// tests.
	openWriter func(data []byte) (Writer, error)
}

// NewSerializer creates a serializer using the PDF authoring backend.
func NewSerializer(log zerolog.Logger) *Serializer {
	return &Serializer{log: log, openWriter: NewPDFWriter}
}

// Result reports what an export produced.
type Result struct {
	Bytes        []byte `json:"-"`
	FilledFields int    `json:"filled_fields"`
	DrawnValues  int    `json:"drawn_values"`
	// Fallback is set when the document defines no structured fields and
	// values were drawn as literal text instead.
	Fallback bool `json:"fallback"`
}

// Export produces a new document byte stream with the given values applied.
// Structured fields are filled through the binding; when the document
// defines no structured fields at all, every entered value is drawn as
// literal text at its segment's native position instead. The input bytes are
// never modified.
func (s *Serializer) Export(
	data []byte,
	values overlay.Values,
	segments []segment.Segment,
	binding Binding,
) (*Result, error) {
	w, err := s.openWriter(data)
	if err != nil {
		return nil, err
	}

	segByKey := make(map[string]segment.Segment, len(segments))
	for _, seg := range segments {
		segByKey[seg.Key()] = seg
	}

	result := &Result{}
	fields := w.ListFields()

	if len(fields) == 0 {
		// No structured fields: draw every entered value at its segment's
		// native position.
		result.Fallback = len(values) > 0
		for key, value := range values {
			seg, ok := segByKey[key]
			if !ok || value == "" {
				continue
			}
			if err := s.drawValue(w, seg, value); err != nil {
				return nil, err
			}
			result.DrawnValues++
		}
	} else {
		for _, f := range fields {
			key, bound := binding[f.Name]
			if !bound {
				continue
			}
			value, entered := values[key]
			if !entered {
				continue
			}

			err := s.setField(w, f, value)
			var unsupported *UnsupportedFieldError
			if errors.As(err, &unsupported) {
				// Recover locally: draw the value at the segment position.
				s.log.Debug().Str("field", f.Name).Str("type", string(f.Type)).
					Msg("unsupported field type, drawing value instead")
				if seg, ok := segByKey[key]; ok {
					if err := s.drawValue(w, seg, value); err != nil {
						return nil, err
					}
					result.DrawnValues++
				}
				continue
			}
			if err != nil {
				return nil, err
			}
			result.FilledFields++
		}
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	result.Bytes = out

	s.log.Info().
		Int("filled", result.FilledFields).
		Int("drawn", result.DrawnValues).
		Bool("fallback", result.Fallback).
		Msg("document exported")
	return result, nil
}

func (s *Serializer) setField(w Writer, f Field, value string) error {
	if f.Type == FieldTypeCheckbox {
		return w.SetCheckBox(f.Name, value == "true")
	}
	return w.SetTextField(f.Name, value)
}

// drawValue draws a value as literal text at the segment's native position.
// Page content coordinates originate at the bottom-left, so the segment's
// top-based y is flipped against the page height here and nowhere else.
func (s *Serializer) drawValue(w Writer, seg segment.Segment, value string) error {
	y := seg.PageHeight - seg.Top - seg.Height
	return w.DrawText(seg.PageNumber, seg.Left, y, value)
}

// ExportValues serializes the form value map alone as a flat JSON record,
// for workflows that don't need a filled document.
func ExportValues(values overlay.Values) ([]byte, error) {
	out, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return nil, &ExportError{Err: err}
	}
	return out, nil
}
