package export

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formview/formview/internal/overlay"
	"github.com/formview/formview/internal/segment"
)

// fakeWriter records authoring calls instead of touching a real document.
type fakeWriter struct {
	fields    []Field
	texts     map[string]string
	checks    map[string]bool
	drawn     []fakeDraw
	failBytes error
}

type fakeDraw struct {
	page int
	x, y float64
	text string
}

func newFakeWriter(fields ...Field) *fakeWriter {
	return &fakeWriter{
		fields: fields,
		texts:  map[string]string{},
		checks: map[string]bool{},
	}
}

func (w *fakeWriter) ListFields() []Field { return w.fields }

func (w *fakeWriter) SetTextField(name, value string) error {
	for _, f := range w.fields {
		if f.Name == name {
			if f.Type != FieldTypeText && f.Type != FieldTypeSelect {
				return &UnsupportedFieldError{Name: name, Type: f.Type}
			}
			w.texts[name] = value
			return nil
		}
	}
	return &ExportError{Err: errors.New("no such field")}
}

func (w *fakeWriter) SetCheckBox(name string, checked bool) error {
	for _, f := range w.fields {
		if f.Name == name {
			if f.Type != FieldTypeCheckbox {
				return &UnsupportedFieldError{Name: name, Type: f.Type}
			}
			w.checks[name] = checked
			return nil
		}
	}
	return &ExportError{Err: errors.New("no such field")}
}

func (w *fakeWriter) DrawText(page int, x, y float64, text string) error {
	w.drawn = append(w.drawn, fakeDraw{page: page, x: x, y: y, text: text})
	return nil
}

func (w *fakeWriter) Bytes() ([]byte, error) {
	if w.failBytes != nil {
		return nil, &ExportError{Err: w.failBytes}
	}
	return []byte("%PDF-fake"), nil
}

func serializerOver(w Writer) *Serializer {
	s := NewSerializer(zerolog.Nop())
	s.openWriter = func([]byte) (Writer, error) { return w, nil }
	return s
}

func nameSegment() segment.Segment {
	return segment.Segment{
		Text:       "Name:",
		Type:       segment.TypeFormField,
		PageNumber: 1,
		Top:        100, Left: 50, Width: 200, Height: 20,
		PageWidth: 612, PageHeight: 792,
	}
}

func TestExportFillsStructuredFields(t *testing.T) {
	seg := nameSegment()
	w := newFakeWriter(Field{Name: "Name", Type: FieldTypeText})
	s := serializerOver(w)

	values := overlay.Values{seg.Key(): "John Doe"}
	binding := ResolveBinding(w.fields, []segment.Segment{seg})

	result, err := s.Export(nil, values, []segment.Segment{seg}, binding)
	require.NoError(t, err)

	assert.Equal(t, "John Doe", w.texts["Name"])
	assert.Equal(t, 1, result.FilledFields)
	assert.Zero(t, result.DrawnValues)
	assert.False(t, result.Fallback)
	assert.NotEmpty(t, result.Bytes)
}

func TestExportChecksCheckboxes(t *testing.T) {
	seg := nameSegment()
	seg.Text = "Married:"
	seg.Type = segment.TypeCheckbox

	w := newFakeWriter(Field{Name: "Married", Type: FieldTypeCheckbox})
	s := serializerOver(w)

	values := overlay.Values{}
	values.SetCheckbox(seg.Key(), true)
	binding := ResolveBinding(w.fields, []segment.Segment{seg})

	_, err := s.Export(nil, values, []segment.Segment{seg}, binding)
	require.NoError(t, err)
	assert.True(t, w.checks["Married"])
}

func TestExportUncheckedCheckboxStillReachesField(t *testing.T) {
	seg := nameSegment()
	seg.Text = "Married:"
	seg.Type = segment.TypeCheckbox

	w := newFakeWriter(Field{Name: "Married", Type: FieldTypeCheckbox})
	s := serializerOver(w)

	values := overlay.Values{}
	values.SetCheckbox(seg.Key(), false)
	binding := ResolveBinding(w.fields, []segment.Segment{seg})

	_, err := s.Export(nil, values, []segment.Segment{seg}, binding)
	require.NoError(t, err)

	checked, present := w.checks["Married"]
	assert.True(t, present, "an explicit false still reaches the field")
	assert.False(t, checked)
}

func TestExportUnsupportedFieldFallsBackToDrawing(t *testing.T) {
	seg := nameSegment()
	w := newFakeWriter(Field{Name: "Name", Type: FieldTypeSignature})
	s := serializerOver(w)

	values := overlay.Values{seg.Key(): "John Doe"}
	binding := Binding{"Name": seg.Key()}

	result, err := s.Export(nil, values, []segment.Segment{seg}, binding)
	require.NoError(t, err, "unsupported field types recover locally")

	assert.Zero(t, result.FilledFields)
	assert.Equal(t, 1, result.DrawnValues)
	require.Len(t, w.drawn, 1)
	assert.Equal(t, "John Doe", w.drawn[0].text)
}

func TestExportNoStructuredFieldsDrawsAtFlippedPosition(t *testing.T) {
	seg := nameSegment()
	w := newFakeWriter() // document defines no fields
	s := serializerOver(w)

	values := overlay.Values{seg.Key(): "John Doe"}
	result, err := s.Export(nil, values, []segment.Segment{seg}, Binding{})
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.Equal(t, 1, result.DrawnValues)
	require.Len(t, w.drawn, 1)

	d := w.drawn[0]
	assert.Equal(t, 1, d.page)
	assert.Equal(t, 50.0, d.x)
	// Content coordinates originate bottom-left: 792 - 100 - 20.
	assert.Equal(t, 672.0, d.y)
}

func TestExportEmptyValuesIsNotAFallback(t *testing.T) {
	w := newFakeWriter()
	s := serializerOver(w)

	result, err := s.Export(nil, overlay.Values{}, nil, Binding{})
	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.Empty(t, w.drawn)
}

func TestExportSurfacesWriterFailure(t *testing.T) {
	w := newFakeWriter()
	w.failBytes = errors.New("disk full")
	s := serializerOver(w)

	_, err := s.Export(nil, overlay.Values{}, nil, Binding{})
	require.Error(t, err)

	var exportErr *ExportError
	assert.True(t, errors.As(err, &exportErr))
}

func TestResolveBinding(t *testing.T) {
	name := nameSegment()
	dob := nameSegment()
	dob.Text = "Date of Birth:"
	dob.Top = 200
	title := nameSegment()
	title.Text = "Application"
	title.Type = segment.TypeTitle
	title.Top = 10

	fields := []Field{
		{Name: "Name", Type: FieldTypeText},
		{Name: "date_of_birth", Type: FieldTypeText},
		{Name: "Unmatched", Type: FieldTypeText},
	}
	segs := []segment.Segment{title, name, dob}

	b := ResolveBinding(fields, segs)
	assert.Equal(t, name.Key(), b["Name"])
	assert.Equal(t, dob.Key(), b["date_of_birth"], "normalization bridges snake_case")
	_, bound := b["Unmatched"]
	assert.False(t, bound)
}

func TestResolveBindingIgnoresNonFormSegments(t *testing.T) {
	text := nameSegment()
	text.Type = segment.TypeText

	b := ResolveBinding([]Field{{Name: "Name", Type: FieldTypeText}}, []segment.Segment{text})
	assert.Empty(t, b)
}

func TestExportValues(t *testing.T) {
	values := overlay.Values{"1_50_100": "John Doe", "1_50_300": "true"}

	out, err := ExportValues(values)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "John Doe", decoded["1_50_100"])
	assert.Equal(t, "true", decoded["1_50_300"])
}

func TestNewPDFWriterRejectsGarbage(t *testing.T) {
	_, err := NewPDFWriter([]byte("not a pdf"))
	require.Error(t, err)

	var exportErr *ExportError
	assert.True(t, errors.As(err, &exportErr))
}
