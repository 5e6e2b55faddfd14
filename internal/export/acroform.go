package export

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// drawOp is one deferred text draw, applied as a positioned stamp when the
// document is re-serialized.
type drawOp struct {
	x, y float64
	text string
}

// pdfWriter implements Writer over pdfcpu's document model. Field mutation
// writes V (and AS for checkboxes) directly into the AcroForm field
// dictionaries; NeedAppearances tells conforming readers to regenerate the
// widget appearances.
type pdfWriter struct {
	ctx      *model.Context
	acroForm types.Dict
	fields   []Field
	dicts    map[string]types.Dict
	types    map[string]FieldType
	draws    map[int][]drawOp
	fontSize int

	// pageNumbers maps page dict object numbers to 1-based page numbers,
	// built lazily from the page tree.
	pageNumbers map[int]int
}

// NewPDFWriter opens a mutable handle over the given document bytes.
func NewPDFWriter(data []byte) (Writer, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &ExportError{Err: fmt.Errorf("read document: %w", err)}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("resolve page count: %w", err)}
	}

	w := &pdfWriter{
		ctx:      ctx,
		dicts:    map[string]types.Dict{},
		types:    map[string]FieldType{},
		draws:    map[int][]drawOp{},
		fontSize: 10,
	}
	if err := w.indexFields(); err != nil {
		return nil, &ExportError{Err: err}
	}
	return w, nil
}

// indexFields walks the AcroForm Fields array once and records every named
// field with its resolved type. A document without an AcroForm simply has no
// structured fields.
func (w *pdfWriter) indexFields() error {
	rootDict, err := w.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}
	acroFormDict, err := w.ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return nil
	}
	w.acroForm = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil
	}
	fieldsArray, err := w.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("dereference Fields array: %w", err)
	}

	for i, fieldRef := range fieldsArray {
		fieldDict, err := w.ctx.DereferenceDict(fieldRef)
		if err != nil || fieldDict == nil {
			continue
		}

		name := ""
		if nameObj, found := fieldDict.Find("T"); found {
			if s, err := w.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
				name = s
			}
		}
		if name == "" {
			name = fmt.Sprintf("field_%d", i)
		}

		ft := w.fieldType(fieldDict)
		page := w.fieldPage(fieldDict)
		w.fields = append(w.fields, Field{Name: name, Type: ft, Page: page})
		w.dicts[name] = fieldDict
		w.types[name] = ft
	}
	return nil
}

// fieldType resolves the FT entry, following Parent for inherited types and
// the button flags to tell checkboxes from radios and pushbuttons.
func (w *pdfWriter) fieldType(fieldDict types.Dict) FieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := w.ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return w.fieldType(parentDict)
			}
		}
		return FieldTypeUnknown
	}

	ftName, err := w.ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := w.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				if (*flags & (1 << 15)) != 0 { // Bit 16: radio
					return FieldTypeRadio
				}
				if (*flags & (1 << 16)) != 0 { // Bit 17: pushbutton
					return FieldTypeUnknown
				}
			}
		}
		return FieldTypeCheckbox
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeSelect
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// fieldPage resolves the page a field's widget sits on via the widget's P
// entry against the page tree. Falls back to 1 when unresolvable.
func (w *pdfWriter) fieldPage(fieldDict types.Dict) int {
	if pObj, found := fieldDict.Find("P"); found {
		if page := w.pageOfRef(pObj); page > 0 {
			return page
		}
	}
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil && len(kids) > 0 {
			if kidDict, err := w.ctx.DereferenceDict(kids[0]); err == nil && kidDict != nil {
				if pObj, found := kidDict.Find("P"); found {
					if page := w.pageOfRef(pObj); page > 0 {
						return page
					}
				}
			}
		}
	}
	return 1
}

func (w *pdfWriter) pageOfRef(pObj types.Object) int {
	ref, ok := pObj.(types.IndirectRef)
	if !ok {
		return 0
	}
	if w.pageNumbers == nil {
		w.pageNumbers = map[int]int{}
		if rootDict, err := w.ctx.Catalog(); err == nil {
			if pagesObj, found := rootDict.Find("Pages"); found {
				w.walkPageTree(pagesObj)
			}
		}
	}
	return w.pageNumbers[ref.ObjectNumber.Value()]
}

// walkPageTree records the object number of every leaf page dict, in
// document order.
func (w *pdfWriter) walkPageTree(node types.Object) {
	d, err := w.ctx.DereferenceDict(node)
	if err != nil || d == nil {
		return
	}
	if t := d.Type(); t != nil && *t == "Page" {
		if ref, ok := node.(types.IndirectRef); ok {
			w.pageNumbers[ref.ObjectNumber.Value()] = len(w.pageNumbers) + 1
		}
		return
	}
	if kidsObj, found := d.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				w.walkPageTree(kid)
			}
		}
	}
}

func (w *pdfWriter) ListFields() []Field {
	out := make([]Field, len(w.fields))
	copy(out, w.fields)
	return out
}

func (w *pdfWriter) SetTextField(name, value string) error {
	fieldDict, ok := w.dicts[name]
	if !ok {
		return &ExportError{Err: fmt.Errorf("no field named %q", name)}
	}
	if ft := w.types[name]; ft != FieldTypeText && ft != FieldTypeSelect {
		return &UnsupportedFieldError{Name: name, Type: ft}
	}

	s, err := types.EscapedUTF16String(value)
	if err != nil {
		return &ExportError{Err: fmt.Errorf("encode value for %q: %w", name, err)}
	}
	fieldDict["V"] = types.StringLiteral(*s)
	// Stale appearance streams would show the old value.
	delete(fieldDict, "AP")
	w.setNeedAppearances()
	return nil
}

func (w *pdfWriter) SetCheckBox(name string, checked bool) error {
	fieldDict, ok := w.dicts[name]
	if !ok {
		return &ExportError{Err: fmt.Errorf("no field named %q", name)}
	}
	if ft := w.types[name]; ft != FieldTypeCheckbox {
		return &UnsupportedFieldError{Name: name, Type: ft}
	}

	state := types.Name("Off")
	if checked {
		state = w.onState(fieldDict)
	}
	fieldDict["V"] = state
	fieldDict["AS"] = state
	w.setNeedAppearances()
	return nil
}

// onState finds the checkbox "on" appearance name from the AP dictionary;
// most documents use Yes but any name is allowed.
func (w *pdfWriter) onState(fieldDict types.Dict) types.Name {
	if apObj, found := fieldDict.Find("AP"); found {
		if apDict, err := w.ctx.DereferenceDict(apObj); err == nil && apDict != nil {
			if nObj, found := apDict.Find("N"); found {
				if nDict, err := w.ctx.DereferenceDict(nObj); err == nil && nDict != nil {
					for key := range nDict {
						if key != "Off" {
							return types.Name(key)
						}
					}
				}
			}
		}
	}
	return types.Name("Yes")
}

func (w *pdfWriter) setNeedAppearances() {
	if w.acroForm != nil {
		w.acroForm["NeedAppearances"] = types.Boolean(true)
	}
}

func (w *pdfWriter) DrawText(page int, x, y float64, text string) error {
	if page < 1 || page > w.ctx.PageCount {
		return &ExportError{Err: fmt.Errorf("draw on invalid page %d", page)}
	}
	w.draws[page] = append(w.draws[page], drawOp{x: x, y: y, text: text})
	return nil
}

// Bytes re-serializes the mutated document, then applies any deferred text
// draws as positioned stamps on the intermediate stream.
func (w *pdfWriter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(w.ctx, &buf); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("write document: %w", err)}
	}
	if len(w.draws) == 0 {
		return buf.Bytes(), nil
	}

	marks := map[int][]*model.Watermark{}
	for page, ops := range w.draws {
		for _, op := range ops {
			desc := fmt.Sprintf("points:%d, pos:bl, off:%.2f %.2f, scalefactor:1 abs, rot:0, op:1, fillc:#000000",
				w.fontSize, op.x, op.y)
			wm, err := api.TextWatermark(op.text, desc, true, false, types.POINTS)
			if err != nil {
				return nil, &ExportError{Err: fmt.Errorf("build text stamp: %w", err)}
			}
			marks[page] = append(marks[page], wm)
		}
	}

	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(buf.Bytes()), &out, marks, nil); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("apply text stamps: %w", err)}
	}
	return out.Bytes(), nil
}
