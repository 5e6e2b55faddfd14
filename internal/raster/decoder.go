// Package raster decodes document bytes and produces fixed-resolution page
// surfaces at the current zoom. Decoding goes through the Decoder interface
// so the engine never depends on a concrete document library at its
// boundaries.
package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/formview/formview/internal/geom"
)

// DecodeError reports an unreadable or corrupt document. The caller surfaces
// it as a blocking "failed to load document" message without tearing down the
// rest of the UI.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to load document: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder is the document-decoding collaborator: page count plus the
// per-page ability to rasterize to a bitmap surface at a given scale.
type Decoder interface {
	// NumPages returns the page count of the decoded document.
	NumPages() int
	// PageSize returns the native dimensions of a 1-based page.
	PageSize(page int) (geom.Size, error)
	// Fragments returns the positioned text runs of a 1-based page, in PDF
	// coordinates (y up from the bottom). May be empty for scanned pages.
	Fragments(page int) []TextFragment
}

// TextFragment is one positioned run of page text.
type TextFragment struct {
	Text     string
	X, Y, W  float64
	FontSize float64
}

// pdfDecoder decodes via pdfcpu for document structure and ledongthuc/pdf
// for positioned text content.
type pdfDecoder struct {
	ctx   *model.Context
	text  *pdf.Reader
	sizes []geom.Size
}

// Decode parses raw document bytes. Malformed input yields a DecodeError.
func Decode(data []byte) (Decoder, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &DecodeError{Err: err}
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	sizes := make([]geom.Size, len(dims))
	for i, d := range dims {
		sizes[i] = geom.Size{Width: d.Width, Height: d.Height}
	}

	// Text extraction is best-effort; a PDF that pdfcpu accepts but the text
	// parser rejects still renders, just without the content preview.
	textReader, terr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if terr != nil {
		textReader = nil
	}

	return &pdfDecoder{ctx: ctx, text: textReader, sizes: sizes}, nil
}

// DecodeBase64 decodes a base64 document payload once, then parses it.
func DecodeBase64(payload string) (Decoder, error) {
	payload = strings.TrimSpace(payload)
	// Tolerate data-URI prefixes from upload paths.
	if i := strings.Index(payload, ","); i >= 0 && strings.Contains(payload[:i], ";base64") {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("invalid base64 payload: %w", err)}
	}
	return Decode(data)
}

func (d *pdfDecoder) NumPages() int {
	return d.ctx.PageCount
}

func (d *pdfDecoder) PageSize(page int) (geom.Size, error) {
	if page < 1 || page > len(d.sizes) {
		return geom.Size{}, fmt.Errorf("invalid page number %d (document has %d pages)", page, len(d.sizes))
	}
	return d.sizes[page-1], nil
}

func (d *pdfDecoder) Fragments(page int) (fragments []TextFragment) {
	if d.text == nil || page < 1 || page > d.text.NumPage() {
		return nil
	}
	defer func() {
		if recover() != nil {
			fragments = nil
		}
	}()

	p := d.text.Page(page)
	if p.V.IsNull() {
		return nil
	}
	for _, t := range p.Content().Text {
		fragments = append(fragments, TextFragment{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
		})
	}
	return fragments
}
