// Package segment defines the extracted-content segments the viewer consumes.
// Segments arrive from an upstream analysis service and are read-only to the
// engine; their geometry is expressed in the native space of the page they
// were measured against.
package segment

import (
	"fmt"
	"strings"

	"github.com/formview/formview/internal/geom"
)

// Type classifies a segment. The vocabulary is closed; unknown values are
// preserved as-is and rendered via the default overlay path.
type Type string

const (
	TypeTitle         Type = "Title"
	TypeText          Type = "Text"
	TypeTable         Type = "Table"
	TypePicture       Type = "Picture"
	TypeFormula       Type = "Formula"
	TypeListItem      Type = "List item"
	TypeSectionHeader Type = "Section header"
	TypeCaption       Type = "Caption"
	TypeFootnote      Type = "Footnote"
	TypeFormField     Type = "Form field"
	TypeCheckbox      Type = "Checkbox"
	TypeDropdown      Type = "Dropdown"
	TypeSignature     Type = "Signature"
	TypeLabel         Type = "Label"
	TypeInstructions  Type = "Instructions"
)

// Segment is a typed, positioned span of extracted document content. The
// rectangle and page dimensions are in native page units.
type Segment struct {
	Text       string  `json:"text"`
	Type       Type    `json:"type"`
	PageNumber int     `json:"page_number"`
	Top        float64 `json:"top"`
	Left       float64 `json:"left"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	IsPII      bool    `json:"is_pii,omitempty"`
}

// Rect returns the segment's native-space rectangle.
func (s Segment) Rect() geom.Rect {
	return geom.Rect{Top: s.Top, Left: s.Left, Width: s.Width, Height: s.Height}
}

// PageSize returns the native page dimensions the segment was measured against.
func (s Segment) PageSize() geom.Size {
	return geom.Size{Width: s.PageWidth, Height: s.PageHeight}
}

// Key identifies a segment's form value entry. Two segments on the same page
// at the same position share a value slot.
func (s Segment) Key() string {
	return fmt.Sprintf("%d_%g_%g", s.PageNumber, s.Left, s.Top)
}

// Placeholder derives an entry placeholder from the segment's leading label
// text, cut at the first colon.
func (s Segment) Placeholder() string {
	text := strings.TrimSpace(s.Text)
	if i := strings.Index(text, ":"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// IsEditable reports whether the segment renders as a text-entry overlay.
func (s Segment) IsEditable() bool {
	return s.Type == TypeFormField || s.Type == TypeDropdown
}

// Validate checks the segment invariants: the page number must fall within
// the document and the rectangle must lie within the page box.
func (s Segment) Validate(numPages int) error {
	if s.PageNumber < 1 || s.PageNumber > numPages {
		return fmt.Errorf("segment page %d out of range [1, %d]", s.PageNumber, numPages)
	}
	if s.PageWidth <= 0 || s.PageHeight <= 0 {
		return fmt.Errorf("segment has invalid page dimensions %gx%g", s.PageWidth, s.PageHeight)
	}
	if !s.PageSize().Contains(s.Rect()) {
		return fmt.Errorf("segment rect (%g,%g,%g,%g) outside page box %gx%g",
			s.Top, s.Left, s.Width, s.Height, s.PageWidth, s.PageHeight)
	}
	return nil
}

// BorderColor returns the overlay border color for the segment type as a hex
// triplet. New types show up here as a compile-visible gap; anything outside
// the vocabulary takes the default arm.
func BorderColor(t Type) string {
	switch t {
	case TypeTitle:
		return "#7c3aed"
	case TypeText:
		return "#3b82f6"
	case TypeTable:
		return "#059669"
	case TypePicture:
		return "#db2777"
	case TypeFormula:
		return "#9333ea"
	case TypeListItem:
		return "#0891b2"
	case TypeSectionHeader:
		return "#6d28d9"
	case TypeCaption:
		return "#64748b"
	case TypeFootnote:
		return "#94a3b8"
	case TypeFormField:
		return "#f59e0b"
	case TypeCheckbox:
		return "#f97316"
	case TypeDropdown:
		return "#eab308"
	case TypeSignature:
		return "#dc2626"
	case TypeLabel:
		return "#475569"
	case TypeInstructions:
		return "#16a34a"
	default:
		return "#6b7280"
	}
}

// PIIColor is the border color for segments flagged as personally
// identifying, regardless of type.
const PIIColor = "#ef4444"

// FilterPage returns the segments bound to the given 1-based page, optionally
// restricted to PII-flagged segments. Order is preserved.
func FilterPage(segments []Segment, page int, piiOnly bool) []Segment {
	var out []Segment
	for _, s := range segments {
		if s.PageNumber != page {
			continue
		}
		if piiOnly && !s.IsPII {
			continue
		}
		out = append(out, s)
	}
	return out
}
