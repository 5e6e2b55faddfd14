// Package overlay places interactive regions for extracted segments on top of
// rasterized pages. Overlays are rebuilt declaratively from the segment list
// on every render pass; selection is tracked by segment index so that
// rescaling repositions overlays without changing what they represent.
package overlay

import (
	"github.com/formview/formview/internal/geom"
	"github.com/formview/formview/internal/segment"
)

// Kind selects the interaction behavior of an overlay.
type Kind string

const (
	// KindRegion is the default clickable highlight region.
	KindRegion Kind = "region"
	// KindField is a text-entry region for Form field and Dropdown segments.
	KindField Kind = "field"
	// KindCheckbox is a boolean toggle.
	KindCheckbox Kind = "checkbox"
	// KindPII marks a non-interactive segment that carries personally
	// identifying content.
	KindPII Kind = "pii"
)

// Overlay is one positioned interactive region. Rect is in viewport pixels.
type Overlay struct {
	Index       int             `json:"index"`
	Segment     segment.Segment `json:"segment"`
	Kind        Kind            `json:"kind"`
	Rect        geom.Rect       `json:"rect"`
	BorderColor string          `json:"border_color"`

	// PII treatment: distinct color plus an always-visible indicator glyph.
	PII bool `json:"pii,omitempty"`

	// Field state, populated for KindField and KindCheckbox.
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Checked     bool   `json:"checked,omitempty"`

	// InterceptsPointer keeps typing and toggling from also triggering
	// page-level annotation gestures.
	InterceptsPointer bool `json:"intercepts_pointer"`
}

// Values is the form-field value map, keyed by segment key. Checkbox entries
// hold "true" or "false".
type Values map[string]string

// SetCheckbox records a checkbox state under the given key.
func (v Values) SetCheckbox(key string, checked bool) {
	if checked {
		v[key] = "true"
	} else {
		v[key] = "false"
	}
}

// Checked reports whether the entry under key is a checked checkbox.
func (v Values) Checked(key string) bool {
	return v[key] == "true"
}

// SelectionFunc is notified when an overlay is clicked, carrying the selected
// segment and its index in the source list.
type SelectionFunc func(seg segment.Segment, index int)

// Renderer builds overlays and tracks single selection across render passes.
type Renderer struct {
	segments []segment.Segment
	values   Values
	onSelect SelectionFunc

	selected int
	piiOnly  bool
}

// NewRenderer creates a renderer over the given segment list. values may be
// shared with the embedding application; onSelect may be nil.
func NewRenderer(segments []segment.Segment, values Values, onSelect SelectionFunc) *Renderer {
	if values == nil {
		values = Values{}
	}
	return &Renderer{
		segments: segments,
		values:   values,
		onSelect: onSelect,
		selected: -1,
	}
}

// SetPIIOnly toggles the filter that hides everything but PII segments.
func (r *Renderer) SetPIIOnly(on bool) { r.piiOnly = on }

// PIIOnly reports the current filter state.
func (r *Renderer) PIIOnly() bool { return r.piiOnly }

// Values returns the live form-field value map.
func (r *Renderer) Values() Values { return r.values }

// Selected returns the selected segment index, or -1 when nothing is
// selected.
func (r *Renderer) Selected() int { return r.selected }

// BuildPage produces the overlays for one rendered page at the given scale.
// The mapping uses the page dimensions each segment was measured against, so
// externally supplied geometry stays pixel-aligned across zoom changes.
func (r *Renderer) BuildPage(page int, scale float64) []Overlay {
	var out []Overlay
	for i, seg := range r.segments {
		if seg.PageNumber != page {
			continue
		}
		if r.piiOnly && !seg.IsPII {
			continue
		}
		out = append(out, r.build(i, seg, scale))
	}
	return out
}

func (r *Renderer) build(index int, seg segment.Segment, scale float64) Overlay {
	native := seg.PageSize()
	o := Overlay{
		Index:       index,
		Segment:     seg,
		Rect:        geom.ToViewport(seg.Rect(), native, native.Scaled(scale)),
		BorderColor: segment.BorderColor(seg.Type),
		PII:         seg.IsPII,
	}

	switch {
	case seg.Type == segment.TypeCheckbox:
		o.Kind = KindCheckbox
		o.Checked = r.values.Checked(seg.Key())
		o.InterceptsPointer = true
	case seg.IsEditable():
		o.Kind = KindField
		o.Placeholder = seg.Placeholder()
		o.Value = r.values[seg.Key()]
		o.InterceptsPointer = true
	case seg.IsPII:
		o.Kind = KindPII
	default:
		o.Kind = KindRegion
	}

	if seg.IsPII {
		o.BorderColor = segment.PIIColor
	}
	return o
}

// Click selects the overlay's segment (single selection, last click wins)
// and fires the selection notification. PII segments fire it like any other.
func (r *Renderer) Click(o Overlay) {
	r.selected = o.Index
	if r.onSelect != nil {
		r.onSelect(o.Segment, o.Index)
	}
}

// ClearSelection drops the current selection.
func (r *Renderer) ClearSelection() { r.selected = -1 }

// SetValue records a typed value for an editable overlay's segment.
func (r *Renderer) SetValue(seg segment.Segment, value string) {
	r.values[seg.Key()] = value
}

// Toggle flips a checkbox overlay's state and returns the new value.
func (r *Renderer) Toggle(seg segment.Segment) bool {
	next := !r.values.Checked(seg.Key())
	r.values.SetCheckbox(seg.Key(), next)
	return next
}
