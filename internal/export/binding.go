package export

import (
	"strings"

	"github.com/formview/formview/internal/segment"
)

// Binding is the field-name-to-segment-key correspondence, resolved once
// when a document is loaded rather than re-derived at export time. Keys are
// structured field names; values are segment value-map keys.
type Binding map[string]string

// ResolveBinding matches each structured field to the segment whose label
// best corresponds to the field name. Matching is by normalized equality
// first, then by containment either way; a field with no plausible segment
// stays unbound.
func ResolveBinding(fields []Field, segments []segment.Segment) Binding {
	b := Binding{}
	for _, f := range fields {
		fname := normalize(f.Name)
		if fname == "" {
			continue
		}

		best := ""
		bestExact := false
		for _, seg := range segments {
			if seg.Type != segment.TypeFormField && seg.Type != segment.TypeDropdown &&
				seg.Type != segment.TypeCheckbox {
				continue
			}
			label := normalize(seg.Placeholder())
			if label == "" {
				continue
			}
			switch {
			case label == fname:
				best = seg.Key()
				bestExact = true
			case !bestExact && (strings.Contains(label, fname) || strings.Contains(fname, label)):
				if best == "" {
					best = seg.Key()
				}
			}
			if bestExact {
				break
			}
		}
		if best != "" {
			b[f.Name] = best
		}
	}
	return b
}

// normalize lowercases and strips everything but letters and digits so
// "First Name" matches "first_name".
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
