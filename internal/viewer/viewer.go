// Package viewer owns the viewport state: the current zoom, the per-page
// surface cache, and the wiring between segments, overlays, and annotations.
// All mutable state is owned by a single goroutine; nothing here is shared
// across a concurrency boundary, so no locks are taken.
package viewer

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/formview/formview/internal/annotate"
	"github.com/formview/formview/internal/overlay"
	"github.com/formview/formview/internal/raster"
	"github.com/formview/formview/internal/segment"
)

// Zoom bounds and default, as a multiplier over native page size.
const (
	MinScale     = 0.5
	MaxScale     = 3.0
	DefaultScale = 1.5
)

// Viewer is the document rendering and annotation overlay engine facade.
type Viewer struct {
	log        zerolog.Logger
	rasterizer *raster.Rasterizer

	scale      float64
	loading    bool
	generation uint64

	dec      raster.Decoder
	pages    []raster.PageSurface
	segments []segment.Segment
	overlays *overlay.Renderer

	store      *annotate.Store
	controller *annotate.Controller

	onSelect overlay.SelectionFunc
	confirm  annotate.ConfirmFunc
	piiOnly  bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithSelectionFunc registers the "segment selected" notification.
func WithSelectionFunc(fn overlay.SelectionFunc) Option {
	return func(v *Viewer) { v.onSelect = fn }
}

// WithConfirmFunc registers the confirmation prompt used before deleting
// highlight annotations.
func WithConfirmFunc(fn annotate.ConfirmFunc) Option {
	return func(v *Viewer) { v.confirm = fn }
}

// WithScale sets the initial zoom, clamped to the supported range.
func WithScale(scale float64) Option {
	return func(v *Viewer) { v.scale = clampScale(scale) }
}

// New creates an empty viewer at the default zoom.
func New(log zerolog.Logger, opts ...Option) *Viewer {
	v := &Viewer{
		log:        log,
		rasterizer: raster.NewRasterizer(log),
		scale:      DefaultScale,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.store = annotate.NewStore()
	v.controller = annotate.NewController(v.store, v.confirm)
	v.overlays = overlay.NewRenderer(nil, nil, v.onSelect)
	return v
}

// Load decodes a document and installs its segment list, replacing whatever
// was loaded before. Annotations and field values reset with the document.
// A load that starts while another is still being applied supersedes it: the
// older result is discarded, not cancelled.
func (v *Viewer) Load(data []byte, segments []segment.Segment) error {
	return v.load(func() (raster.Decoder, error) { return raster.Decode(data) }, segments)
}

// LoadBase64 decodes a base64 document payload once, then loads it.
func (v *Viewer) LoadBase64(payload string, segments []segment.Segment) error {
	return v.load(func() (raster.Decoder, error) { return raster.DecodeBase64(payload) }, segments)
}

// LoadDecoded installs an already-decoded document, for embedders that hold
// their own Decoder.
func (v *Viewer) LoadDecoded(dec raster.Decoder, segments []segment.Segment) error {
	return v.load(func() (raster.Decoder, error) { return dec, nil }, segments)
}

func (v *Viewer) load(decode func() (raster.Decoder, error), segments []segment.Segment) error {
	v.generation++
	gen := v.generation
	v.loading = true
	defer func() {
		if gen == v.generation {
			v.loading = false
		}
	}()

	dec, err := decode()
	if err != nil {
		v.log.Error().Err(err).Msg("document load failed")
		return err
	}

	kept := validSegments(segments, dec.NumPages(), v.log)
	pages, err := v.rasterizer.RenderAll(dec, v.scale)
	if err != nil {
		return err
	}

	if gen != v.generation {
		// A newer load arrived while this one ran; discard the result.
		v.log.Debug().Uint64("generation", gen).Msg("stale load discarded")
		return nil
	}

	v.dec = dec
	v.pages = pages
	v.segments = kept
	v.store = annotate.NewStore()
	v.controller = annotate.NewController(v.store, v.confirm)
	v.overlays = overlay.NewRenderer(kept, overlay.Values{}, v.onSelect)
	v.overlays.SetPIIOnly(v.piiOnly)

	v.log.Info().
		Int("pages", len(pages)).
		Int("segments", len(kept)).
		Float64("scale", v.scale).
		Msg("document loaded")
	return nil
}

// validSegments drops segments that violate the page or geometry invariants.
// A bad segment degrades silently rather than breaking the viewer.
func validSegments(segments []segment.Segment, numPages int, log zerolog.Logger) []segment.Segment {
	kept := make([]segment.Segment, 0, len(segments))
	for _, s := range segments {
		if err := s.Validate(numPages); err != nil {
			log.Warn().Err(err).Str("text", s.Text).Msg("dropping invalid segment")
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// SetScale changes the zoom and re-rasterizes every page. The value is
// clamped to [MinScale, MaxScale]. Overlays reposition; segment identity,
// selection, and annotations are untouched.
func (v *Viewer) SetScale(scale float64) error {
	scale = clampScale(scale)
	if scale == v.scale {
		return nil
	}
	v.scale = scale
	if v.dec == nil {
		return nil
	}

	v.loading = true
	defer func() { v.loading = false }()

	pages, err := v.rasterizer.RenderAll(v.dec, v.scale)
	if err != nil {
		return fmt.Errorf("re-raster at scale %g: %w", scale, err)
	}
	v.pages = pages
	return nil
}

// Scale returns the current zoom multiplier.
func (v *Viewer) Scale() float64 { return v.scale }

// ZoomPercent returns the zoom level for display.
func (v *Viewer) ZoomPercent() int {
	return int(v.scale*100 + 0.5)
}

// Loading reports whether a load or re-raster is in progress.
func (v *Viewer) Loading() bool { return v.loading }

// NumPages returns the page count of the loaded document, 0 when empty.
func (v *Viewer) NumPages() int { return len(v.pages) }

// Pages returns the rasterized page surfaces in order.
func (v *Viewer) Pages() []raster.PageSurface { return v.pages }

// Segments returns the installed segment list.
func (v *Viewer) Segments() []segment.Segment { return v.segments }

// Overlays builds the overlay list for a 1-based page at the current zoom.
func (v *Viewer) Overlays(page int) []overlay.Overlay {
	return v.overlays.BuildPage(page, v.scale)
}

// ClickOverlay selects the overlay's segment and fires the selection event.
func (v *Viewer) ClickOverlay(o overlay.Overlay) { v.overlays.Click(o) }

// SelectedSegment returns the selected segment and its index.
func (v *Viewer) SelectedSegment() (segment.Segment, int, bool) {
	i := v.overlays.Selected()
	if i < 0 || i >= len(v.segments) {
		return segment.Segment{}, -1, false
	}
	return v.segments[i], i, true
}

// SetPIIOnly toggles the PII-only overlay filter.
func (v *Viewer) SetPIIOnly(on bool) {
	v.piiOnly = on
	v.overlays.SetPIIOnly(on)
}

// SetFieldValue records a typed value for an editable segment.
func (v *Viewer) SetFieldValue(seg segment.Segment, value string) {
	v.overlays.SetValue(seg, value)
}

// ToggleCheckbox flips a checkbox segment and returns the new state.
func (v *Viewer) ToggleCheckbox(seg segment.Segment) bool {
	return v.overlays.Toggle(seg)
}

// Values returns the live form-field value map.
func (v *Viewer) Values() overlay.Values { return v.overlays.Values() }

// Controller returns the gesture state machine for pointer and key events.
func (v *Viewer) Controller() *annotate.Controller { return v.controller }

// Annotations returns the current annotation list in creation order.
func (v *Viewer) Annotations() []annotate.Annotation { return v.store.List() }

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
