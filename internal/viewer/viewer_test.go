package viewer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formview/formview/internal/annotate"
	"github.com/formview/formview/internal/geom"
	"github.com/formview/formview/internal/raster"
	"github.com/formview/formview/internal/segment"
)

type stubDecoder struct {
	sizes []geom.Size
}

func (d *stubDecoder) NumPages() int { return len(d.sizes) }

func (d *stubDecoder) PageSize(page int) (geom.Size, error) {
	if page < 1 || page > len(d.sizes) {
		return geom.Size{}, fmt.Errorf("invalid page number %d", page)
	}
	return d.sizes[page-1], nil
}

func (d *stubDecoder) Fragments(int) []raster.TextFragment { return nil }

func twoPageDecoder() raster.Decoder {
	return &stubDecoder{sizes: []geom.Size{
		{Width: 612, Height: 792},
		{Width: 612, Height: 792},
	}}
}

func fieldSegment() segment.Segment {
	return segment.Segment{
		Text:       "Name: ____",
		Type:       segment.TypeFormField,
		PageNumber: 1,
		Top:        100, Left: 50, Width: 200, Height: 20,
		PageWidth: 612, PageHeight: 792,
	}
}

func TestLoadAndScaleScenario(t *testing.T) {
	v := New(zerolog.Nop(), WithScale(1.0))
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment()}))

	assert.Equal(t, 2, v.NumPages())
	require.NoError(t, v.SetScale(2.0))

	overlays := v.Overlays(1)
	require.Len(t, overlays, 1)
	assert.Equal(t, geom.Rect{Top: 200, Left: 100, Width: 400, Height: 40}, overlays[0].Rect)

	pages := v.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, geom.Size{Width: 1224, Height: 1584}, pages[0].Size())
}

func TestScaleClamp(t *testing.T) {
	v := New(zerolog.Nop())
	assert.Equal(t, DefaultScale, v.Scale())

	require.NoError(t, v.SetScale(10))
	assert.Equal(t, MaxScale, v.Scale())

	require.NoError(t, v.SetScale(0.01))
	assert.Equal(t, MinScale, v.Scale())

	v2 := New(zerolog.Nop(), WithScale(99))
	assert.Equal(t, MaxScale, v2.Scale())
}

func TestZoomPercent(t *testing.T) {
	v := New(zerolog.Nop())
	assert.Equal(t, 150, v.ZoomPercent())

	require.NoError(t, v.SetScale(0.5))
	assert.Equal(t, 50, v.ZoomPercent())

	require.NoError(t, v.SetScale(2.0))
	assert.Equal(t, 200, v.ZoomPercent())
}

func TestLoadGarbageSurfacesDecodeError(t *testing.T) {
	v := New(zerolog.Nop())
	err := v.Load([]byte("not a pdf"), nil)
	require.Error(t, err)

	var decodeErr *raster.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 0, v.NumPages(), "no partial render on decode failure")
	assert.False(t, v.Loading(), "loading flag cleared after failure")
}

func TestLoadDropsInvalidSegments(t *testing.T) {
	bad := fieldSegment()
	bad.PageNumber = 9

	outside := fieldSegment()
	outside.Left = 600

	v := New(zerolog.Nop())
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment(), bad, outside}))
	assert.Len(t, v.Segments(), 1)
}

func TestSelectionSurvivesRescale(t *testing.T) {
	var events int
	v := New(zerolog.Nop(), WithSelectionFunc(func(segment.Segment, int) { events++ }))
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment()}))

	v.ClickOverlay(v.Overlays(1)[0])
	_, idx, ok := v.SelectedSegment()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, events)

	require.NoError(t, v.SetScale(2.5))
	seg, idx, ok := v.SelectedSegment()
	require.True(t, ok, "selection survives rescale")
	assert.Equal(t, 0, idx)
	assert.Equal(t, segment.TypeFormField, seg.Type)
}

func TestLoadResetsAnnotationsAndValues(t *testing.T) {
	v := New(zerolog.Nop())
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment()}))

	v.SetFieldValue(fieldSegment(), "John Doe")
	c := v.Controller()
	c.ToggleTool(annotate.ToolStickyNote)
	c.PointerDown(1, 10, 10)
	require.Len(t, v.Annotations(), 1)

	require.NoError(t, v.LoadDecoded(twoPageDecoder(), nil))
	assert.Empty(t, v.Annotations())
	assert.Empty(t, v.Values())
}

func TestCheckboxAndFieldValues(t *testing.T) {
	checkbox := fieldSegment()
	checkbox.Type = segment.TypeCheckbox
	checkbox.Top = 300

	v := New(zerolog.Nop())
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment(), checkbox}))

	v.SetFieldValue(fieldSegment(), "John Doe")
	assert.True(t, v.ToggleCheckbox(checkbox))

	values := v.Values()
	assert.Equal(t, "John Doe", values[fieldSegment().Key()])
	assert.Equal(t, "true", values[checkbox.Key()])

	assert.False(t, v.ToggleCheckbox(checkbox))
	assert.Equal(t, "false", v.Values()[checkbox.Key()])
}

func TestPIIOnlyFilterPersistsAcrossLoads(t *testing.T) {
	pii := fieldSegment()
	pii.Type = segment.TypeText
	pii.IsPII = true

	v := New(zerolog.Nop())
	v.SetPIIOnly(true)
	require.NoError(t, v.LoadDecoded(twoPageDecoder(), []segment.Segment{fieldSegment(), pii}))

	overlays := v.Overlays(1)
	require.Len(t, overlays, 1)
	assert.True(t, overlays[0].PII)
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	v := New(zerolog.Nop(), WithScale(1.0))

	first := twoPageDecoder()
	second := &stubDecoder{sizes: []geom.Size{{Width: 100, Height: 100}}}

	// The second load arrives while the first is still being applied; the
	// first result must be discarded in its favor.
	started := false
	err := v.load(func() (raster.Decoder, error) {
		if !started {
			started = true
			require.NoError(t, v.LoadDecoded(second, nil))
		}
		return first, nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, v.NumPages(), "newer load wins")
	assert.False(t, v.Loading())
}
