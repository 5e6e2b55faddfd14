package raster

import (
	"image"

	"github.com/rs/zerolog"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/formview/formview/internal/geom"
)

// PageSurface is one rasterized page: a bitmap at nativeSize*scale plus the
// recorded native size the geometry mapper needs.
type PageSurface struct {
	Number int
	Native geom.Size
	Image  image.Image
}

// Size returns the pixel dimensions of the surface.
func (p PageSurface) Size() geom.Size {
	b := p.Image.Bounds()
	return geom.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// canvas units are interpreted as PDF points; Face sizes are typographic
// points, hence the conversion.
const ptPerUnit = 2.83465

// Rasterizer turns a decoded document into page surfaces. Re-run in full on
// every scale change; documents are assumed short enough that incremental
// re-raster is not worth the bookkeeping.
type Rasterizer struct {
	font *canvas.FontFamily
	log  zerolog.Logger
}

// NewRasterizer creates a rasterizer, loading a system font for the text
// preview. Pages fall back to drawing block outlines when no font is
// available.
func NewRasterizer(log zerolog.Logger) *Rasterizer {
	r := &Rasterizer{log: log}
	family := canvas.NewFontFamily("preview")
	for _, name := range []string{"Helvetica", "Arial", "Liberation Sans", "DejaVu Sans"} {
		if err := family.LoadSystemFont(name, canvas.FontRegular); err == nil {
			r.font = family
			break
		}
	}
	if r.font == nil {
		log.Debug().Msg("no system font available, page previews will use block outlines")
	}
	return r
}

// RenderAll produces, for every page in order, a surface sized to
// nativeSize*scale.
func (r *Rasterizer) RenderAll(dec Decoder, scale float64) ([]PageSurface, error) {
	pages := make([]PageSurface, 0, dec.NumPages())
	for n := 1; n <= dec.NumPages(); n++ {
		surface, err := r.RenderPage(dec, n, scale)
		if err != nil {
			return nil, err
		}
		pages = append(pages, surface)
	}
	return pages, nil
}

// RenderPage rasterizes one 1-based page at the given scale.
func (r *Rasterizer) RenderPage(dec Decoder, page int, scale float64) (PageSurface, error) {
	native, err := dec.PageSize(page)
	if err != nil {
		return PageSurface{}, err
	}

	c := canvas.New(native.Width, native.Height)
	ctx := canvas.NewContext(c)

	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(native.Width, native.Height))

	for _, frag := range dec.Fragments(page) {
		r.drawFragment(ctx, frag)
	}

	// Resolution of scale pixels per native unit makes the bitmap exactly
	// nativeSize*scale.
	img := rasterizer.Draw(c, canvas.DPMM(scale), canvas.DefaultColorSpace)

	r.log.Debug().
		Int("page", page).
		Float64("scale", scale).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("rasterized page")

	return PageSurface{Number: page, Native: native, Image: img}, nil
}

func (r *Rasterizer) drawFragment(ctx *canvas.Context, frag TextFragment) {
	size := frag.FontSize
	if size <= 0 {
		size = 10
	}

	if r.font == nil {
		// Outline the text block so the layout still reads.
		ctx.SetStrokeColor(canvas.Lightgray)
		ctx.SetStrokeWidth(0.5)
		ctx.SetFillColor(canvas.Transparent)
		ctx.DrawPath(frag.X, frag.Y, canvas.Rectangle(frag.W, size))
		return
	}

	face := r.font.Face(size*ptPerUnit, canvas.Black, canvas.FontRegular, canvas.FontNormal)
	ctx.DrawText(frag.X, frag.Y, canvas.NewTextLine(face, frag.Text, canvas.Left))
}
