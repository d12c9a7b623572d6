package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"kfm/fonts"
	"kfm/formula"
)

// RasterPainter draws formula onto RGBA image. Layout units are pixels.
type RasterPainter struct {
	stateStack
	img    *image.RGBA
	fonts  *fonts.Provider
	dasher *rasterx.Dasher
}

// NewRasterPainter creates painter over img. Text is drawn with faces of
// provider.
func NewRasterPainter(img *image.RGBA, provider *fonts.Provider) *RasterPainter {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &RasterPainter{
		stateStack: newStateStack(),
		img:        img,
		fonts:      provider,
		dasher:     rasterx.NewDasher(w, h, scanner),
	}
}

// Fill paints the whole image with color.
func (p *RasterPainter) Fill(c color.RGBA) {
	draw.Draw(p.img, p.img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func toFixed(pt formula.Point) fixed.Point26_6 {
	return rasterx.ToFixedP(pt.X, pt.Y)
}

func (p *RasterPainter) strokePolyline(points []formula.Point, closed bool) {
	if p.cur.pen.Color.A == 0 || len(points) < 2 {
		return
	}
	var dash []float64
	if p.cur.pen.Dashed {
		d := p.penWidth() * 2
		dash = []float64{d, d}
	}
	d := p.dasher
	d.Clear()
	d.SetStroke(fixed.Int26_6(p.penWidth()*64), fixed.Int26_6(4*64),
		rasterx.ButtCap, nil, nil, rasterx.Miter, dash, 0)
	d.Start(toFixed(p.cur.apply(points[0])))
	for _, pt := range points[1:] {
		d.Line(toFixed(p.cur.apply(pt)))
	}
	d.Stop(closed)
	d.SetColor(p.cur.pen.Color)
	d.Draw()
	d.Clear()
}

func (p *RasterPainter) DrawLine(a, b formula.Point) {
	p.strokePolyline([]formula.Point{a, b}, false)
}

func (p *RasterPainter) DrawRect(r formula.Rect) {
	corners := []formula.Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
	if p.cur.brush.A > 0 {
		f := &p.dasher.Filler
		f.Clear()
		f.Start(toFixed(p.cur.apply(corners[0])))
		for _, c := range corners[1:] {
			f.Line(toFixed(p.cur.apply(c)))
		}
		f.Stop(true)
		f.SetColor(p.cur.brush)
		f.Draw()
		f.Clear()
	}
	if p.cur.pen.Color != p.cur.brush {
		p.strokePolyline(corners, true)
	}
}

func (p *RasterPainter) DrawPath(points []formula.Point) {
	p.strokePolyline(points, false)
}

func (p *RasterPainter) DrawText(at formula.Point, f formula.Font, text string) {
	if p.fonts == nil || p.cur.brush.A == 0 {
		return
	}
	at = p.cur.apply(at)
	f.Size = p.fontSize(f)
	if f.Size <= 0 {
		return
	}
	_ = p.fonts.WithFace(f, func(face font.Face) {
		dr := &font.Drawer{
			Dst:  p.img,
			Src:  image.NewUniform(p.cur.brush),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(at.X * 64)), Y: fixed.Int26_6(math.Round(at.Y * 64))},
		}
		dr.DrawString(text)
	})
}
