// Package render turns laid out formulas into SVG, PNG or JPEG images.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"kfm/common"
	"kfm/fonts"
	"kfm/formula"
)

// Options controls rendering.
type Options struct {
	Format common.OutputFmt
	// Padding around formula in points.
	Padding    float64
	Foreground color.RGBA
	// Background of the image, transparent leaves SVG and PNG without one.
	Background color.RGBA
	// DPI of raster images, also stored in JPEG JFIF segment.
	DPI float64
	// Zoom is additional scale factor.
	Zoom float64
	// Grayscale converts raster image to shades of gray.
	Grayscale   bool
	JPEGQuality int
	// MaxDimension limits raster image width and height, 0 means no limit.
	MaxDimension int
	// ShowPlaceholders draws boxes of unfilled slots.
	ShowPlaceholders bool
}

// Renderer paints documents with shared fonts.
type Renderer struct {
	log   *zap.Logger
	fonts *fonts.Provider
}

// New creates renderer. Provider is used both for measuring and drawing.
func New(provider *fonts.Provider, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log.Named("render"), fonts: provider}
}

// Resolver returns attribute resolver configured for options, base holds
// base font settings.
func (r *Renderer) Resolver(base *formula.Resolver, opts Options) *formula.Resolver {
	res := *base
	if r.fonts != nil {
		res.Metrics = r.fonts
	}
	res.Converter = formula.Zoom{DPI: r.dpi(opts), Factor: opts.Zoom}
	if opts.Foreground != (color.RGBA{}) {
		res.Foreground = opts.Foreground
	}
	return &res
}

func (r *Renderer) dpi(opts Options) float64 {
	if opts.Format == common.OutputFmtSvg || opts.DPI <= 0 {
		return 72
	}
	return opts.DPI
}

// Render lays out document and encodes it in requested image format.
func (r *Renderer) Render(doc *formula.Document, base *formula.Resolver, opts Options) ([]byte, error) {
	if !opts.Format.IsImage() {
		return nil, fmt.Errorf("format %s is not an image format", opts.Format)
	}
	res := r.Resolver(base, opts)
	formula.Layout(doc, res)

	root := doc.Element(doc.Root())
	pad := res.Converter.PointsToUnits(opts.Padding)
	w, h := root.Width()+2*pad, root.Height()+2*pad
	r.log.Debug("Rendering formula",
		zap.Stringer("format", opts.Format),
		zap.Float64("width", w),
		zap.Float64("height", h))

	if opts.Format == common.OutputFmtSvg {
		return r.svg(doc, res, opts, w, h, pad)
	}
	img := r.raster(doc, res, opts, w, h, pad)
	return r.encode(img, opts)
}

func paintOptions(opts Options) formula.PaintOptions {
	return formula.PaintOptions{HidePlaceholders: !opts.ShowPlaceholders}
}

// SVGDocument builds SVG markup of document.
func (r *Renderer) SVGDocument(doc *formula.Document, res *formula.Resolver, opts Options, w, h, pad float64) *etree.Document {
	xml := etree.NewDocument()
	xml.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	svg := xml.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)
	svg.CreateAttr("width", coord(w))
	svg.CreateAttr("height", coord(h))
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", coord(w), coord(h)))
	if opts.Background.A > 0 {
		bg := svg.CreateElement("rect")
		bg.CreateAttr("width", "100%")
		bg.CreateAttr("height", "100%")
		setPaint(bg, "fill", opts.Background)
	}
	g := svg.CreateElement("g")
	p := NewSVGPainter(g)
	p.Translate(pad, pad)
	formula.Paint(doc, res, p, paintOptions(opts))
	return xml
}

func (r *Renderer) svg(doc *formula.Document, res *formula.Resolver, opts Options, w, h, pad float64) ([]byte, error) {
	xml := r.SVGDocument(doc, res, opts, w, h, pad)
	xml.Indent(2)
	var buf bytes.Buffer
	if _, err := xml.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to write SVG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) raster(doc *formula.Document, res *formula.Resolver, opts Options, w, h, pad float64) image.Image {
	iw, ih := max(int(math.Ceil(w)), 1), max(int(math.Ceil(h)), 1)
	if iw > maxRasterDim || ih > maxRasterDim {
		r.log.Warn("Formula is too large, clipping image", zap.Int("width", iw), zap.Int("height", ih))
		iw, ih = min(iw, maxRasterDim), min(ih, maxRasterDim)
	}
	img := image.NewRGBA(image.Rect(0, 0, iw, ih))
	p := NewRasterPainter(img, r.fonts)
	bg := opts.Background
	if opts.Format == common.OutputFmtJpeg && bg.A < 0xff {
		// no transparency in JPEG
		bg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	if bg.A > 0 {
		p.Fill(bg)
	}
	p.Translate(pad, pad)
	formula.Paint(doc, res, p, paintOptions(opts))

	var out image.Image = img
	if opts.MaxDimension > 0 && (iw > opts.MaxDimension || ih > opts.MaxDimension) {
		out = imaging.Fit(out, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}
	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}
	return out
}

func (r *Renderer) encode(img image.Image, opts Options) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch opts.Format {
	case common.OutputFmtPng:
		if opts.Grayscale && IsGrayscale(img) && IsOpaque(img) {
			img = toGray(img)
		}
		if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("unable to encode PNG: %w", err)
		}
		return buf.Bytes(), nil
	case common.OutputFmtJpeg:
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 85
		}
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("unable to encode JPEG: %w", err)
		}
		density := int16(math.Round(r.dpi(opts)))
		data, added, err := EnsureJFIFAPP0(buf.Bytes(), DpiPxPerInch, density, density)
		if err != nil {
			return nil, fmt.Errorf("unable to set JPEG density: %w", err)
		}
		if added {
			r.log.Debug("Inserting jpeg JFIF APP0 marker segment", zap.Int16("dpi", density))
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported image format %s", opts.Format)
}
