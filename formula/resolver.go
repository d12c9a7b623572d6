package formula

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"kfm/formula/opdict"
)

// Font describes face requested for a token.
type Font struct {
	Family string
	Size   float64 // points
	Bold   bool
	Italic bool
}

// Metrics supplies font measurements in points.
type Metrics interface {
	Advance(f Font, text string) float64
	Ascent(f Font) float64
	Descent(f Font) float64
}

// ViewConverter turns points into layout units.
type ViewConverter interface {
	PointsToUnits(pt float64) float64
}

// Zoom converts points into device pixels for given resolution and zoom
// factor. Zero values mean 72 DPI and no zoom.
type Zoom struct {
	DPI    float64
	Factor float64
}

func (z Zoom) PointsToUnits(pt float64) float64 {
	dpi, f := z.DPI, z.Factor
	if dpi <= 0 {
		dpi = 72
	}
	if f <= 0 {
		f = 1
	}
	return pt * dpi / 72 * f
}

// Resolver computes effective attribute values using MathML inheritance
// rules. It keeps no state derived from the tree, so it is always safe to
// use after edits.
type Resolver struct {
	Metrics    Metrics
	Converter  ViewConverter
	BaseSize   float64 // points
	Family     string
	Foreground color.RGBA
}

// NewResolver returns resolver with 12pt serif base font, black foreground
// and 72 DPI conversion. Nil metrics are replaced with approximate ones.
func NewResolver(m Metrics) *Resolver {
	if m == nil {
		m = ApproxMetrics{}
	}
	return &Resolver{
		Metrics:    m,
		Converter:  Zoom{},
		BaseSize:   12,
		Family:     "serif",
		Foreground: color.RGBA{A: 0xff},
	}
}

// ApproxMetrics measures text assuming every character is half em wide. It
// is used when no real font is available.
type ApproxMetrics struct{}

func (ApproxMetrics) Advance(f Font, text string) float64 {
	return float64(len([]rune(text))) * f.Size * 0.5
}
func (ApproxMetrics) Ascent(f Font) float64  { return f.Size * 0.8 }
func (ApproxMetrics) Descent(f Font) float64 { return f.Size * 0.2 }

// attributes which apply to the element that carries them only
var nonInheritable = map[string]bool{
	"width": true, "height": true, "depth": true, "index": true, "alt": true, "src": true,
	"open": true, "close": true, "separators": true, "form": true, "lspace": true, "rspace": true,
	"stretchy": true, "fence": true, "separator": true, "largeop": true, "movablelimits": true,
	"symmetric": true, "accent": true, "accentunder": true, "bevelled": true, "numalign": true,
	"denomalign": true, "id": true, "maxsize": true, "minsize": true,
}

// per kind defaults of attributes nobody has set
var kindDefaults = map[Kind]map[string]string{
	KindFraction: {"linethickness": "1", "numalign": "center", "denomalign": "center", "bevelled": "false"},
	KindTable: {
		"rowspacing":    "1.0ex",
		"columnspacing": "0.8em",
		"rowalign":      "baseline",
		"columnalign":   "center",
		"align":         "axis",
	},
	KindTableentry: {"rowalign": "baseline", "columnalign": "center"},
	KindFenced:     {"open": "(", "close": ")", "separators": ","},
	KindUnder:      {"accentunder": "false"},
	KindOver:       {"accent": "false"},
	KindUnderover:  {"accent": "false", "accentunder": "false"},
	KindSpace:      {"width": "0em", "height": "0ex", "depth": "0ex"},
}

func (r *Resolver) converter() ViewConverter {
	if r.Converter == nil {
		return Zoom{}
	}
	return r.Converter
}

func (r *Resolver) metrics() Metrics {
	if r.Metrics == nil {
		return ApproxMetrics{}
	}
	return r.Metrics
}

// Attribute returns effective attribute value. Element's own attributes come
// first, then ancestors (unless attribute does not inherit) and finally kind
// defaults.
func (r *Resolver) Attribute(doc *Document, id ID, name string) (string, bool) {
	e := doc.el(id)
	if e == nil {
		return "", false
	}
	if v, ok := e.attrs[name]; ok {
		return v, true
	}
	// carrying token acts as glyph's innermost ancestor
	if v, ok := e.carrier[name]; ok {
		return v, true
	}
	if !nonInheritable[name] {
		for p := e.parent; p != NoID; p = doc.elems[p].parent {
			if v, ok := doc.elems[p].attrs[name]; ok {
				return v, true
			}
		}
	}
	v, ok := kindDefaults[e.kind][name]
	return v, ok
}

// String returns attribute value or def.
func (r *Resolver) String(doc *Document, id ID, name, def string) string {
	if v, ok := r.Attribute(doc, id, name); ok {
		return strings.TrimSpace(v)
	}
	return def
}

// StringList returns whitespace separated attribute values.
func (r *Resolver) StringList(doc *Document, id ID, name string) []string {
	v, _ := r.Attribute(doc, id, name)
	return strings.Fields(v)
}

func (r *Resolver) Bool(doc *Document, id ID, name string, def bool) bool {
	switch r.String(doc, id, name, "") {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

func (r *Resolver) Double(doc *Document, id ID, name string, def float64) float64 {
	if v, err := strconv.ParseFloat(r.String(doc, id, name, ""), 64); err == nil {
		return v
	}
	return def
}

func (r *Resolver) Int(doc *Document, id ID, name string, def int) int {
	if v, err := strconv.Atoi(r.String(doc, id, name, "")); err == nil {
		return v
	}
	return def
}

func (r *Resolver) Align(doc *Document, id ID, name string, def Align) Align {
	if a, err := ParseAlign(r.String(doc, id, name, "")); err == nil {
		return a
	}
	return def
}

// AlignList returns list of alignments, invalid values are replaced by def.
func (r *Resolver) AlignList(doc *Document, id ID, name string, def Align) []Align {
	var res []Align
	for _, v := range r.StringList(doc, id, name) {
		a, err := ParseAlign(v)
		if err != nil {
			a = def
		}
		res = append(res, a)
	}
	return res
}

// Color resolves color attribute, def is returned when attribute is absent
// or could not be parsed.
func (r *Resolver) Color(doc *Document, id ID, name string, def color.RGBA) color.RGBA {
	if c, ok := ParseColor(r.String(doc, id, name, "")); ok {
		return c
	}
	return def
}

// ParseColor understands #rgb, #rrggbb and SVG color names.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, false
	}
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}
	if s == "transparent" {
		return color.RGBA{}, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// ForegroundColor returns effective text color of element.
func (r *Resolver) ForegroundColor(doc *Document, id ID) color.RGBA {
	def := r.Color(doc, id, "color", r.Foreground)
	return r.Color(doc, id, "mathcolor", def)
}

// Background returns effective background color of element and whether it
// was set at all.
func (r *Resolver) Background(doc *Document, id ID) (color.RGBA, bool) {
	v := r.String(doc, id, "mathbackground", r.String(doc, id, "background", ""))
	return ParseColor(v)
}

// ScaleFactor returns font-size multiplier for script level.
func ScaleFactor(level int) float64 {
	return 1.9 * math.Pow(0.71, float64(level))
}

// minimal font size scripts shrink to, points
const scriptMinSize = 8.0

// ScriptLevel computes script nesting level by walking ancestors.
func (r *Resolver) ScriptLevel(doc *Document, id ID) int {
	e := doc.el(id)
	if e == nil {
		return 0
	}
	level := 0
	if e.parent != NoID {
		level = r.ScriptLevel(doc, e.parent) + r.levelIncrement(doc, e.parent, id)
	}
	if e.kind == KindStyle || e.kind == KindFormula {
		if v, ok := e.attrs["scriptlevel"]; ok {
			v = strings.TrimSpace(v)
			if n, err := strconv.Atoi(v); err == nil {
				if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-") {
					level += n
				} else {
					level = n
				}
			}
		}
	}
	return max(level, 0)
}

func (r *Resolver) levelIncrement(doc *Document, parent, child ID) int {
	p := doc.elems[parent]
	slot := p.indexOf(child)
	switch p.kind {
	case KindSub, KindSup, KindSubsup:
		if slot > 0 {
			return 1
		}
	case KindUnder, KindOver, KindUnderover:
		if slot > 0 && !r.IsAccent(doc, parent, slot) {
			return 1
		}
	case KindFraction:
		if !r.DisplayStyle(doc, parent) {
			return 1
		}
	case KindRoot:
		if slot == SlotIndex {
			return 2
		}
	}
	return 0
}

// DisplayStyle reports whether element is laid out in display style.
func (r *Resolver) DisplayStyle(doc *Document, id ID) bool {
	e := doc.el(id)
	if e == nil {
		return true
	}
	var ds bool
	if e.parent == NoID {
		ds = e.attrs["display"] != "inline"
	} else {
		ds = r.DisplayStyle(doc, e.parent)
		p := doc.elems[e.parent]
		slot := p.indexOf(id)
		switch p.kind {
		case KindSub, KindSup, KindSubsup, KindUnder, KindOver, KindUnderover:
			if slot > 0 {
				ds = false
			}
		case KindFraction, KindTableentry:
			ds = false
		case KindRoot:
			if slot == SlotIndex {
				ds = false
			}
		}
	}
	if e.kind == KindStyle || e.kind == KindFormula {
		switch e.attrs["displaystyle"] {
		case "true":
			ds = true
		case "false":
			ds = false
		}
	}
	return ds
}

// IsAccent reports whether script in slot of under/over element is an
// accent. Explicit attribute wins, otherwise the embellished operator of the
// script decides.
func (r *Resolver) IsAccent(doc *Document, parent ID, slot int) bool {
	p := doc.el(parent)
	if p == nil || slot <= 0 || slot >= len(p.children) {
		return false
	}
	name := "accent"
	if slot == p.kind.subSlot() {
		name = "accentunder"
	}
	if v, ok := p.attrs[name]; ok {
		return v == "true"
	}
	if op := doc.CoreOperator(p.children[slot]); op != NoID {
		return r.Operator(doc, op).Accent
	}
	return false
}

// CoreOperator returns operator token of embellished operator or NoID.
func (d *Document) CoreOperator(id ID) ID {
	e := d.el(id)
	if e == nil {
		return NoID
	}
	switch e.kind {
	case KindOperator:
		return id
	case KindSub, KindSup, KindSubsup, KindUnder, KindOver, KindUnderover, KindFraction:
		return d.CoreOperator(e.children[SlotBase])
	case KindRow, KindStyle:
		if len(e.children) == 1 {
			return d.CoreOperator(e.children[0])
		}
	}
	return NoID
}

// FontSize returns effective font size of element in points.
func (r *Resolver) FontSize(doc *Document, id ID) float64 {
	return r.fontSize(doc, id, r.ScriptLevel(doc, id))
}

func (r *Resolver) fontSize(doc *Document, id ID, level int) float64 {
	base := r.BaseSize
	if base <= 0 {
		base = 12
	}
	size := base * ScaleFactor(level) / ScaleFactor(0)
	if level > 0 {
		size = math.Max(size, math.Min(base, scriptMinSize))
	}
	ms := r.String(doc, id, "mathsize", r.String(doc, id, "fontsize", ""))
	switch ms {
	case "":
	case "small":
		size *= 0.71
	case "normal":
	case "big":
		size *= 1.41
	default:
		if v, unit, ok := splitLength(ms); ok {
			switch unit {
			case "%":
				size *= v / 100
			case "":
				size *= v
			case "em":
				size *= v
			default:
				if pt, ok := absolutePoints(v, unit); ok {
					size = pt
				}
			}
		}
	}
	return size
}

// Font composes font for element from resolved attributes.
func (r *Resolver) Font(doc *Document, id ID) Font {
	f := Font{
		Family: r.String(doc, id, "fontfamily", r.Family),
		Size:   r.FontSize(doc, id),
	}
	if f.Family == "" {
		f.Family = "serif"
	}
	f.Bold = r.String(doc, id, "fontweight", "") == "bold"
	switch r.String(doc, id, "fontstyle", "") {
	case "italic":
		f.Italic = true
	case "normal":
	default:
		if e := doc.el(id); e != nil && e.kind == KindIdentifier && len(e.text) == 1 {
			f.Italic = true
		}
	}
	if mv, ok := r.Attribute(doc, id, "mathvariant"); ok {
		mv = strings.TrimSpace(mv)
		f.Bold = strings.Contains(mv, "bold")
		f.Italic = strings.Contains(mv, "italic")
		switch {
		case strings.Contains(mv, "sans-serif"):
			f.Family = "sans-serif"
		case mv == "monospace":
			f.Family = "monospace"
		}
	}
	return f
}

// named spaces in em
var namedSpaces = map[string]float64{
	"veryverythinmathspace":  1.0 / 18,
	"verythinmathspace":      2.0 / 18,
	"thinmathspace":          3.0 / 18,
	"mediummathspace":        4.0 / 18,
	"thickmathspace":         5.0 / 18,
	"verythickmathspace":     6.0 / 18,
	"veryverythickmathspace": 7.0 / 18,
}

// splitLength separates number and unit of MathML length.
func splitLength(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.TrimSpace(s[i:]), true
}

func absolutePoints(v float64, unit string) (float64, bool) {
	switch unit {
	case "pt":
		return v, true
	case "px":
		return v * 0.75, true
	case "in":
		return v * 72, true
	case "cm":
		return v * 72 / 2.54, true
	case "mm":
		return v * 72 / 25.4, true
	case "pc":
		return v * 12, true
	}
	return 0, false
}

// Length converts MathML length value into layout units. Percentages and
// unitless numbers are relative to ref (already in layout units).
func (r *Resolver) Length(doc *Document, id ID, value string, ref float64) (float64, bool) {
	value = strings.TrimSpace(value)
	em := r.converter().PointsToUnits(r.FontSize(doc, id))
	if v, ok := namedSpaces[value]; ok {
		return v * em, true
	}
	if value == "" {
		return 0, false
	}
	v, unit, ok := splitLength(value)
	if !ok {
		return 0, false
	}
	switch unit {
	case "":
		return v * ref, true
	case "%":
		return v / 100 * ref, true
	case "em":
		return v * em, true
	case "ex":
		return v * em * 0.5, true
	}
	if pt, ok := absolutePoints(v, unit); ok {
		return r.converter().PointsToUnits(pt), true
	}
	return 0, false
}

// LengthAttr resolves length attribute with default used when attribute is
// absent or invalid.
func (r *Resolver) LengthAttr(doc *Document, id ID, name string, ref, def float64) float64 {
	v, ok := r.Attribute(doc, id, name)
	if !ok {
		return def
	}
	if l, ok := r.Length(doc, id, v, ref); ok {
		return l
	}
	return def
}

// Em returns font size of element in layout units.
func (r *Resolver) Em(doc *Document, id ID) float64 {
	return r.converter().PointsToUnits(r.FontSize(doc, id))
}

func (r *Resolver) ThinSpace(doc *Document, id ID) float64 {
	return namedSpaces["thinmathspace"] * r.Em(doc, id)
}

func (r *Resolver) MediumSpace(doc *Document, id ID) float64 {
	return namedSpaces["mediummathspace"] * r.Em(doc, id)
}

// Axis returns height of math axis above baseline.
func (r *Resolver) Axis(doc *Document, id ID) float64 {
	return r.Em(doc, id) * 0.25
}

// LineThickness resolves fraction rule thickness, default rule is 1pt at
// base font size.
func (r *Resolver) LineThickness(doc *Document, id ID) float64 {
	base := r.BaseSize
	if base <= 0 {
		base = 12
	}
	def := r.converter().PointsToUnits(r.FontSize(doc, id) / base)
	v := r.String(doc, id, "linethickness", "1")
	var lt float64
	switch v {
	case "thin":
		lt = def * 0.5
	case "medium":
		lt = def
	case "thick":
		lt = def * 2
	default:
		l, ok := r.Length(doc, id, v, def)
		if !ok {
			l = def
		}
		lt = l
	}
	return math.Max(lt, 0)
}

// Operator returns dictionary entry of operator token with explicit
// attributes applied on top of it.
func (r *Resolver) Operator(doc *Document, id ID) opdict.Entry {
	e := doc.el(id)
	if e == nil {
		return opdict.Default("", opdict.FormInfix)
	}
	form := r.OperatorForm(doc, id)
	entry := opdict.Resolve(string(e.text), form)
	entry.Form = form
	flag := func(name string, v *bool) {
		switch e.attrs[name] {
		case "true":
			*v = true
		case "false":
			*v = false
		}
	}
	flag("fence", &entry.Fence)
	flag("separator", &entry.Separator)
	flag("stretchy", &entry.Stretchy)
	flag("symmetric", &entry.Symmetric)
	flag("largeop", &entry.LargeOp)
	flag("movablelimits", &entry.MovableLimits)
	flag("accent", &entry.Accent)
	for name, v := range map[string]*string{"lspace": &entry.LSpace, "rspace": &entry.RSpace, "maxsize": &entry.MaxSize, "minsize": &entry.MinSize} {
		if s, ok := e.attrs[name]; ok {
			*v = s
		}
	}
	return entry
}

// OperatorForm determines operator form: explicit attribute, otherwise
// position inside of enclosing row.
func (r *Resolver) OperatorForm(doc *Document, id ID) opdict.Form {
	e := doc.el(id)
	if e == nil {
		return opdict.FormInfix
	}
	if f, err := opdict.ParseForm(strings.TrimSpace(e.attrs["form"])); err == nil {
		return f
	}
	// embellished operator takes position of the outermost embellishment
	cur := id
	for {
		p := doc.Parent(cur)
		if p == NoID || doc.CoreOperator(p) != id {
			break
		}
		cur = p
	}
	p := doc.Parent(cur)
	if p == NoID || !doc.Kind(p).IsInferredRow() {
		return opdict.FormInfix
	}
	n := doc.Length(p)
	if n <= 1 {
		return opdict.FormInfix
	}
	switch doc.IndexOf(cur) {
	case 0:
		return opdict.FormPrefix
	case n - 1:
		return opdict.FormPostfix
	}
	return opdict.FormInfix
}
