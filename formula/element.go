// Package formula implements the structured math expression editing engine:
// element tree kept in an arena, attribute resolution with MathML
// inheritance, two pass layout, painting driver, cursor navigation and
// reversible editing commands.
//
// All operations are synchronous and expected to be called from a single
// goroutine. Editing operations never fail loudly, they report whether
// anything has changed.
package formula

import (
	"maps"
	"math"
	"slices"
)

// ID addresses element in the document arena. IDs are stable for the
// lifetime of the element, detached elements keep their IDs.
type ID int

// NoID is used for absent parent and absent element.
const NoID ID = -1

// NoBaseline marks element which does not have typographic baseline of its
// own.
const NoBaseline = -1.0

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether point is inside of rectangle, border included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns smallest rectangle containing both r and o. Empty
// rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.W == 0 && r.H == 0 {
		return o
	}
	if o.W == 0 && o.H == 0 {
		return r
	}
	x, y := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	return Rect{X: x, Y: y, W: math.Max(r.Right(), o.Right()) - x, H: math.Max(r.Bottom(), o.Bottom()) - y}
}

// Element is a single node of formula tree. It is owned by Document, all
// structural mutation goes through Document methods so cursors and command
// journal could observe them.
type Element struct {
	id       ID
	kind     Kind
	parent   ID
	children []ID
	attrs    map[string]string
	text     []rune
	// original markup of unknown elements, written back verbatim
	raw string
	// unknown: original tag, glyph: tag of token carrying it in markup
	tag string
	// glyph: attributes of carrying token
	carrier map[string]string

	// layout state, mutated by layout engine only
	origin      Point
	width       float64
	height      float64
	baseline    float64
	scaleLevel  int
	scaleFactor float64
	childrenBox Rect
	stops       []float64 // token: x of every cursor stop, len(text)+1 entries
	columns     []float64 // table: widths of columns
	deco        decoration
}

// decoration keeps geometry computed during layout which is needed to paint
// element's own decoration.
type decoration struct {
	lineY     float64 // fraction rule position
	thickness float64
	bevelled  bool
	radical   []Point // root symbol polyline, bevelled fraction slash
	font      Font    // size in layout units
	lspace    float64 // operator spacing included into width
	natural   float64 // glyphs advance before stretching
	stretch   float64
	open      string
	close     string
	openW     float64
	closeW    float64
	fenceSize float64
	seps      []float64 // x positions of fenced separators
	sepsText  []string
	// tables
	colSpacing float64
	rowSpacing float64
	axis       float64
	midline    float64
	aligns     []Align
}

func (e *Element) ID() ID          { return e.id }
func (e *Element) Kind() Kind      { return e.kind }
func (e *Element) Parent() ID      { return e.parent }
func (e *Element) Text() string    { return string(e.text) }
func (e *Element) Raw() string     { return e.raw }
func (e *Element) Width() float64  { return e.width }
func (e *Element) Height() float64 { return e.height }
func (e *Element) Origin() Point   { return e.origin }

// Tag returns MathML tag for element. For unknown elements this is original
// tag name.
func (e *Element) Tag() string {
	if e.kind == KindUnknown {
		return e.tag
	}
	return e.kind.Tag()
}

// Carrier returns tag and attributes of token which wraps glyph in markup,
// empty tag when glyph stands on its own.
func (e *Element) Carrier() (string, map[string]string) {
	if e.kind != KindGlyph {
		return "", nil
	}
	return e.tag, maps.Clone(e.carrier)
}

// Baseline returns distance from box top to baseline or NoBaseline.
func (e *Element) Baseline() float64 { return e.baseline }

// HasBaseline reports whether element aligns on baseline.
func (e *Element) HasBaseline() bool { return e.baseline >= 0 }

// Box returns element box in parent coordinates.
func (e *Element) Box() Rect {
	return Rect{X: e.origin.X, Y: e.origin.Y, W: e.width, H: e.height}
}

// ChildrenBox returns bounding rectangle of all children in element
// coordinates.
func (e *Element) ChildrenBox() Rect { return e.childrenBox }

func (e *Element) ScaleLevel() int      { return e.scaleLevel }
func (e *Element) ScaleFactor() float64 { return e.scaleFactor }

// Children returns copy of the children list.
func (e *Element) Children() []ID {
	return slices.Clone(e.children)
}

// NumChildren returns number of direct children.
func (e *Element) NumChildren() int { return len(e.children) }

// Child returns child at index or NoID.
func (e *Element) Child(i int) ID {
	if i < 0 || i >= len(e.children) {
		return NoID
	}
	return e.children[i]
}

// Attr returns attribute value stored on element itself, no inheritance.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Attrs returns copy of element attributes.
func (e *Element) Attrs() map[string]string {
	return maps.Clone(e.attrs)
}

// AttrNames returns sorted attribute names.
func (e *Element) AttrNames() []string {
	return slices.Sorted(maps.Keys(e.attrs))
}

// Stop returns x coordinate (element relative) of cursor stop inside token.
func (e *Element) Stop(pos int) float64 {
	if len(e.stops) == 0 {
		if pos <= 0 {
			return 0
		}
		return e.width
	}
	pos = min(max(pos, 0), len(e.stops)-1)
	return e.stops[pos]
}

func (e *Element) indexOf(child ID) int {
	return slices.Index(e.children, child)
}
