// Package mathml loads formulas from MathML markup and saves them back.
package mathml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"kfm/css"
	"kfm/formula"
)

// Namespace is MathML XML namespace.
const Namespace = "http://www.w3.org/1998/Math/MathML"

// ErrNotMathML is returned when markup root is not a math element.
var ErrNotMathML = errors.New("not a MathML document")

// Reader builds formula trees from MathML elements.
type Reader struct {
	log *zap.Logger
	css *css.Parser
	err error
}

// NewReader creates reader, nil logger disables logging.
func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("mathml")
	return &Reader{log: log, css: css.NewParser(log)}
}

// Read parses MathML document. Problems with separate elements do not stop
// loading: offending subtrees are kept as unknown elements and all
// problems are returned together with the (complete) document.
func Read(r io.Reader, log *zap.Logger) (*formula.Document, error) {
	return NewReader(log).Read(r)
}

// ReadBytes is Read over memory buffer.
func ReadBytes(data []byte, log *zap.Logger) (*formula.Document, error) {
	return NewReader(log).Read(bytes.NewReader(data))
}

func parseMarkup(r io.Reader) (*etree.Document, error) {
	xml := etree.NewDocument()
	xml.ReadSettings = etree.ReadSettings{
		ValidateInput: false,
		Permissive:    true,
		// input is always UTF-8 here, whatever declaration says
		CharsetReader: func(_ string, input io.Reader) (io.Reader, error) {
			return input, nil
		},
	}
	if _, err := xml.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to parse markup: %w", err)
	}
	if xml.Root() == nil {
		return nil, fmt.Errorf("markup has no root element")
	}
	return xml, nil
}

func (rd *Reader) Read(r io.Reader) (*formula.Document, error) {
	xml, err := parseMarkup(r)
	if err != nil {
		return nil, err
	}
	return rd.ReadDocument(xml)
}

// ReadDocument builds formula document from parsed markup.
func (rd *Reader) ReadDocument(xml *etree.Document) (*formula.Document, error) {
	root := xml.Root()
	if root == nil {
		return nil, ErrNotMathML
	}
	if localName(root) != "math" {
		return nil, fmt.Errorf("%w: unexpected root element %q", ErrNotMathML, root.Tag)
	}

	rd.err = nil
	doc := formula.NewBlankDocument(rd.log)
	rd.readAttributes(doc, doc.Root(), root)

	content := root
	if sem := semantics(root); sem != nil {
		children := sem.ChildElements()
		for _, a := range children[1:] {
			doc.Annotations = append(doc.Annotations, rawMarkup(a))
		}
		content = children[0]
		rd.log.Debug("Unwrapped semantics", zap.Int("annotations", len(doc.Annotations)))
	}
	if content == root {
		rd.readChildren(doc, doc.Root(), root)
	} else if localName(content) == "mrow" {
		rd.readAttributes(doc, doc.Root(), content)
		rd.readChildren(doc, doc.Root(), content)
	} else {
		rd.append(doc, doc.Root(), content)
	}
	if doc.Length(doc.Root()) == 0 {
		doc.AppendChild(doc.Root(), doc.NewBare(formula.KindEmpty))
	}
	err := rd.err
	rd.err = nil
	return doc, err
}

// semantics returns semantics element when it is the only content of math
// and carries presentation markup first.
func semantics(root *etree.Element) *etree.Element {
	children := root.ChildElements()
	if len(children) != 1 || localName(children[0]) != "semantics" {
		return nil
	}
	if len(children[0].ChildElements()) == 0 {
		return nil
	}
	return children[0]
}

// ReadElements builds detached subtrees for every child element of parent,
// it is used for pasting lists of elements.
func (rd *Reader) ReadElements(doc *formula.Document, parent *etree.Element) ([]formula.ID, error) {
	rd.err = nil
	var ids []formula.ID
	for _, el := range parent.ChildElements() {
		if id := rd.element(doc, el, formula.KindRow); id != formula.NoID {
			ids = append(ids, id)
		}
	}
	err := rd.err
	rd.err = nil
	return ids, err
}

func (rd *Reader) fail(el *etree.Element, format string, args ...any) {
	err := fmt.Errorf("<%s> at %s: %s", el.Tag, el.GetPath(), fmt.Sprintf(format, args...))
	rd.log.Warn("Invalid MathML element", zap.Error(err))
	rd.err = multierr.Append(rd.err, err)
}

func localName(el *etree.Element) string {
	return strings.ToLower(el.Tag)
}

// rawMarkup serializes element so it could be re-emitted verbatim.
func rawMarkup(el *etree.Element) string {
	tmp := etree.NewDocument()
	tmp.SetRoot(el.Copy())
	s, err := tmp.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func (rd *Reader) unknown(doc *formula.Document, el *etree.Element) formula.ID {
	return doc.NewUnknown(el.Tag, rawMarkup(el))
}

func (rd *Reader) append(doc *formula.Document, parent formula.ID, el *etree.Element) {
	if id := rd.element(doc, el, doc.Kind(parent)); id != formula.NoID {
		if !doc.AppendChild(parent, id) {
			rd.fail(el, "not allowed inside <%s>", doc.Kind(parent).Tag())
			doc.AppendChild(parent, rd.unknown(doc, el))
		}
	}
}

func (rd *Reader) readChildren(doc *formula.Document, parent formula.ID, el *etree.Element) {
	for _, child := range el.ChildElements() {
		rd.append(doc, parent, child)
	}
}

func (rd *Reader) readAttributes(doc *formula.Document, id formula.ID, el *etree.Element) {
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		key := strings.ToLower(a.Key)
		if key == "style" {
			continue
		}
		doc.SetAttribute(id, key, a.Value)
	}
	if style := el.SelectAttrValue("style", ""); style != "" {
		applyStyle(doc, id, rd.css.ParseInline([]byte(style), el.Tag))
	}
}

// element reads single element. Elements which cannot be read are replaced
// with unknown element keeping the markup, NoID is returned only for
// content which should be dropped entirely.
func (rd *Reader) element(doc *formula.Document, el *etree.Element, parentKind formula.Kind) formula.ID {
	tag := localName(el)
	if tag == "semantics" {
		if children := el.ChildElements(); len(children) > 0 {
			return rd.element(doc, children[0], parentKind)
		}
		return formula.NoID
	}
	kind, ok := formula.KindFromTag(tag)
	if !ok || kind == formula.KindFormula {
		rd.log.Warn("Unsupported MathML element, keeping as is", zap.String("tag", el.Tag))
		return rd.unknown(doc, el)
	}

	switch {
	case kind == formula.KindTablerow && parentKind != formula.KindTable:
		rd.fail(el, "table row outside of table")
		return rd.unknown(doc, el)
	case kind == formula.KindTableentry && parentKind != formula.KindTablerow:
		rd.fail(el, "table entry outside of table row")
		return rd.unknown(doc, el)
	}

	switch {
	case kind.IsToken():
		return rd.token(doc, el, kind)
	case kind == formula.KindGlyph:
		return rd.glyph(doc, el)
	case kind == formula.KindSpace:
		id := doc.NewBare(kind)
		rd.readAttributes(doc, id, el)
		return id
	case kind.IsFixed():
		return rd.fixed(doc, el, kind)
	case kind == formula.KindTable:
		return rd.table(doc, el)
	}

	id := doc.NewBare(kind)
	rd.readAttributes(doc, id, el)
	rd.readChildren(doc, id, el)
	if doc.Length(id) == 0 {
		switch kind {
		case formula.KindSqrt, formula.KindTableentry, formula.KindStyle, formula.KindFenced:
			doc.AppendChild(id, doc.NewBare(formula.KindEmpty))
		}
	}
	return id
}

// tokenText collects character data of token, whitespace is collapsed.
func tokenText(el *etree.Element, keepSpaces bool) string {
	var sb strings.Builder
	for _, ch := range el.Child {
		if cd, ok := ch.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	text := norm.NFC.String(sb.String())
	if keepSpaces {
		return strings.TrimSpace(text)
	}
	return strings.Join(strings.Fields(text), " ")
}

func (rd *Reader) token(doc *formula.Document, el *etree.Element, kind formula.Kind) formula.ID {
	for _, child := range el.ChildElements() {
		if localName(child) == "mglyph" && strings.TrimSpace(tokenText(el, false)) == "" {
			// token carrying glyph is remembered so it could be written back
			id := rd.glyph(doc, child)
			if doc.Kind(id) == formula.KindGlyph {
				carrier := doc.NewToken(kind, "")
				rd.readAttributes(doc, carrier, el)
				doc.CarryGlyph(id, carrier)
			}
			return id
		}
		rd.log.Warn("Markup inside token is ignored", zap.String("token", el.Tag), zap.String("tag", child.Tag))
	}
	id := doc.NewToken(kind, tokenText(el, kind == formula.KindText))
	rd.readAttributes(doc, id, el)
	return id
}

var glyphAttributes = []string{"fontfamily", "index", "alt"}

func (rd *Reader) glyph(doc *formula.Document, el *etree.Element) formula.ID {
	for _, name := range glyphAttributes {
		if el.SelectAttr(name) == nil {
			rd.fail(el, "missing required attribute %q", name)
			return rd.unknown(doc, el)
		}
	}
	id := doc.NewBare(formula.KindGlyph)
	rd.readAttributes(doc, id, el)
	return id
}

func (rd *Reader) fixed(doc *formula.Document, el *etree.Element, kind formula.Kind) formula.ID {
	children := el.ChildElements()
	if len(children) != kind.Arity() {
		rd.fail(el, "expected %d children, got %d", kind.Arity(), len(children))
		return rd.unknown(doc, el)
	}
	id := doc.NewBare(kind)
	rd.readAttributes(doc, id, el)
	for _, child := range children {
		var cid formula.ID
		if localName(child) == "mrow" && len(child.ChildElements()) == 0 && len(child.Attr) == 0 {
			// empty row marks unfilled slot
			cid = doc.NewBare(formula.KindEmpty)
		} else if cid = rd.element(doc, child, kind); cid == formula.NoID {
			cid = doc.NewBare(formula.KindEmpty)
		}
		if !doc.AppendChild(id, cid) {
			rd.fail(child, "not allowed inside <%s>", el.Tag)
			doc.AppendChild(id, rd.unknown(doc, child))
		}
	}
	return id
}

func (rd *Reader) table(doc *formula.Document, el *etree.Element) formula.ID {
	rows := el.ChildElements()
	for _, row := range rows {
		if localName(row) != "mtr" {
			rd.fail(row, "only table rows are allowed inside table")
			return rd.unknown(doc, el)
		}
		for _, entry := range row.ChildElements() {
			if localName(entry) != "mtd" {
				rd.fail(entry, "only table entries are allowed inside table row")
				return rd.unknown(doc, el)
			}
		}
	}
	id := doc.NewBare(formula.KindTable)
	rd.readAttributes(doc, id, el)
	for _, row := range rows {
		rid := doc.NewBare(formula.KindTablerow)
		rd.readAttributes(doc, rid, row)
		rd.readChildren(doc, rid, row)
		if doc.Length(rid) == 0 {
			doc.AppendChild(rid, doc.NewElement(formula.KindTableentry))
		}
		doc.AppendChild(id, rid)
	}
	if doc.Length(id) == 0 {
		doc.AppendChild(id, doc.NewElement(formula.KindTablerow))
	}
	return id
}
