package mathml

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"kfm/formula"
)

// WriteOptions controls serialization.
type WriteOptions struct {
	// Indent is number of spaces per nesting level, 0 writes compact markup.
	Indent int
	// Declaration adds XML declaration in front of markup.
	Declaration bool
	// NoNamespace omits MathML namespace declaration on math element.
	NoNamespace bool
}

// Write serializes document as MathML.
func Write(w io.Writer, doc *formula.Document, opts WriteOptions) error {
	xml := ToXML(doc, opts)
	if _, err := xml.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write MathML: %w", err)
	}
	return nil
}

// Marshal returns MathML representation of document.
func Marshal(doc *formula.Document, opts WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToXML builds markup tree for document.
func ToXML(doc *formula.Document, opts WriteOptions) *etree.Document {
	xml := etree.NewDocument()
	if opts.Declaration {
		xml.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}

	root := doc.Element(doc.Root())
	math := xml.CreateElement("math")
	if !opts.NoNamespace {
		math.CreateAttr("xmlns", Namespace)
	}
	writeAttributes(math, root)

	content := math
	var sem *etree.Element
	if len(doc.Annotations) > 0 {
		sem = math.CreateElement("semantics")
		content = sem.CreateElement("mrow")
	}
	for _, id := range root.Children() {
		writeElement(content, doc, id)
	}
	for _, a := range doc.Annotations {
		if el := parseRaw(a); el != nil {
			sem.AddChild(el)
		}
	}

	if opts.Indent > 0 {
		xml.Indent(opts.Indent)
	}
	return xml
}

// AppendElement writes subtree id as the last child of parent markup
// element.
func AppendElement(parent *etree.Element, doc *formula.Document, id formula.ID) {
	writeElement(parent, doc, id)
}

func writeAttributes(el *etree.Element, e *formula.Element) {
	for _, name := range e.AttrNames() {
		v, _ := e.Attr(name)
		el.CreateAttr(name, v)
	}
}

// parseRaw restores preserved markup, nil when it is not well formed.
func parseRaw(raw string) *etree.Element {
	tmp := etree.NewDocument()
	tmp.ReadSettings = etree.ReadSettings{Permissive: true}
	if err := tmp.ReadFromString(raw); err != nil {
		return nil
	}
	return tmp.Root()
}

func writeElement(parent *etree.Element, doc *formula.Document, id formula.ID) {
	e := doc.Element(id)
	if e == nil {
		return
	}
	switch e.Kind() {
	case formula.KindEmpty:
		// unfilled slots of fixed arity elements are kept as empty rows so the
		// number of children stays right, in rows placeholders disappear
		if p := doc.Element(e.Parent()); p != nil && !p.Kind().IsInferredRow() {
			parent.CreateElement("mrow")
		}
		return
	case formula.KindUnknown:
		if el := parseRaw(e.Raw()); el != nil {
			parent.AddChild(el)
		} else {
			doc.Log().Warn("Unable to restore preserved markup, dropping", zap.String("tag", e.Tag()))
		}
		return
	}

	if tag, attrs := e.Carrier(); tag != "" {
		parent = parent.CreateElement(tag)
		for _, name := range slices.Sorted(maps.Keys(attrs)) {
			parent.CreateAttr(name, attrs[name])
		}
	}
	el := parent.CreateElement(e.Tag())
	writeAttributes(el, e)
	if e.Kind().IsToken() {
		el.SetText(e.Text())
		return
	}
	for _, cid := range e.Children() {
		writeElement(el, doc, cid)
	}
}
