package formula

import (
	"fmt"
	"maps"
	"slices"

	"kfm/utils/debug"
)

// Dump returns human readable representation of the whole document tree
// including layout boxes when they are known.
func Dump(doc *Document) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Document %s (elements: %d, dirty: %t, readonly: %t)", doc.UUID, doc.count(), doc.dirty, doc.ReadOnly)
	for _, a := range doc.Annotations {
		tw.TextBlock(1, "annotation", a)
	}
	doc.Walk(doc.root, func(e *Element, depth int) bool {
		dumpElement(tw, e, depth+1, !doc.dirty)
		return true
	})
	return tw.String()
}

// DumpElement returns representation of a single subtree.
func (d *Document) DumpElement(id ID) string {
	tw := debug.NewTreeWriter()
	d.Walk(id, func(e *Element, depth int) bool {
		dumpElement(tw, e, depth, !d.dirty)
		return true
	})
	return tw.String()
}

func dumpElement(tw *debug.TreeWriter, e *Element, depth int, boxes bool) {
	name := e.kind.String()
	if tag := e.kind.Tag(); tag != "" {
		name += " <" + tag + ">"
	} else if e.tag != "" {
		name += " <" + e.tag + ">"
	}
	if boxes {
		tw.Line(depth, "#%d %s %s level %d", e.id, name,
			debug.Box(e.origin.X, e.origin.Y, e.width, e.height, e.baseline), e.scaleLevel)
	} else {
		tw.Line(depth, "#%d %s", e.id, name)
	}
	for _, k := range slices.Sorted(maps.Keys(e.attrs)) {
		tw.Attr(depth+1, k, e.attrs[k])
	}
	if e.kind == KindGlyph && e.tag != "" {
		tw.Line(depth+1, "carrier <%s>", e.tag)
		for _, k := range slices.Sorted(maps.Keys(e.carrier)) {
			tw.Attr(depth+2, k, e.carrier[k])
		}
	}
	if e.kind.IsToken() {
		tw.TextBlock(depth+1, "text", string(e.text))
	}
	if e.raw != "" {
		tw.TextBlock(depth+1, "raw", e.raw)
	}
}

func (d *Document) count() int {
	n := 0
	for _, e := range d.elems {
		if e != nil {
			n++
		}
	}
	return n
}

// Equal reports whether two subtrees (possibly from different documents)
// have the same shape, kinds, attributes and text.
func Equal(a *Document, ida ID, b *Document, idb ID) bool {
	return equalError(a, ida, b, idb) == nil
}

// equalError describes the first difference found.
func equalError(a *Document, ida ID, b *Document, idb ID) error {
	ea, eb := a.el(ida), b.el(idb)
	switch {
	case ea == nil && eb == nil:
		return nil
	case ea == nil || eb == nil:
		return fmt.Errorf("element #%d vs #%d: missing", ida, idb)
	case ea.kind != eb.kind:
		return fmt.Errorf("element #%d vs #%d: kind %s != %s", ida, idb, ea.kind, eb.kind)
	case string(ea.text) != string(eb.text):
		return fmt.Errorf("element #%d vs #%d: text %q != %q", ida, idb, string(ea.text), string(eb.text))
	case ea.raw != eb.raw || ea.tag != eb.tag || !maps.Equal(ea.carrier, eb.carrier):
		return fmt.Errorf("element #%d vs #%d: raw markup differs", ida, idb)
	case !maps.Equal(ea.attrs, eb.attrs):
		return fmt.Errorf("element #%d vs #%d: attributes %v != %v", ida, idb, ea.attrs, eb.attrs)
	case len(ea.children) != len(eb.children):
		return fmt.Errorf("element #%d vs #%d: %d children != %d", ida, idb, len(ea.children), len(eb.children))
	}
	for i := range ea.children {
		if err := equalError(a, ea.children[i], b, eb.children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Diff returns description of the first structural difference between two
// subtrees or empty string if they are equal.
func Diff(a *Document, ida ID, b *Document, idb ID) string {
	if err := equalError(a, ida, b, idb); err != nil {
		return err.Error()
	}
	return ""
}
