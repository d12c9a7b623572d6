package mathml

import (
	"strings"

	"kfm/css"
	"kfm/formula"
)

// styleAttributes maps CSS properties to MathML attributes having the same
// meaning.
var styleAttributes = []struct {
	property  string
	attribute string
}{
	{"color", "mathcolor"},
	{"background-color", "mathbackground"},
	{"background", "mathbackground"},
	{"font-size", "mathsize"},
	{"font-weight", "fontweight"},
	{"font-style", "fontstyle"},
	{"font-family", "fontfamily"},
}

// applyStyle sets MathML attributes from inline style declarations. Explicit
// attributes always take precedence over style.
func applyStyle(doc *formula.Document, id formula.ID, decls css.Declarations) {
	e := doc.Element(id)
	if e == nil {
		return
	}
	for _, m := range styleAttributes {
		if _, ok := e.Attr(m.attribute); ok {
			continue
		}
		v, ok := decls.Get(m.property)
		if !ok || v.Raw == "" {
			continue
		}
		doc.SetAttribute(id, m.attribute, styleValue(m.property, v))
	}
}

func styleValue(property string, v css.Value) string {
	switch property {
	case "font-weight":
		// numeric weights are folded to the two MathML values
		if v.IsNumeric() {
			if v.Value >= 600 {
				return "bold"
			}
			return "normal"
		}
		if v.Keyword == "bolder" {
			return "bold"
		}
	case "font-family":
		if v.Keyword != "" {
			return strings.Trim(strings.TrimSpace(strings.SplitN(v.Keyword, ",", 2)[0]), `"'`)
		}
	}
	if v.IsKeyword() {
		return v.Keyword
	}
	return v.Raw
}
