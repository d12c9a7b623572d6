package formula

//go:generate go tool go-enum --names

// Kind discriminates element variants.
// ENUM(formula, row, style, fenced, identifier, number, operator, text, space, glyph, fraction, sqrt, root, sub, sup, subsup, under, over, underover, table, tablerow, tableentry, unknown, empty)
type Kind int

var kindTags = map[Kind]string{
	KindFormula:    "math",
	KindRow:        "mrow",
	KindStyle:      "mstyle",
	KindFenced:     "mfenced",
	KindIdentifier: "mi",
	KindNumber:     "mn",
	KindOperator:   "mo",
	KindText:       "mtext",
	KindSpace:      "mspace",
	KindGlyph:      "mglyph",
	KindFraction:   "mfrac",
	KindSqrt:       "msqrt",
	KindRoot:       "mroot",
	KindSub:        "msub",
	KindSup:        "msup",
	KindSubsup:     "msubsup",
	KindUnder:      "munder",
	KindOver:       "mover",
	KindUnderover:  "munderover",
	KindTable:      "mtable",
	KindTablerow:   "mtr",
	KindTableentry: "mtd",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, v := range kindTags {
		m[v] = k
	}
	return m
}()

// Tag returns MathML tag name for the kind. Unknown and empty elements have
// no tag of their own.
func (k Kind) Tag() string {
	return kindTags[k]
}

// KindFromTag maps MathML tag name to element kind.
func KindFromTag(tag string) (Kind, bool) {
	k, ok := tagKinds[tag]
	return k, ok
}

// IsToken reports whether elements of this kind hold a run of characters.
func (k Kind) IsToken() bool {
	switch k {
	case KindIdentifier, KindNumber, KindOperator, KindText:
		return true
	}
	return false
}

// IsInferredRow reports whether the kind behaves as if its content was
// wrapped into mrow: children can be inserted and removed freely.
func (k Kind) IsInferredRow() bool {
	switch k {
	case KindFormula, KindRow, KindStyle, KindFenced, KindSqrt, KindTableentry:
		return true
	}
	return false
}

// IsScript reports whether the kind is one of the sub/superscript or
// under/over constructs.
func (k Kind) IsScript() bool {
	switch k {
	case KindSub, KindSup, KindSubsup, KindUnder, KindOver, KindUnderover:
		return true
	}
	return false
}

// Arity returns the fixed number of children for fixed-arity kinds and -1
// for everything with variable content. Leaves report 0.
func (k Kind) Arity() int {
	switch k {
	case KindFraction, KindRoot, KindSub, KindSup, KindUnder, KindOver:
		return 2
	case KindSubsup, KindUnderover:
		return 3
	case KindSpace, KindGlyph, KindUnknown, KindEmpty:
		return 0
	case KindIdentifier, KindNumber, KindOperator, KindText:
		return 0
	}
	return -1
}

// IsFixed reports whether element keeps fixed number of child slots.
func (k Kind) IsFixed() bool {
	return k.Arity() > 0
}

// IsVariable reports whether children could be inserted or removed.
func (k Kind) IsVariable() bool {
	return k.Arity() < 0
}

// Slot indexes for fixed arity kinds.
const (
	SlotNumerator   = 0
	SlotDenominator = 1

	SlotRadicand = 0
	SlotIndex    = 1

	SlotBase = 0
)

// subSlot returns index of subscript (or underscript) slot, -1 if absent.
func (k Kind) subSlot() int {
	switch k {
	case KindSub, KindSubsup, KindUnder, KindUnderover:
		return 1
	}
	return -1
}

// supSlot returns index of superscript (or overscript) slot, -1 if absent.
func (k Kind) supSlot() int {
	switch k {
	case KindSup, KindOver:
		return 1
	case KindSubsup, KindUnderover:
		return 2
	}
	return -1
}
