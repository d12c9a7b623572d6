// Package opdict provides MathML operator dictionary: default rendering
// properties of operators keyed by operator text and form.
package opdict

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Entry holds defaults for single (text, form) pair. Spaces and sizes are
// kept as MathML length strings and resolved by the caller.
type Entry struct {
	Text          string
	Form          Form
	LSpace        string
	RSpace        string
	MaxSize       string
	MinSize       string
	Fence         bool
	Separator     bool
	Stretchy      bool
	Symmetric     bool
	LargeOp       bool
	MovableLimits bool
	Accent        bool
}

// Default returns properties used for operators absent from dictionary.
func Default(text string, form Form) Entry {
	return Entry{
		Text:    text,
		Form:    form,
		LSpace:  "thickmathspace",
		RSpace:  "thickmathspace",
		MaxSize: "infinity",
		MinSize: "1",
	}
}

type flags uint8

const (
	fFence flags = 1 << iota
	fSeparator
	fStretchy
	fSymmetric
	fLargeOp
	fMovableLimits
	fAccent
)

type row struct {
	text   string
	form   Form
	lspace string
	rspace string
	f      flags
}

const (
	zero     = "0em"
	vvthin   = "veryverythinmathspace"
	vthin    = "verythinmathspace"
	thin     = "thinmathspace"
	medium   = "mediummathspace"
	thick    = "thickmathspace"
	vthick   = "verythickmathspace"
	fences   = fFence | fStretchy | fSymmetric
	bigop    = fLargeOp | fMovableLimits | fStretchy | fSymmetric
	integral = fLargeOp | fStretchy | fSymmetric
	accentOp = fAccent | fStretchy
)

// Subset of the MathML 2 operator dictionary (appendix F), unsorted.
var rows = []row{
	{"(", FormPrefix, zero, zero, fences},
	{")", FormPostfix, zero, zero, fences},
	{"[", FormPrefix, zero, zero, fences},
	{"]", FormPostfix, zero, zero, fences},
	{"{", FormPrefix, zero, zero, fences},
	{"}", FormPostfix, zero, zero, fences},
	{"|", FormPrefix, zero, zero, fences},
	{"|", FormPostfix, zero, zero, fences},
	{"|", FormInfix, thick, thick, fStretchy | fSymmetric},
	{"‖", FormPrefix, zero, zero, fences},
	{"‖", FormPostfix, zero, zero, fences},
	{"⟨", FormPrefix, zero, zero, fences},
	{"⟩", FormPostfix, zero, zero, fences},
	{"〈", FormPrefix, zero, zero, fences},
	{"〉", FormPostfix, zero, zero, fences},
	{"⌈", FormPrefix, zero, zero, fences},
	{"⌉", FormPostfix, zero, zero, fences},
	{"⌊", FormPrefix, zero, zero, fences},
	{"⌋", FormPostfix, zero, zero, fences},

	{",", FormInfix, zero, vthick, fSeparator},
	{";", FormInfix, zero, thick, fSeparator},
	{"⁣", FormInfix, zero, zero, fSeparator},
	{"⁡", FormInfix, zero, zero, 0},
	{"⁢", FormInfix, zero, zero, 0},
	{":", FormInfix, thick, thick, 0},
	{".", FormInfix, zero, zero, 0},
	{"…", FormInfix, zero, zero, 0},
	{"⋯", FormInfix, thin, thin, 0},
	{"⋮", FormInfix, vthin, vthin, 0},
	{"⋱", FormInfix, vthin, vthin, 0},

	{"=", FormInfix, thick, thick, 0},
	{"≠", FormInfix, thick, thick, 0},
	{"≡", FormInfix, thick, thick, 0},
	{"≈", FormInfix, thick, thick, 0},
	{"∼", FormInfix, thick, thick, 0},
	{"≃", FormInfix, thick, thick, 0},
	{"≅", FormInfix, thick, thick, 0},
	{"∝", FormInfix, thick, thick, 0},
	{"<", FormInfix, thick, thick, 0},
	{">", FormInfix, thick, thick, 0},
	{"≤", FormInfix, thick, thick, 0},
	{"≥", FormInfix, thick, thick, 0},
	{"≪", FormInfix, thick, thick, 0},
	{"≫", FormInfix, thick, thick, 0},
	{"∈", FormInfix, thick, thick, 0},
	{"∉", FormInfix, thick, thick, 0},
	{"∋", FormInfix, thick, thick, 0},
	{"⊂", FormInfix, thick, thick, 0},
	{"⊃", FormInfix, thick, thick, 0},
	{"⊆", FormInfix, thick, thick, 0},
	{"⊇", FormInfix, thick, thick, 0},
	{"→", FormInfix, thick, thick, fStretchy},
	{"←", FormInfix, thick, thick, fStretchy},
	{"↔", FormInfix, thick, thick, fStretchy},
	{"⇒", FormInfix, thick, thick, fStretchy},
	{"⇐", FormInfix, thick, thick, fStretchy},
	{"⇔", FormInfix, thick, thick, fStretchy},
	{"↦", FormInfix, thick, thick, fStretchy},

	{"+", FormInfix, medium, medium, 0},
	{"+", FormPrefix, zero, vvthin, 0},
	{"-", FormInfix, medium, medium, 0},
	{"-", FormPrefix, zero, vvthin, 0},
	{"−", FormInfix, medium, medium, 0},
	{"−", FormPrefix, zero, vvthin, 0},
	{"±", FormInfix, medium, medium, 0},
	{"±", FormPrefix, zero, vvthin, 0},
	{"∓", FormInfix, medium, medium, 0},
	{"∓", FormPrefix, zero, vvthin, 0},
	{"∪", FormInfix, medium, medium, 0},
	{"∩", FormInfix, medium, medium, 0},
	{"∧", FormInfix, medium, medium, 0},
	{"∨", FormInfix, medium, medium, 0},
	{"⊕", FormInfix, medium, medium, 0},
	{"⊗", FormInfix, thin, thin, 0},

	{"*", FormInfix, thin, thin, 0},
	{"⋅", FormInfix, thin, thin, 0},
	{"×", FormInfix, thin, thin, 0},
	{"÷", FormInfix, thin, thin, 0},
	{"/", FormInfix, thin, thin, 0},
	{"∘", FormInfix, thin, thin, 0},
	{"\\", FormInfix, thin, thin, 0},
	{"∖", FormInfix, thin, thin, 0},

	{"!", FormPostfix, vthin, zero, 0},
	{"?", FormInfix, vthin, vthin, 0},
	{"%", FormPostfix, vthin, zero, 0},
	{"′", FormPostfix, vthin, zero, 0},
	{"″", FormPostfix, vthin, zero, 0},
	{"'", FormPostfix, vthin, zero, 0},
	{"°", FormPostfix, zero, zero, 0},

	{"¬", FormPrefix, thin, thin, 0},
	{"∂", FormPrefix, zero, vthin, 0},
	{"∇", FormPrefix, zero, vthin, 0},
	{"∀", FormPrefix, zero, vthin, 0},
	{"∃", FormPrefix, zero, vthin, 0},
	{"√", FormPrefix, zero, vthin, fStretchy},

	{"∑", FormPrefix, zero, vthin, bigop},
	{"∏", FormPrefix, zero, vthin, bigop},
	{"∐", FormPrefix, zero, vthin, bigop},
	{"⋃", FormPrefix, zero, vthin, bigop},
	{"⋂", FormPrefix, zero, vthin, bigop},
	{"⋁", FormPrefix, zero, vthin, bigop},
	{"⋀", FormPrefix, zero, vthin, bigop},
	{"∫", FormPrefix, zero, zero, integral},
	{"∬", FormPrefix, zero, zero, integral},
	{"∭", FormPrefix, zero, zero, integral},
	{"∮", FormPrefix, zero, zero, integral},
	{"lim", FormPrefix, zero, thin, fMovableLimits},
	{"max", FormPrefix, zero, thin, fMovableLimits},
	{"min", FormPrefix, zero, thin, fMovableLimits},
	{"sup", FormPrefix, zero, thin, fMovableLimits},
	{"inf", FormPrefix, zero, thin, fMovableLimits},
	{"mod", FormInfix, vthick, vthick, 0},

	{"^", FormPostfix, zero, zero, accentOp},
	{"ˆ", FormPostfix, zero, zero, accentOp},
	{"~", FormPostfix, zero, zero, accentOp},
	{"˜", FormPostfix, zero, zero, accentOp},
	{"¯", FormPostfix, zero, zero, accentOp},
	{"‾", FormPostfix, zero, zero, accentOp},
	{"_", FormPostfix, zero, zero, accentOp},
	{"⏞", FormPostfix, zero, zero, accentOp},
	{"⏟", FormPostfix, zero, zero, accentOp},
	{"→", FormPostfix, zero, zero, accentOp},
	{"¨", FormPostfix, zero, zero, fAccent},
	{"˙", FormPostfix, zero, zero, fAccent},
	{"ˇ", FormPostfix, zero, zero, fAccent},
	{"˘", FormPostfix, zero, zero, fAccent},
	{"´", FormPostfix, zero, zero, fAccent},
	{"`", FormPostfix, zero, zero, fAccent},
}

var (
	once  sync.Once
	table []Entry
)

func compare(a, b Entry) int {
	if c := cmp.Compare(a.Text, b.Text); c != 0 {
		return c
	}
	return cmp.Compare(a.Form, b.Form)
}

func load() {
	table = make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Default(r.text, r.form)
		e.LSpace, e.RSpace = r.lspace, r.rspace
		e.Fence = r.f&fFence != 0
		e.Separator = r.f&fSeparator != 0
		e.Stretchy = r.f&fStretchy != 0
		e.Symmetric = r.f&fSymmetric != 0
		e.LargeOp = r.f&fLargeOp != 0
		e.MovableLimits = r.f&fMovableLimits != 0
		e.Accent = r.f&fAccent != 0
		table = append(table, e)
	}
	slices.SortStableFunc(table, compare)
	for i := 1; i < len(table); i++ {
		if compare(table[i-1], table[i]) == 0 {
			panic(fmt.Sprintf("operator dictionary has duplicate entry %q %s", table[i].Text, table[i].Form))
		}
	}
}

// Lookup searches dictionary for exact (text, form) pair.
func Lookup(text string, form Form) (Entry, bool) {
	once.Do(load)
	key := Entry{Text: text, Form: form}
	i := sort.Search(len(table), func(i int) bool { return compare(table[i], key) >= 0 })
	if i < len(table) && table[i].Text == text && table[i].Form == form {
		return table[i], true
	}
	return Entry{}, false
}

// Resolve returns dictionary entry for operator. When requested form is
// absent, other forms are tried in infix, postfix, prefix order. Operators
// unknown to dictionary get default properties with requested form.
func Resolve(text string, form Form) Entry {
	if e, ok := Lookup(text, form); ok {
		return e
	}
	for _, f := range []Form{FormInfix, FormPostfix, FormPrefix} {
		if f == form {
			continue
		}
		if e, ok := Lookup(text, f); ok {
			return e
		}
	}
	return Default(text, form)
}

// Entries returns copy of the whole dictionary in lookup order.
func Entries() []Entry {
	once.Do(load)
	return slices.Clone(table)
}
