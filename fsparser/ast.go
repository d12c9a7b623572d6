package fsparser

import (
	"go.uber.org/zap"

	"kfm/formula"
)

// node is parsed piece of formula string, it knows how to turn itself into
// detached formula elements.
type node interface {
	build(b *builder) []formula.ID
}

type builder struct {
	doc *formula.Document
}

func (b *builder) token(kind formula.Kind, text string) formula.ID {
	return b.doc.NewToken(kind, text)
}

func (b *builder) append(parent formula.ID, ids ...formula.ID) {
	for _, id := range ids {
		if !b.doc.AppendChild(parent, id) {
			b.doc.Log().Debug("Unable to append parsed element", zap.Stringer("kind", b.doc.Kind(id)))
			b.doc.Destroy(id)
		}
	}
}

// slot builds single element for fixed position, several elements are
// grouped into row. Parentheses around slot content are dropped since
// script or fraction groups it already.
func (b *builder) slot(n node) formula.ID {
	if p, ok := n.(*parenNode); ok {
		n = p.inner
	}
	return b.group(n.build(b))
}

func (b *builder) group(ids []formula.ID) formula.ID {
	switch len(ids) {
	case 0:
		return b.doc.NewBare(formula.KindEmpty)
	case 1:
		return ids[0]
	}
	row := b.doc.NewBare(formula.KindRow)
	b.append(row, ids...)
	return row
}

func (b *builder) fixed(kind formula.Kind, slots ...formula.ID) formula.ID {
	id := b.doc.NewBare(kind)
	b.append(id, slots...)
	return id
}

type tokenNode struct {
	kind formula.Kind
	text string
}

func (n *tokenNode) build(b *builder) []formula.ID {
	return []formula.ID{b.token(n.kind, n.text)}
}

type listNode struct {
	items []node
}

func (n *listNode) build(b *builder) []formula.ID {
	var ids []formula.ID
	for _, item := range n.items {
		ids = append(ids, item.build(b)...)
	}
	return ids
}

type binaryNode struct {
	op       string
	lhs, rhs node
}

func (n *binaryNode) build(b *builder) []formula.ID {
	ids := n.lhs.build(b)
	ids = append(ids, b.token(formula.KindOperator, n.op))
	return append(ids, n.rhs.build(b)...)
}

type unaryNode struct {
	op  string
	arg node
}

func (n *unaryNode) build(b *builder) []formula.ID {
	return append([]formula.ID{b.token(formula.KindOperator, n.op)}, n.arg.build(b)...)
}

type parenNode struct {
	inner node
}

func (n *parenNode) build(b *builder) []formula.ID {
	f := b.doc.NewBare(formula.KindFenced)
	ids := n.inner.build(b)
	if len(ids) == 0 {
		ids = []formula.ID{b.doc.NewBare(formula.KindEmpty)}
	}
	// single group keeps fence separators away
	b.append(f, b.group(ids))
	return []formula.ID{f}
}

type fractionNode struct {
	num, den node
}

func (n *fractionNode) build(b *builder) []formula.ID {
	return []formula.ID{b.fixed(formula.KindFraction, b.slot(n.num), b.slot(n.den))}
}

type powerNode struct {
	base, exp node
}

func (n *powerNode) build(b *builder) []formula.ID {
	// parentheses of base are visible: (a+b)^2
	base := b.group(n.base.build(b))
	return []formula.ID{b.fixed(formula.KindSup, base, b.slot(n.exp))}
}

type functionNode struct {
	name string
	args []node
}

// large operators with limits
var largeOperators = map[string]struct {
	symbol string
	kind   formula.Kind // kind of script holding both limits
	lower  formula.Kind // kind of script holding lower limit only
}{
	"sum":  {"∑", formula.KindUnderover, formula.KindUnder},
	"prod": {"∏", formula.KindUnderover, formula.KindUnder},
	"int":  {"∫", formula.KindSubsup, formula.KindSub},
}

func (n *functionNode) arg(i int) node {
	if i < len(n.args) {
		return n.args[i]
	}
	return &listNode{}
}

func (n *functionNode) build(b *builder) []formula.ID {
	switch n.name {
	case "sqrt":
		if len(n.args) > 1 {
			return []formula.ID{b.fixed(formula.KindRoot, b.slot(n.args[0]), b.slot(n.args[1]))}
		}
		id := b.doc.NewBare(formula.KindSqrt)
		ids := n.arg(0).build(b)
		if len(ids) == 0 {
			ids = []formula.ID{b.doc.NewBare(formula.KindEmpty)}
		}
		b.append(id, ids...)
		return []formula.ID{id}
	case "root":
		return []formula.ID{b.fixed(formula.KindRoot, b.slot(n.arg(0)), b.slot(n.arg(1)))}
	case "pow":
		return []formula.ID{b.fixed(formula.KindSup, b.slot(n.arg(0)), b.slot(n.arg(1)))}
	}

	if op, ok := largeOperators[n.name]; ok {
		sym := b.token(formula.KindOperator, op.symbol)
		body := n.args
		var ids []formula.ID
		switch {
		case len(n.args) >= 3:
			body = n.args[:len(n.args)-2]
			lo, hi := n.args[len(n.args)-2], n.args[len(n.args)-1]
			ids = append(ids, b.fixed(op.kind, sym, b.slot(lo), b.slot(hi)))
		case len(n.args) == 2:
			body = n.args[:1]
			ids = append(ids, b.fixed(op.lower, sym, b.slot(n.args[1])))
		default:
			ids = append(ids, sym)
		}
		for _, a := range body {
			ids = append(ids, a.build(b)...)
		}
		return ids
	}

	var name formula.ID
	if sym, ok := symbols[n.name]; ok {
		name = b.token(formula.KindIdentifier, sym)
	} else {
		name = b.token(formula.KindIdentifier, n.name)
	}
	f := b.doc.NewBare(formula.KindFenced)
	if len(n.args) == 0 {
		b.append(f, b.doc.NewBare(formula.KindEmpty))
	}
	for _, a := range n.args {
		b.append(f, b.slot(a))
	}
	return []formula.ID{name, f}
}

type matrixNode struct {
	rows [][]node
}

func (n *matrixNode) columns() int {
	cols := 0
	for _, r := range n.rows {
		cols = max(cols, len(r))
	}
	return cols
}

// build makes fenced table, short rows are padded with placeholders.
func (n *matrixNode) build(b *builder) []formula.ID {
	cols := max(n.columns(), 1)
	table := b.doc.NewBare(formula.KindTable)
	for _, r := range n.rows {
		row := b.doc.NewBare(formula.KindTablerow)
		for i := range cols {
			entry := b.doc.NewBare(formula.KindTableentry)
			var ids []formula.ID
			if i < len(r) {
				ids = r[i].build(b)
			}
			if len(ids) == 0 {
				ids = []formula.ID{b.doc.NewBare(formula.KindEmpty)}
			}
			b.append(entry, ids...)
			b.append(row, entry)
		}
		b.append(table, row)
	}
	if len(n.rows) == 0 {
		b.doc.Destroy(table)
		table = b.doc.NewTable(1, 1)
	}
	f := b.doc.NewBare(formula.KindFenced)
	b.doc.SetAttribute(f, "open", "[")
	b.doc.SetAttribute(f, "close", "]")
	b.append(f, table)
	return []formula.ID{f}
}
