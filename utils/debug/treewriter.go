// Package debug produces indented text dumps of formula trees.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultIndent is used for every nesting level unless changed.
const DefaultIndent = "  "

// TreeWriter accumulates dump one node per line, nesting is expressed by
// indentation.
type TreeWriter struct {
	w      *strings.Builder
	indent string
	lines  int
}

func NewTreeWriter() *TreeWriter {
	return NewTreeWriterIndent(DefaultIndent)
}

// NewTreeWriterIndent creates writer with custom single level indentation.
func NewTreeWriterIndent(indent string) *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}, indent: indent}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

// Lines returns number of lines written so far.
func (tw *TreeWriter) Lines() int {
	return tw.lines
}

func (tw *TreeWriter) prefix(depth int) {
	tw.w.WriteString(strings.Repeat(tw.indent, max(depth, 0)))
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.prefix(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
	tw.lines++
}

// TextBlock writes labeled value quoted, so invisible characters and line
// breaks stay visible. Empty value is written as is.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.prefix(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
	tw.lines++
}

// Attr writes single attribute line.
func (tw *TreeWriter) Attr(depth int, name, value string) {
	tw.Line(depth, "@%s=%s", name, strconv.Quote(value))
}

// Box formats layout rectangle with baseline.
func Box(x, y, width, height, baseline float64) string {
	return fmt.Sprintf("[%.2f,%.2f %.2fx%.2f base %.2f]", x, y, width, height, baseline)
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
