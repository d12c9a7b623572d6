package mathml

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"kfm/formula"
)

const (
	// MimeType identifies formula fragments on clipboard.
	MimeType = "application/x-kformula"
	// FragmentTag wraps list of copied siblings.
	FragmentTag = "kformula"
)

// ErrEmptySelection is returned by Copy when there is nothing to copy.
var ErrEmptySelection = errors.New("nothing selected")

// Copy serializes selected part of the formula as clipboard fragment. When
// selection is inside a token the selected characters are copied as token
// of the same kind.
func Copy(c *formula.Cursor) ([]byte, error) {
	if !c.HasSelection() {
		return nil, ErrEmptySelection
	}
	doc := c.Document()
	host, from, to := c.Selection()

	xml := etree.NewDocument()
	frag := xml.CreateElement(FragmentTag)
	if e := doc.Element(host); e.Kind().IsToken() {
		el := frag.CreateElement(e.Tag())
		writeAttributes(el, e)
		el.SetText(string([]rune(e.Text())[from:to]))
	} else {
		for _, id := range doc.ChildElements(host)[from:to] {
			AppendElement(frag, doc, id)
		}
	}

	var buf bytes.Buffer
	if _, err := xml.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to serialize selection: %w", err)
	}
	return buf.Bytes(), nil
}

// CutCommand returns command removing selection, fragment should be taken
// with Copy before executing it.
func CutCommand(c *formula.Cursor) formula.Command {
	return formula.NewCommand("Cut", c, func(c *formula.Cursor) bool {
		return c.RemoveSelection()
	})
}

// PasteCommand parses fragment and returns command inserting its elements at
// cursor. Fragment could be clipboard data produced by Copy, complete math
// element, or single MathML element. Elements which could not be read are
// pasted as unknown and reported with returned error.
func PasteCommand(c *formula.Cursor, data []byte, log *zap.Logger) (formula.Command, error) {
	xml, err := parseMarkup(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rd := NewReader(log)
	doc := c.Document()

	var (
		ids     []formula.ID
		readErr error
	)
	switch root := xml.Root(); localName(root) {
	case FragmentTag, "math":
		ids, readErr = rd.ReadElements(doc, root)
	default:
		wrapper := etree.NewElement(FragmentTag)
		wrapper.AddChild(root)
		ids, readErr = rd.ReadElements(doc, wrapper)
	}
	if len(ids) == 0 {
		return nil, multierr.Append(errors.New("fragment has no formula elements"), readErr)
	}
	rd.log.Debug("Pasting fragment", zap.Int("elements", len(ids)))
	return formula.InsertElementsCommand(c, ids), readErr
}
