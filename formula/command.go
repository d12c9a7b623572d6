package formula

import (
	"go.uber.org/zap"
)

// Command is a reversible editing step.
type Command interface {
	// Execute performs step, false is returned when nothing changed.
	Execute() bool
	// Unexecute restores tree and cursor to the state before Execute.
	Unexecute()
	Label() string
}

type command struct {
	label  string
	cursor *Cursor
	action func(c *Cursor) bool

	ops    []op
	before cursorState
	after  cursorState
	done   bool
}

// NewCommand wraps cursor action into command. First execution records every
// primitive mutation action performs, including structural cleanup, so
// unexecute and repeated execution replay exactly the same changes.
func NewCommand(label string, c *Cursor, action func(c *Cursor) bool) Command {
	return &command{label: label, cursor: c, action: action}
}

func (cmd *command) Label() string { return cmd.label }

func (cmd *command) Execute() bool {
	c := cmd.cursor
	d := c.doc
	if d.ReadOnly {
		return false
	}
	if cmd.done {
		// redo
		c.restore(cmd.before)
		d.replay(cmd.ops, false)
		c.restore(cmd.after)
		return true
	}

	cmd.before = c.state()
	prev := d.beginJournal()
	ok := cmd.action(c)
	ops := d.endJournal(prev)
	if !ok || len(ops) == 0 {
		if len(ops) > 0 {
			d.replay(ops, true)
			d.log.Debug("Command reverted", zap.String("command", cmd.label), zap.Int("ops", len(ops)))
		}
		c.restore(cmd.before)
		return false
	}
	if prev != nil {
		prev.ops = append(prev.ops, ops...)
	}
	cmd.ops = ops
	cmd.after = c.state()
	cmd.done = true
	d.dirty = true
	return true
}

func (cmd *command) Unexecute() {
	if !cmd.done {
		return
	}
	c := cmd.cursor
	d := c.doc
	d.replay(cmd.ops, true)
	d.dirty = true
	c.restore(cmd.before)
}

// InsertTextCommand types text at cursor.
func InsertTextCommand(c *Cursor, text string) Command {
	return NewCommand("Insert text", c, func(c *Cursor) bool { return c.InsertText(text) })
}

// AddElementCommand inserts new element of kind with placeholders in every
// slot.
func AddElementCommand(c *Cursor, kind Kind) Command {
	return NewCommand("Add "+kind.String(), c, func(c *Cursor) bool {
		var id ID
		switch {
		case kind == KindTable:
			id = c.doc.NewTable(2, 2)
		case kind.IsToken():
			id = c.doc.NewToken(kind, "")
		default:
			id = c.doc.NewElement(kind)
		}
		if id == NoID {
			return false
		}
		return c.InsertElement(id)
	})
}

// InsertElementCommand inserts prepared detached element.
func InsertElementCommand(c *Cursor, id ID) Command {
	return InsertElementsCommand(c, []ID{id})
}

// InsertElementsCommand inserts prepared detached siblings.
func InsertElementsCommand(c *Cursor, ids []ID) Command {
	return NewCommand("Insert elements", c, func(c *Cursor) bool { return c.InsertElements(ids) })
}

// InsertDataCommand inserts element named by tag keyword.
func InsertDataCommand(c *Cursor, keyword string) Command {
	return NewCommand("Insert "+keyword, c, func(c *Cursor) bool { return c.InsertData(keyword) })
}

// RemoveCommand deletes before (backspace) or after cursor.
func RemoveCommand(c *Cursor, backspace bool) Command {
	label := "Delete"
	if backspace {
		label = "Backspace"
	}
	return NewCommand(label, c, func(c *Cursor) bool { return c.Remove(backspace) })
}

// SplitTokenCommand splits token cursor is in.
func SplitTokenCommand(c *Cursor) Command {
	return NewCommand("Split token", c, func(c *Cursor) bool { return c.SplitToken() })
}

// MakeGreekCommand turns letter before cursor into Greek one.
func MakeGreekCommand(c *Cursor) Command {
	return NewCommand("Make Greek", c, func(c *Cursor) bool { return c.MakeGreek() })
}

// RemoveEnclosingCommand removes element around cursor keeping its main
// content.
func RemoveEnclosingCommand(c *Cursor) Command {
	return NewCommand("Remove enclosing", c, func(c *Cursor) bool { return c.RemoveEnclosing() })
}

// SetAttributeCommand changes attribute of element, empty value removes it.
func SetAttributeCommand(c *Cursor, id ID, name, value string) Command {
	return NewCommand("Set "+name, c, func(c *Cursor) bool {
		if value == "" {
			return c.doc.RemoveAttribute(id, name)
		}
		return c.doc.SetAttribute(id, name, value)
	})
}
