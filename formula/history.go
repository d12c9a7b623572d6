package formula

import (
	"go.uber.org/zap"
)

// DefaultHistoryLimit is the number of commands history keeps by default.
const DefaultHistoryLimit = 100

// History is bounded undo/redo stack of executed commands.
type History struct {
	doc    *Document
	limit  int
	done   []Command
	undone []Command
}

// NewHistory creates history for document. Non positive limit means
// DefaultHistoryLimit.
func NewHistory(doc *Document, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{doc: doc, limit: limit}
}

// Execute runs command and, if it changed anything, puts it on the undo
// stack. Redo stack is discarded.
func (h *History) Execute(cmd Command) bool {
	if !cmd.Execute() {
		h.doc.log.Debug("Command did nothing", zap.String("command", cmd.Label()))
		return false
	}
	h.done = append(h.done, cmd)
	if len(h.done) > h.limit {
		h.done = h.done[len(h.done)-h.limit:]
	}
	h.undone = h.undone[:0]
	return true
}

// Undo reverts the last executed command.
func (h *History) Undo() bool {
	if len(h.done) == 0 {
		return false
	}
	cmd := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	cmd.Unexecute()
	h.undone = append(h.undone, cmd)
	return true
}

// Redo executes again the last undone command.
func (h *History) Redo() bool {
	if len(h.undone) == 0 {
		return false
	}
	cmd := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	if !cmd.Execute() {
		return false
	}
	h.done = append(h.done, cmd)
	return true
}

func (h *History) CanUndo() bool { return len(h.done) > 0 }
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// UndoLabel returns label of command Undo would revert.
func (h *History) UndoLabel() string {
	if len(h.done) == 0 {
		return ""
	}
	return h.done[len(h.done)-1].Label()
}

// RedoLabel returns label of command Redo would execute.
func (h *History) RedoLabel() string {
	if len(h.undone) == 0 {
		return ""
	}
	return h.undone[len(h.undone)-1].Label()
}

// Clear forgets all commands and frees detached elements they were
// holding.
func (h *History) Clear() {
	h.done, h.undone = nil, nil
	if n := h.doc.Sweep(); n > 0 {
		h.doc.log.Debug("Freed detached elements", zap.Int("count", n))
	}
}
