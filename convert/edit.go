package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"kfm/common"
	"kfm/formula"
	"kfm/fsparser"
	"kfm/mathml"
	"kfm/state"
)

// ErrNothingDone is returned for editing commands which did not change
// formula.
var ErrNothingDone = errors.New("command did nothing")

// Editor executes editing scripts over formula, one command per line:
//
//	move left|right|up|down|home|end [N]
//	select on|off
//	click X Y
//	type TEXT
//	insert TAG           (mfrac, msqrt, ..., mtd adds column, mtr adds row)
//	formula STRING       (linear formula, see fsparser)
//	paste [MARKUP]       (clipboard when markup is absent)
//	copy | cut
//	delete | backspace
//	split
//	greek                (letter before cursor becomes Greek)
//	unwrap               (enclosing element is replaced by its main content)
//	attr NAME VALUE      (on element cursor is in)
//	undo [N] | redo [N]
//
// Empty lines and lines starting with "#" are ignored.
type Editor struct {
	log       *zap.Logger
	doc       *formula.Document
	cursor    *formula.Cursor
	history   *formula.History
	res       *formula.Resolver
	clipboard []byte
}

// NewEditor creates editor with cursor at the beginning of formula.
func NewEditor(doc *formula.Document, res *formula.Resolver, historyLimit int, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	formula.Layout(doc, res)
	return &Editor{
		log:     log.Named("edit"),
		doc:     doc,
		cursor:  formula.NewCursor(doc),
		history: formula.NewHistory(doc, historyLimit),
		res:     res,
	}
}

func (e *Editor) Document() *formula.Document { return e.doc }
func (e *Editor) Cursor() *formula.Cursor     { return e.cursor }
func (e *Editor) History() *formula.History   { return e.history }
func (e *Editor) Clipboard() []byte           { return e.clipboard }

// Close releases cursor.
func (e *Editor) Close() {
	e.cursor.Close()
}

// Run executes script. Failing commands do not stop execution, all problems
// are returned together.
func (e *Editor) Run(r io.Reader) error {
	var errs error
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if err := e.Exec(sc.Text()); err != nil {
			e.log.Warn("Script command failed", zap.Int("line", n), zap.String("command", sc.Text()), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", n, err))
		}
	}
	if err := sc.Err(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("unable to read script: %w", err))
	}
	return errs
}

func repeat(args string) (int, error) {
	if args == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad repeat count %q", args)
	}
	return n, nil
}

// Exec executes single script line.
func (e *Editor) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	// geometry must be current for hit testing and vertical movement
	formula.EnsureLayout(e.doc, e.res)
	defer formula.EnsureLayout(e.doc, e.res)

	verb, args, _ := strings.Cut(line, " ")
	verb, args = strings.ToLower(verb), strings.TrimSpace(args)

	switch verb {
	case "move":
		name, count, _ := strings.Cut(args, " ")
		dir, err := formula.ParseDirection(name)
		if err != nil || dir == formula.DirectionNone {
			return fmt.Errorf("bad direction %q", name)
		}
		n, err := repeat(strings.TrimSpace(count))
		if err != nil {
			return err
		}
		for range n {
			if !e.cursor.Move(dir) {
				return ErrNothingDone
			}
		}
		return nil
	case "select":
		switch args {
		case "on":
			e.cursor.SetSelecting(true)
		case "off":
			e.cursor.SetSelecting(false)
		default:
			return fmt.Errorf("bad selection mode %q", args)
		}
		return nil
	case "click":
		var pt formula.Point
		if _, err := fmt.Sscan(args, &pt.X, &pt.Y); err != nil {
			return fmt.Errorf("bad point %q: %w", args, err)
		}
		return e.check(e.cursor.SetCursorTo(pt))
	case "type":
		if args == "" {
			return errors.New("nothing to type")
		}
		return e.execute(formula.InsertTextCommand(e.cursor, args))
	case "insert":
		return e.execute(formula.InsertDataCommand(e.cursor, args))
	case "formula":
		ids, err := fsparser.ParseInto(e.doc, args, e.log)
		if len(ids) == 0 {
			return multierr.Append(errors.New("formula string is empty"), err)
		}
		return multierr.Append(err, e.execute(formula.InsertElementsCommand(e.cursor, ids)))
	case "paste":
		data := []byte(args)
		if args == "" {
			data = e.clipboard
		}
		if len(data) == 0 {
			return errors.New("clipboard is empty")
		}
		cmd, err := mathml.PasteCommand(e.cursor, data, e.log)
		if cmd == nil {
			return err
		}
		return multierr.Append(err, e.execute(cmd))
	case "copy":
		data, err := mathml.Copy(e.cursor)
		if err != nil {
			return err
		}
		e.clipboard = data
		return nil
	case "cut":
		data, err := mathml.Copy(e.cursor)
		if err != nil {
			return err
		}
		e.clipboard = data
		return e.execute(mathml.CutCommand(e.cursor))
	case "delete":
		return e.execute(formula.RemoveCommand(e.cursor, false))
	case "backspace":
		return e.execute(formula.RemoveCommand(e.cursor, true))
	case "split":
		return e.execute(formula.SplitTokenCommand(e.cursor))
	case "greek":
		return e.execute(formula.MakeGreekCommand(e.cursor))
	case "unwrap":
		return e.execute(formula.RemoveEnclosingCommand(e.cursor))
	case "attr":
		name, value, _ := strings.Cut(args, " ")
		if name == "" {
			return errors.New("attribute name expected")
		}
		return e.execute(formula.SetAttributeCommand(e.cursor, e.cursor.Current(), name, strings.TrimSpace(value)))
	case "undo", "redo":
		n, err := repeat(args)
		if err != nil {
			return err
		}
		step := e.history.Undo
		if verb == "redo" {
			step = e.history.Redo
		}
		for range n {
			if !step() {
				return ErrNothingDone
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

func (e *Editor) execute(cmd formula.Command) error {
	e.log.Debug("Executing", zap.String("command", cmd.Label()))
	return e.check(e.history.Execute(cmd))
}

func (e *Editor) check(ok bool) error {
	if !ok {
		return ErrNothingDone
	}
	return nil
}

// Edit applies editing script to formula and writes result. Source "-"
// starts with an empty formula.
func Edit(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	if cmd.Args().Len() < 2 {
		return errors.New("formula source and editing script expected")
	}
	src, script, dst := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)

	format := common.OutputFmtMathml
	if cmd.IsSet("to") {
		f, err := common.ParseOutputFmt(cmd.String("to"))
		if err != nil {
			return fmt.Errorf("unknown output format requested: %w", err)
		}
		format = f
	}

	if err := configureEnv(cmd, env, log); err != nil {
		return err
	}
	doc, err := loadSource(src, log)
	if err != nil {
		return err
	}
	res, err := env.Resolver()
	if err != nil {
		return err
	}

	f, err := os.Open(script)
	if err != nil {
		return fmt.Errorf("unable to open editing script: %w", err)
	}
	defer f.Close()

	ed := NewEditor(doc, res, env.Cfg.Editing.HistoryLimit, log)
	defer ed.Close()
	if err := ed.Run(f); err != nil {
		if !cmd.Bool("keep-going") {
			return fmt.Errorf("editing script failed: %w", err)
		}
		log.Warn("Editing script had problems", zap.Error(err))
	}
	if err := doc.Check(); err != nil {
		return fmt.Errorf("edited formula is inconsistent: %w", err)
	}
	log.Info("Formula edited", zap.String("script", script), zap.Bool("undo", ed.history.CanUndo()), zap.Bool("redo", ed.history.CanRedo()))

	data, err := Generate(doc, format, env)
	if err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}
	return writeResult(dst, data, env, log)
}

// loadSource loads formula from file detecting its kind, "-" creates blank
// formula.
func loadSource(path string, log *zap.Logger) (*formula.Document, error) {
	if path == "-" {
		return formula.NewBlankDocument(log), nil
	}
	kind, enc, err := isFormulaFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to check file type: %w", err)
	}
	if kind == kindNone {
		return nil, fmt.Errorf("input was not recognized as formula (%s)", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &source{name: path, kind: kind}
	if err := s.load(selectReader(f, enc), log); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// writeResult writes data to named file honoring existing files mode or to
// STDOUT when name is empty.
func writeResult(name string, data []byte, env *state.LocalEnv, log *zap.Logger) error {
	if name == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	ok, err := prepareOutput(name, env.Existing, log)
	if err != nil || !ok {
		return err
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	log.Info("Result written", zap.String("file", name))
	return nil
}
