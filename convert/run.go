package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"kfm/archive"
	"kfm/common"
	"kfm/config"
	"kfm/state"
)

// ErrOutputExists is returned when output file is present and configuration
// does not allow to replace it.
var ErrOutputExists = errors.New("output file already exists")

// Run processes formula sources (files, directories and archives) producing
// output in the format requested on command line.
func Run(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	format := env.Cfg.Render.Format
	if cmd.IsSet("to") {
		f, err := common.ParseOutputFmt(cmd.String("to"))
		if err != nil {
			return fmt.Errorf("unknown output format requested: %w", err)
		}
		format = f
	}
	return run(ctx, cmd, format)
}

// RunAs returns action processing sources into fixed format.
func RunAs(format common.OutputFmt) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return run(ctx, cmd, format)
	}
}

func run(ctx context.Context, cmd *cli.Command, format common.OutputFmt) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := configureEnv(cmd, env, log); err != nil {
		return err
	}
	if _, err := env.PrepareFonts(); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	b := &batch{dst: dst, format: format, log: log}
	if err := b.process(ctx, src); err != nil {
		return err
	}
	log.Info("Processing results",
		zap.Int("processed", b.processed),
		zap.Int("skipped", b.skipped),
		zap.Int("failed", b.failed))
	if b.failed > 0 {
		return fmt.Errorf("%d of %d formulas failed", b.failed, b.processed+b.skipped+b.failed)
	}
	return nil
}

// configureEnv merges command line flags with configuration.
func configureEnv(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) error {
	env.NoDirs = env.Cfg.Output.NoDirs || cmd.Bool("nodirs")
	env.Existing = env.Cfg.Output.Existing
	if cmd.IsSet("existing") {
		mode, err := config.ParseExistingMode(cmd.String("existing"))
		if err != nil {
			return fmt.Errorf("unknown existing files mode: %w", err)
		}
		env.Existing = mode
	}
	if cmd.Bool("overwrite") {
		env.Existing = config.ExistingModeOverwrite
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			env.CodePage = enc
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}
	return nil
}

// batch keeps state of single processing run.
type batch struct {
	dst    string
	format common.OutputFmt
	log    *zap.Logger

	index                      int
	processed, skipped, failed int
}

// process determines the input type (directory, archive with optional path
// inside or single file) and processes accordingly.
func (b *batch) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := b.processDir(ctx, head); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := b.processArchive(ctx, head, filepath.ToSlash(tail), ""); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		kind, enc, err := isFormulaFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if kind != kindNone && len(tail) == 0 {
			// formula cannot have tail
			b.processFile(ctx, head, filepath.Base(head), kind, enc)
			break
		}
		return fmt.Errorf("input was not recognized as formula (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding formula files and archives and
// processes them in natural order.
func (b *batch) processDir(ctx context.Context, dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			b.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			count++
			if err := b.processArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
				b.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		kind, enc, err := isFormulaFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if kind == kindNone {
			b.log.Debug("Skipping file, not recognized as formula or archive", zap.String("file", path))
			continue
		}
		count++
		b.processFile(ctx, path, rel, kind, enc)
	}
	if count == 0 {
		b.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

func (b *batch) processFile(ctx context.Context, path, name string, kind srcKind, enc srcEncoding) {
	file, err := os.Open(path)
	if err != nil {
		b.failed++
		b.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return
	}
	defer file.Close()
	b.processOne(ctx, selectReader(file, enc), name, kind)
}

// processArchive walks all files inside archive, finds formulas under
// "pathIn" and processes them. Output names are prefixed with "pathOut".
func (b *batch) processArchive(ctx context.Context, path, pathIn, pathOut string) error {
	count := 0
	cp := state.EnvFromContext(ctx).CodePage

	err := archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind, enc, err := isFormulaInArchive(f)
		if err != nil {
			b.log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if kind == kindNone {
			b.log.Debug("Skipping file, not recognized as formula", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}
		count++

		r, err := f.Open()
		if err != nil {
			b.failed++
			b.log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				b.log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		b.processOne(ctx, selectReader(r, enc), filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), kind)
		return nil
	})
	if err == nil && count == 0 {
		b.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

// processOne handles a single formula and accounts for the result, so one
// broken formula does not stop the batch.
func (b *batch) processOne(ctx context.Context, r io.Reader, name string, kind srcKind) {
	b.index++
	written, err := processFormula(ctx, r, &source{name: name, kind: kind, index: b.index}, b.dst, b.format, b.log)
	switch {
	case err != nil:
		b.failed++
		b.log.Error("Unable to process formula", zap.String("file", name), zap.Error(err))
	case written:
		b.processed++
	default:
		b.skipped++
	}
}

// processFormula processes single formula. "s.name" is part of the source
// path (always including file name) relative to the original path: base file
// name when actual file was specified, relative path inside archive or
// directory otherwise. "dst" is the destination directory. Reports whether
// output was written.
func processFormula(ctx context.Context, r io.Reader, s *source, dst string, format common.OutputFmt, log *zap.Logger) (written bool, rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Debug("Formula processing starting", zap.String("from", s.name), zap.Stringer("kind", s.kind))
	defer func(start time.Time) {
		// rasterizing and font code is not ours, keep going with the batch
		if r := recover(); r != nil {
			log.Error("Formula processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			written, rerr = false, fmt.Errorf("processing panic: %v", r)
		} else if written {
			log.Info("Formula processed", zap.String("from", s.name), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	if err := s.load(r, log); err != nil {
		return false, err
	}

	data, err := Generate(s.doc, format, env)
	if err != nil {
		return false, fmt.Errorf("unable to generate output: %w", err)
	}

	outputName = buildOutputPath(s, dst, format, env)
	ok, err := prepareOutput(outputName, env.Existing, log)
	if err != nil || !ok {
		return false, err
	}
	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return false, fmt.Errorf("unable to write output: %w", err)
	}

	// Store result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%04d-%s%s", s.index, s.doc.UUID, format.Ext()), outputName)
	}
	return true, nil
}

// prepareOutput makes sure output file could be written according to mode,
// false means file must be left alone.
func prepareOutput(name string, mode config.ExistingMode, log *zap.Logger) (bool, error) {
	_, err := os.Stat(name)
	switch {
	case err == nil:
		switch mode {
		case config.ExistingModeSkip:
			log.Info("Output exists, skipping", zap.String("file", name))
			return false, nil
		case config.ExistingModeOverwrite:
			log.Warn("Overwriting existing file", zap.String("file", name))
			if err := os.Remove(name); err != nil {
				return false, err
			}
			return true, nil
		default:
			return false, fmt.Errorf("%w: %s", ErrOutputExists, name)
		}
	case !os.IsNotExist(err):
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return false, fmt.Errorf("unable to create output directory: %w", err)
	}
	return true, nil
}
