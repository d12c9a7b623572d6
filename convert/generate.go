package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"kfm/common"
	"kfm/config"
	"kfm/formula"
	"kfm/fsparser"
	"kfm/mathml"
	"kfm/render"
	"kfm/state"
)

// source is a formula being processed.
type source struct {
	// name is relative path including file name.
	name  string
	kind  srcKind
	index int
	doc   *formula.Document
}

// load reads formula from UTF-8 stream. Problems with parts of the formula
// are logged, only unusable input is an error.
func (s *source) load(r io.Reader, log *zap.Logger) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read formula source (%s): %w", s.name, err)
	}
	doc, err := Load(data, s.kind == kindLinear, log)
	if doc == nil {
		return fmt.Errorf("unable to load formula (%s): %w", s.name, err)
	}
	if err != nil {
		log.Warn("Formula loaded with problems", zap.String("file", s.name), zap.Error(err))
	}
	if err := doc.Check(); err != nil {
		return fmt.Errorf("formula tree (%s) is inconsistent: %w", s.name, err)
	}
	s.doc = doc
	return nil
}

// Load builds document from MathML markup or, when linear is set, from
// formula string. Document is returned together with non fatal problems.
func Load(data []byte, linear bool, log *zap.Logger) (*formula.Document, error) {
	if linear {
		return fsparser.Parse(strings.TrimSpace(string(data)), log)
	}
	return mathml.ReadBytes(data, log)
}

// RenderOptions converts configuration to painter options for format.
func RenderOptions(cfg *config.RenderConfig, format common.OutputFmt) (render.Options, error) {
	fg, bg, err := cfg.Colors()
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Format:           format,
		Padding:          cfg.Padding,
		Foreground:       fg,
		Background:       bg,
		DPI:              cfg.DPI,
		Zoom:             cfg.Zoom,
		Grayscale:        cfg.Grayscale,
		JPEGQuality:      cfg.JPEGQuality,
		MaxDimension:     cfg.MaxDimension,
		ShowPlaceholders: cfg.ShowPlaceholders,
	}, nil
}

// WriteOptions converts configuration to MathML serialization options.
func WriteOptions(cfg *config.MathMLConfig) mathml.WriteOptions {
	return mathml.WriteOptions{
		Indent:      cfg.Indent,
		Declaration: cfg.Declaration,
		NoNamespace: cfg.NoNamespace,
	}
}

// Generate produces formula representation in requested format.
func Generate(doc *formula.Document, format common.OutputFmt, env *state.LocalEnv) ([]byte, error) {
	switch {
	case format.IsImage():
		res, err := env.Resolver()
		if err != nil {
			return nil, err
		}
		opts, err := RenderOptions(&env.Cfg.Render, format)
		if err != nil {
			return nil, err
		}
		return render.New(env.Fonts, env.Log).Render(doc, res, opts)
	case format == common.OutputFmtMathml:
		return mathml.Marshal(doc, WriteOptions(&env.Cfg.Output.MathML))
	case format == common.OutputFmtLatex:
		var buf bytes.Buffer
		buf.WriteString(formula.ToLatex(doc))
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %s", format)
	}
}
