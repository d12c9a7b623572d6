package fonts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var styleSuffixes = []struct {
	suffix string
	style  Style
}{
	// longest first
	{"-bolditalic", BoldItalic},
	{"-boldoblique", BoldItalic},
	{"-bold", Bold},
	{"-italic", Italic},
	{"-oblique", Italic},
	{"-regular", Regular},
}

// FamilyFromFile derives family and style from font file name, e.g.
// "STIX-BoldItalic.otf" is bold italic face of "stix".
func FamilyFromFile(name string) (string, Style) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for _, s := range styleSuffixes {
		if family, ok := strings.CutSuffix(base, s.suffix); ok && family != "" {
			return family, s.style
		}
	}
	return base, Regular
}

func isFont(data []byte) bool {
	return filetype.Is(data, "ttf") || filetype.Is(data, "otf")
}

// LoadDir registers every TrueType and OpenType font found under dir.
// Files which are not fonts are skipped, broken fonts are reported.
func (p *Provider) LoadDir(dir string) (int, error) {
	var (
		count int
		errs  error
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		if !isFont(data) {
			p.log.Debug("Skipping file, not a font", zap.String("file", path))
			return nil
		}
		family, style := FamilyFromFile(path)
		if err := p.Register(family, style, data); err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("unable to load fonts from %s: %w", dir, err)
	}
	return count, errs
}
