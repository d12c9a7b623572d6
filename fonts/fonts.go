// Package fonts provides font metrics and faces for layout and rendering.
// Go fonts are always available, additional families could be registered
// from TrueType or OpenType data.
package fonts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"kfm/formula"
)

// Faces are created at 72 DPI, so one pixel is one point.
const dpi = 72

const (
	faceExpiration  = 10 * time.Minute
	cleanupInterval = time.Minute
)

// Style selects one of four faces of a family.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

func styleOf(f formula.Font) Style {
	switch {
	case f.Bold && f.Italic:
		return BoldItalic
	case f.Bold:
		return Bold
	case f.Italic:
		return Italic
	}
	return Regular
}

// DefaultFamily is used when requested family is not registered.
const (
	DefaultFamily   = "go"
	MonospaceFamily = "monospace"
)

var builtin = []struct {
	family string
	style  Style
	data   []byte
}{
	{DefaultFamily, Regular, goregular.TTF},
	{DefaultFamily, Bold, gobold.TTF},
	{DefaultFamily, Italic, goitalic.TTF},
	{DefaultFamily, BoldItalic, gobolditalic.TTF},
	{MonospaceFamily, Regular, gomono.TTF},
	{MonospaceFamily, Bold, gomonobold.TTF},
	{MonospaceFamily, Italic, gomonoitalic.TTF},
	{MonospaceFamily, BoldItalic, gomonobolditalic.TTF},
}

type familyKey struct {
	family string
	style  Style
}

// Provider implements formula.Metrics over real fonts. Faces and measured
// advances are memoized, it is safe for concurrent use.
type Provider struct {
	log *zap.Logger

	mu      sync.Mutex
	fonts   map[familyKey]*opentype.Font
	aliases map[string]string
	faces   *cache.Cache
	advance *cache.Cache
}

// New creates provider with Go fonts registered.
func New(log *zap.Logger) (*Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provider{
		log:     log.Named("fonts"),
		fonts:   make(map[familyKey]*opentype.Font),
		aliases: map[string]string{"mono": MonospaceFamily, "courier": MonospaceFamily},
		faces:   cache.New(faceExpiration, cleanupInterval),
		advance: cache.New(faceExpiration, cleanupInterval),
	}
	p.faces.OnEvicted(func(_ string, v any) {
		if f, ok := v.(font.Face); ok {
			_ = f.Close()
		}
	})
	for _, b := range builtin {
		if err := p.Register(b.family, b.style, b.data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register adds face of family. Family names are case insensitive.
func (p *Provider) Register(family string, style Style, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("unable to parse font %q: %w", family, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fonts[familyKey{strings.ToLower(family), style}] = f
	p.log.Debug("Font registered", zap.String("family", family), zap.Int("style", int(style)))
	return nil
}

// Alias makes requests for family served by target.
func (p *Provider) Alias(family, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aliases[strings.ToLower(family)] = strings.ToLower(target)
}

// lookup finds registered font for request, falling back to regular face
// of the family and then to default family. Must be called under lock.
func (p *Provider) lookup(f formula.Font) (*opentype.Font, string) {
	family := strings.ToLower(strings.TrimSpace(f.Family))
	if alias, ok := p.aliases[family]; ok {
		family = alias
	}
	style := styleOf(f)
	for _, k := range []familyKey{{family, style}, {family, Regular}, {DefaultFamily, style}} {
		if fnt, ok := p.fonts[k]; ok {
			return fnt, fmt.Sprintf("%s/%d", k.family, k.style)
		}
	}
	return p.fonts[familyKey{DefaultFamily, Regular}], DefaultFamily + "/0"
}

func faceKey(name string, size float64) string {
	return fmt.Sprintf("%s@%.3f", name, size)
}

// face returns memoized face, must be called under lock.
func (p *Provider) face(f formula.Font) (font.Face, string, error) {
	fnt, name := p.lookup(f)
	key := faceKey(name, f.Size)
	if v, ok := p.faces.Get(key); ok {
		return v.(font.Face), key, nil
	}
	if fnt == nil {
		return nil, key, fmt.Errorf("no font for %q", f.Family)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, key, fmt.Errorf("unable to create face %s: %w", key, err)
	}
	p.faces.Set(key, face, cache.DefaultExpiration)
	return face, key, nil
}

// WithFace calls fn with face for font. Faces are shared and not safe for
// concurrent use, fn runs with provider locked and must not call back into
// provider.
func (p *Provider) WithFace(f formula.Font, fn func(face font.Face)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, _, err := p.face(f)
	if err != nil {
		return err
	}
	fn(face)
	return nil
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Advance measures text width in points.
func (p *Provider) Advance(f formula.Font, text string) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	face, key, err := p.face(f)
	if err != nil {
		p.log.Warn("Unable to measure text, using approximation", zap.Error(err))
		return formula.ApproxMetrics{}.Advance(f, text)
	}
	akey := key + "|" + text
	if v, ok := p.advance.Get(akey); ok {
		return v.(float64)
	}
	w := toFloat(font.MeasureString(face, text))
	p.advance.Set(akey, w, cache.DefaultExpiration)
	return w
}

func (p *Provider) Ascent(f formula.Font) float64 {
	if f.Size <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	face, _, err := p.face(f)
	if err != nil {
		return formula.ApproxMetrics{}.Ascent(f)
	}
	return toFloat(face.Metrics().Ascent)
}

func (p *Provider) Descent(f formula.Font) float64 {
	if f.Size <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	face, _, err := p.face(f)
	if err != nil {
		return formula.ApproxMetrics{}.Descent(f)
	}
	return toFloat(face.Metrics().Descent)
}

// Flush drops memoized faces and measurements.
func (p *Provider) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faces.Flush()
	p.advance.Flush()
}
