package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/color"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"kfm/common"
	"kfm/formula"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	LayoutConfig struct {
		BaseSize   float64 `yaml:"base_size" validate:"gt=0,lte=1000"`
		FontFamily string  `yaml:"font_family" validate:"required"`
		// FontsDir holds additional TTF/OTF files registered under their
		// file names.
		FontsDir string `yaml:"fonts_dir,omitempty" validate:"omitempty,dir"`
	}

	RenderConfig struct {
		Format           common.OutputFmt `yaml:"format"`
		DPI              float64          `yaml:"dpi" validate:"gte=36,lte=2400"`
		Zoom             float64          `yaml:"zoom" validate:"gt=0,lte=100"`
		Padding          float64          `yaml:"padding" validate:"gte=0"`
		Foreground       string           `yaml:"foreground" validate:"required"`
		Background       string           `yaml:"background"`
		Grayscale        bool             `yaml:"grayscale"`
		JPEGQuality      int              `yaml:"jpeg_quality" validate:"min=40,max=100"`
		MaxDimension     int              `yaml:"max_dimension" validate:"gte=0"`
		ShowPlaceholders bool             `yaml:"show_placeholders"`
	}

	EditingConfig struct {
		HistoryLimit int `yaml:"history_limit" validate:"gte=0"`
	}

	MathMLConfig struct {
		Indent      int  `yaml:"indent" validate:"gte=0,lte=8"`
		Declaration bool `yaml:"declaration"`
		NoNamespace bool `yaml:"no_namespace"`
	}

	OutputConfig struct {
		Existing      ExistingMode `yaml:"existing"`
		NoDirs        bool         `yaml:"nodirs"`
		NameTemplate  string       `yaml:"name_template"`
		Transliterate bool         `yaml:"transliterate"`
		MathML        MathMLConfig `yaml:"mathml"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Layout    LayoutConfig   `yaml:"layout"`
		Render    RenderConfig   `yaml:"render"`
		Editing   EditingConfig  `yaml:"editing"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

// Colors returns parsed foreground and background. Empty background means
// transparent.
func (conf *RenderConfig) Colors() (fg, bg color.RGBA, err error) {
	var ok bool
	if fg, ok = formula.ParseColor(conf.Foreground); !ok {
		return fg, bg, fmt.Errorf("invalid foreground color %q", conf.Foreground)
	}
	if conf.Background == "" {
		return fg, bg, nil
	}
	if bg, ok = formula.ParseColor(conf.Background); !ok {
		return fg, bg, fmt.Errorf("invalid background color %q", conf.Background)
	}
	return fg, bg, nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		if _, _, err := cfg.Render.Colors(); err != nil {
			return nil, err
		}
		if !cfg.Output.Existing.IsValid() {
			return nil, fmt.Errorf("invalid output existing mode %d", cfg.Output.Existing)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
