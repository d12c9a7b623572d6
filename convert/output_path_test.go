package convert

import (
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"kfm/common"
	"kfm/config"
	"kfm/fsparser"
	"kfm/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Output.Transliterate = transliterate
	cfg.Output.NameTemplate = template
	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func setupTestSource(t *testing.T, name, text string) *source {
	t.Helper()
	doc, err := fsparser.Parse(text, nil)
	if err != nil {
		t.Fatalf("unable to parse %q: %v", text, err)
	}
	return &source{name: name, kind: kindLinear, index: 7, doc: doc}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		noDirs        bool
		transliterate bool
		template      string
		format        common.OutputFmt
		want          string
	}{
		{"no dirs", "algebra/quadratic.txt", true, false, "", common.OutputFmtSvg, "quadratic.svg"},
		{"with dirs", "algebra/quadratic.txt", false, false, "", common.OutputFmtPng, filepath.Join("algebra", "quadratic.png")},
		{"transliterate", "Квадрат.txt", true, true, "", common.OutputFmtMathml, "kvadrat.mml"},
		{"template", "a/f.txt", true, false, "{{ .Index }}-{{ .Name | upper }}", common.OutputFmtLatex, "7-F.tex"},
		{"template with subdirs", "a/f.txt", false, false, "{{ .Kind }}/{{ .Name }}", common.OutputFmtJpeg, filepath.Join("a", "linear", "f.jpg")},
		{"template escaping destination", "f.txt", true, false, "../../{{ .Name }}", common.OutputFmtSvg, "f.svg"},
		{"template error falls back", "f.txt", true, false, "{{ .Missing }", common.OutputFmtSvg, "f.svg"},
		{"template transliterated segments", "f.txt", true, true, "Алгебра/{{ .Name }}", common.OutputFmtSvg, filepath.Join("algebra", "f.svg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)
			s := setupTestSource(t, filepath.FromSlash(tt.src), "x+1")
			got := buildOutputPath(s, "/output", tt.format, env)
			if want := filepath.Join("/output", tt.want); got != want {
				t.Errorf("buildOutputPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestBuildDefaultFileName_BadName(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")
	if got := buildDefaultFileName("...txt", common.OutputFmtSvg, env); got == ".svg" || got == "" {
		t.Errorf("buildDefaultFileName() = %q", got)
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path string
		want []string
	}{
		{"a" + sep + "b" + sep + "c", []string{"a", "b", "c"}},
		{sep + "a" + sep + sep + "b" + sep, []string{"a", "b"}},
		{"." + sep + ".." + sep + "a", []string{"a"}},
		{" a " + sep + " ", []string{"a"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := splitAndCleanPath(tt.path); !slices.Equal(got, tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
