package convert

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"kfm/common"
	"kfm/config"
	"kfm/state"
)

const fractionMathML = `<math><mfrac><mn>1</mn><mi>x</mi></mfrac></math>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func newBatch(t *testing.T, dst string, format common.OutputFmt) *batch {
	t.Helper()
	return &batch{
		dst:    dst,
		format: format,
		log:    zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected output %s: %v", path, err)
	}
	return string(data)
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	err := newBatch(t, t.TempDir(), common.OutputFmtLatex).process(ctx, "/nonexistent/path/file.mml")
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	tmpDir := t.TempDir()
	if err := newBatch(t, tmpDir, common.OutputFmtLatex).process(cancelCtx, tmpDir); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	tmpDir := t.TempDir()
	if err := newBatch(t, tmpDir, common.OutputFmtLatex).process(ctx, filepath.Join(tmpDir, "nonexistent.mml")); err == nil {
		t.Fatal("Expected error for directory with tail, got nil")
	}
}

func TestProcess_NotFormula(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "picture.svg")
	writeFile(t, src, "<svg/>")
	err := newBatch(t, tmpDir, common.OutputFmtLatex).process(ctx, src)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("Expected recognition error, got: %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "fraction.mml")
	writeFile(t, src, fractionMathML)

	b := newBatch(t, dstDir, common.OutputFmtLatex)
	if err := b.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dstDir, "fraction.tex")); !strings.Contains(got, `\frac{1}{x}`) {
		t.Errorf("latex output = %q", got)
	}
	if b.processed != 1 || b.failed != 0 {
		t.Errorf("processed %d, failed %d", b.processed, b.failed)
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a.mml"), fractionMathML)
	writeFile(t, filepath.Join(srcDir, "sub", "b.mml"), `<math><msqrt><mi>y</mi></msqrt></math>`)
	// same output name as b.mml which is processed first
	writeFile(t, filepath.Join(srcDir, "sub", "b.txt"), "b + 1")
	writeFile(t, filepath.Join(srcDir, "notes.md"), "# not a formula")
	writeZip(t, filepath.Join(srcDir, "pack", "more.zip"), map[string]string{"c.mml": `<math><mi>c</mi></math>`})

	b := newBatch(t, dstDir, common.OutputFmtMathml)
	if err := b.process(ctx, srcDir); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dstDir, "a.mml")); !strings.Contains(got, "<mfrac>") {
		t.Errorf("a.mml = %q", got)
	}
	if got := readFile(t, filepath.Join(dstDir, "sub", "b.mml")); !strings.Contains(got, "<msqrt>") {
		t.Errorf("b.mml = %q", got)
	}
	if got := readFile(t, filepath.Join(dstDir, "pack", "c.mml")); !strings.Contains(got, "<mi>c</mi>") {
		t.Errorf("c.mml = %q", got)
	}
	if b.processed != 3 || b.failed != 1 {
		t.Errorf("processed %d, failed %d", b.processed, b.failed)
	}
}

func TestProcess_ArchiveWithPath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dstDir := t.TempDir(), t.TempDir()
	arc := filepath.Join(srcDir, "formulas.zip")
	writeZip(t, arc, map[string]string{
		"algebra/f1.txt":  "a^2 + b^2",
		"algebra/f2.mml":  `<math><mi>y</mi></math>`,
		"geometry/f3.mml": `<math><mi>z</mi></math>`,
	})

	b := newBatch(t, dstDir, common.OutputFmtLatex)
	if err := b.process(ctx, filepath.Join(arc, "algebra")); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	readFile(t, filepath.Join(dstDir, "f1.tex"))
	readFile(t, filepath.Join(dstDir, "f2.tex"))
	if _, err := os.Stat(filepath.Join(dstDir, "f3.tex")); !os.IsNotExist(err) {
		t.Error("formula outside of requested archive path was processed")
	}

	b = newBatch(t, t.TempDir(), common.OutputFmtLatex)
	if err := b.process(ctx, filepath.Join(arc, "geometry", "f3.mml")); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if b.processed != 1 {
		t.Errorf("processed %d, want 1", b.processed)
	}
}

func TestProcess_ExistingModes(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "x.mml")
	writeFile(t, src, `<math><mi>x</mi></math>`)
	out := filepath.Join(dstDir, "x.tex")
	writeFile(t, out, "old")

	tests := []struct {
		mode      config.ExistingMode
		want      string
		processed int
		skipped   int
		failed    int
	}{
		{config.ExistingModeFail, "old", 0, 0, 1},
		{config.ExistingModeSkip, "old", 0, 1, 0},
		{config.ExistingModeOverwrite, "x\n", 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			env.Existing = tt.mode
			b := newBatch(t, dstDir, common.OutputFmtLatex)
			if err := b.process(ctx, src); err != nil {
				t.Fatalf("process() error = %v", err)
			}
			if got := readFile(t, out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if b.processed != tt.processed || b.skipped != tt.skipped || b.failed != tt.failed {
				t.Errorf("processed %d, skipped %d, failed %d", b.processed, b.skipped, b.failed)
			}
		})
	}
}

func TestPrepareOutput_Fail(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.svg")
	writeFile(t, out, "<svg/>")
	_, err := prepareOutput(out, config.ExistingModeFail, zap.NewNop())
	if !errors.Is(err, ErrOutputExists) {
		t.Errorf("prepareOutput() error = %v, want %v", err, ErrOutputExists)
	}
}

func TestProcessFormula_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	env.Rpt = rpt

	src := filepath.Join(dir, "src", "f.txt")
	writeFile(t, src, "x/2")
	b := newBatch(t, filepath.Join(dir, "out"), common.OutputFmtSvg)
	if err := b.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := zip.OpenReader(filepath.Join(dir, "report.zip"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "result-0001-") && strings.HasSuffix(f.Name, ".svg") {
			found = true
		}
	}
	if !found {
		t.Error("rendered result was not stored in report")
	}
}

func TestRun_CommandLine(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "sub", "f.mml"), fractionMathML)
	writeFile(t, filepath.Join(dstDir, "f.png"), "old")

	cmd := &cli.Command{
		Name:   "render",
		Action: Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to"},
			&cli.StringFlag{Name: "existing"},
			&cli.BoolFlag{Name: "overwrite"},
			&cli.BoolFlag{Name: "nodirs"},
			&cli.StringFlag{Name: "force-zip-cp"},
		},
	}
	err := cmd.Run(ctx, []string{"render", "--to", "png", "--nodirs", "--existing", "overwrite", "--force-zip-cp", "IBM866", srcDir, dstDir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dstDir, "f.png")); !strings.HasPrefix(got, "\x89PNG") {
		t.Error("expected PNG output")
	}
	if !env.NoDirs || env.Existing != config.ExistingModeOverwrite || env.CodePage == nil {
		t.Errorf("command line was not applied: nodirs %t, existing %s, codepage %v", env.NoDirs, env.Existing, env.CodePage)
	}
}

func TestRun_BadFormat(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cmd := &cli.Command{
		Name:   "render",
		Action: Run,
		Flags:  []cli.Flag{&cli.StringFlag{Name: "to"}},
	}
	if err := cmd.Run(ctx, []string{"render", "--to", "gif", t.TempDir()}); err == nil {
		t.Error("expected error for unknown format")
	}
}
