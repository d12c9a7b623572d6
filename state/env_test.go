package state

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/font/gofont/gomono"

	"kfm/config"
	"kfm/formula"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
}

func TestEnvFromContext_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond || uptime > time.Second {
		t.Errorf("Uptime() = %v", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	env := &LocalEnv{Log: testLogger(t)}
	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}

	empty := &LocalEnv{}
	empty.RedirectStdLog()
	if empty.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil")
	}
	empty.RestoreStdLog()
}

func TestLocalEnv_Resolver(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Layout.BaseSize = 20
	cfg.Render.Foreground = "red"

	env := &LocalEnv{Cfg: cfg, Log: testLogger(t)}
	res, err := env.Resolver()
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	if res.BaseSize != 20 || res.Family != "serif" {
		t.Errorf("unexpected resolver %+v", res)
	}
	if res.Foreground != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Errorf("Foreground = %v", res.Foreground)
	}
	if res.Metrics != env.Fonts {
		t.Error("resolver must measure with environment fonts")
	}

	p, err := env.PrepareFonts()
	if err != nil || p != env.Fonts {
		t.Error("fonts must be prepared once")
	}
}

func TestLocalEnv_FontsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Fixed.ttf"), gomono.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Layout.FontsDir = dir

	env := &LocalEnv{Cfg: cfg}
	p, err := env.PrepareFonts()
	if err != nil {
		t.Fatal(err)
	}
	f := formula.Font{Family: "fixed", Size: 10}
	if p.Advance(f, "i") != p.Advance(f, "m") {
		t.Error("font from configured directory is not used")
	}
}

func TestLocalEnv_Logger(t *testing.T) {
	env := &LocalEnv{}
	if env.Logger() == nil {
		t.Fatal("Logger() must never be nil")
	}
	log := testLogger(t)
	env.Log = log
	if env.Logger() != log {
		t.Error("Logger() must return configured logger")
	}
}
