// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"kfm/config"
	"kfm/fonts"
)

type envKey struct{}

// LocalEnv keeps everything commands need in a single place. It is created
// once per program run and travels in context.
type LocalEnv struct {
	Cfg   *config.Config
	Rpt   *config.Report
	Log   *zap.Logger
	Fonts *fonts.Provider

	// output settings after command line flags are applied on top of
	// configuration
	NoDirs   bool
	Existing config.ExistingMode
	CodePage encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	panic("formula environment is missing from context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// Logger returns program logger or no-op one before logging is configured.
func (e *LocalEnv) Logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends output of standard library logger to program log,
// until RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil {
		e.restoreStdLog = zap.RedirectStdLog(e.Log)
	}
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
