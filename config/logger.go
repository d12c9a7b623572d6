package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"kfm/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite rotate"`
	// MaxSize in megabytes and MaxBackups are used by rotate mode only.
	MaxSize    int `yaml:"max_size,omitempty" validate:"gte=0"`
	MaxBackups int `yaml:"max_backups,omitempty" validate:"gte=0"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// consoleCores splits console output: errors go to stderr, everything else
// allowed by level goes to stdout.
func (conf *LoggingConfig) consoleCores() (low, high zapcore.Core) {
	var lowest zapcore.Level
	switch conf.ConsoleLogger.Level {
	case "normal":
		lowest = zapcore.InfoLevel
	case "debug":
		lowest = zapcore.DebugLevel
	default:
		return zapcore.NewNopCore(), zapcore.NewNopCore()
	}
	low = zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout)), zapcore.Lock(os.Stdout),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lowest <= lvl && lvl < zapcore.ErrorLevel
		}))
	high = zapcore.NewCore(newEncoder(consoleEncoderConfig(os.Stderr)), zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		}))
	return low, high
}

func openLogFile(name, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(name, flags, 0644)
}

// fileSink opens log destination. Rotating logs are handled by lumberjack,
// when destination is not accessible temporary file is used and its name is
// returned as redirected.
func (conf *LoggerConfig) fileSink(mode string) (ws zapcore.WriteSyncer, actual string, redirected bool, err error) {
	if mode == "rotate" {
		lj := &lumberjack.Logger{
			Filename:   conf.Destination,
			MaxSize:    conf.MaxSize,
			MaxBackups: conf.MaxBackups,
		}
		return zapcore.AddSync(lj), conf.Destination, false, nil
	}
	f, err := openLogFile(conf.Destination, mode)
	if err == nil {
		return zapcore.Lock(f), f.Name(), false, nil
	}
	f, terr := os.CreateTemp("", misc.GetAppName()+".*.log")
	if terr != nil {
		return nil, "", false, fmt.Errorf("unable to access file log destination (%s): %w", conf.Destination, err)
	}
	return zapcore.Lock(f), f.Name(), true, nil
}

// capturePanics sends crash output next to the log file or into temporary
// location.
func capturePanics(dir, mode string, rpt *Report) {
	ef, err := openLogFile(filepath.Join(dir, misc.GetAppName()+"-panic.log"), mode)
	if err != nil {
		if ef, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err != nil {
			return
		}
	}
	if err := debug.SetCrashOutput(ef, debug.CrashOptions{}); err == nil {
		rpt.Store("panic.log", ef.Name())
	}
	ef.Close()
}

// Prepare returns configured zap logger for use by the program.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	consoleLow, consoleHigh := conf.consoleCores()

	level, mode := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		// debug report always wants everything
		level = "debug"
		if mode != "rotate" {
			mode = "overwrite"
		}
	}

	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "normal":
		lvl = zapcore.InfoLevel
	default:
		core := zap.New(zapcore.NewTee(consoleHigh, consoleLow), zap.AddCaller())
		return core.Named(misc.GetAppName()), nil
	}

	capturePanics(filepath.Dir(conf.FileLogger.Destination), mode, rpt)

	ws, actual, redirected, err := conf.FileLogger.fileSink(mode)
	if err != nil {
		return nil, err
	}
	rpt.Store("final.log", actual)
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), ws, zap.NewAtomicLevelAt(lvl))

	core := zap.New(zapcore.NewTee(consoleHigh, consoleLow, fileCore), zap.AddCaller())
	if redirected {
		core.Warn("Log file was redirected to new location", zap.String("location", actual))
	}
	return core.Named(misc.GetAppName()), nil
}

// NewWriterLogger returns logger without any configuration writing
// everything to w. Used by commands which run before configuration is
// available and by tests.
func NewWriterLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	return zap.New(zapcore.NewCore(newEncoder(ec), zapcore.AddSync(w), level)).Named(misc.GetAppName())
}

// consoleEnc keeps console errors short, no verbose error output there.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	newFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
