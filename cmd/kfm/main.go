package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"kfm/common"
	"kfm/config"
	"kfm/convert"
	"kfm/fsparser"
	"kfm/misc"
	"kfm/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Errors from subcommands are regular errors, cli.Exit() is not used.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown command %q, nothing to do\n", name)
}

var formatUsage = "output `TYPE` (supported types: " + strings.Join(common.OutputFmtNames(), ", ") + ")"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "existing", Aliases: []string{"ex"},
			Usage: "what to do with existing output `MODE` (" + strings.Join(config.ExistingModeNames(), ", ") + "), overrides configuration"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "shortcut for --existing overwrite"},
	}
}

func batchFlags(withFormat bool) []cli.Flag {
	var flags []cli.Flag
	if withFormat {
		flags = append(flags, &cli.StringFlag{Name: "to", Usage: formatUsage + ", default is taken from configuration"})
	}
	flags = append(flags, outputFlags()...)
	return append(flags,
		&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
		&cli.StringFlag{Name: "force-zip-cp",
			Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
	)
}

const sourceHelp = `
SOURCE:
    path to formula file(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.mml"
        path to a directory: "[path_to_directory]directory" - recursively process all files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular file: "[path_to_archive]archive.zip[path_in_archive]/file.mml"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all formulas under archive path

    MathML files (.mml, .mathml, .xml) are recognized by content, linear formula
    strings (.txt, .kfs) by extension. Processing of archives inside archives is
    not supported.

DESTINATION:
    always a path, output file name(s) and extension will be derived from other parameters
    if absent - current working directory
`

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "formula editing engine for MathML and linear formula strings",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:               "render",
				Usage:              "Renders formula(s) to image, MathML or LaTeX",
				OnUsageError:       usageErrorHandler,
				Action:             convert.Run,
				Flags:              batchFlags(true),
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + sourceHelp,
			},
			{
				Name:               "normalize",
				Usage:              "Reads formula(s) and writes them back as canonical MathML",
				OnUsageError:       usageErrorHandler,
				Action:             convert.RunAs(common.OutputFmtMathml),
				Flags:              batchFlags(false),
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + sourceHelp,
			},
			{
				Name:               "latex",
				Usage:              "Exports formula(s) as LaTeX",
				OnUsageError:       usageErrorHandler,
				Action:             convert.RunAs(common.OutputFmtLatex),
				Flags:              batchFlags(false),
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + sourceHelp,
			},
			{
				Name:         "parse",
				Usage:        "Converts linear formula string (\"a = b + c/d^e\")",
				OnUsageError: usageErrorHandler,
				Action:       convert.Parse,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "to", Value: common.OutputFmtMathml.String(), Usage: formatUsage},
					&cli.BoolFlag{Name: "keep-going", Aliases: []string{"k"}, Usage: "produce output even if formula has errors"},
				}, outputFlags()...),
				ArgsUsage: "FORMULA [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
FORMULA:
    linear formula: numbers, names, + - * / ^ (or **), =, parentheses,
    functions name(args), matrices [[1,2],[3,4]]. Known function names
    are sqrt, root, pow, sum, prod and int, known symbols:
        %s

DESTINATION:
    file name to write result to, if absent - STDOUT
`, cli.CommandHelpTemplate, strings.Join(fsparser.Symbols(), " ")),
			},
			{
				Name:         "edit",
				Usage:        "Applies editing script to formula",
				OnUsageError: usageErrorHandler,
				Action:       convert.Edit,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "to", Usage: formatUsage + ", default mathml"},
					&cli.BoolFlag{Name: "keep-going", Aliases: []string{"k"}, Usage: "produce output even if some script commands failed"},
				}, outputFlags()...),
				ArgsUsage: "SOURCE SCRIPT [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    formula file (MathML or linear formula string), "-" starts with empty formula

SCRIPT:
    file with editing commands, one per line:
        move left|right|up|down|home|end [N]
        select on|off
        click X Y
        type TEXT
        insert TAG          (mfrac, msqrt, mroot, msub, ..., mtd adds column, mtr adds row)
        formula STRING      (linear formula)
        paste [MARKUP]      (clipboard when markup is absent)
        copy | cut
        delete | backspace
        split
        attr NAME VALUE
        undo [N] | redo [N]

DESTINATION:
    file name to write result to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "dump",
				Usage:        "Outputs formula tree with layout information",
				OnUsageError: usageErrorHandler,
				Action:       convert.Dump,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "no-layout", Usage: "do not lay out formula before dumping"},
					&cli.BoolFlag{Name: "latex", Usage: "add LaTeX form of the formula"},
				}, outputFlags()...),
				ArgsUsage: "SOURCE [DESTINATION]",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
