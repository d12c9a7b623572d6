package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"kfm/common"
	"kfm/formula"
	"kfm/fsparser"
	"kfm/state"
)

// Parse converts linear formula string given on command line.
func Parse(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	text := cmd.Args().Get(0)
	if strings.TrimSpace(text) == "" {
		return errors.New("no formula has been specified")
	}
	format, err := common.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		return fmt.Errorf("unknown output format requested: %w", err)
	}
	if err := configureEnv(cmd, env, log); err != nil {
		return err
	}

	doc, err := fsparser.Parse(text, log)
	if err != nil {
		if !cmd.Bool("keep-going") {
			return fmt.Errorf("unable to parse formula: %w", err)
		}
		log.Warn("Formula has errors", zap.Error(err))
	}
	data, err := Generate(doc, format, env)
	if err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}
	return writeResult(cmd.Args().Get(1), data, env, log)
}

// Dump outputs debug tree of formula with its layout.
func Dump(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if err := configureEnv(cmd, env, log); err != nil {
		return err
	}
	doc, err := loadSource(src, log)
	if err != nil {
		return err
	}
	if !cmd.Bool("no-layout") {
		res, err := env.Resolver()
		if err != nil {
			return err
		}
		formula.Layout(doc, res)
	}

	out := formula.Dump(doc)
	if cmd.Bool("latex") {
		out += "latex: " + formula.ToLatex(doc) + "\n"
	}
	return writeResult(cmd.Args().Get(1), []byte(out), env, log)
}
