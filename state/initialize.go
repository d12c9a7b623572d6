package state

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"kfm/fonts"
	"kfm/formula"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// PrepareFonts creates font provider once and loads fonts configured by
// layout section.
func (e *LocalEnv) PrepareFonts() (*fonts.Provider, error) {
	if e.Fonts != nil {
		return e.Fonts, nil
	}
	log := e.Logger()
	p, err := fonts.New(log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare fonts: %w", err)
	}
	if e.Cfg != nil && e.Cfg.Layout.FontsDir != "" {
		n, err := p.LoadDir(e.Cfg.Layout.FontsDir)
		if err != nil {
			// partially loaded directory is still usable
			log.Warn("Problems loading fonts", zap.String("dir", e.Cfg.Layout.FontsDir), zap.Error(err))
		}
		log.Debug("Fonts loaded", zap.String("dir", e.Cfg.Layout.FontsDir), zap.Int("count", n))
	}
	e.Fonts = p
	return p, nil
}

// Resolver returns attribute resolver configured by layout section.
func (e *LocalEnv) Resolver() (*formula.Resolver, error) {
	p, err := e.PrepareFonts()
	if err != nil {
		return nil, err
	}
	res := formula.NewResolver(p)
	if e.Cfg == nil {
		return res, nil
	}
	res.BaseSize = e.Cfg.Layout.BaseSize
	res.Family = e.Cfg.Layout.FontFamily
	if fg, _, err := e.Cfg.Render.Colors(); err == nil {
		res.Foreground = fg
	}
	return res, nil
}
