package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"kfm/common"
	"kfm/config"
	"kfm/state"
)

// buildOutputPath returns output file path for the formula. It uses either
// default naming scheme or user-defined template and takes into account
// whether to preserve source directory structure on the output. Path is
// cleaned and transliterated if requested.
func buildOutputPath(s *source, dst string, format common.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(s.name, dst, env)
	defaultFile := buildDefaultFileName(s.name, format, env)

	if env.Cfg.Output.NameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(s, format, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, format, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, format common.OutputFmt, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Output.Transliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + format.Ext()
}

func expandOutputNameTemplate(s *source, format common.OutputFmt, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(s, config.NameTemplateFieldName, env.Cfg.Output.NameTemplate, format)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, format common.OutputFmt, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)
	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + format.Ext()
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

// splitAndCleanPath splits path into segments dropping empty ones and
// references to current or parent directory, so template could not escape
// destination.
func splitAndCleanPath(path string) []string {
	segments := make([]string, 0, 8)
	for seg := range strings.SplitSeq(path, string(os.PathSeparator)) {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segments = append(segments, seg)
	}
	return slices.Clip(segments)
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.Transliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
