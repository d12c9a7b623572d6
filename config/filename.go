package config

import (
	"strings"
	"unicode"
)

// badFileName replaces names which are left empty after cleaning.
const badFileName = "formula"

// CleanFileName makes formula derived name usable as a single path
// segment: separators, control and platform reserved characters are
// dropped, surrounding spaces and leading dots are removed.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || isReservedRune(sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")
	if len(out) == 0 {
		return badFileName
	}
	if isReservedName(out) {
		return "_" + out
	}
	return out
}
