// The only reason this package exists is because output format enum is needed
// by both configuration and conversion code and I do not want convert to
// depend on config internals for it.
package common

//go:generate go tool go-enum --marshal --names

// Specification of requested output type.
// ENUM(svg, png, jpeg, mathml, latex)
type OutputFmt int

// IsImage reports whether format requires painting the formula.
func (o OutputFmt) IsImage() bool {
	return o == OutputFmtSvg || o == OutputFmtPng || o == OutputFmtJpeg
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtSvg:
		return ".svg"
	case OutputFmtPng:
		return ".png"
	case OutputFmtJpeg:
		return ".jpg"
	case OutputFmtMathml:
		return ".mml"
	case OutputFmtLatex:
		return ".tex"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
