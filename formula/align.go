package formula

//go:generate go tool go-enum

// Align is horizontal or vertical alignment value of MathML attributes.
// ENUM(left, center, right, top, bottom, baseline, axis)
type Align int
