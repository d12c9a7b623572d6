package css

import (
	"strings"
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "red", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	// handles "0" case
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property  string
	Value     Value
	Important bool
}

// Declarations keeps declarations in source order.
type Declarations []Declaration

// Get returns the last declaration of property, important declarations win.
func (d Declarations) Get(property string) (Value, bool) {
	property = strings.ToLower(property)
	var (
		found     bool
		important bool
		res       Value
	)
	for _, decl := range d {
		if decl.Property != property || (important && !decl.Important) {
			continue
		}
		res, found, important = decl.Value, true, decl.Important
	}
	return res, found
}

// String serializes declarations back to inline style text.
func (d Declarations) String() string {
	var sb strings.Builder
	for i, decl := range d {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(decl.Property)
		sb.WriteString(": ")
		sb.WriteString(decl.Value.Raw)
		if decl.Important {
			sb.WriteString(" !important")
		}
	}
	return sb.String()
}
