package config

import (
	"os"
	"testing"
)

func TestCleanFileName(t *testing.T) {
	sep := string(os.PathSeparator)
	tests := []struct {
		in   string
		want string
	}{
		{"fraction", "fraction"},
		{"a" + sep + "b", "ab"},
		{"  ..hidden ", "hidden"},
		{"line\nbreak\t", "linebreak"},
		{"\x00\x1f", badFileName},
		{"...", badFileName},
		{"", badFileName},
		{"Квадрат", "Квадрат"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanFileName(tt.in); got != tt.want {
				t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
