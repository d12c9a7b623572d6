package formula

import (
	"testing"
)

func TestToLatex(t *testing.T) {
	tests := []struct {
		name  string
		build func(d *Document) ID
		want  string
	}{
		{
			name: "fraction",
			build: func(d *Document) ID {
				f := d.NewElement(KindFraction)
				d.ReplaceChild(d.Element(f).Child(0), d.NewToken(KindNumber, "1"))
				d.ReplaceChild(d.Element(f).Child(1), d.NewToken(KindIdentifier, "x"))
				return f
			},
			want: `\frac{1}{x}`,
		},
		{
			name: "root",
			build: func(d *Document) ID {
				f := d.NewElement(KindRoot)
				d.ReplaceChild(d.Element(f).Child(SlotRadicand), d.NewToken(KindIdentifier, "y"))
				d.ReplaceChild(d.Element(f).Child(SlotIndex), d.NewToken(KindNumber, "3"))
				return f
			},
			want: `\sqrt[3]{y}`,
		},
		{
			name: "subsup",
			build: func(d *Document) ID {
				f := d.NewElement(KindSubsup)
				d.ReplaceChild(d.Element(f).Child(0), d.NewToken(KindIdentifier, "a"))
				d.ReplaceChild(d.Element(f).Child(1), d.NewToken(KindIdentifier, "i"))
				d.ReplaceChild(d.Element(f).Child(2), d.NewToken(KindNumber, "2"))
				return f
			},
			want: `{a}_{i}^{2}`,
		},
		{
			name: "sum limits",
			build: func(d *Document) ID {
				f := d.NewElement(KindUnderover)
				d.ReplaceChild(d.Element(f).Child(0), d.NewToken(KindOperator, "∑"))
				d.ReplaceChild(d.Element(f).Child(1), d.NewToken(KindIdentifier, "k"))
				d.ReplaceChild(d.Element(f).Child(2), d.NewToken(KindIdentifier, "n"))
				return f
			},
			want: `\sum _{k}^{n}`,
		},
		{
			name: "accent",
			build: func(d *Document) ID {
				f := d.NewElement(KindOver)
				d.ReplaceChild(d.Element(f).Child(0), d.NewToken(KindIdentifier, "v"))
				d.ReplaceChild(d.Element(f).Child(1), d.NewToken(KindOperator, "→"))
				return f
			},
			want: `\vec{v}`,
		},
		{
			name: "fenced",
			build: func(d *Document) ID {
				f := d.NewBare(KindFenced)
				d.AppendChild(f, d.NewToken(KindIdentifier, "a"))
				d.AppendChild(f, d.NewToken(KindIdentifier, "b"))
				d.SetAttribute(f, "open", "[")
				return f
			},
			want: `\left[ a, b \right)`,
		},
		{
			name: "table",
			build: func(d *Document) ID {
				tbl := d.NewTable(2, 2)
				n := 1
				for _, row := range d.Element(tbl).Children() {
					for _, entry := range d.Element(row).Children() {
						d.ReplaceChild(d.Element(entry).Child(0), d.NewToken(KindNumber, string(rune('0'+n))))
						n++
					}
				}
				return tbl
			},
			want: `\begin{matrix}1 & 2 \\ 3 & 4\end{matrix}`,
		},
		{
			name: "escaping",
			build: func(d *Document) ID {
				return d.NewToken(KindText, "50% & more")
			},
			want: `\text{50\% \& more}`,
		},
		{
			name: "placeholder",
			build: func(d *Document) ID {
				return d.NewElement(KindSqrt)
			},
			want: `\sqrt{{}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument(t)
			id := tt.build(doc)
			if !doc.ReplaceChild(doc.Element(doc.Root()).Child(0), id) {
				t.Fatal("cannot attach test content")
			}
			if got := ToLatex(doc); got != tt.want {
				t.Errorf("ToLatex() = %q, want %q", got, tt.want)
			}
		})
	}
}
