package opdict

import (
	"testing"
)

func TestEntriesSorted(t *testing.T) {
	entries := Entries()
	if len(entries) != len(rows) {
		t.Fatalf("Entries() returned %d entries, want %d", len(entries), len(rows))
	}
	for i := 1; i < len(entries); i++ {
		if compare(entries[i-1], entries[i]) >= 0 {
			t.Fatalf("entries %d and %d out of order: %q/%s, %q/%s", i-1, i,
				entries[i-1].Text, entries[i-1].Form, entries[i].Text, entries[i].Form)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		form      Form
		found     bool
		lspace    string
		rspace    string
		fence     bool
		separator bool
		stretchy  bool
		largeop   bool
		accent    bool
	}{
		{name: "open paren", text: "(", form: FormPrefix, found: true, lspace: "0em", rspace: "0em", fence: true, stretchy: true},
		{name: "open paren infix", text: "(", form: FormInfix, found: false},
		{name: "comma", text: ",", form: FormInfix, found: true, lspace: "0em", rspace: "verythickmathspace", separator: true},
		{name: "plus infix", text: "+", form: FormInfix, found: true, lspace: "mediummathspace", rspace: "mediummathspace"},
		{name: "plus prefix", text: "+", form: FormPrefix, found: true, lspace: "0em", rspace: "veryverythinmathspace"},
		{name: "sum", text: "∑", form: FormPrefix, found: true, lspace: "0em", rspace: "verythinmathspace", stretchy: true, largeop: true},
		{name: "hat", text: "^", form: FormPostfix, found: true, lspace: "0em", rspace: "0em", stretchy: true, accent: true},
		{name: "unknown", text: "@", form: FormInfix, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Lookup(tt.text, tt.form)
			if ok != tt.found {
				t.Fatalf("Lookup(%q, %s) found = %v, want %v", tt.text, tt.form, ok, tt.found)
			}
			if !ok {
				return
			}
			if e.LSpace != tt.lspace || e.RSpace != tt.rspace {
				t.Errorf("spaces = %q/%q, want %q/%q", e.LSpace, e.RSpace, tt.lspace, tt.rspace)
			}
			if e.Fence != tt.fence || e.Separator != tt.separator || e.Stretchy != tt.stretchy {
				t.Errorf("fence/separator/stretchy = %v/%v/%v, want %v/%v/%v",
					e.Fence, e.Separator, e.Stretchy, tt.fence, tt.separator, tt.stretchy)
			}
			if e.LargeOp != tt.largeop || e.Accent != tt.accent {
				t.Errorf("largeop/accent = %v/%v, want %v/%v", e.LargeOp, e.Accent, tt.largeop, tt.accent)
			}
		})
	}
}

func TestResolveFallback(t *testing.T) {
	// "(" has only prefix form, infix request falls back to it
	e := Resolve("(", FormInfix)
	if e.Form != FormPrefix || !e.Fence {
		t.Errorf("Resolve(\"(\", infix) = %+v, want prefix fence", e)
	}

	// "!" has postfix only
	e = Resolve("!", FormPrefix)
	if e.Form != FormPostfix {
		t.Errorf("Resolve(\"!\", prefix).Form = %s, want postfix", e.Form)
	}

	e = Resolve("@", FormPostfix)
	want := Default("@", FormPostfix)
	if e != want {
		t.Errorf("Resolve(\"@\") = %+v, want %+v", e, want)
	}
	if e.MaxSize != "infinity" || e.LSpace != "thickmathspace" {
		t.Errorf("default entry = %+v", e)
	}
}

func TestParseForm(t *testing.T) {
	for _, name := range FormNames() {
		f, err := ParseForm(name)
		if err != nil {
			t.Fatalf("ParseForm(%q) error: %v", name, err)
		}
		if f.String() != name {
			t.Errorf("Form(%q).String() = %q", name, f.String())
		}
	}
	if _, err := ParseForm("around"); err == nil {
		t.Error("ParseForm(\"around\") expected error")
	}
}
