package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"kfm/common"
	"kfm/config"
	"kfm/formula"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// Name is source file name without extension.
	Name string
	// SourceFile is source path relative to processed directory or archive.
	SourceFile string
	SourceDir  string
	Kind       string
	Format     string
	// Index is 1 based position of formula in the batch.
	Index      int
	DocumentID string
	Elements   int
	Latex      string
}

func countElements(doc *formula.Document) int {
	n := 0
	doc.Walk(doc.Root(), func(*formula.Element, int) bool {
		n++
		return true
	})
	return n
}

func buildValues(s *source, name config.TemplateFieldName, format common.OutputFmt) Values {
	dir := filepath.ToSlash(filepath.Dir(s.name))
	if dir == "." {
		dir = ""
	}
	return Values{
		Context:    string(name),
		Name:       strings.TrimSuffix(filepath.Base(s.name), filepath.Ext(s.name)),
		SourceFile: filepath.ToSlash(s.name),
		SourceDir:  dir,
		Kind:       s.kind.String(),
		Format:     format.String(),
		Index:      s.index,
		DocumentID: s.doc.UUID.String(),
		Elements:   countElements(s.doc),
		Latex:      formula.ToLatex(s.doc),
	}
}

func expandTemplate(s *source, name config.TemplateFieldName, field string, format common.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, buildValues(s, name, format)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
