package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
)

//go:embed templates/*.html
var embedded embed.FS

const (
	layoutFile    = "layout.html"
	logoFile      = "logo.jpg"
	signatureFile = "podpis.png"
)

// Renderer turns declarations into HTML documents. Templates named
// declaration_{type}_{lang}.html in dir replace the built-in ones.
type Renderer struct {
	dir       string
	pages     map[string]*template.Template
	logo      template.URL
	signature template.URL
}

type page struct {
	V         declaration.View
	L         Labels
	Logo      template.URL
	Signature template.URL
}

func TemplateName(typ declaration.Type, lang declaration.Language) string {
	return fmt.Sprintf("declaration_%s_%s.html", typ, lang)
}

func New(dir string) (*Renderer, error) {
	r := &Renderer{dir: dir, pages: map[string]*template.Template{}}

	layout, err := r.read(layoutFile)
	if err != nil {
		return nil, err
	}
	for _, typ := range []declaration.Type{declaration.TypeTech, declaration.TypeClient} {
		for _, lang := range []declaration.Language{declaration.LangPL, declaration.LangEN} {
			name := TemplateName(typ, lang)
			body, err := r.read(name)
			if err != nil {
				return nil, err
			}
			t, err := template.New(name).Funcs(funcs).Parse(string(layout))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", layoutFile, err)
			}
			if _, err := t.Parse(string(body)); err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			r.pages[name] = t
		}
	}

	if dir != "" {
		if r.logo, err = dataURI(filepath.Join(dir, logoFile), "image/jpeg"); err != nil {
			return nil, err
		}
		if r.signature, err = dataURI(filepath.Join(dir, signatureFile), "image/png"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) RenderHTML(d *declaration.Declaration) ([]byte, error) {
	name := TemplateName(d.Type, d.Language)
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("no template %s: %w", name, declaration.ErrUnknownType)
	}
	var buf bytes.Buffer
	err := t.Execute(&buf, page{
		V:         d.TemplateData(),
		L:         labels[d.Language],
		Logo:      r.logo,
		Signature: r.signature,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// read prefers an override in the templates directory over the embedded copy.
func (r *Renderer) read(name string) ([]byte, error) {
	if r.dir != "" {
		raw, err := os.ReadFile(filepath.Join(r.dir, name))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return embedded.ReadFile("templates/" + name)
}

func dataURI(path, mime string) (template.URL, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)), nil
}

var funcs = template.FuncMap{
	"items": items,
}

// items flattens a boilerplate value into printable lines. Maps are listed in
// key order.
func items(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, items(e)...)
		}
		return out
	case []string:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, items(t[k])...)
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
