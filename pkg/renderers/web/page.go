package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const formTemplate = "form.html"

// pageEngine renders the pongo2 page templates, caching compiled templates
// by name.
type pageEngine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// newPageEngine loads templates from files, or the embedded set when nil.
// globals are callable from every template.
func newPageEngine(files fs.FS, globals map[string]any) (*pageEngine, error) {
	if files == nil {
		files = TemplatesFS()
	}
	set := pongo2.NewSet("bookform", pongo2.NewFSLoader(files))
	if set.Globals == nil {
		set.Globals = make(pongo2.Context)
	}
	for name, value := range globals {
		name = strings.TrimSpace(name)
		if name == "" || value == nil {
			continue
		}
		set.Globals[name] = value
	}
	return &pageEngine{
		set:       set,
		templates: make(map[string]*pongo2.Template),
	}, nil
}

// render executes name into memory so a failing template never leaves a
// half-written response behind.
func (e *pageEngine) render(name string, data pongo2.Context) ([]byte, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("web: page engine is nil")
	}
	tmpl, err := e.template(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return nil, fmt.Errorf("web: execute template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (e *pageEngine) template(name string) (*pongo2.Template, error) {
	name = strings.TrimSpace(name)

	e.mu.RLock()
	if tmpl, ok := e.templates[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("web: load template %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}

// TemplatesFS returns the embedded page templates rooted at the template
// directory.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
