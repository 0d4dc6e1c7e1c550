package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Page declares a renderable page: its identifier, its template file and the
// context keys the template expects.
type Page struct {
	Name string
	File string
	Keys []string
}

// Renderer renders declared pages. All templates are parsed up front, so a
// Renderer that was built successfully can only fail on bad context data.
type Renderer struct {
	pages     map[string]Page
	templates map[string]*template.Template
}

// funcs are available to every template
var funcs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
}

// New parses every page from fsys. Each page file is parsed together with the
// layout file, which must define a template named "layout".
func New(fsys fs.FS, layout string, pages ...Page) (*Renderer, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages declared")
	}

	r := &Renderer{
		pages:     make(map[string]Page, len(pages)),
		templates: make(map[string]*template.Template, len(pages)),
	}

	for _, p := range pages {
		if p.Name == "" || p.File == "" {
			return nil, fmt.Errorf("page must have a name and a file: %+v", p)
		}
		if _, dup := r.pages[p.Name]; dup {
			return nil, fmt.Errorf("page declared twice: %s", p.Name)
		}

		tmpl, err := template.New(p.Name).Funcs(funcs).ParseFS(fsys, layout, p.File)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", p.Name, err)
		}
		if tmpl.Lookup("layout") == nil {
			return nil, fmt.Errorf("page %s: %s does not define \"layout\"", p.Name, layout)
		}

		r.pages[p.Name] = p
		r.templates[p.Name] = tmpl
	}

	return r, nil
}

// Render renders the named page with data. The output is fully buffered, so
// on error nothing has been produced.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	page, ok := r.pages[name]
	if !ok {
		return "", &RenderError{Page: name, Reason: ErrUnknownPage}
	}

	if missing := missingKeys(page.Keys, data); len(missing) > 0 {
		return "", &RenderError{
			Page:   name,
			Reason: ErrMissingKey,
			Err:    fmt.Errorf("%s", strings.Join(missing, ", ")),
		}
	}

	var buf bytes.Buffer
	if err := r.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", &RenderError{Page: name, Reason: ErrExecute, Err: err}
	}

	return buf.String(), nil
}

// Has reports whether a page is declared
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Pages returns the declared page names in sorted order
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func missingKeys(keys []string, data map[string]any) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
