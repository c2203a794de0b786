// Package templates renders the console's HTML pages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/Haymar136/faceflow-student-hub/pkg/shell"
)

//go:embed *.html
var files embed.FS

// page names
const (
	Login      = "login"
	Loading    = "loading"
	Dashboard  = "dashboard"
	Register   = "register"
	Attendance = "attendance"
	Admin      = "admin"
	NotFound   = "notfound"
)

var pageNames = []string{Login, Loading, Dashboard, Register, Attendance, Admin, NotFound}

// Page is the data every template receives. Content holds the page specific
// values.
type Page struct {
	Title   string
	Nav     shell.View
	Notice  string
	Error   string
	Content any
}

type Templates struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
}

// Parse compiles every page together with the shared layout.
func Parse() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// MustParse is Parse for package initialisation and tests.
func MustParse() *Templates {
	t, err := Parse()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the named page into w.
func (t *Templates) Render(w io.Writer, name string, p Page) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", p)
}

// Write renders the page and sends it with status. Nothing is written if
// rendering fails.
func (t *Templates) Write(w http.ResponseWriter, status int, name string, p Page) error {
	var buf bytes.Buffer
	if err := t.Render(&buf, name, p); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
