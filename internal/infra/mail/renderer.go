package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownTemplate = errors.New("unknown email template")

// Company is the sender identity printed in every email footer.
type Company struct {
	Name    string
	Address string
	Phone   string
	Email   string
	AppURL  string
}

// Renderer turns a template name plus job data into an HTML body.
type Renderer struct {
	company   Company
	templates map[string]*template.Template
	now       func() time.Time
}

var funcs = template.FuncMap{
	"money": formatMoney,
	"title": titleCase,
}

func NewRenderer(company Company) (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{company: company, templates: make(map[string]*template.Template, len(files)), now: time.Now}
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Has reports whether a template with this name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	view := make(map[string]any, len(data)+2)
	for k, v := range data {
		view[k] = v
	}
	view["company"] = r.company
	view["year"] = r.now().Year()

	var body bytes.Buffer
	if err := t.ExecuteTemplate(&body, "layout.html", view); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return body.String(), nil
}

// formatMoney renders 1234567.8 as $1,234,568. Job data arrives as JSON, so numbers are usually float64.
func formatMoney(v any) string {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return ""
	}
	return entity.FormatAmount(f)
}

// titleCase turns "pre-approved" or "in_progress" into "Pre Approved" / "In Progress".
func titleCase(v any) string {
	s, _ := v.(string)
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
