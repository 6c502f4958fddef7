package html

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"shophub/core/money"
	"shophub/core/validation"
)

//go:embed templates
var templateFS embed.FS

// Template renders one page inside its layout. Pages under admin/ use the
// admin layout.
type Template struct {
	pages map[string]*template.Template
}

func NewTemplate(mediaHosts []string) (*Template, error) {
	base, err := template.New("").Funcs(funcMap(mediaHosts)).ParseFS(templateFS,
		"templates/layout.html", "templates/admin_layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	t := &Template{pages: make(map[string]*template.Template)}
	for _, dir := range []string{"pages", "admin"} {
		files, err := fs.Glob(templateFS, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			page, err := base.Clone()
			if err != nil {
				return nil, err
			}
			if _, err := page.ParseFS(templateFS, f); err != nil {
				return nil, fmt.Errorf("parse %s: %w", f, err)
			}
			name := path.Base(f)
			if dir == "admin" {
				name = "admin/" + name
			}
			t.pages[name] = page
		}
	}
	return t, nil
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	layout := "layout"
	if strings.HasPrefix(name, "admin/") {
		layout = "admin_layout"
	}
	return page.ExecuteTemplate(w, layout, data)
}

// Pages lists the loaded page names.
func (t *Template) Pages() []string {
	names := make([]string, 0, len(t.pages))
	for n := range t.pages {
		names = append(names, n)
	}
	return names
}

func funcMap(mediaHosts []string) template.FuncMap {
	return template.FuncMap{
		"money": money.Format,
		"times": func(d decimal.Decimal, n int) decimal.Decimal {
			return d.Mul(decimal.NewFromInt(int64(n)))
		},
		"thumb": func(src string, width int) string {
			return thumbURL(src, width, mediaHosts)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"required": func(f formField) formField {
			f.Required = true
			return f
		},
		"date": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"add":   func(a, b int) int { return a + b },
		"field": newFormField,
	}
}

type formField struct {
	Name, Label, Type, Placeholder, Value, Error string

	Required bool
}

func newFormField(name, label, typ, placeholder, value string, errs validation.FieldErrors) formField {
	return formField{Name: name, Label: label, Type: typ, Placeholder: placeholder, Value: value, Error: errs[name]}
}

// thumbURL routes allow-listed images through the thumbnail endpoint.
func thumbURL(src string, width int, hosts []string) string {
	u, err := url.Parse(src)
	if err != nil || !hostAllowed(u, hosts) {
		return src
	}
	v := url.Values{}
	v.Set("src", src)
	v.Set("w", fmt.Sprint(width))
	return "/media/thumb?" + v.Encode()
}

func hostAllowed(u *url.URL, hosts []string) bool {
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	for _, h := range hosts {
		if strings.EqualFold(u.Hostname(), h) {
			return true
		}
	}
	return false
}
