package http

import (
	"embed"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/mrlokans/catalog/internal/entities"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"subtract": func(a, b int) int {
		return a - b
	},
	"statusClass": func(s entities.BookInstanceStatus) string {
		switch s {
		case entities.StatusAvailable:
			return "text-success"
		case entities.StatusMaintenance:
			return "text-danger"
		default:
			return "text-warning"
		}
	},
	"statuses": func() []entities.BookInstanceStatus {
		return entities.BookInstanceStatuses
	},
}

// LoadTemplates parses the page templates. When dir is empty the templates
// compiled into the binary are used.
func LoadTemplates(dir string) (*template.Template, error) {
	tmpl := template.New("").Funcs(templateFuncs)

	var err error
	if dir == "" {
		tmpl, err = tmpl.ParseFS(embeddedTemplates, "templates/*.html")
	} else {
		tmpl, err = tmpl.ParseGlob(filepath.Join(dir, "*.html"))
	}
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
