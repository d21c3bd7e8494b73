package echoapi

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const calendarTemplate = "calendar.gohtml"

//go:embed templates/*.gohtml
var templateFS embed.FS

var glyphClasses = map[string]string{
	string(attendance.GlyphPresent):  "present",
	string(attendance.GlyphAbsent):   "absent",
	string(attendance.GlyphLate):     "late",
	string(attendance.GlyphExcused):  "excused",
	string(attendance.GlyphNoData):   "no-data",
	string(attendance.GlyphInactive): "inactive",
}

type templateRenderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer() *templateRenderer {
	funcs := template.FuncMap{
		"glyphClass": func(g string) string { return glyphClasses[g] },
	}
	return &templateRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")),
	}
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return errors.Wrapf(r.templates.ExecuteTemplate(w, name, data), "rendering %s", name)
}
