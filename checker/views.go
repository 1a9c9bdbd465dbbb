// checker/views.go
package checker

import (
	"embed"

	"github.com/dalemusser/eaicheck/templates"
	"go.uber.org/zap"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// NewViews compiles the checker pages.
func NewViews(logger *zap.Logger) (*templates.Engine, error) {
	e := templates.New(logger)
	err := e.Boot(
		templates.Set{Name: "shared", FS: templateFS, Patterns: []string{"templates/layout.gohtml"}},
		templates.Set{Name: "checker", FS: templateFS, Patterns: []string{
			"templates/index.gohtml",
			"templates/check.gohtml",
			"templates/invalid.gohtml",
		}},
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type formView struct {
	Email string
	Error string
}

type checkView struct {
	Email        string
	Report       Report
	ConvertError string
}
