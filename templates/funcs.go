// templates/funcs.go
package templates

import (
	"html/template"
)

// Funcs returns helpers available to all templates. URLs need no helper:
// html/template escapes values placed in href query strings.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}
}
