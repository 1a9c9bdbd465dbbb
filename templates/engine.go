// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Set is a group of template files in an fs.FS.
type Set struct {
	// Name is for logging only.
	Name     string
	FS       fs.FS
	Patterns []string
}

// Engine holds one compiled template per page. Each page is the shared set
// (layout and partials) cloned and extended with a single page file, so
// every page can define its own "title" and "content" blocks.
// An Engine is read-only after Boot and safe for concurrent use.
type Engine struct {
	funcs  template.FuncMap
	pages  map[string]*template.Template
	logger *zap.Logger
}

// New returns an empty Engine with the default function map.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{funcs: Funcs(), pages: map[string]*template.Template{}, logger: logger}
}

// Boot parses shared once, then compiles one clone per file in pages. The
// page name is the file's base name without extension.
func (e *Engine) Boot(shared, pages Set) error {
	base, err := parseSet(template.New("root").Funcs(e.funcs), shared)
	if err != nil {
		return fmt.Errorf("parse %s: %w", shared.Name, err)
	}

	files, err := globAll(pages.FS, pages.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("templates: set %q matched no files", pages.Name)
	}

	for _, p := range files {
		src, err := fs.ReadFile(pages.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		clone, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		if _, err := clone.Parse(string(src)); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		e.pages[name] = clone
		e.logger.Debug("template page compiled", zap.String("set", pages.Name), zap.String("page", name))
	}
	return nil
}

// Render executes the "layout" template of page into a buffer and writes it
// with status. Nothing is written if execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := e.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// Serve is Render with error handling: failures are logged and answered
// with a bare 500.
func (e *Engine) Serve(w http.ResponseWriter, status int, page string, data any) {
	if err := e.Render(w, status, page, data); err != nil {
		e.logger.Error("template render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
	}
}

func parseSet(root *template.Template, s Set) (*template.Template, error) {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return nil, err
	}
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return nil, err
		}
		if _, err := root.Parse(string(b)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	return root, nil
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
