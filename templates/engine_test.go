package templates

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"shared/layout.gohtml": {Data: []byte(`{{ define "layout" }}<title>{{ template "title" . }}</title><main>{{ template "content" . }}</main>{{ end }}`)},
		"pages/form.gohtml":    {Data: []byte(`{{ define "title" }}Form{{ end }}{{ define "content" }}<a href="/check?email={{ .Email }}">{{ .Email }}</a>{{ end }}`)},
		"pages/result.gohtml":  {Data: []byte(`{{ define "title" }}Result{{ end }}{{ define "content" }}EAI: {{ yesno .EAI }}{{ end }}`)},
	}
}

func bootTestEngine(t *testing.T) *Engine {
	t.Helper()
	fsys := testFS()
	e := New(nil)
	err := e.Boot(
		Set{Name: "shared", FS: fsys, Patterns: []string{"shared/*.gohtml"}},
		Set{Name: "pages", FS: fsys, Patterns: []string{"pages/*.gohtml"}},
	)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return e
}

func TestEngine_PagesKeepTheirOwnBlocks(t *testing.T) {
	e := bootTestEngine(t)

	rec := httptest.NewRecorder()
	if err := e.Render(rec, http.StatusOK, "result", map[string]any{"EAI": true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Result</title>") || !strings.Contains(body, "EAI: Yes") {
		t.Errorf("body = %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestEngine_EscapesInput(t *testing.T) {
	e := bootTestEngine(t)

	rec := httptest.NewRecorder()
	if err := e.Render(rec, http.StatusUnprocessableEntity, "form", map[string]any{"Email": `<script>@例え.jp`}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("unescaped input in %q", body)
	}
	if !strings.Contains(strings.ToLower(body), "%3cscript%3e%40") {
		t.Errorf("query not escaped: %q", body)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEngine_UnknownPage(t *testing.T) {
	e := bootTestEngine(t)

	rec := httptest.NewRecorder()
	e.Serve(rec, http.StatusOK, "missing", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestEngine_BootNoPages(t *testing.T) {
	fsys := testFS()
	err := New(nil).Boot(
		Set{Name: "shared", FS: fsys, Patterns: []string{"shared/*.gohtml"}},
		Set{Name: "none", FS: fsys, Patterns: []string{"nothing/*.gohtml"}},
	)
	if err == nil {
		t.Error("Boot with empty page set succeeded")
	}
}
