package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/hotsearch-web/internal/router"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	layoutFile   = "layout.html"
	fallbackView = "view"
)

// views renders the page templates. Eager views are parsed at startup; lazy
// ones on their first request, the way a bundler splits out a route chunk.
type views struct {
	files fs.FS
	eager *template.Template

	mu   sync.Mutex
	lazy map[string]*template.Template
}

func newViews(table *router.Table) (*views, error) {
	files, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}

	v := &views{files: files, lazy: make(map[string]*template.Template)}

	patterns := []string{layoutFile, fallbackView + ".html", "login.html", "register.html"}
	for _, r := range table.Routes() {
		if !r.Lazy && v.has(r.View) {
			patterns = append(patterns, r.View+".html")
		}
	}

	v.eager, err = template.New("").ParseFS(files, dedupe(patterns)...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return v, nil
}

func (v *views) has(view string) bool {
	_, err := fs.Stat(v.files, view+".html")
	return err == nil
}

func (v *views) lookup(view string) (*template.Template, error) {
	if t := v.eager.Lookup(view + ".html"); t != nil {
		return t, nil
	}
	if !v.has(view) {
		return v.eager.Lookup(fallbackView + ".html"), nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if t, ok := v.lazy[view]; ok {
		return t, nil
	}

	t, err := template.New("").ParseFS(v.files, layoutFile, view+".html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse view %s: %w", view, err)
	}
	t = t.Lookup(view + ".html")
	v.lazy[view] = t
	return t, nil
}

// render executes the view into a buffer first so a template error still
// produces a clean 500.
func (v *views) render(c *gin.Context, status int, view string, data PageData) {
	t, err := v.lookup(view)
	if err == nil {
		var buf bytes.Buffer
		if err = t.Execute(&buf, data); err == nil {
			c.Data(status, "text/html; charset=utf-8", buf.Bytes())
			return
		}
	}
	respondInternalError(c, err, "render "+view)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
