package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/google/uuid"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

//go:embed templates
var embeddedTemplates embed.FS

const (
	layoutTemplate  = "layout.html"
	cacheBusterFile = "cache-buster"
	staticDir       = "static"
)

var pageTemplates = []string{
	"gallery.html",
	"photo.html",
	"single-photo-multiple-times.html",
}

// Renderer executes the page templates and minifies their output.
type Renderer struct {
	pages       map[string]*template.Template
	static      fs.FS
	minifier    *minify.M
	cacheBuster string
	log         logging.Logger
}

// DefaultTemplates returns the templates compiled into the binary.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatesFS returns dir as a filesystem, or the embedded templates when
// dir is empty.
func TemplatesFS(dir string) (fs.FS, error) {
	if dir == "" {
		return DefaultTemplates(), nil
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template path: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// NewRenderer parses the layout and every page template found in fsys.
// The cache-busting string is the first word of fsys/cache-buster; when that
// file is missing a random one is generated for this process.
func NewRenderer(fsys fs.FS, log logging.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"srcset":  srcset,
		"largest": largest,
		"deref":   deref,
		"pathesc": pathEscape,
	}

	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}
		pages[name] = t
	}

	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)

	static, err := fs.Sub(fsys, staticDir)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		pages:       pages,
		static:      static,
		minifier:    m,
		cacheBuster: readCacheBuster(fsys),
		log:         log,
	}, nil
}

func readCacheBuster(fsys fs.FS) string {
	data, err := fs.ReadFile(fsys, cacheBusterFile)
	if err == nil {
		if fields := strings.Fields(string(data)); len(fields) > 0 {
			return fields[0]
		}
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CacheBuster is appended to static asset urls.
func (r *Renderer) CacheBuster() string { return r.cacheBuster }

// Static serves the static/ directory of the template filesystem.
func (r *Renderer) Static() http.Handler {
	return http.FileServer(http.FS(r.static))
}

// Render executes page with data and minifies the result. A minification
// failure is logged and the unminified HTML returned instead.
func (r *Renderer) Render(ctx context.Context, page string, data any) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown template %s", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		return nil, fmt.Errorf("rendering error: %w", err)
	}

	minified, err := r.minifier.Bytes("text/html", buf.Bytes())
	if err != nil {
		r.log.Error(ctx, "failed to minify HTML", "template", page, "error", err)
		return buf.Bytes(), nil
	}
	return minified, nil
}

func srcset(sources []apistructs.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, fmt.Sprintf("%s %dw", s.URL, s.Width))
	}
	return strings.Join(parts, ", ")
}

// largest adapts (*models.Photo).Largest for templates, where a missing
// rendition is nil.
func largest(p *models.Photo) *apistructs.Source {
	if p == nil {
		return nil
	}
	if s, ok := p.Largest(); ok {
		return &s
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
