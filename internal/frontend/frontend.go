package frontend

import (
	"embed"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"dupscan/internal/app"
	"dupscan/internal/report"
	"dupscan/internal/storage"
)

//go:embed templates/*.html
var assets embed.FS

// IndexData is the view model for the dashboard page.
type IndexData struct {
	Status app.Status
	Report *report.Report
	Runs   []storage.Run
	Year   int
}

// Renderer encapsulates template rendering for the web UI.
type Renderer struct {
	once     sync.Once
	initErr  error
	template *template.Template
}

// NewRenderer creates a Renderer capable of serving the embedded UI.
func NewRenderer() *Renderer {
	return &Renderer{}
}

var funcs = template.FuncMap{
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"short": func(digest string) string {
		if len(digest) > 12 {
			return digest[:12]
		}
		return digest
	},
}

func (r *Renderer) ensureTemplates() error {
	r.once.Do(func() {
		tpl, err := template.New("index.html").Funcs(funcs).ParseFS(assets, "templates/index.html")
		if err != nil {
			r.initErr = err
			return
		}
		r.template = tpl
	})
	return r.initErr
}

// RenderIndex writes the main HTML page to the response writer.
func (r *Renderer) RenderIndex(w http.ResponseWriter, data IndexData) error {
	if err := r.ensureTemplates(); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return r.template.ExecuteTemplate(w, "index.html", data)
}
