package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
)

// UIHandler serves the dashboard page and its static assets.
type UIHandler struct {
	logger    arbor.ILogger
	staticDir string
	templates *template.Template
}

func NewUIHandler() *UIHandler {
	staticDir := getStaticDir()
	templates := template.Must(template.ParseGlob(filepath.Join(staticDir, "*.html")))

	return &UIHandler{
		logger:    common.GetLogger(),
		staticDir: staticDir,
		templates: templates,
	}
}

// getStaticDir finds the web directory
func getStaticDir() string {
	dirs := []string{
		"./web",
		"../web",
		"../../web",
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err == nil {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// IndexHandler serves the dashboard HTML page
func (h *UIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := map[string]interface{}{
		"Version": common.GetVersion(),
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render index")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// StaticFileHandler serves static files (CSS, JS, favicon) from the web/static directory
func (h *UIHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	// List of allowed static files
	allowedFiles := map[string]string{
		"/static/app.js":     "static/app.js",
		"/static/styles.css": "static/styles.css",
		"/favicon.ico":       "static/favicon.ico",
	}

	relativePath, allowed := allowedFiles[r.URL.Path]
	if !allowed {
		http.NotFound(w, r)
		return
	}

	filePath := filepath.Join(h.staticDir, relativePath)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	ext := filepath.Ext(filePath)
	switch ext {
	case ".css":
		w.Header().Set("Content-Type", "text/css")
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".ico":
		w.Header().Set("Content-Type", "image/x-icon")
	}

	http.ServeFile(w, r, filePath)
}
