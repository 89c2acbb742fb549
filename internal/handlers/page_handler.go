package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

//go:embed pages/*.html
var pagesFS embed.FS

type PageHandler struct {
	logger      arbor.ILogger
	templates   *template.Template
	source      SnapshotSource
	clientDebug bool
}

func NewPageHandler(source SnapshotSource, logger arbor.ILogger, clientDebug bool) *PageHandler {
	templates := template.Must(template.ParseFS(pagesFS, "pages/*.html"))

	return &PageHandler{
		logger:      logger,
		templates:   templates,
		source:      source,
		clientDebug: clientDebug,
	}
}

// ServePage creates a handler function for serving a specific page template
func (h *PageHandler) ServePage(templateName string, pageName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}

		view, err := dashboard.BuildView(h.source.Snapshot())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to build dashboard view")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := map[string]interface{}{
			"Page":        pageName,
			"Version":     common.GetVersion(),
			"ClientDebug": h.clientDebug,
			"View":        view,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.templates.ExecuteTemplate(w, templateName, data); err != nil {
			h.logger.Error().
				Err(err).
				Str("template", templateName).
				Msg("Failed to render page")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
