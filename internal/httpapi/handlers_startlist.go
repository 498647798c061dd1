package httpapi

import (
	"net/http"

	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/startlist"
)

func (s *Server) handleStartList(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := startlist.Build(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleStartListExport: POST /events/{id}/startlist/export?format=csv|html
func (s *Server) handleStartListExport(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := startlist.Build(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="startlist.csv"`)
		if err := startlist.WriteCSV(w, list); err != nil {
			writeError(w, r, err)
		}
	case "html", "pdf":
		// pdf export is rendered as printable HTML
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := startlist.WriteHTML(w, list); err != nil {
			writeError(w, r, err)
		}
	default:
		writeError(w, r, apperr.Validation("unknown export format %q", format))
	}
}
