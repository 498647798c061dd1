package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/inspection"
	"github.com/oivindh/raceday/internal/notify"
	"github.com/oivindh/raceday/internal/weight"
)

// handleListInspections: GET /technical-inspections?eventId=...
func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.URL.Query().Get("eventId"))
	if err != nil {
		writeError(w, r, apperr.Validation("eventId query parameter is required"))
		return
	}
	records, err := inspection.ListForEvent(s.DB, eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecordInspection(w http.ResponseWriter, r *http.Request) {
	var in inspection.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	record, err := inspection.Record(s.DB, identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(record.EventID, notify.KindInspection, record)
	writeJSON(w, http.StatusOK, record)
}

// handleInspectionHistory: GET /technical-inspections/history?chassisNumber=...&licensePlate=...
func (s *Server) handleInspectionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := inspection.Lookup(s.DB,
		r.URL.Query().Get("chassisNumber"),
		r.URL.Query().Get("licensePlate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleListWeightControl(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := weight.ListForEvent(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleWeightControl(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in weight.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	reading, err := weight.Process(s.DB, identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(id, notify.KindWeight, reading)
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleWeightEligible(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := weight.Eligible(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListWeightLimits(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limits, err := weight.ListLimits(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

func (s *Server) handleReplaceWeightLimits(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Limits []weight.LimitInput `json:"limits"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	limits, err := weight.ReplaceLimits(s.DB, identity(r), id, in.Limits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}
