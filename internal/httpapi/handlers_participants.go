package httpapi

import (
	"net/http"

	"github.com/oivindh/raceday/internal/checkin"
	"github.com/oivindh/raceday/internal/notify"
	"github.com/oivindh/raceday/internal/registration"
)

func (s *Server) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	regs, err := registration.ListForEvent(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

func (s *Server) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in registration.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := registration.Register(s.DB, identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(id, notify.KindRegistration, reg.StartNumber)
	writeJSON(w, http.StatusCreated, reg)
}

func (s *Server) handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	regID, err := urlID(r, "regID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := registration.Cancel(s.DB, identity(r), regID); err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(eventID, notify.KindRegistration, "cancelled")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleListCheckIns(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := checkin.ListForEvent(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in checkin.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	record, err := checkin.Process(s.DB, identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(id, notify.KindCheckIn, record)
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCheckInSummary(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := checkin.Summarize(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
