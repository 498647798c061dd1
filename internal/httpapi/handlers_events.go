package httpapi

import (
	"net/http"

	"github.com/oivindh/raceday/internal/events"
	"github.com/oivindh/raceday/internal/models"
	"github.com/oivindh/raceday/internal/notify"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := events.List(s.DB, identity(r), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.Get(s.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.Create(s.DB, identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in events.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.Update(s.DB, identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := events.Delete(s.DB, identity(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReplaceClasses(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Classes []events.ClassInput `json:"classes"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.ReplaceClasses(s.DB, identity(r), id, in.Classes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleListClubClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := events.ListClubClasses(s.DB, identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleCreateClubClass(w http.ResponseWriter, r *http.Request) {
	var in events.ClassInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	class, err := events.CreateClubClass(s.DB, identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (s *Server) handleDeleteClubClass(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := events.DeleteClubClass(s.DB, identity(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListGlobalClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := events.ListGlobalClasses(s.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// handleSubmitEvent: POST /events/{id}/approval submits for review.
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.Submit(s.DB, identity(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(event.ID, notify.KindLifecycle, event.Status)
	writeJSON(w, http.StatusOK, event)
}

// handleReviewEvent: PUT /events/{id}/approval approves or rejects.
func (s *Server) handleReviewEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	actor := identity(r)
	var event *models.Event
	if in.Approved {
		event, err = events.Approve(s.DB, actor, id)
	} else {
		event, err = events.Reject(s.DB, actor, id, in.Reason)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(event.ID, notify.KindLifecycle, event.Status)
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := events.Publish(s.DB, identity(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.Publish(event.ID, notify.KindLifecycle, event.Status)
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Hub.SSEHandler(id)(w, r)
}
