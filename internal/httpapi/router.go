// Package httpapi wires the HTTP/JSON surface onto the domain services.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/models"
	"github.com/oivindh/raceday/internal/notify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Server struct {
	DB         *gorm.DB
	Hub        *notify.Hub
	SessionTTL time.Duration
}

func NewServer(db *gorm.DB, hub *notify.Hub, sessionTTL time.Duration) *Server {
	return &Server{DB: db, Hub: hub, SessionTTL: sessionTTL}
}

// Router builds the chi mux with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(s.DB))

		r.Get("/me", s.handleMe)

		r.Get("/vehicles", s.handleListVehicles)
		r.Post("/vehicles", s.handleCreateVehicle)

		r.Route("/club-classes", func(r chi.Router) {
			r.Get("/", s.handleListClubClasses)
			r.Post("/", s.handleCreateClubClass)
			r.Delete("/{id}", s.handleDeleteClubClass)
		})
		r.Get("/global-classes", s.handleListGlobalClasses)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEvent)
				r.Put("/", s.handleUpdateEvent)
				r.Delete("/", s.handleDeleteEvent)

				r.Put("/classes", s.handleReplaceClasses)
				r.Post("/approval", s.handleSubmitEvent)
				r.Put("/approval", s.handleReviewEvent)
				r.Post("/publish", s.handlePublishEvent)

				r.Get("/registrations", s.handleListRegistrations)
				r.Post("/registrations", s.handleCreateRegistration)
				r.Delete("/registrations/{regID}", s.handleCancelRegistration)

				r.Get("/checkins", s.handleListCheckIns)
				r.Post("/checkins", s.handleCheckIn)
				r.Get("/checkins/summary", s.handleCheckInSummary)

				r.Get("/weight-control", s.handleListWeightControl)
				r.Post("/weight-control", s.handleWeightControl)
				r.Get("/weight-control/eligible", s.handleWeightEligible)
				r.Get("/weight-limits", s.handleListWeightLimits)
				r.Post("/weight-limits", s.handleReplaceWeightLimits)

				r.Get("/startlist", s.handleStartList)
				r.Post("/startlist/export", s.handleStartListExport)

				r.Get("/sse", s.handleSSE)
			})
		})

		r.Route("/technical-inspections", func(r chi.Router) {
			r.Get("/", s.handleListInspections)
			r.With(auth.Require(models.RoleTechnicalInspector)).Post("/", s.handleRecordInspection)
			r.Get("/history", s.handleInspectionHistory)
		})
	})

	return r
}

// urlID parses the {id} url param as a uuid.
func urlID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// identity returns the authenticated caller; Authenticate guarantees it.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
