// Package events owns the event lifecycle state machine:
// DRAFT → SUBMITTED → APPROVED/REJECTED → PUBLISHED.
package events

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/metrics"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventInput carries the club-editable fields of an event.
type EventInput struct {
	Title                 string         `json:"title"`
	Location              string         `json:"location"`
	StartDate             time.Time      `json:"startDate"`
	EndDate               time.Time      `json:"endDate"`
	MaxParticipants       int            `json:"maxParticipants"`
	RegistrationStartDate *time.Time     `json:"registrationStartDate"`
	RegistrationEndDate   *time.Time     `json:"registrationEndDate"`
	RequiresVehicle       bool           `json:"requiresVehicle"`
	Disciplines           datatypes.JSON `json:"disciplines"`
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title is required")
	}
	if in.MaxParticipants < 0 {
		return apperr.Validation("maxParticipants must not be negative")
	}
	if !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return apperr.Validation("endDate before startDate")
	}
	return nil
}

// Get loads an event with its classes.
func Get(db *gorm.DB, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := db.Preload("Classes").First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}
	return &event, nil
}

// List returns events visible to the caller: everyone sees PUBLISHED events,
// club members additionally see their club's, federation and superadmin see
// all.
func List(db *gorm.DB, actor auth.Identity, status string) ([]models.Event, error) {
	q := db.Preload("Classes").Order("start_date asc")
	switch actor.Role {
	case models.RoleSuperadmin, models.RoleFederationAdmin:
	default:
		if actor.ClubID != nil {
			q = q.Where("status = ? OR club_id = ?", models.EventPublished, *actor.ClubID)
		} else {
			q = q.Where("status = ?", models.EventPublished)
		}
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var events []models.Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func requireOwner(actor auth.Identity, event *models.Event) error {
	if actor.Role == models.RoleSuperadmin {
		return nil
	}
	if actor.Role != models.RoleClubAdmin || !actor.MemberOf(event.ClubID) {
		return apperr.Forbidden("only the owning club's admin may do this")
	}
	return nil
}

// Create makes a new DRAFT event owned by the actor's club.
func Create(db *gorm.DB, actor auth.Identity, in EventInput) (*models.Event, error) {
	if actor.Role != models.RoleClubAdmin && actor.Role != models.RoleSuperadmin {
		return nil, apperr.Forbidden("only club admins may create events")
	}
	if actor.ClubID == nil {
		return nil, apperr.Forbidden("actor has no club")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	event := models.Event{
		ClubID:                *actor.ClubID,
		Title:                 in.Title,
		Location:              in.Location,
		Status:                models.EventDraft,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		MaxParticipants:       in.MaxParticipants,
		RegistrationStartDate: in.RegistrationStartDate,
		RegistrationEndDate:   in.RegistrationEndDate,
		RequiresVehicle:       in.RequiresVehicle,
		Disciplines:           in.Disciplines,
	}
	if err := db.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// Update edits event fields. Allowed while DRAFT, REJECTED or APPROVED.
func Update(db *gorm.DB, actor auth.Identity, id uuid.UUID, in EventInput) (*models.Event, error) {
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, event); err != nil {
		return nil, err
	}
	switch event.Status {
	case models.EventDraft, models.EventRejected, models.EventApproved:
	default:
		return nil, apperr.InvalidState("cannot edit event in status %s: must be DRAFT, REJECTED or APPROVED", event.Status)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Location = in.Location
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.MaxParticipants = in.MaxParticipants
	event.RegistrationStartDate = in.RegistrationStartDate
	event.RegistrationEndDate = in.RegistrationEndDate
	event.RequiresVehicle = in.RequiresVehicle
	if in.Disciplines != nil {
		event.Disciplines = in.Disciplines
	}
	if err := db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event. Allowed only while DRAFT or REJECTED.
func Delete(db *gorm.DB, actor auth.Identity, id uuid.UUID) error {
	event, err := Get(db, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, event); err != nil {
		return err
	}
	switch event.Status {
	case models.EventDraft, models.EventRejected:
	default:
		return apperr.InvalidState("cannot delete event in status %s: must be DRAFT or REJECTED", event.Status)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventClass{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.WeightLimit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, "id = ?", id).Error
	})
}

// Submit moves DRAFT or REJECTED to SUBMITTED for federation review.
func Submit(db *gorm.DB, actor auth.Identity, id uuid.UUID) (*models.Event, error) {
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, event); err != nil {
		return nil, err
	}
	switch event.Status {
	case models.EventDraft, models.EventRejected:
	default:
		return nil, apperr.InvalidState("cannot submit event in status %s: must be DRAFT or REJECTED", event.Status)
	}
	now := time.Now()
	event.Status = models.EventSubmitted
	event.SubmittedAt = &now
	event.RejectionReason = ""
	if err := db.Save(event).Error; err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("submit").Inc()
	return event, nil
}

func requireReviewer(actor auth.Identity) error {
	if actor.Role != models.RoleFederationAdmin && actor.Role != models.RoleSuperadmin {
		return apperr.Forbidden("only federation reviewers may review events")
	}
	return nil
}

// Approve moves SUBMITTED to APPROVED.
func Approve(db *gorm.DB, actor auth.Identity, id uuid.UUID) (*models.Event, error) {
	if err := requireReviewer(actor); err != nil {
		return nil, err
	}
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventSubmitted {
		return nil, apperr.InvalidState("cannot approve event in status %s: must be SUBMITTED", event.Status)
	}
	now := time.Now()
	event.Status = models.EventApproved
	event.ReviewedAt = &now
	event.ReviewedBy = &actor.UserID
	event.RejectionReason = ""
	if err := db.Save(event).Error; err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("approve").Inc()
	return event, nil
}

// Reject moves SUBMITTED to REJECTED with a mandatory reason. The club may
// edit and resubmit.
func Reject(db *gorm.DB, actor auth.Identity, id uuid.UUID, reason string) (*models.Event, error) {
	if err := requireReviewer(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("rejection reason is required")
	}
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventSubmitted {
		return nil, apperr.InvalidState("cannot reject event in status %s: must be SUBMITTED", event.Status)
	}
	now := time.Now()
	event.Status = models.EventRejected
	event.ReviewedAt = &now
	event.ReviewedBy = &actor.UserID
	event.RejectionReason = reason
	if err := db.Save(event).Error; err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("reject").Inc()
	return event, nil
}

// Publish moves APPROVED to PUBLISHED, opening registration.
func Publish(db *gorm.DB, actor auth.Identity, id uuid.UUID) (*models.Event, error) {
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, event); err != nil {
		return nil, err
	}
	if event.Status != models.EventApproved {
		return nil, apperr.InvalidState("cannot publish event in status %s: must be APPROVED", event.Status)
	}
	event.Status = models.EventPublished
	if err := db.Save(event).Error; err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("publish").Inc()
	return event, nil
}

// ClassInput describes one class to attach to an event. TemplateID, when
// set, copies name and weight band from a club or global class template;
// explicit fields override the template's.
type ClassInput struct {
	TemplateID  *uuid.UUID `json:"templateId,omitempty"`
	Name        string     `json:"name"`
	MinWeightKg *float64   `json:"minWeightKg"`
	MaxWeightKg *float64   `json:"maxWeightKg"`
}

// ReplaceClasses swaps the event's full class set: disconnect all, reconnect
// selected. Names must be unique within the set.
func ReplaceClasses(db *gorm.DB, actor auth.Identity, id uuid.UUID, classes []ClassInput) (*models.Event, error) {
	event, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, event); err != nil {
		return nil, err
	}
	switch event.Status {
	case models.EventDraft, models.EventRejected, models.EventApproved:
	default:
		return nil, apperr.InvalidState("cannot edit classes of event in status %s: must be DRAFT, REJECTED or APPROVED", event.Status)
	}

	for i := range classes {
		if err := resolveTemplate(db, event.ClubID, &classes[i]); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, apperr.Validation("class name is required")
		}
		if seen[name] {
			return nil, apperr.Conflict("duplicate class name %q", name)
		}
		seen[name] = true
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventClass{}).Error; err != nil {
			return err
		}
		for _, c := range classes {
			ec := models.EventClass{
				EventID:     id,
				Name:        strings.TrimSpace(c.Name),
				MinWeightKg: c.MinWeightKg,
				MaxWeightKg: c.MaxWeightKg,
			}
			if err := tx.Create(&ec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}
