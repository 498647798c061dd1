// Package checkin records presence outcomes per participant, one row per
// (event, user), re-processable by staff.
package checkin

import (
	"errors"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/metrics"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// Input is one check-in decision. Outcome may be empty when Notes follow the
// legacy OK*/NOT_OK*/DNS* prefix convention; the prefix is lifted into the
// typed field then.
type Input struct {
	UserID  uuid.UUID             `json:"userId"`
	Outcome models.CheckInOutcome `json:"outcome"`
	Notes   string                `json:"notes"`
}

// Process upserts the check-in for (event, user) and mirrors an OK outcome
// into the registration status. Staff act only on their own club's events.
func Process(db *gorm.DB, actor auth.Identity, eventID uuid.UUID, in Input) (*models.CheckIn, error) {
	if !actor.Role.Staff() {
		return nil, apperr.Forbidden("only event staff may check in participants")
	}

	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}
	if actor.Role != models.RoleSuperadmin && !actor.MemberOf(event.ClubID) {
		return nil, apperr.Forbidden("staff of another club may not check in participants")
	}

	outcome := in.Outcome
	if outcome == "" {
		lifted, ok := models.OutcomeFromNotes(in.Notes)
		if !ok {
			return nil, apperr.Validation("outcome is required")
		}
		outcome = lifted
	}
	if !outcome.Valid() {
		return nil, apperr.Validation("unknown outcome %q", outcome)
	}

	var checkIn *models.CheckIn
	err := db.Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		err := tx.Where("event_id = ? AND user_id = ? AND status <> ?",
			eventID, in.UserID, models.RegistrationCancelled).First(&reg).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("no registration for this participant in this event")
			}
			return err
		}

		var existing models.CheckIn
		err = tx.Where("event_id = ? AND user_id = ?", eventID, in.UserID).First(&existing).Error
		switch {
		case err == nil:
			existing.Outcome = outcome
			existing.Notes = in.Notes
			existing.StaffID = actor.UserID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			checkIn = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.CheckIn{
				EventID: eventID,
				UserID:  in.UserID,
				Outcome: outcome,
				Notes:   in.Notes,
				StaffID: actor.UserID,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			checkIn = &record
		default:
			return err
		}

		status := models.RegistrationConfirmed
		if outcome == models.CheckInOK {
			status = models.RegistrationCheckedIn
		}
		return tx.Model(&reg).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.CheckInsRecorded.Inc()
	return checkIn, nil
}

// ListForEvent returns all check-in records of an event.
func ListForEvent(db *gorm.DB, eventID uuid.UUID) ([]models.CheckIn, error) {
	var records []models.CheckIn
	if err := db.Where("event_id = ?", eventID).Order("updated_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Summary buckets the event's registrations for dashboards.
type Summary struct {
	Total     int64 `json:"total"`
	CheckedIn int64 `json:"checkedIn"`
	Issues    int64 `json:"issues"`
	DNS       int64 `json:"dns"`
	Pending   int64 `json:"pending"`
}

// Summarize counts checked-in / issues / dns; pending is whatever has no
// check-in record yet.
func Summarize(db *gorm.DB, eventID uuid.UUID) (*Summary, error) {
	var s Summary
	err := db.Model(&models.Registration{}).
		Where("event_id = ? AND status <> ?", eventID, models.RegistrationCancelled).
		Count(&s.Total).Error
	if err != nil {
		return nil, err
	}

	counts := []struct {
		outcome models.CheckInOutcome
		dst     *int64
	}{
		{models.CheckInOK, &s.CheckedIn},
		{models.CheckInNotOK, &s.Issues},
		{models.CheckInDNS, &s.DNS},
	}
	// cancelled registrations keep their check-in rows; count only live ones
	for _, c := range counts {
		err := db.Model(&models.CheckIn{}).
			Joins("JOIN registrations ON registrations.event_id = check_ins.event_id AND registrations.user_id = check_ins.user_id").
			Where("check_ins.event_id = ? AND check_ins.outcome = ? AND registrations.status <> ?",
				eventID, c.outcome, models.RegistrationCancelled).
			Count(c.dst).Error
		if err != nil {
			return nil, err
		}
	}
	s.Pending = s.Total - s.CheckedIn - s.Issues - s.DNS
	return &s, nil
}
