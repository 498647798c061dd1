// Package weight records scale readings per (event, startNumber, heat),
// gated on prior check-in and inspection approval, and manages per-class
// weight limits.
package weight

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/metrics"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// requireEventClub loads the event and checks that the actor belongs to the
// owning club. Superadmin is exempt.
func requireEventClub(db *gorm.DB, actor auth.Identity, eventID uuid.UUID) error {
	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("event not found")
		}
		return err
	}
	if actor.Role != models.RoleSuperadmin && !actor.MemberOf(event.ClubID) {
		return apperr.Forbidden("staff of another club may not act on this event")
	}
	return nil
}

// eligibleStartNumber verifies the weight-control precondition for one start
// number: a live registration whose user checked in OK and whose vehicle
// holds an APPROVED inspection for this event.
func eligibleStartNumber(tx *gorm.DB, eventID uuid.UUID, startNumber int) error {
	reg, err := registrationByStartNumber(tx, eventID, startNumber)
	if err != nil {
		return err
	}

	var checkIns int64
	err = tx.Model(&models.CheckIn{}).
		Where("event_id = ? AND user_id = ? AND outcome = ?", eventID, reg.UserID, models.CheckInOK).
		Count(&checkIns).Error
	if err != nil {
		return err
	}
	if checkIns == 0 {
		return apperr.InvalidState("participant has not checked in")
	}

	var approved int64
	err = tx.Model(&models.TechnicalInspection{}).
		Where("event_id = ? AND start_number = ? AND status = ?", eventID, startNumber, models.InspectionApproved).
		Count(&approved).Error
	if err != nil {
		return err
	}
	if approved == 0 {
		return apperr.InvalidState("vehicle has no approved technical inspection")
	}
	return nil
}

// registrationByStartNumber resolves a start number to its live registration,
// either directly or through a registration vehicle.
func registrationByStartNumber(tx *gorm.DB, eventID uuid.UUID, startNumber int) (*models.Registration, error) {
	var reg models.Registration
	err := tx.Where("event_id = ? AND start_number = ? AND status <> ?",
		eventID, startNumber, models.RegistrationCancelled).First(&reg).Error
	if err == nil {
		return &reg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var rv models.RegistrationVehicle
	err = tx.Where("event_id = ? AND start_number = ?", eventID, startNumber).First(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no entry with start number %d in this event", startNumber)
		}
		return nil, err
	}
	err = tx.Where("id = ? AND status <> ?", rv.RegistrationID, models.RegistrationCancelled).First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no entry with start number %d in this event", startNumber)
		}
		return nil, err
	}
	return &reg, nil
}

// Input is one scale reading. Result is the controller's call; the class
// band is informational.
type Input struct {
	StartNumber int                 `json:"startNumber"`
	Heat        string              `json:"heat"`
	ClassID     uuid.UUID           `json:"classId"`
	MeasuredKg  float64             `json:"measuredKg"`
	Result      models.WeightResult `json:"result"`
	Notes       string              `json:"notes"`
}

// Reading pairs the stored record with the band-derived expected result so
// disagreement with the controller's call is visible.
type Reading struct {
	Record         models.WeightControl `json:"record"`
	ExpectedResult models.WeightResult  `json:"expectedResult,omitempty"`
}

// Process upserts the reading keyed by (event, startNumber, heat). Heats are
// independent, so TRAINING and race readings coexist for the same car.
// Controllers act only on their own club's events.
func Process(db *gorm.DB, actor auth.Identity, eventID uuid.UUID, in Input) (*Reading, error) {
	if actor.Role != models.RoleWeightController && actor.Role != models.RoleRaceOfficial && actor.Role != models.RoleSuperadmin {
		return nil, apperr.Forbidden("only weight controllers may record readings")
	}
	if err := requireEventClub(db, actor, eventID); err != nil {
		return nil, err
	}
	if !in.Result.Valid() {
		return nil, apperr.Validation("unknown weight result %q", in.Result)
	}
	if in.MeasuredKg <= 0 {
		return nil, apperr.Validation("measured weight must be positive")
	}
	heat := in.Heat
	if heat == "" {
		heat = models.DefaultHeat
	}

	var record models.WeightControl
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := eligibleStartNumber(tx, eventID, in.StartNumber); err != nil {
			return err
		}

		err := tx.Where("event_id = ? AND start_number = ? AND heat = ?", eventID, in.StartNumber, heat).
			First(&record).Error
		switch {
		case err == nil:
			record.ClassID = in.ClassID
			record.MeasuredKg = in.MeasuredKg
			record.Result = in.Result
			record.Notes = in.Notes
			record.ControllerID = actor.UserID
			record.MeasuredAt = time.Now()
			return tx.Save(&record).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = models.WeightControl{
				EventID:      eventID,
				StartNumber:  in.StartNumber,
				Heat:         heat,
				ClassID:      in.ClassID,
				MeasuredKg:   in.MeasuredKg,
				Result:       in.Result,
				Notes:        in.Notes,
				ControllerID: actor.UserID,
				MeasuredAt:   time.Now(),
			}
			return tx.Create(&record).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	metrics.WeightChecksRecorded.Inc()

	reading := &Reading{Record: record}
	if expected, ok := expectedResult(db, eventID, in.ClassID, in.MeasuredKg); ok {
		reading.ExpectedResult = expected
	}
	return reading, nil
}

// expectedResult derives what the band says, for display only.
func expectedResult(db *gorm.DB, eventID, classID uuid.UUID, measuredKg float64) (models.WeightResult, bool) {
	var limit models.WeightLimit
	err := db.Where("event_id = ? AND class_id = ?", eventID, classID).First(&limit).Error
	if err != nil {
		return "", false
	}
	if limit.MinWeightKg != nil && measuredKg < *limit.MinWeightKg {
		return models.WeightUnderweight, true
	}
	if limit.MaxWeightKg != nil && measuredKg > *limit.MaxWeightKg {
		return models.WeightOverweight, true
	}
	return models.WeightPass, true
}

// ListForEvent returns the event's readings, newest first.
func ListForEvent(db *gorm.DB, eventID uuid.UUID) ([]models.WeightControl, error) {
	var records []models.WeightControl
	err := db.Where("event_id = ?", eventID).Order("updated_at desc").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// EligibleEntry is a participant cleared for the scales.
type EligibleEntry struct {
	RegistrationID uuid.UUID `json:"registrationId"`
	UserID         uuid.UUID `json:"userId"`
	UserName       string    `json:"userName"`
	StartNumber    int       `json:"startNumber"`
	ClassID        uuid.UUID `json:"classId"`
	ClassName      string    `json:"className"`
}

// Eligible lists participants holding both an OK check-in and an APPROVED
// inspection, computed by join on every call.
func Eligible(db *gorm.DB, eventID uuid.UUID) ([]EligibleEntry, error) {
	var regs []models.Registration
	err := db.Preload("User").Preload("Class").
		Where("event_id = ? AND status <> ? AND start_number IS NOT NULL", eventID, models.RegistrationCancelled).
		Order("start_number asc").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	okUsers := make(map[uuid.UUID]bool)
	var checkIns []models.CheckIn
	if err := db.Where("event_id = ? AND outcome = ?", eventID, models.CheckInOK).Find(&checkIns).Error; err != nil {
		return nil, err
	}
	for _, c := range checkIns {
		okUsers[c.UserID] = true
	}

	approvedNumbers := make(map[int]bool)
	var inspections []models.TechnicalInspection
	if err := db.Where("event_id = ? AND status = ?", eventID, models.InspectionApproved).Find(&inspections).Error; err != nil {
		return nil, err
	}
	for _, i := range inspections {
		approvedNumbers[i.StartNumber] = true
	}

	entries := make([]EligibleEntry, 0, len(regs))
	for _, r := range regs {
		if r.StartNumber == nil || !okUsers[r.UserID] || !approvedNumbers[*r.StartNumber] {
			continue
		}
		entries = append(entries, EligibleEntry{
			RegistrationID: r.ID,
			UserID:         r.UserID,
			UserName:       r.User.Name,
			StartNumber:    *r.StartNumber,
			ClassID:        r.ClassID,
			ClassName:      r.Class.Name,
		})
	}
	return entries, nil
}

// LimitInput is one class band in a bulk replace.
type LimitInput struct {
	ClassID     uuid.UUID `json:"classId"`
	MinWeightKg *float64  `json:"minWeightKg"`
	MaxWeightKg *float64  `json:"maxWeightKg"`
}

// ReplaceLimits swaps the event's full weight-limit set: delete all, then
// recreate, in one transaction.
func ReplaceLimits(db *gorm.DB, actor auth.Identity, eventID uuid.UUID, limits []LimitInput) ([]models.WeightLimit, error) {
	if actor.Role != models.RoleWeightController && actor.Role != models.RoleClubAdmin && actor.Role != models.RoleSuperadmin {
		return nil, apperr.Forbidden("only weight controllers or club admins may set limits")
	}
	if err := requireEventClub(db, actor, eventID); err != nil {
		return nil, err
	}
	for _, l := range limits {
		if l.MinWeightKg != nil && l.MaxWeightKg != nil && *l.MinWeightKg > *l.MaxWeightKg {
			return nil, apperr.Validation("min weight above max weight")
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var class models.EventClass
		for _, l := range limits {
			if err := tx.First(&class, "id = ? AND event_id = ?", l.ClassID, eventID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("class does not belong to this event")
				}
				return err
			}
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.WeightLimit{}).Error; err != nil {
			return err
		}
		for _, l := range limits {
			limit := models.WeightLimit{
				EventID:     eventID,
				ClassID:     l.ClassID,
				MinWeightKg: l.MinWeightKg,
				MaxWeightKg: l.MaxWeightKg,
			}
			if err := tx.Create(&limit).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ListLimits(db, eventID)
}

// ListLimits returns the event's weight limits.
func ListLimits(db *gorm.DB, eventID uuid.UUID) ([]models.WeightLimit, error) {
	var limits []models.WeightLimit
	if err := db.Where("event_id = ?", eventID).Find(&limits).Error; err != nil {
		return nil, err
	}
	return limits, nil
}
