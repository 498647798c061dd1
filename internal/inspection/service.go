// Package inspection records technical inspection outcomes, one row per
// (event, startNumber), with cross-event history by chassis number or plate.
package inspection

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

// Input is one inspection outcome with the vehicle identity snapshot.
type Input struct {
	EventID       uuid.UUID               `json:"eventId"`
	StartNumber   int                     `json:"startNumber"`
	Status        models.InspectionStatus `json:"status"`
	ChassisNumber string                  `json:"chassisNumber"`
	LicensePlate  string                  `json:"licensePlate"`
	Make          string                  `json:"make"`
	Model         string                  `json:"model"`
	Year          int                     `json:"year"`
	Notes         string                  `json:"notes"`
}

// Record upserts the inspection for (event, startNumber). Re-inspection
// overwrites status and notes. Writing is restricted to inspectors of the
// event's owning club; admins read only.
func Record(db *gorm.DB, actor auth.Identity, in Input) (*models.TechnicalInspection, error) {
	if actor.Role != models.RoleTechnicalInspector {
		return nil, apperr.Forbidden("only technical inspectors may record inspections")
	}
	if !in.Status.Valid() {
		return nil, apperr.Validation("unknown inspection status %q", in.Status)
	}
	if in.StartNumber <= 0 {
		return nil, apperr.Validation("start number must be positive")
	}

	var event models.Event
	if err := db.First(&event, "id = ?", in.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}
	if !actor.MemberOf(event.ClubID) {
		return nil, apperr.Forbidden("inspector belongs to another club")
	}

	var record models.TechnicalInspection
	err := db.Where("event_id = ? AND start_number = ?", in.EventID, in.StartNumber).First(&record).Error
	switch {
	case err == nil:
		record.Status = in.Status
		record.ChassisNumber = in.ChassisNumber
		record.LicensePlate = in.LicensePlate
		record.Make = in.Make
		record.Model = in.Model
		record.Year = in.Year
		record.Notes = in.Notes
		record.InspectorID = actor.UserID
		record.InspectedAt = time.Now()
		if err := db.Save(&record).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.TechnicalInspection{
			EventID:       in.EventID,
			StartNumber:   in.StartNumber,
			ClubID:        event.ClubID,
			Status:        in.Status,
			ChassisNumber: in.ChassisNumber,
			LicensePlate:  in.LicensePlate,
			Make:          in.Make,
			Model:         in.Model,
			Year:          in.Year,
			Notes:         in.Notes,
			InspectorID:   actor.UserID,
			InspectedAt:   time.Now(),
		}
		if err := db.Create(&record).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	metrics.InspectionsRecorded.Inc()
	return &record, nil
}

// ListForEvent returns the event's inspection records, newest first.
func ListForEvent(db *gorm.DB, eventID uuid.UUID) ([]models.TechnicalInspection, error) {
	var records []models.TechnicalInspection
	err := db.Where("event_id = ?", eventID).Order("updated_at desc").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// History is the cross-event view of one vehicle.
type History struct {
	Latest        *models.TechnicalInspection     `json:"latest"`
	Records       []models.TechnicalInspection    `json:"records"`
	StatusCounts  map[models.InspectionStatus]int `json:"statusCounts"`
	CriticalIssue bool                            `json:"criticalIssue"`
}

// criticalWindow is how far back a REJECTED record flags the vehicle.
const criticalWindow = 365 * 24 * time.Hour

// Lookup matches inspections across all events and clubs by chassis number
// or license plate. The critical flag is set when any REJECTED record falls
// inside the last 365 days.
func Lookup(db *gorm.DB, chassisNumber, licensePlate string) (*History, error) {
	if chassisNumber == "" && licensePlate == "" {
		return nil, apperr.Validation("chassisNumber or licensePlate is required")
	}

	q := db.Model(&models.TechnicalInspection{})
	switch {
	case chassisNumber != "" && licensePlate != "":
		q = q.Where("chassis_number = ? OR license_plate = ?", chassisNumber, licensePlate)
	case chassisNumber != "":
		q = q.Where("chassis_number = ?", chassisNumber)
	default:
		q = q.Where("license_plate = ?", licensePlate)
	}

	var records []models.TechnicalInspection
	if err := q.Order("inspected_at desc").Find(&records).Error; err != nil {
		return nil, err
	}

	h := &History{
		Records:      records,
		StatusCounts: make(map[models.InspectionStatus]int),
	}
	cutoff := time.Now().Add(-criticalWindow)
	for i := range records {
		h.StatusCounts[records[i].Status]++
		if records[i].Status == models.InspectionRejected && records[i].InspectedAt.After(cutoff) {
			h.CriticalIssue = true
		}
	}
	if len(records) > 0 {
		h.Latest = &records[0]
	}
	return h, nil
}
