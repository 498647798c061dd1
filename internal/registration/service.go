// Package registration validates and creates event entries: capacity,
// registration window, class membership and start number uniqueness.
package registration

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

// VehicleInput lets an athlete declare a vehicle inline while registering.
type VehicleInput struct {
	StartNumber   int    `json:"startNumber"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	ChassisNumber string `json:"chassisNumber"`
	LicensePlate  string `json:"licensePlate"`
}

// RegisterInput selects the class and zero or more of the athlete's vehicles.
type RegisterInput struct {
	ClassID       uuid.UUID     `json:"classId"`
	VehicleIDs    []uuid.UUID   `json:"vehicleIds"`
	InlineVehicle *VehicleInput `json:"vehicle"`
}

// usedStartNumbers collects every start number held by a live registration
// or registration vehicle in the event.
func usedStartNumbers(tx *gorm.DB, eventID uuid.UUID) (map[int]bool, error) {
	used := make(map[int]bool)

	var regNums []int
	err := tx.Model(&models.Registration{}).
		Where("event_id = ? AND status <> ? AND start_number IS NOT NULL", eventID, models.RegistrationCancelled).
		Pluck("start_number", &regNums).Error
	if err != nil {
		return nil, err
	}
	for _, n := range regNums {
		used[n] = true
	}

	var vehicleNums []int
	err = tx.Model(&models.RegistrationVehicle{}).
		Where("event_id = ? AND start_number IS NOT NULL", eventID).
		Pluck("start_number", &vehicleNums).Error
	if err != nil {
		return nil, err
	}
	for _, n := range vehicleNums {
		used[n] = true
	}
	return used, nil
}

func lowestFree(used map[int]bool) int {
	for n := 1; ; n++ {
		if !used[n] {
			return n
		}
	}
}

// Register creates a CONFIRMED registration plus one row per selected
// vehicle, all inside one transaction.
func Register(db *gorm.DB, actor auth.Identity, eventID uuid.UUID, in RegisterInput) (*models.Registration, error) {
	var reg *models.Registration
	err := db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("event not found")
			}
			return err
		}
		if event.Status != models.EventPublished {
			return apperr.InvalidState("event is not open for registration: status is %s, must be PUBLISHED", event.Status)
		}

		now := time.Now()
		if event.RegistrationStartDate != nil && now.Before(*event.RegistrationStartDate) {
			return apperr.InvalidState("registration window has not opened yet")
		}
		if event.RegistrationEndDate != nil && now.After(*event.RegistrationEndDate) {
			return apperr.InvalidState("registration window has closed")
		}

		var existing int64
		err := tx.Model(&models.Registration{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", eventID, actor.UserID, models.RegistrationCancelled).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("already registered for this event")
		}

		if event.MaxParticipants > 0 {
			var confirmed int64
			err := tx.Model(&models.Registration{}).
				Where("event_id = ? AND status <> ?", eventID, models.RegistrationCancelled).
				Count(&confirmed).Error
			if err != nil {
				return err
			}
			if confirmed >= int64(event.MaxParticipants) {
				return apperr.Conflict("event is full")
			}
		}

		var class models.EventClass
		if err := tx.First(&class, "id = ? AND event_id = ?", in.ClassID, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("class does not belong to this event")
			}
			return err
		}

		vehicles, err := resolveVehicles(tx, actor.UserID, in)
		if err != nil {
			return err
		}
		if event.RequiresVehicle && len(vehicles) == 0 {
			return apperr.Validation("this event requires a vehicle")
		}

		used, err := usedStartNumbers(tx, eventID)
		if err != nil {
			return err
		}

		var startNumber int
		if len(vehicles) > 0 {
			for _, v := range vehicles {
				if used[v.StartNumber] {
					return apperr.Conflict("start number %d is already taken", v.StartNumber)
				}
				used[v.StartNumber] = true
			}
			startNumber = vehicles[0].StartNumber
		} else {
			startNumber = lowestFree(used)
		}

		r := models.Registration{
			EventID:     eventID,
			UserID:      actor.UserID,
			ClassID:     class.ID,
			StartNumber: &startNumber,
			Status:      models.RegistrationConfirmed,
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		for _, v := range vehicles {
			num := v.StartNumber
			rv := models.RegistrationVehicle{
				RegistrationID: r.ID,
				EventID:        eventID,
				VehicleID:      v.ID,
				StartNumber:    &num,
			}
			if err := tx.Create(&rv).Error; err != nil {
				return err
			}
		}
		reg = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RegistrationsCreated.Inc()
	return reg, nil
}

// resolveVehicles loads the selected vehicle profiles, creating the inline
// one first if supplied. Selected vehicles must belong to the caller.
func resolveVehicles(tx *gorm.DB, userID uuid.UUID, in RegisterInput) ([]models.UserVehicle, error) {
	var vehicles []models.UserVehicle
	for _, id := range in.VehicleIDs {
		var v models.UserVehicle
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("vehicle not found")
			}
			return nil, err
		}
		if v.OwnerID != userID {
			return nil, apperr.Forbidden("vehicle belongs to another user")
		}
		vehicles = append(vehicles, v)
	}
	if in.InlineVehicle != nil {
		iv := in.InlineVehicle
		if iv.StartNumber <= 0 {
			return nil, apperr.Validation("vehicle start number must be positive")
		}
		v := models.UserVehicle{
			OwnerID:       userID,
			StartNumber:   iv.StartNumber,
			Make:          iv.Make,
			Model:         iv.Model,
			Year:          iv.Year,
			ChassisNumber: iv.ChassisNumber,
			LicensePlate:  iv.LicensePlate,
		}
		if err := tx.Create(&v).Error; err != nil {
			return nil, apperr.Conflict("you already have a vehicle with start number %d", iv.StartNumber)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

// Cancel releases the registration's start numbers and marks it CANCELLED.
// Allowed for the athlete themselves or an admin of the owning club.
func Cancel(db *gorm.DB, actor auth.Identity, regID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.First(&reg, "id = ?", regID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("registration not found")
			}
			return err
		}
		if reg.Status == models.RegistrationCancelled {
			return apperr.InvalidState("registration is already cancelled")
		}
		if actor.UserID != reg.UserID && actor.Role != models.RoleSuperadmin {
			var event models.Event
			if err := tx.First(&event, "id = ?", reg.EventID).Error; err != nil {
				return err
			}
			if actor.Role != models.RoleClubAdmin || !actor.MemberOf(event.ClubID) {
				return apperr.Forbidden("not your registration")
			}
		}

		updates := map[string]any{"status": models.RegistrationCancelled, "start_number": nil}
		if err := tx.Model(&reg).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&models.RegistrationVehicle{}).
			Where("registration_id = ?", reg.ID).
			Update("start_number", nil).Error
	})
}

// ListForEvent returns every non-cancelled registration with its vehicles.
func ListForEvent(db *gorm.DB, eventID uuid.UUID) ([]models.Registration, error) {
	var regs []models.Registration
	err := db.Preload("Vehicles").Preload("User").Preload("Class").
		Where("event_id = ? AND status <> ?", eventID, models.RegistrationCancelled).
		Order("start_number asc").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}
