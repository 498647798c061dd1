package db

import (
	"encoding/json"
	"log"
	"time"

	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed inserts a demo club with staff, athletes and a published event.
// Idempotent: skips when any user exists.
func Seed(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("🌱 Data already exists, skipping seed.")
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		club := models.Club{Name: "KNA Varna", City: "Sandefjord"}
		if err := tx.Create(&club).Error; err != nil {
			return err
		}

		users := []models.User{
			{Email: "root@raceday.local", Name: "Root", Role: models.RoleSuperadmin},
			{Email: "federation@raceday.local", Name: "Federation Reviewer", Role: models.RoleFederationAdmin},
			{Email: "admin@varna.local", Name: "Club Admin", Role: models.RoleClubAdmin, ClubID: &club.ID},
			{Email: "inspector@varna.local", Name: "Technical Inspector", Role: models.RoleTechnicalInspector, ClubID: &club.ID},
			{Email: "scales@varna.local", Name: "Weight Controller", Role: models.RoleWeightController, ClubID: &club.ID},
			{Email: "official@varna.local", Name: "Race Official", Role: models.RoleRaceOfficial, ClubID: &club.ID},
			{Email: "driver1@example.com", Name: "Anna Berg", Role: models.RoleAthlete, ClubID: &club.ID},
			{Email: "driver2@example.com", Name: "Jonas Lie", Role: models.RoleAthlete, ClubID: &club.ID},
		}
		for i := range users {
			hash, salt, err := auth.HashPassword("raceday123")
			if err != nil {
				return err
			}
			users[i].PasswordHash = hash
			users[i].PasswordSalt = salt
			if err := tx.Create(&users[i]).Error; err != nil {
				return err
			}
		}

		min85, max165 := 85.0, 165.0
		globals := []models.GlobalClass{
			{Name: "Cadetti", MinWeightKg: &min85},
			{Name: "Mini 60"},
			{Name: "Senior", MaxWeightKg: &max165},
		}
		if err := tx.Create(&globals).Error; err != nil {
			return err
		}

		disciplines, _ := json.Marshal([]string{"SPRINT"})
		now := time.Now()
		regStart := now.Add(-24 * time.Hour)
		regEnd := now.Add(14 * 24 * time.Hour)
		event := models.Event{
			ClubID:                club.ID,
			Title:                 "Varna Spring Cup",
			Location:              "Varna Motorbane",
			Status:                models.EventPublished,
			StartDate:             now.Add(21 * 24 * time.Hour),
			EndDate:               now.Add(22 * 24 * time.Hour),
			MaxParticipants:       40,
			RegistrationStartDate: &regStart,
			RegistrationEndDate:   &regEnd,
			RequiresVehicle:       false,
			Disciplines:           datatypes.JSON(disciplines),
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		for _, g := range globals {
			ec := models.EventClass{
				EventID:     event.ID,
				Name:        g.Name,
				MinWeightKg: g.MinWeightKg,
				MaxWeightKg: g.MaxWeightKg,
			}
			if err := tx.Create(&ec).Error; err != nil {
				return err
			}
		}

		log.Println("🌱 Sample data inserted successfully.")
		return nil
	})
	if err != nil {
		log.Fatalf("❌ seed failed: %v", err)
	}
}
