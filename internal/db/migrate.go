package db

import (
	"log"

	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Club{},
		&models.User{},
		&models.Session{},
		&models.UserVehicle{},
		&models.GlobalClass{},
		&models.ClubClass{},
		&models.Event{},
		&models.EventClass{},
		&models.Registration{},
		&models.RegistrationVehicle{},
		&models.CheckIn{},
		&models.TechnicalInspection{},
		&models.WeightLimit{},
		&models.WeightControl{},
	)
	if err != nil {
		log.Fatalf("❌ migration failed: %v", err)
	}
	log.Println("✅ database migrated successfully")
}
