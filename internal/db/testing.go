package db

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTest opens a migrated in-memory database for service tests. The
// database is named per call so pooled connections share one store and
// parallel tests do not.
func OpenTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
