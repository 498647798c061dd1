package inspection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/db"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *models.Event, auth.Identity) {
	t.Helper()
	database := db.OpenTest(t)

	club := models.Club{Name: "Test Club"}
	if err := database.Create(&club).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	event := models.Event{ClubID: club.ID, Title: "Spring Cup", Status: models.EventPublished}
	if err := database.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	inspector := auth.Identity{UserID: uuid.New(), Role: models.RoleTechnicalInspector, ClubID: &club.ID}
	return database, &event, inspector
}

func TestRecordUpserts(t *testing.T) {
	database, event, inspector := setup(t)

	first, err := Record(database, inspector, Input{
		EventID:       event.ID,
		StartNumber:   7,
		Status:        models.InspectionConditional,
		ChassisNumber: "CH-1234",
		Notes:         "rear bumper loose, fix before race",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// resubmitting the same (event, startNumber) overwrites, not appends
	second, err := Record(database, inspector, Input{
		EventID:       event.ID,
		StartNumber:   7,
		Status:        models.InspectionApproved,
		ChassisNumber: "CH-1234",
	})
	if err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-inspection created a new row: %s != %s", second.ID, first.ID)
	}
	if second.Status != models.InspectionApproved {
		t.Fatalf("status = %s, want APPROVED", second.Status)
	}

	var count int64
	database.Model(&models.TechnicalInspection{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 1 {
		t.Fatalf("inspection rows = %d, want 1", count)
	}
}

func TestRecordGuards(t *testing.T) {
	database, event, _ := setup(t)

	clubAdmin := auth.Identity{UserID: uuid.New(), Role: models.RoleClubAdmin}
	_, err := Record(database, clubAdmin, Input{EventID: event.ID, StartNumber: 7, Status: models.InspectionApproved})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("record by club admin: err=%v, want forbidden", err)
	}

	// superadmins read inspections but never write them
	super := auth.Identity{UserID: uuid.New(), Role: models.RoleSuperadmin}
	_, err = Record(database, super, Input{EventID: event.ID, StartNumber: 7, Status: models.InspectionApproved})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("record by superadmin: err=%v, want forbidden", err)
	}

	rivalClubID := uuid.New()
	rival := auth.Identity{UserID: uuid.New(), Role: models.RoleTechnicalInspector, ClubID: &rivalClubID}
	_, err = Record(database, rival, Input{EventID: event.ID, StartNumber: 7, Status: models.InspectionApproved})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("record by another club's inspector: err=%v, want forbidden", err)
	}

	var count int64
	database.Model(&models.TechnicalInspection{}).Count(&count)
	if count != 0 {
		t.Fatalf("forbidden writes persisted %d rows", count)
	}

	inspector := auth.Identity{UserID: uuid.New(), Role: models.RoleTechnicalInspector}
	_, err = Record(database, inspector, Input{EventID: uuid.New(), StartNumber: 7, Status: models.InspectionApproved})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("record on unknown event: err=%v, want not found", err)
	}

	_, err = Record(database, inspector, Input{EventID: event.ID, StartNumber: 7, Status: "MAYBE"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("record with bogus status: err=%v, want validation", err)
	}
}

func TestLookupHistory(t *testing.T) {
	database, event, inspector := setup(t)

	// same chassis inspected in a second event, different club
	otherClub := models.Club{Name: "Other Club"}
	if err := database.Create(&otherClub).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	otherEvent := models.Event{ClubID: otherClub.ID, Title: "Autumn Cup", Status: models.EventPublished}
	if err := database.Create(&otherEvent).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}

	if _, err := Record(database, inspector, Input{
		EventID: event.ID, StartNumber: 7, Status: models.InspectionRejected,
		ChassisNumber: "CH-1234", Notes: "cracked frame",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	otherInspector := auth.Identity{UserID: uuid.New(), Role: models.RoleTechnicalInspector, ClubID: &otherClub.ID}
	if _, err := Record(database, otherInspector, Input{
		EventID: otherEvent.ID, StartNumber: 12, Status: models.InspectionApproved,
		ChassisNumber: "CH-1234",
	}); err != nil {
		t.Fatalf("record other event: %v", err)
	}

	h, err := Lookup(database, "CH-1234", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(h.Records) != 2 {
		t.Fatalf("history records = %d, want 2", len(h.Records))
	}
	if h.StatusCounts[models.InspectionRejected] != 1 || h.StatusCounts[models.InspectionApproved] != 1 {
		t.Fatalf("status counts = %v", h.StatusCounts)
	}
	if !h.CriticalIssue {
		t.Fatal("critical flag not set despite recent REJECTED record")
	}
	if h.Latest == nil || h.Latest.EventID != otherEvent.ID {
		t.Fatalf("latest = %+v, want the most recent inspection", h.Latest)
	}
}

func TestLookupCriticalWindowExpires(t *testing.T) {
	database, event, inspector := setup(t)

	if _, err := Record(database, inspector, Input{
		EventID: event.ID, StartNumber: 7, Status: models.InspectionRejected,
		ChassisNumber: "CH-9",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// age the rejection past the 365 day window
	old := time.Now().Add(-400 * 24 * time.Hour)
	database.Model(&models.TechnicalInspection{}).
		Where("chassis_number = ?", "CH-9").
		Update("inspected_at", old)

	h, err := Lookup(database, "CH-9", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if h.CriticalIssue {
		t.Fatal("critical flag set for a rejection older than 365 days")
	}
}

func TestLookupRequiresKey(t *testing.T) {
	database, _, _ := setup(t)
	if _, err := Lookup(database, "", ""); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("lookup without keys: err=%v, want validation", err)
	}
}
