package weight

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/checkin"
	"github.com/oivindh/raceday/internal/db"
	"github.com/oivindh/raceday/internal/inspection"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	event      *models.Event
	class      *models.EventClass
	userID     uuid.UUID
	official   auth.Identity
	inspector  auth.Identity
	controller auth.Identity
}

// newFixture registers one participant with start number 7.
func newFixture(t *testing.T) *fixture {
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
	class := models.EventClass{EventID: event.ID, Name: "Senior"}
	if err := database.Create(&class).Error; err != nil {
		t.Fatalf("create class: %v", err)
	}
	user := models.User{Email: "anna@example.com", Name: "Anna", Role: models.RoleAthlete}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	num := 7
	reg := models.Registration{
		EventID:     event.ID,
		UserID:      user.ID,
		ClassID:     class.ID,
		StartNumber: &num,
		Status:      models.RegistrationConfirmed,
	}
	if err := database.Create(&reg).Error; err != nil {
		t.Fatalf("create registration: %v", err)
	}

	return &fixture{
		db:         database,
		event:      &event,
		class:      &class,
		userID:     user.ID,
		official:   auth.Identity{UserID: uuid.New(), Role: models.RoleRaceOfficial, ClubID: &club.ID},
		inspector:  auth.Identity{UserID: uuid.New(), Role: models.RoleTechnicalInspector, ClubID: &club.ID},
		controller: auth.Identity{UserID: uuid.New(), Role: models.RoleWeightController, ClubID: &club.ID},
	}
}

func (f *fixture) checkInOK(t *testing.T) {
	t.Helper()
	if _, err := checkin.Process(f.db, f.official, f.event.ID, checkin.Input{UserID: f.userID, Outcome: models.CheckInOK}); err != nil {
		t.Fatalf("check in: %v", err)
	}
}

func (f *fixture) inspect(t *testing.T, status models.InspectionStatus) {
	t.Helper()
	if _, err := inspection.Record(f.db, f.inspector, inspection.Input{
		EventID: f.event.ID, StartNumber: 7, Status: status, ChassisNumber: "CH-1",
	}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

// A participant checked in OK whose inspection is still PENDING is excluded
// from weight control; approving the inspection admits them.
func TestEligibilityGating(t *testing.T) {
	f := newFixture(t)
	f.checkInOK(t)
	f.inspect(t, models.InspectionPending)

	entries, err := Eligible(f.db, f.event.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("eligible entries = %d, want 0 while inspection pending", len(entries))
	}

	in := Input{StartNumber: 7, ClassID: f.class.ID, MeasuredKg: 151.5, Result: models.WeightPass}
	if _, err := Process(f.db, f.controller, f.event.ID, in); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("process before approval: err=%v, want invalid state", err)
	}

	f.inspect(t, models.InspectionApproved)

	entries, err = Eligible(f.db, f.event.ID)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if len(entries) != 1 || entries[0].StartNumber != 7 {
		t.Fatalf("eligible entries = %+v, want start number 7", entries)
	}
	if _, err := Process(f.db, f.controller, f.event.ID, in); err != nil {
		t.Fatalf("process after approval: %v", err)
	}
}

func TestEligibilityRequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	f.inspect(t, models.InspectionApproved)

	in := Input{StartNumber: 7, ClassID: f.class.ID, MeasuredKg: 151.5, Result: models.WeightPass}
	if _, err := Process(f.db, f.controller, f.event.ID, in); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("process without check-in: err=%v, want invalid state", err)
	}
}

func TestProcessUpsertsPerHeat(t *testing.T) {
	f := newFixture(t)
	f.checkInOK(t)
	f.inspect(t, models.InspectionApproved)

	training := Input{StartNumber: 7, Heat: "TRAINING", ClassID: f.class.ID, MeasuredKg: 149.0, Result: models.WeightUnderweight}
	race := Input{StartNumber: 7, ClassID: f.class.ID, MeasuredKg: 152.0, Result: models.WeightPass}

	if _, err := Process(f.db, f.controller, f.event.ID, training); err != nil {
		t.Fatalf("process training: %v", err)
	}
	if _, err := Process(f.db, f.controller, f.event.ID, race); err != nil {
		t.Fatalf("process race: %v", err)
	}

	// heats are independent readings
	records, err := ListForEvent(f.db, f.event.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (one per heat)", len(records))
	}

	// re-weighing the same heat overwrites
	race.MeasuredKg = 153.0
	if _, err := Process(f.db, f.controller, f.event.ID, race); err != nil {
		t.Fatalf("reprocess race: %v", err)
	}
	records, _ = ListForEvent(f.db, f.event.ID)
	if len(records) != 2 {
		t.Fatalf("records after reweigh = %d, want still 2", len(records))
	}
}

// The controller's call stands even when the band disagrees; the expected
// result is reported alongside.
func TestCallerAuthoritativeResult(t *testing.T) {
	f := newFixture(t)
	f.checkInOK(t)
	f.inspect(t, models.InspectionApproved)

	min := 150.0
	if _, err := ReplaceLimits(f.db, f.controller, f.event.ID, []LimitInput{
		{ClassID: f.class.ID, MinWeightKg: &min},
	}); err != nil {
		t.Fatalf("replace limits: %v", err)
	}

	reading, err := Process(f.db, f.controller, f.event.ID, Input{
		StartNumber: 7, ClassID: f.class.ID, MeasuredKg: 148.0, Result: models.WeightPass,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if reading.Record.Result != models.WeightPass {
		t.Fatalf("stored result = %s, want caller's PASS", reading.Record.Result)
	}
	if reading.ExpectedResult != models.WeightUnderweight {
		t.Fatalf("expected result = %s, want UNDERWEIGHT", reading.ExpectedResult)
	}
}

func TestProcessGuards(t *testing.T) {
	f := newFixture(t)
	f.checkInOK(t)
	f.inspect(t, models.InspectionApproved)

	athlete := auth.Identity{UserID: f.userID, Role: models.RoleAthlete}
	in := Input{StartNumber: 7, ClassID: f.class.ID, MeasuredKg: 151.5, Result: models.WeightPass}
	if _, err := Process(f.db, athlete, f.event.ID, in); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("process by athlete: err=%v, want forbidden", err)
	}

	rivalClub := models.Club{Name: "Rival Club"}
	if err := f.db.Create(&rivalClub).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	rival := auth.Identity{UserID: uuid.New(), Role: models.RoleWeightController, ClubID: &rivalClub.ID}
	if _, err := Process(f.db, rival, f.event.ID, in); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("process by another club's controller: err=%v, want forbidden", err)
	}

	bad := in
	bad.Result = "HEAVY"
	if _, err := Process(f.db, f.controller, f.event.ID, bad); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bogus result: err=%v, want validation", err)
	}

	unknown := in
	unknown.StartNumber = 99
	if _, err := Process(f.db, f.controller, f.event.ID, unknown); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown start number: err=%v, want not found", err)
	}
}

func TestReplaceLimits(t *testing.T) {
	f := newFixture(t)
	min, max := 145.0, 165.0

	limits, err := ReplaceLimits(f.db, f.controller, f.event.ID, []LimitInput{
		{ClassID: f.class.ID, MinWeightKg: &min, MaxWeightKg: &max},
	})
	if err != nil {
		t.Fatalf("replace limits: %v", err)
	}
	if len(limits) != 1 {
		t.Fatalf("limits = %d, want 1", len(limits))
	}

	// bulk replace swaps the whole set
	limits, err = ReplaceLimits(f.db, f.controller, f.event.ID, []LimitInput{
		{ClassID: f.class.ID, MaxWeightKg: &max},
	})
	if err != nil {
		t.Fatalf("replace limits again: %v", err)
	}
	if len(limits) != 1 || limits[0].MinWeightKg != nil {
		t.Fatalf("limits after replace = %+v", limits)
	}

	// an unknown event is a lookup failure, not an empty success
	_, err = ReplaceLimits(f.db, f.controller, uuid.New(), nil)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("replace limits on unknown event: err=%v, want not found", err)
	}

	// a foreign class id aborts the whole replacement
	before, _ := ListLimits(f.db, f.event.ID)
	_, err = ReplaceLimits(f.db, f.controller, f.event.ID, []LimitInput{{ClassID: uuid.New()}})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("foreign class: err=%v, want validation", err)
	}
	after, _ := ListLimits(f.db, f.event.ID)
	if len(after) != len(before) {
		t.Fatalf("failed replace mutated limits: %d -> %d", len(before), len(after))
	}
}
