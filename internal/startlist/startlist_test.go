package startlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oivindh/raceday/internal/db"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

type entrySpec struct {
	name       string
	class      string
	number     int
	checkIn    models.CheckInOutcome // "" = not processed
	inspection models.InspectionStatus
}

func buildFixture(t *testing.T, entries []entrySpec) (*gorm.DB, *models.Event) {
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

	classes := make(map[string]models.EventClass)
	for _, e := range entries {
		if _, ok := classes[e.class]; !ok {
			c := models.EventClass{EventID: event.ID, Name: e.class}
			if err := database.Create(&c).Error; err != nil {
				t.Fatalf("create class: %v", err)
			}
			classes[e.class] = c
		}

		user := models.User{Email: strings.ToLower(e.name) + "@example.com", Name: e.name, Role: models.RoleAthlete}
		if err := database.Create(&user).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
		num := e.number
		reg := models.Registration{
			EventID:     event.ID,
			UserID:      user.ID,
			ClassID:     classes[e.class].ID,
			StartNumber: &num,
			Status:      models.RegistrationConfirmed,
		}
		if err := database.Create(&reg).Error; err != nil {
			t.Fatalf("create registration: %v", err)
		}

		if e.checkIn != "" {
			c := models.CheckIn{EventID: event.ID, UserID: user.ID, Outcome: e.checkIn}
			if err := database.Create(&c).Error; err != nil {
				t.Fatalf("create check-in: %v", err)
			}
		}
		if e.inspection != "" {
			i := models.TechnicalInspection{
				EventID: event.ID, StartNumber: e.number, ClubID: club.ID, Status: e.inspection,
			}
			if err := database.Create(&i).Error; err != nil {
				t.Fatalf("create inspection: %v", err)
			}
		}
	}
	return database, &event
}

func TestBuildBuckets(t *testing.T) {
	database, event := buildFixture(t, []entrySpec{
		{"Anna", "Senior", 7, models.CheckInOK, models.InspectionApproved},
		{"Bjorn", "Senior", 12, models.CheckInOK, models.InspectionConditional},
		{"Carla", "Mini", 3, "", models.InspectionApproved},
		{"Dag", "Mini", 4, "", ""},
	})

	list, err := Build(database, event.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := Stats{Total: 4, ReadyToRace: 1, PendingTechnical: 1, PendingCheckIn: 1}
	if list.Stats != want {
		t.Fatalf("stats = %+v, want %+v", list.Stats, want)
	}

	byNumber := make(map[int]Entry)
	for _, e := range list.Entries {
		byNumber[e.StartNumber] = e
	}
	cases := map[int]Readiness{7: Ready, 12: PendingTechnical, 3: PendingCheckIn, 4: Pending}
	for num, readiness := range cases {
		if byNumber[num].Readiness != readiness {
			t.Errorf("entry %d readiness = %s, want %s", num, byNumber[num].Readiness, readiness)
		}
	}

	// a missing inspection row reads as PENDING status
	if byNumber[4].InspectionStatus != models.InspectionPending {
		t.Errorf("entry 4 inspection = %s, want PENDING", byNumber[4].InspectionStatus)
	}

	if list.ClassCounts["Senior"] != 2 || list.ClassCounts["Mini"] != 2 {
		t.Errorf("class counts = %v", list.ClassCounts)
	}

	// ranked by start number
	for i := 1; i < len(list.Entries); i++ {
		if list.Entries[i-1].StartNumber > list.Entries[i].StartNumber {
			t.Fatalf("entries not ordered by start number: %+v", list.Entries)
		}
	}
}

func TestCancelledExcluded(t *testing.T) {
	database, event := buildFixture(t, []entrySpec{
		{"Anna", "Senior", 7, models.CheckInOK, models.InspectionApproved},
		{"Bjorn", "Senior", 12, "", ""},
	})
	database.Model(&models.Registration{}).
		Where("start_number = ?", 12).
		Updates(map[string]any{"status": models.RegistrationCancelled, "start_number": nil})

	list, err := Build(database, event.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if list.Stats.Total != 1 || len(list.Entries) != 1 {
		t.Fatalf("cancelled entry still listed: %+v", list.Entries)
	}
}

func TestWriteCSV(t *testing.T) {
	database, event := buildFixture(t, []entrySpec{
		{"Anna", "Senior", 7, models.CheckInOK, models.InspectionApproved},
	})
	list, err := Build(database, event.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, list); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[1], "7,Anna,Senior,OK,APPROVED,READY") {
		t.Fatalf("csv row = %q", lines[1])
	}
}

func TestWriteHTML(t *testing.T) {
	database, event := buildFixture(t, []entrySpec{
		{"Anna", "Senior", 7, models.CheckInOK, models.InspectionApproved},
	})
	list, err := Build(database, event.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteHTML(&buf, list); err != nil {
		t.Fatalf("write html: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Spring Cup", "Anna", "READY"} {
		if !strings.Contains(out, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}
