package events

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/db"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, auth.Identity, auth.Identity) {
	t.Helper()
	database := db.OpenTest(t)

	club := models.Club{Name: "Test Club"}
	if err := database.Create(&club).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	admin := auth.Identity{UserID: uuid.New(), Role: models.RoleClubAdmin, ClubID: &club.ID}
	reviewer := auth.Identity{UserID: uuid.New(), Role: models.RoleFederationAdmin}
	return database, admin, reviewer
}

func draftEvent(t *testing.T, database *gorm.DB, admin auth.Identity) *models.Event {
	t.Helper()
	event, err := Create(database, admin, EventInput{
		Title:     "Spring Cup",
		Location:  "Varna Motorbane",
		StartDate: time.Now().Add(30 * 24 * time.Hour),
		EndDate:   time.Now().Add(31 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func TestLifecycleHappyPath(t *testing.T) {
	database, admin, reviewer := setup(t)
	event := draftEvent(t, database, admin)

	if event.Status != models.EventDraft {
		t.Fatalf("new event status = %s, want DRAFT", event.Status)
	}

	event, err := Submit(database, admin, event.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if event.Status != models.EventSubmitted || event.SubmittedAt == nil {
		t.Fatalf("after submit: status=%s submittedAt=%v", event.Status, event.SubmittedAt)
	}

	event, err = Approve(database, reviewer, event.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if event.Status != models.EventApproved || event.ReviewedBy == nil || *event.ReviewedBy != reviewer.UserID {
		t.Fatalf("after approve: status=%s reviewedBy=%v", event.Status, event.ReviewedBy)
	}

	event, err = Publish(database, admin, event.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if event.Status != models.EventPublished {
		t.Fatalf("after publish: status=%s", event.Status)
	}
}

func TestRejectAndResubmit(t *testing.T) {
	database, admin, reviewer := setup(t)
	event := draftEvent(t, database, admin)

	if _, err := Submit(database, admin, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	event, err := Reject(database, reviewer, event.ID, "missing insurance docs")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if event.Status != models.EventRejected || event.RejectionReason == "" {
		t.Fatalf("after reject: status=%s reason=%q", event.Status, event.RejectionReason)
	}

	// rejected events are re-editable and resubmittable
	if _, err := Update(database, admin, event.ID, EventInput{Title: "Spring Cup v2"}); err != nil {
		t.Fatalf("update rejected event: %v", err)
	}
	event, err = Submit(database, admin, event.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if event.RejectionReason != "" {
		t.Fatalf("rejection reason not cleared on resubmit: %q", event.RejectionReason)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	database, admin, reviewer := setup(t)
	event := draftEvent(t, database, admin)
	if _, err := Submit(database, admin, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := Reject(database, reviewer, event.ID, "  ")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("reject without reason: err=%v, want validation", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	database, admin, reviewer := setup(t)

	// approve straight from DRAFT must fail
	event := draftEvent(t, database, admin)
	if _, err := Approve(database, reviewer, event.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("approve DRAFT: err=%v, want invalid state", err)
	}

	// publish before approval must fail
	if _, err := Publish(database, admin, event.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("publish DRAFT: err=%v, want invalid state", err)
	}

	// submitted events are frozen for editing and deletion
	if _, err := Submit(database, admin, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := Update(database, admin, event.ID, EventInput{Title: "x"}); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("update SUBMITTED: err=%v, want invalid state", err)
	}
	if err := Delete(database, admin, event.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("delete SUBMITTED: err=%v, want invalid state", err)
	}

	// double submit must fail
	if _, err := Submit(database, admin, event.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("double submit: err=%v, want invalid state", err)
	}

	// published events cannot be deleted
	if _, err := Approve(database, reviewer, event.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := Publish(database, admin, event.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := Delete(database, admin, event.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("delete PUBLISHED: err=%v, want invalid state", err)
	}
}

func TestTransitionGuards(t *testing.T) {
	database, admin, _ := setup(t)
	event := draftEvent(t, database, admin)

	otherClub := models.Club{Name: "Other Club"}
	if err := database.Create(&otherClub).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	stranger := auth.Identity{UserID: uuid.New(), Role: models.RoleClubAdmin, ClubID: &otherClub.ID}
	athlete := auth.Identity{UserID: uuid.New(), Role: models.RoleAthlete, ClubID: admin.ClubID}

	if _, err := Submit(database, stranger, event.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("submit by other club: err=%v, want forbidden", err)
	}
	if _, err := Submit(database, athlete, event.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("submit by athlete: err=%v, want forbidden", err)
	}

	if _, err := Submit(database, admin, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// only federation reviewers approve
	if _, err := Approve(database, admin, event.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("approve by club admin: err=%v, want forbidden", err)
	}
}

func TestDeleteDraft(t *testing.T) {
	database, admin, _ := setup(t)
	event := draftEvent(t, database, admin)

	class := models.EventClass{EventID: event.ID, Name: "Senior"}
	if err := database.Create(&class).Error; err != nil {
		t.Fatalf("create class: %v", err)
	}
	limit := models.WeightLimit{EventID: event.ID, ClassID: class.ID}
	if err := database.Create(&limit).Error; err != nil {
		t.Fatalf("create weight limit: %v", err)
	}

	if err := Delete(database, admin, event.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := Get(database, event.ID); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("get deleted event: err=%v, want not found", err)
	}

	var limits int64
	database.Model(&models.WeightLimit{}).Where("event_id = ?", event.ID).Count(&limits)
	if limits != 0 {
		t.Fatalf("weight limits left behind after delete: %d", limits)
	}
}

func TestReplaceClasses(t *testing.T) {
	database, admin, _ := setup(t)
	event := draftEvent(t, database, admin)

	min85 := 85.0
	event, err := ReplaceClasses(database, admin, event.ID, []ClassInput{
		{Name: "Cadetti", MinWeightKg: &min85},
		{Name: "Senior"},
	})
	if err != nil {
		t.Fatalf("replace classes: %v", err)
	}
	if len(event.Classes) != 2 {
		t.Fatalf("class count = %d, want 2", len(event.Classes))
	}

	// full replacement, not a diff
	event, err = ReplaceClasses(database, admin, event.ID, []ClassInput{{Name: "Mini 60"}})
	if err != nil {
		t.Fatalf("replace classes again: %v", err)
	}
	if len(event.Classes) != 1 || event.Classes[0].Name != "Mini 60" {
		t.Fatalf("classes after replace = %+v", event.Classes)
	}

	_, err = ReplaceClasses(database, admin, event.ID, []ClassInput{{Name: "A"}, {Name: "A"}})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate class names: err=%v, want conflict", err)
	}
}
