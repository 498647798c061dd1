package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckInOutcome is the typed presence outcome for a participant.
type CheckInOutcome string

const (
	CheckInOK    CheckInOutcome = "OK"
	CheckInNotOK CheckInOutcome = "NOT_OK"
	CheckInDNS   CheckInOutcome = "DNS"
)

func (o CheckInOutcome) Valid() bool {
	switch o {
	case CheckInOK, CheckInNotOK, CheckInDNS:
		return true
	}
	return false
}

// OutcomeFromNotes lifts the legacy note-prefix convention (OK* / NOT_OK* /
// DNS*) into a typed outcome. Unknown prefixes report false.
func OutcomeFromNotes(notes string) (CheckInOutcome, bool) {
	switch {
	case strings.HasPrefix(notes, "NOT_OK"):
		return CheckInNotOK, true
	case strings.HasPrefix(notes, "DNS"):
		return CheckInDNS, true
	case strings.HasPrefix(notes, "OK"):
		return CheckInOK, true
	}
	return "", false
}

// ---------------- CHECK-INS ----------------
type CheckIn struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_event_user_checkin" json:"eventId"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_event_user_checkin" json:"userId"`
	Outcome   CheckInOutcome `gorm:"not null" json:"outcome"`
	Notes     string         `json:"notes"`
	StaffID   uuid.UUID      `gorm:"type:uuid" json:"staffId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (c *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// InspectionStatus of a vehicle for one event.
type InspectionStatus string

const (
	InspectionPending     InspectionStatus = "PENDING"
	InspectionApproved    InspectionStatus = "APPROVED"
	InspectionConditional InspectionStatus = "CONDITIONAL"
	InspectionRejected    InspectionStatus = "REJECTED"
)

func (s InspectionStatus) Valid() bool {
	switch s {
	case InspectionPending, InspectionApproved, InspectionConditional, InspectionRejected:
		return true
	}
	return false
}

// ---------------- TECHNICAL INSPECTIONS ----------------

// TechnicalInspection holds one row per (event, startNumber). Re-inspection
// overwrites the row; cross-event history survives because each event gets
// its own row, matched by chassis number or plate.
type TechnicalInspection struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uniq_event_inspection" json:"eventId"`
	StartNumber int              `gorm:"not null;uniqueIndex:uniq_event_inspection" json:"startNumber"`
	ClubID      uuid.UUID        `gorm:"type:uuid;index" json:"clubId"`
	Status      InspectionStatus `gorm:"not null;default:PENDING;index" json:"status"`

	ChassisNumber string `gorm:"index" json:"chassisNumber"`
	LicensePlate  string `gorm:"index" json:"licensePlate"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year"`

	Notes       string    `json:"notes"`
	InspectorID uuid.UUID `gorm:"type:uuid" json:"inspectorId"`
	InspectedAt time.Time `json:"inspectedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *TechnicalInspection) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ---------------- WEIGHT CONTROL ----------------

// WeightLimit is the min/max band for one class of one event.
type WeightLimit struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_event_class_limit" json:"eventId"`
	ClassID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_event_class_limit" json:"classId"`
	MinWeightKg *float64  `json:"minWeightKg,omitempty"`
	MaxWeightKg *float64  `json:"maxWeightKg,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (w *WeightLimit) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WeightResult as recorded by the controller. The measured value and the
// class band can disagree with it; the controller's call stands.
type WeightResult string

const (
	WeightPass        WeightResult = "PASS"
	WeightUnderweight WeightResult = "UNDERWEIGHT"
	WeightOverweight  WeightResult = "OVERWEIGHT"
	WeightFail        WeightResult = "FAIL"
)

func (r WeightResult) Valid() bool {
	switch r {
	case WeightPass, WeightUnderweight, WeightOverweight, WeightFail:
		return true
	}
	return false
}

// DefaultHeat is used when the caller does not name a heat.
const DefaultHeat = "RACE"

// WeightControl holds one reading per (event, startNumber, heat).
type WeightControl struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_event_heat_weight" json:"eventId"`
	StartNumber  int          `gorm:"not null;uniqueIndex:uniq_event_heat_weight" json:"startNumber"`
	Heat         string       `gorm:"not null;default:RACE;uniqueIndex:uniq_event_heat_weight" json:"heat"`
	ClassID      uuid.UUID    `gorm:"type:uuid" json:"classId"`
	MeasuredKg   float64      `gorm:"not null" json:"measuredKg"`
	Result       WeightResult `gorm:"not null" json:"result"`
	Notes        string       `json:"notes"`
	ControllerID uuid.UUID    `gorm:"type:uuid" json:"controllerId"`
	MeasuredAt   time.Time    `json:"measuredAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (w *WeightControl) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
