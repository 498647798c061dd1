package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventSubmitted EventStatus = "SUBMITTED"
	EventApproved  EventStatus = "APPROVED"
	EventRejected  EventStatus = "REJECTED"
	EventPublished EventStatus = "PUBLISHED"
)

// ---------------- EVENTS ----------------
type Event struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"clubId"`
	Title    string      `gorm:"not null" json:"title"`
	Location string      `json:"location"`
	Status   EventStatus `gorm:"not null;default:DRAFT;index" json:"status"`

	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	MaxParticipants       int        `gorm:"default:0" json:"maxParticipants"`
	RegistrationStartDate *time.Time `json:"registrationStartDate,omitempty"`
	RegistrationEndDate   *time.Time `json:"registrationEndDate,omitempty"`
	RequiresVehicle       bool       `gorm:"default:false" json:"requiresVehicle"`

	// e.g. ["SPRINT","ENDURANCE"]
	Disciplines datatypes.JSON `json:"disciplines,omitempty"`

	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Classes []EventClass `gorm:"foreignKey:EventID" json:"classes,omitempty"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ---------------- CLASSES ----------------

// EventClass is a competition class attached to one event. Name is unique
// within the event; the weight band is optional and informational.
type EventClass struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_event_class" json:"eventId"`
	Name        string    `gorm:"not null;uniqueIndex:uniq_event_class" json:"name"`
	MinWeightKg *float64  `json:"minWeightKg,omitempty"`
	MaxWeightKg *float64  `json:"maxWeightKg,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *EventClass) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ClubClass is a club level class template.
type ClubClass struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_club_class" json:"clubId"`
	Name        string    `gorm:"not null;uniqueIndex:uniq_club_class" json:"name"`
	MinWeightKg *float64  `json:"minWeightKg,omitempty"`
	MaxWeightKg *float64  `json:"maxWeightKg,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *ClubClass) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GlobalClass is a system wide class template maintained by the federation.
type GlobalClass struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	MinWeightKg *float64  `json:"minWeightKg,omitempty"`
	MaxWeightKg *float64  `json:"maxWeightKg,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *GlobalClass) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
