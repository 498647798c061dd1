package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationStatus of an entry. CHECKED_IN is set by the check-in
// processor; CANCELLED entries free their start numbers.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCheckedIn RegistrationStatus = "CHECKED_IN"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

// Live reports whether the registration still occupies a slot.
func (s RegistrationStatus) Live() bool { return s != RegistrationCancelled }

// ---------------- REGISTRATIONS ----------------

// Registration links a user to an event and class. StartNumber is nullable
// so the unique index only covers live rows: cancelling a registration nulls
// the number, releasing it for re-use.
type Registration struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:uniq_event_startnum" json:"eventId"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"userId"`
	ClassID     uuid.UUID          `gorm:"type:uuid;not null" json:"classId"`
	StartNumber *int               `gorm:"uniqueIndex:uniq_event_startnum" json:"startNumber,omitempty"`
	Status      RegistrationStatus `gorm:"not null;default:CONFIRMED;index" json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`

	User     User                  `gorm:"foreignKey:UserID" json:"-"`
	Class    EventClass            `gorm:"foreignKey:ClassID" json:"-"`
	Vehicles []RegistrationVehicle `gorm:"foreignKey:RegistrationID" json:"vehicles,omitempty"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RegistrationVehicle attaches one vehicle to a registration with its own
// start number. EventID is denormalized so the per-event uniqueness of the
// number can live in an index.
type RegistrationVehicle struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RegistrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"registrationId"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_event_vehicle_startnum" json:"eventId"`
	VehicleID      uuid.UUID `gorm:"type:uuid;not null" json:"vehicleId"`
	StartNumber    *int      `gorm:"uniqueIndex:uniq_event_vehicle_startnum" json:"startNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	Vehicle UserVehicle `gorm:"foreignKey:VehicleID" json:"-"`
}

func (v *RegistrationVehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
