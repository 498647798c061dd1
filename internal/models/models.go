package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role of a user within the system. CLUBADMIN and the staff roles are
// always scoped to the user's club; FEDERATION_ADMIN and SUPERADMIN are not.
type Role string

const (
	RoleSuperadmin         Role = "SUPERADMIN"
	RoleClubAdmin          Role = "CLUBADMIN"
	RoleAthlete            Role = "ATHLETE"
	RoleFederationAdmin    Role = "FEDERATION_ADMIN"
	RoleTechnicalInspector Role = "TECHNICAL_INSPECTOR"
	RoleWeightController   Role = "WEIGHT_CONTROLLER"
	RoleRaceOfficial       Role = "RACE_OFFICIAL"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleClubAdmin, RoleAthlete, RoleFederationAdmin,
		RoleTechnicalInspector, RoleWeightController, RoleRaceOfficial:
		return true
	}
	return false
}

// Staff reports whether r is an event-staff role (may process participants).
func (r Role) Staff() bool {
	switch r {
	case RoleTechnicalInspector, RoleWeightController, RoleRaceOfficial, RoleClubAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// ---------------- CLUBS ----------------
type Club struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Events []Event `gorm:"foreignKey:ClubID" json:"-"`
	Users  []User  `gorm:"foreignKey:ClubID" json:"-"`
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ---------------- USERS ----------------
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null" json:"name"`
	Role         Role       `gorm:"not null;default:ATHLETE" json:"role"`
	ClubID       *uuid.UUID `gorm:"type:uuid;index" json:"clubId,omitempty"`
	PasswordHash string     `gorm:"not null" json:"-"`
	PasswordSalt string     `gorm:"not null" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Vehicles []UserVehicle `gorm:"foreignKey:OwnerID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ---------------- SESSIONS ----------------

// Session is a server side session record. The cookie only carries the
// opaque token; role and club are always resolved from the users table.
type Session struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ---------------- VEHICLES ----------------

// UserVehicle is an athlete owned vehicle profile with a self chosen start
// number, unique per owner.
type UserVehicle struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_owner_startnum" json:"ownerId"`
	StartNumber   int       `gorm:"not null;uniqueIndex:uniq_owner_startnum" json:"startNumber"`
	Make          string    `json:"make"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	ChassisNumber string    `gorm:"index" json:"chassisNumber"`
	LicensePlate  string    `gorm:"index" json:"licensePlate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (v *UserVehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
