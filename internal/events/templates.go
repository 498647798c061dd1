package events

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// Class templates are reusable class definitions. Clubs curate their own set,
// the federation maintains the global one; either can be copied into an
// event's class list by template id.

// ListClubClasses returns the actor's club templates, alphabetically.
func ListClubClasses(db *gorm.DB, actor auth.Identity) ([]models.ClubClass, error) {
	if actor.ClubID == nil {
		return nil, apperr.Forbidden("actor has no club")
	}
	var classes []models.ClubClass
	err := db.Where("club_id = ?", *actor.ClubID).Order("name asc").Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}

// CreateClubClass adds a template to the actor's club. Names are unique per
// club.
func CreateClubClass(db *gorm.DB, actor auth.Identity, in ClassInput) (*models.ClubClass, error) {
	if actor.Role != models.RoleClubAdmin && actor.Role != models.RoleSuperadmin {
		return nil, apperr.Forbidden("only club admins may manage class templates")
	}
	if actor.ClubID == nil {
		return nil, apperr.Forbidden("actor has no club")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("class name is required")
	}
	if in.MinWeightKg != nil && in.MaxWeightKg != nil && *in.MinWeightKg > *in.MaxWeightKg {
		return nil, apperr.Validation("min weight above max weight")
	}

	var count int64
	err := db.Model(&models.ClubClass{}).
		Where("club_id = ? AND name = ?", *actor.ClubID, name).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict("class template %q already exists", name)
	}

	class := models.ClubClass{
		ClubID:      *actor.ClubID,
		Name:        name,
		MinWeightKg: in.MinWeightKg,
		MaxWeightKg: in.MaxWeightKg,
	}
	if err := db.Create(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

// DeleteClubClass removes a template of the actor's club. Events that copied
// it keep their classes.
func DeleteClubClass(db *gorm.DB, actor auth.Identity, id uuid.UUID) error {
	if actor.Role != models.RoleClubAdmin && actor.Role != models.RoleSuperadmin {
		return apperr.Forbidden("only club admins may manage class templates")
	}
	var class models.ClubClass
	if err := db.First(&class, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("class template not found")
		}
		return err
	}
	if actor.Role != models.RoleSuperadmin && !actor.MemberOf(class.ClubID) {
		return apperr.Forbidden("class template belongs to another club")
	}
	return db.Delete(&class).Error
}

// ListGlobalClasses returns the federation-wide templates.
func ListGlobalClasses(db *gorm.DB) ([]models.GlobalClass, error) {
	var classes []models.GlobalClass
	if err := db.Order("name asc").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

// resolveTemplate fills a ClassInput from a club template of the owning club,
// falling back to the global set. Explicit fields win.
func resolveTemplate(db *gorm.DB, clubID uuid.UUID, in *ClassInput) error {
	if in.TemplateID == nil {
		return nil
	}

	var name string
	var min, max *float64
	var club models.ClubClass
	err := db.First(&club, "id = ? AND club_id = ?", *in.TemplateID, clubID).Error
	switch {
	case err == nil:
		name, min, max = club.Name, club.MinWeightKg, club.MaxWeightKg
	case errors.Is(err, gorm.ErrRecordNotFound):
		var global models.GlobalClass
		if err := db.First(&global, "id = ?", *in.TemplateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("unknown class template %s", *in.TemplateID)
			}
			return err
		}
		name, min, max = global.Name, global.MinWeightKg, global.MaxWeightKg
	default:
		return err
	}

	if strings.TrimSpace(in.Name) == "" {
		in.Name = name
	}
	if in.MinWeightKg == nil {
		in.MinWeightKg = min
	}
	if in.MaxWeightKg == nil {
		in.MaxWeightKg = max
	}
	return nil
}
