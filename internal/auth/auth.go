// Package auth implements accounts and server side sessions. The cookie
// carries only an opaque random token; role and club membership are resolved
// from the database on every request.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// Identity is the trusted caller identity attached to each request.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
	ClubID *uuid.UUID
}

// MemberOf reports whether the identity belongs to the given club.
func (id Identity) MemberOf(clubID uuid.UUID) bool {
	return id.ClubID != nil && *id.ClubID == clubID
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashPassword returns a salted sha256 digest and the salt, both encoded.
func HashPassword(password string) (hash string, salt string, err error) {
	salt, err = randomToken(16)
	if err != nil {
		return "", "", err
	}
	return digest(salt, password), salt, nil
}

func digest(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

func verifyPassword(hash, salt, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(digest(salt, password))) == 1
}

// RegisterUser creates an athlete account. Staff accounts are provisioned by
// admins, not through the public endpoint.
func RegisterUser(db *gorm.DB, email, name, password string, clubID *uuid.UUID) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid email")
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(password) < 8 || len(password) > 128 {
		return nil, apperr.Validation("password must be 8-128 characters")
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		Name:         name,
		Role:         models.RoleAthlete,
		ClubID:       clubID,
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already registered")
		}
		// not every driver reports gorm.ErrDuplicatedKey
		var count int64
		db.Model(&models.User{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and opens a session.
func Login(db *gorm.DB, email, password string, ttl time.Duration) (*models.User, *models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !verifyPassword(user.PasswordHash, user.PasswordSalt, password) {
		return nil, nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := randomToken(32)
	if err != nil {
		return nil, nil, err
	}
	session := models.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, nil, err
	}
	return &user, &session, nil
}

// ResolveSession maps a token to a trusted identity. Expired sessions are
// deleted on sight.
func ResolveSession(db *gorm.DB, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("not logged in")
	}
	var session models.Session
	if err := db.First(&session, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, apperr.Unauthorized("not logged in")
		}
		return Identity{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		db.Delete(&session)
		return Identity{}, apperr.Unauthorized("session expired")
	}
	var user models.User
	if err := db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return Identity{}, apperr.Unauthorized("not logged in")
	}
	return Identity{UserID: user.ID, Role: user.Role, ClubID: user.ClubID}, nil
}

// Logout deletes the session; unknown tokens are a no-op.
func Logout(db *gorm.DB, token string) {
	if token != "" {
		db.Delete(&models.Session{}, "token = ?", token)
	}
}
