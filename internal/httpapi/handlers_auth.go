package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/auth"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

type registerRequest struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	ClubID   *uuid.UUID `json:"clubId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := auth.RegisterUser(s.DB, req.Email, req.Name, req.Password, req.ClubID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, session, err := auth.Login(s.DB, req.Email, req.Password, s.SessionTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": session.Token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.Logout(s.DB, auth.TokenFromRequest(r))
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	var user models.User
	if err := s.DB.First(&user, "id = ?", id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type vehicleRequest struct {
	StartNumber   int    `json:"startNumber"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	ChassisNumber string `json:"chassisNumber"`
	LicensePlate  string `json:"licensePlate"`
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	var vehicles []models.UserVehicle
	err := s.DB.Where("owner_id = ?", identity(r).UserID).Order("start_number asc").Find(&vehicles).Error
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.StartNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start number must be positive"})
		return
	}
	vehicle := models.UserVehicle{
		OwnerID:       identity(r).UserID,
		StartNumber:   req.StartNumber,
		Make:          req.Make,
		Model:         req.Model,
		Year:          req.Year,
		ChassisNumber: req.ChassisNumber,
		LicensePlate:  req.LicensePlate,
	}
	if err := s.DB.Create(&vehicle).Error; err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "you already have a vehicle with this start number"})
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}
