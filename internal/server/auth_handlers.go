package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/models"
)

const invalidCredentials = "Credenciales inválidas"

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"nombre" validate:"required"`
	LastName  string `json:"apellido" validate:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"usuario"`
}

// ChangePasswordRequest represents a password change by the logged-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"passwordActual" validate:"required"`
	NewPassword     string `json:"passwordNuevo" validate:"required,min=8"`
}

// bind decodes JSON or form bodies and runs struct validation
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Datos inválidos: "+err.Error())
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		respondMessage(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// @Summary First-run setup
// @Description Creates the first admin user (only works if no users exist)
// @Tags auth
// @Router /setup [post]
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if !s.bind(c, &req) {
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	if count > 0 {
		respondMessage(c, http.StatusConflict, "La configuración inicial ya fue realizada")
		return
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate JWT secret")
		respondMessage(c, http.StatusInternalServerError, "No se pudo inicializar el sistema")
		return
	}
	jwtSecret := hex.EncodeToString(secretBytes)

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondMessage(c, http.StatusInternalServerError, "No se pudo crear el usuario")
		return
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Role:         auth.RoleAdmin,
		Active:       true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Config{JWTSecret: jwtSecret}).Error; err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to complete first setup")
		respondMessage(c, http.StatusInternalServerError, "No se pudo inicializar el sistema")
		return
	}

	auth.InitializeJWT(jwtSecret, s.config.Auth.TokenTTL)
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")

	s.issueToken(c, user)
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bind(c, &req) {
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondMessage(c, http.StatusUnauthorized, invalidCredentials)
			return
		}
		s.respondDBError(c, err, "")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil || !user.Active {
		s.logger.Info().Str("email", req.Email).Msg("Rejected login attempt")
		respondMessage(c, http.StatusUnauthorized, invalidCredentials)
		return
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_access_at", now).Error; err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last access")
	}
	user.LastAccessAt = &now

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	s.issueToken(c, &user)
}

func (s *Server) issueToken(c *gin.Context, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondMessage(c, http.StatusInternalServerError, "No se pudo generar el token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, User: user})
}

// @Summary Get current user
// @Tags auth
// @Security BearerAuth
// @Router /auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.respondDBError(c, err, "Usuario no encontrado")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "usuario": user})
}

// @Summary Change own password
// @Tags auth
// @Security BearerAuth
// @Router /auth/cambiar-password [post]
func (s *Server) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !s.bind(c, &req) {
		return
	}

	sessionData, _ := GetSessionData(c)
	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.respondDBError(c, err, "Usuario no encontrado")
		return
	}

	// 400 rather than 401: a wrong current password must not end the session
	if err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		respondMessage(c, http.StatusBadRequest, "La contraseña actual es incorrecta")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondMessage(c, http.StatusInternalServerError, "No se pudo actualizar la contraseña")
		return
	}
	if err := s.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password changed")
	respondMessage(c, http.StatusOK, "Contraseña actualizada")
}
