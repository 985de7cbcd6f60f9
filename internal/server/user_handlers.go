package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/models"
)

// UserRequest is the body for creating or updating a back-office user.
// Password is required on create and optional on update.
type UserRequest struct {
	FirstName string    `json:"nombre" validate:"required"`
	LastName  string    `json:"apellido" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password" validate:"omitempty,min=8"`
	DNI       string    `json:"dni" validate:"omitempty,dni"`
	Phone     string    `json:"telefono"`
	Role      auth.Role `json:"rol" validate:"required"`
	Active    *bool     `json:"activo"`
}

// @Summary List users
// @Tags usuarios
// @Security BearerAuth
// @Router /admin/usuarios [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondOK(c, http.StatusOK, users)
}

// @Summary Create user
// @Tags usuarios
// @Security BearerAuth
// @Router /admin/usuarios [post]
func (s *Server) createUser(c *gin.Context) {
	var req UserRequest
	if !s.bind(c, &req) {
		return
	}
	if !req.Role.Valid() {
		respondMessage(c, http.StatusBadRequest, "Rol no válido")
		return
	}
	if req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "El campo Password es requerido")
		return
	}

	var existing int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(req.Email)).Count(&existing)
	if existing > 0 {
		respondMessage(c, http.StatusConflict, "Ya existe un usuario con ese email")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondMessage(c, http.StatusInternalServerError, "No se pudo crear el usuario")
		return
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		DNI:          req.DNI,
		Phone:        req.Phone,
		Role:         req.Role,
		Active:       req.Active == nil || *req.Active,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("rol", string(user.Role)).
		Str("created_by", sessionData.UserID).
		Msg("User created")

	respondOK(c, http.StatusCreated, user)
}

// @Summary Update user
// @Tags usuarios
// @Security BearerAuth
// @Router /admin/usuarios/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	var req UserRequest
	if !s.bind(c, &req) {
		return
	}
	if !req.Role.Valid() {
		respondMessage(c, http.StatusBadRequest, "Rol no válido")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, c.Param("id"), &user); err != nil {
		s.respondDBError(c, err, "Usuario no encontrado")
		return
	}

	sessionData, _ := GetSessionData(c)
	if user.ID == sessionData.UserID && (req.Role != auth.RoleAdmin || (req.Active != nil && !*req.Active)) {
		respondMessage(c, http.StatusBadRequest, "No puede quitarse el rol de administrador ni desactivarse")
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = strings.ToLower(req.Email)
	user.DNI = req.DNI
	user.Phone = req.Phone
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondMessage(c, http.StatusInternalServerError, "No se pudo actualizar el usuario")
			return
		}
		user.PasswordHash = hash
	}

	if err := s.db.Save(&user).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("updated_by", sessionData.UserID).Msg("User updated")
	respondOK(c, http.StatusOK, user)
}

// @Summary Delete user
// @Description Delete a user (admin only, cannot delete self)
// @Tags usuarios
// @Security BearerAuth
// @Router /admin/usuarios/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	userID := c.Param("id")
	sessionData, _ := GetSessionData(c)

	if userID == sessionData.UserID {
		respondMessage(c, http.StatusBadRequest, "No puede eliminarse a sí mismo")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		s.respondDBError(c, err, "Usuario no encontrado")
		return
	}

	if err := s.db.Delete(&user).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("user_id", userID).Str("deleted_by", sessionData.UserID).Msg("User deleted")
	respondMessage(c, http.StatusOK, "Usuario eliminado")
}
