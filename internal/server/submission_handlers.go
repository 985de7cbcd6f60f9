package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/models"
	"github.com/ugel-satipo/portal/internal/tasks"
)

// SubmissionForm is the mesa de partes intake form
type SubmissionForm struct {
	FirstName   string                `form:"nombre" validate:"required"`
	LastName    string                `form:"apellido" validate:"required"`
	DNI         string                `form:"dni" validate:"required,dni"`
	Email       string                `form:"email" validate:"required,email"`
	Phone       string                `form:"telefono"`
	Type        models.SubmissionType `form:"tipoTramite" validate:"enum"`
	Subject     string                `form:"asunto" validate:"required,max=250"`
	Description string                `form:"descripcion"`
}

// StatusChangeRequest moves a trámite to a new estado
type StatusChangeRequest struct {
	Status models.SubmissionStatus `json:"estado" validate:"enum"`
	Notes  string                  `json:"observaciones"`
}

// TrackingView is what the public lookup exposes: no contact details
type TrackingView struct {
	FileNumber string                  `json:"numeroExpediente"`
	Type       models.SubmissionType   `json:"tipoTramite"`
	Subject    string                  `json:"asunto"`
	FirstName  string                  `json:"nombre"`
	LastName   string                  `json:"apellido"`
	Status     models.SubmissionStatus `json:"estado"`
	Notes      string                  `json:"observaciones,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

// @Summary Register a trámite (mesa de partes)
// @Tags public
// @Accept multipart/form-data
// @Router /tramites [post]
func (s *Server) registerSubmission(c *gin.Context) {
	var form SubmissionForm
	if !s.bind(c, &form) {
		return
	}

	file, err := s.saveUpload(c, "archivo", "tramites", submissionExtensions)
	if err != nil && !errors.Is(err, errNoFile) {
		respondUploadError(c, err)
		return
	}

	item := models.Submission{
		Type:        form.Type,
		Subject:     form.Subject,
		Description: form.Description,
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		DNI:         form.DNI,
		Email:       form.Email,
		Phone:       form.Phone,
		Status:      models.SubmissionReceived,
	}
	if file != nil {
		item.FilePath = file.Path
		item.FileName = file.Name
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := models.NextFileNumber(tx, time.Now())
		if err != nil {
			return err
		}
		item.FileNumber = number
		return tx.Create(&item).Error
	})
	if err != nil {
		if file != nil {
			s.removeUpload(file.Path)
		}
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().
		Str("tramite_id", item.ID).
		Str("expediente", item.FileNumber).
		Str("tipo", string(item.Type)).
		Msg("Tramite registered")

	s.enqueueAcknowledgement(item.ID)

	respondOK(c, http.StatusCreated, item)
}

// enqueueAcknowledgement hands the intake receipt to the worker. Failure only
// delays the receipt, so the intake itself still succeeds.
func (s *Server) enqueueAcknowledgement(submissionID string) {
	if s.enqueuer == nil {
		return
	}
	task, err := tasks.NewSubmissionReceivedTask(submissionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build acknowledgement task")
		return
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		s.logger.Warn().Err(err).Str("tramite_id", submissionID).Msg("Failed to enqueue acknowledgement task")
	}
}

// @Summary Track a trámite by expediente number
// @Tags public
// @Router /tramites/consultar/{codigo} [get]
func (s *Server) trackSubmission(c *gin.Context) {
	var item models.Submission
	if err := s.db.Where("file_number = ?", c.Param("codigo")).First(&item).Error; err != nil {
		s.respondDBError(c, err, "No se encontró ningún expediente con ese código")
		return
	}

	respondOK(c, http.StatusOK, TrackingView{
		FileNumber: item.FileNumber,
		Type:       item.Type,
		Subject:    item.Subject,
		FirstName:  item.FirstName,
		LastName:   item.LastName,
		Status:     item.Status,
		Notes:      item.Notes,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	})
}

// @Summary List trámites
// @Tags admin
// @Security BearerAuth
// @Router /admin/tramites [get]
func (s *Server) listSubmissions(c *gin.Context) {
	query := s.db.Model(&models.Submission{}).Order("created_at DESC")
	if status := c.Query("estado"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := c.Query("tipoTramite"); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if search := c.Query("busqueda"); search != "" {
		like := "%" + search + "%"
		query = query.Where("file_number LIKE ? OR dni LIKE ? OR subject LIKE ? OR last_name LIKE ?", like, like, like, like)
	}

	var items []models.Submission
	pagination, err := paginate(query, parsePage(c), &items)
	if err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondList(c, items, pagination)
}

// @Summary Get a trámite
// @Tags admin
// @Security BearerAuth
// @Router /admin/tramites/{id} [get]
func (s *Server) getSubmission(c *gin.Context) {
	var item models.Submission
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Trámite no encontrado")
		return
	}
	respondOK(c, http.StatusOK, item)
}

// @Summary Change trámite estado
// @Tags admin
// @Security BearerAuth
// @Router /admin/tramites/{id}/estado [patch]
func (s *Server) changeSubmissionStatus(c *gin.Context) {
	var req StatusChangeRequest
	if !s.bind(c, &req) {
		return
	}

	var item models.Submission
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Trámite no encontrado")
		return
	}

	if !item.Status.CanTransitionTo(req.Status) {
		respondMessage(c, http.StatusConflict, "No se puede cambiar el estado de "+string(item.Status)+" a "+string(req.Status))
		return
	}

	sessionData, _ := GetSessionData(c)
	previous := item.Status
	item.Status = req.Status
	item.HandledByID = sessionData.UserID
	if req.Notes != "" {
		item.Notes = req.Notes
	}

	if err := s.db.Save(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().
		Str("tramite_id", item.ID).
		Str("from", string(previous)).
		Str("to", string(item.Status)).
		Str("by", sessionData.UserID).
		Msg("Tramite status changed")

	respondOK(c, http.StatusOK, item)
}

// @Summary Trámite counts per estado
// @Tags admin
// @Security BearerAuth
// @Router /admin/tramites/estadisticas [get]
func (s *Server) submissionStats(c *gin.Context) {
	var rows []struct {
		Status models.SubmissionStatus
		Count  int64
	}
	if err := s.db.Model(&models.Submission{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	stats := map[string]int64{"total": 0}
	for _, status := range models.SubmissionStatuses {
		stats[string(status)] = 0
	}
	for _, row := range rows {
		stats[string(row.Status)] = row.Count
		stats["total"] += row.Count
	}
	respondOK(c, http.StatusOK, stats)
}
