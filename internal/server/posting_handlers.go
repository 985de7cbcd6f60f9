package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/models"
)

// PostingForm is the multipart body for creating or editing a convocatoria
type PostingForm struct {
	Code         string               `form:"codigo" validate:"required"`
	Title        string               `form:"titulo" validate:"required"`
	Description  string               `form:"descripcion"`
	Requirements string               `form:"requisitos"`
	Benefits     string               `form:"beneficios"`
	Type         models.PostingType   `form:"tipo" validate:"enum"`
	Status       models.PostingStatus `form:"estado,default=PROXIMA" validate:"enum"`
	Openings     int                  `form:"plazas,default=1" validate:"min=1"`
	StartsAt     time.Time            `form:"fechaInicio" time_format:"2006-01-02" validate:"required"`
	EndsAt       time.Time            `form:"fechaFin" time_format:"2006-01-02" validate:"required,gtefield=StartsAt"`
	ResultsAt    *time.Time           `form:"fechaResultados" time_format:"2006-01-02"`
}

func withPostingURLs(items []models.JobPosting) []models.JobPosting {
	for i := range items {
		items[i].FileURL = attachmentURL("convocatorias", items[i].ID, items[i].FilePath)
	}
	return items
}

func (s *Server) postingQuery(c *gin.Context) *gorm.DB {
	query := s.db.Model(&models.JobPosting{}).Order("starts_at DESC")
	if status := c.Query("estado"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := c.Query("tipo"); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if search := c.Query("busqueda"); search != "" {
		query = query.Where("title LIKE ? OR code LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	return query
}

// @Summary List convocatorias
// @Tags public
// @Router /convocatorias [get]
func (s *Server) listPublicPostings(c *gin.Context) {
	s.listPostings(c)
}

// @Summary Get a convocatoria
// @Tags public
// @Router /convocatorias/{id} [get]
func (s *Server) getPublicPosting(c *gin.Context) {
	var item models.JobPosting
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Convocatoria no encontrada")
		return
	}
	item.FileURL = attachmentURL("convocatorias", item.ID, item.FilePath)
	respondOK(c, http.StatusOK, item)
}

// @Summary List convocatorias (back-office)
// @Tags admin
// @Security BearerAuth
// @Router /admin/convocatorias [get]
func (s *Server) listPostings(c *gin.Context) {
	var items []models.JobPosting
	pagination, err := paginate(s.postingQuery(c), parsePage(c), &items)
	if err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondList(c, withPostingURLs(items), pagination)
}

// @Summary Create convocatoria
// @Tags admin
// @Security BearerAuth
// @Router /admin/convocatorias [post]
func (s *Server) createPosting(c *gin.Context) {
	var form PostingForm
	if !s.bind(c, &form) {
		return
	}

	var existing int64
	s.db.Model(&models.JobPosting{}).Where("code = ?", form.Code).Count(&existing)
	if existing > 0 {
		respondMessage(c, http.StatusConflict, "Ya existe una convocatoria con ese código")
		return
	}

	item := models.JobPosting{}
	applyPostingForm(&item, form)

	file, err := s.saveUpload(c, "archivo", "convocatorias", documentExtensions)
	if err != nil && !errors.Is(err, errNoFile) {
		respondUploadError(c, err)
		return
	}
	if file != nil {
		item.FilePath = file.Path
	}

	if err := s.db.Create(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("convocatoria_id", item.ID).Str("codigo", item.Code).Msg("Convocatoria created")
	item.FileURL = attachmentURL("convocatorias", item.ID, item.FilePath)
	respondOK(c, http.StatusCreated, item)
}

// @Summary Update convocatoria
// @Tags admin
// @Security BearerAuth
// @Router /admin/convocatorias/{id} [put]
func (s *Server) updatePosting(c *gin.Context) {
	var item models.JobPosting
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Convocatoria no encontrada")
		return
	}

	var form PostingForm
	if !s.bind(c, &form) {
		return
	}
	applyPostingForm(&item, form)

	file, err := s.saveUpload(c, "archivo", "convocatorias", documentExtensions)
	if err != nil && !errors.Is(err, errNoFile) {
		respondUploadError(c, err)
		return
	}
	if file != nil {
		s.removeUpload(item.FilePath)
		item.FilePath = file.Path
	}

	if err := s.db.Save(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	item.FileURL = attachmentURL("convocatorias", item.ID, item.FilePath)
	respondOK(c, http.StatusOK, item)
}

// @Summary Delete convocatoria
// @Tags admin
// @Security BearerAuth
// @Router /admin/convocatorias/{id} [delete]
func (s *Server) deletePosting(c *gin.Context) {
	var item models.JobPosting
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Convocatoria no encontrada")
		return
	}
	if err := s.db.Delete(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	s.removeUpload(item.FilePath)
	respondMessage(c, http.StatusOK, "Convocatoria eliminada")
}

func applyPostingForm(item *models.JobPosting, form PostingForm) {
	item.Code = form.Code
	item.Title = form.Title
	item.Description = form.Description
	item.Requirements = form.Requirements
	item.Benefits = form.Benefits
	item.Type = form.Type
	item.Status = form.Status
	item.Openings = form.Openings
	item.StartsAt = form.StartsAt
	item.EndsAt = form.EndsAt
	item.ResultsAt = form.ResultsAt
}
