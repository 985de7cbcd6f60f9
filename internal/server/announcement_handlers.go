package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/models"
)

// AnnouncementForm is the multipart body for creating or editing a comunicado
type AnnouncementForm struct {
	Title    string                    `form:"titulo" validate:"required"`
	Summary  string                    `form:"resumen"`
	Content  string                    `form:"contenido" validate:"required"`
	Category models.AnnouncementCat    `form:"categoria,default=GENERAL" validate:"enum"`
	Status   models.AnnouncementStatus `form:"estado,default=BORRADOR" validate:"enum"`
	Featured bool                      `form:"destacado"`
}

func withAnnouncementURLs(items []models.Announcement) []models.Announcement {
	for i := range items {
		items[i].FileURL = attachmentURL("comunicados", items[i].ID, items[i].FilePath)
	}
	return items
}

// @Summary List published comunicados
// @Tags public
// @Router /comunicados [get]
func (s *Server) listPublicAnnouncements(c *gin.Context) {
	query := s.db.Model(&models.Announcement{}).
		Where("status = ?", models.AnnouncementPublished).
		Order("featured DESC").
		Order("published_at DESC")
	if category := c.Query("categoria"); category != "" {
		query = query.Where("category = ?", category)
	}

	var items []models.Announcement
	pagination, err := paginate(query, parsePage(c), &items)
	if err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondList(c, withAnnouncementURLs(items), pagination)
}

func (s *Server) findPublishedAnnouncement(c *gin.Context) (*models.Announcement, bool) {
	var item models.Announcement
	err := s.db.Where("id = ? AND status = ?", c.Param("id"), models.AnnouncementPublished).First(&item).Error
	if err != nil {
		s.respondDBError(c, err, "Comunicado no encontrado")
		return nil, false
	}
	item.FileURL = attachmentURL("comunicados", item.ID, item.FilePath)
	return &item, true
}

// @Summary Get a published comunicado
// @Tags public
// @Router /comunicados/{id} [get]
func (s *Server) getPublicAnnouncement(c *gin.Context) {
	if item, ok := s.findPublishedAnnouncement(c); ok {
		respondOK(c, http.StatusOK, item)
	}
}

// @Summary List all comunicados
// @Tags admin
// @Security BearerAuth
// @Router /admin/comunicados [get]
func (s *Server) listAnnouncements(c *gin.Context) {
	query := s.db.Model(&models.Announcement{}).Order("created_at DESC")
	if status := c.Query("estado"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("categoria"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("busqueda"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var items []models.Announcement
	pagination, err := paginate(query, parsePage(c), &items)
	if err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondList(c, withAnnouncementURLs(items), pagination)
}

// @Summary Create comunicado
// @Tags admin
// @Security BearerAuth
// @Router /admin/comunicados [post]
// getAnnouncement returns a comunicado in any estado
func (s *Server) getAnnouncement(c *gin.Context) {
	var item models.Announcement
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Comunicado no encontrado")
		return
	}
	item.FileURL = attachmentURL("comunicados", item.ID, item.FilePath)
	respondOK(c, http.StatusOK, item)
}

func (s *Server) createAnnouncement(c *gin.Context) {
	var form AnnouncementForm
	if !s.bind(c, &form) {
		return
	}

	item := models.Announcement{}
	applyAnnouncementForm(&item, form)

	file, err := s.saveUpload(c, "archivo", "comunicados", imageOrPDFExtensions)
	if err != nil && !errors.Is(err, errNoFile) {
		respondUploadError(c, err)
		return
	}
	if file != nil {
		item.FilePath = file.Path
	}

	sessionData, _ := GetSessionData(c)
	item.CreatedByID = sessionData.UserID

	if err := s.db.Create(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("comunicado_id", item.ID).Str("estado", string(item.Status)).Msg("Comunicado created")
	item.FileURL = attachmentURL("comunicados", item.ID, item.FilePath)
	respondOK(c, http.StatusCreated, item)
}

// @Summary Update comunicado
// @Tags admin
// @Security BearerAuth
// @Router /admin/comunicados/{id} [put]
func (s *Server) updateAnnouncement(c *gin.Context) {
	var item models.Announcement
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Comunicado no encontrado")
		return
	}

	var form AnnouncementForm
	if !s.bind(c, &form) {
		return
	}
	applyAnnouncementForm(&item, form)

	file, err := s.saveUpload(c, "archivo", "comunicados", imageOrPDFExtensions)
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
	item.FileURL = attachmentURL("comunicados", item.ID, item.FilePath)
	respondOK(c, http.StatusOK, item)
}

// @Summary Delete comunicado
// @Tags admin
// @Security BearerAuth
// @Router /admin/comunicados/{id} [delete]
func (s *Server) deleteAnnouncement(c *gin.Context) {
	var item models.Announcement
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Comunicado no encontrado")
		return
	}
	if err := s.db.Delete(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	s.removeUpload(item.FilePath)
	respondMessage(c, http.StatusOK, "Comunicado eliminado")
}

func applyAnnouncementForm(item *models.Announcement, form AnnouncementForm) {
	item.Title = form.Title
	item.Summary = form.Summary
	item.Content = form.Content
	item.Category = form.Category
	item.Featured = form.Featured
	item.Status = form.Status
	if item.Status == models.AnnouncementPublished && item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}
}
