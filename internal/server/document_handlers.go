package server

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/models"
)

// DocumentForm is the multipart body for uploading or editing a documento
type DocumentForm struct {
	Title       string             `form:"titulo" validate:"required"`
	Description string             `form:"descripcion"`
	Category    models.DocumentCat `form:"categoria" validate:"enum"`
}

func (s *Server) documentQuery(c *gin.Context) *gorm.DB {
	query := s.db.Model(&models.Document{}).Order("created_at DESC")
	if category := c.Query("categoria"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("busqueda"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	return query
}

// @Summary List documentos
// @Tags public
// @Router /documentos [get]
func (s *Server) listPublicDocuments(c *gin.Context) {
	s.listDocuments(c)
}

// @Summary List documentos (back-office)
// @Tags admin
// @Security BearerAuth
// @Router /admin/documentos [get]
func (s *Server) listDocuments(c *gin.Context) {
	var items []models.Document
	pagination, err := paginate(s.documentQuery(c), parsePage(c), &items)
	if err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondList(c, items, pagination)
}

func (s *Server) getDocument(c *gin.Context) {
	var item models.Document
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Documento no encontrado")
		return
	}
	respondOK(c, http.StatusOK, item)
}

// @Summary Download a documento
// @Tags public
// @Router /documentos/{id}/descargar [get]
func (s *Server) downloadDocument(c *gin.Context) {
	var item models.Document
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Documento no encontrado")
		return
	}

	if err := s.db.Model(&item).UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
		s.logger.Warn().Err(err).Str("documento_id", item.ID).Msg("Failed to count download")
	}

	c.FileAttachment(filepath.Join(s.config.Storage.UploadDir, item.FilePath), item.FileName)
}

// @Summary Upload documento
// @Tags admin
// @Security BearerAuth
// @Router /admin/documentos [post]
func (s *Server) createDocument(c *gin.Context) {
	var form DocumentForm
	if !s.bind(c, &form) {
		return
	}

	file, err := s.saveUpload(c, "archivo", "documentos", documentExtensions)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	sessionData, _ := GetSessionData(c)
	item := models.Document{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		FilePath:    file.Path,
		FileName:    file.Name,
		FileSize:    file.Size,
		CreatedByID: sessionData.UserID,
	}
	if err := s.db.Create(&item).Error; err != nil {
		s.removeUpload(file.Path)
		s.respondDBError(c, err, "")
		return
	}

	s.logger.Info().Str("documento_id", item.ID).Str("categoria", string(item.Category)).Msg("Documento uploaded")
	respondOK(c, http.StatusCreated, item)
}

// @Summary Update documento
// @Tags admin
// @Security BearerAuth
// @Router /admin/documentos/{id} [put]
func (s *Server) updateDocument(c *gin.Context) {
	var item models.Document
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Documento no encontrado")
		return
	}

	var form DocumentForm
	if !s.bind(c, &form) {
		return
	}
	item.Title = form.Title
	item.Description = form.Description
	item.Category = form.Category

	file, err := s.saveUpload(c, "archivo", "documentos", documentExtensions)
	if err != nil && !errors.Is(err, errNoFile) {
		respondUploadError(c, err)
		return
	}
	if file != nil {
		s.removeUpload(item.FilePath)
		item.FilePath, item.FileName, item.FileSize = file.Path, file.Name, file.Size
	}

	if err := s.db.Save(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	respondOK(c, http.StatusOK, item)
}

// @Summary Delete documento
// @Tags admin
// @Security BearerAuth
// @Router /admin/documentos/{id} [delete]
func (s *Server) deleteDocument(c *gin.Context) {
	var item models.Document
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		s.respondDBError(c, err, "Documento no encontrado")
		return
	}
	if err := s.db.Delete(&item).Error; err != nil {
		s.respondDBError(c, err, "")
		return
	}
	s.removeUpload(item.FilePath)
	respondMessage(c, http.StatusOK, "Documento eliminado")
}
