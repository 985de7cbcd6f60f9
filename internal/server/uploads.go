package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/ugel-satipo/portal/internal/models"
)

var (
	errNoFile       = errors.New("no file uploaded")
	errFileTooLarge = errors.New("file too large")
	errFileType     = errors.New("file type not allowed")
)

var (
	documentExtensions   = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip"}
	submissionExtensions = []string{".pdf"}
	imageOrPDFExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
)

// storedFile describes an upload persisted under the upload directory
type storedFile struct {
	Path string // relative to the upload dir
	Name string // original client file name
	Size int64
}

// saveUpload stores the multipart field under subdir. It returns errNoFile
// when the field is absent so callers decide whether the file is optional.
func (s *Server) saveUpload(c *gin.Context, field, subdir string, allowed []string) (*storedFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return s.storeFile(c, header, subdir, allowed)
}

func (s *Server) storeFile(c *gin.Context, header *multipart.FileHeader, subdir string, allowed []string) (*storedFile, error) {
	if header.Size > s.config.Storage.MaxUploadSize {
		return nil, errFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(allowed, ext) {
		return nil, errFileType
	}

	dir := filepath.Join(s.config.Storage.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	rel := filepath.Join(subdir, ulid.Make().String()+ext)
	if err := c.SaveUploadedFile(header, filepath.Join(s.config.Storage.UploadDir, rel)); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	return &storedFile{Path: rel, Name: filepath.Base(header.Filename), Size: header.Size}, nil
}

// removeUpload deletes a previously stored file, ignoring missing files
func (s *Server) removeUpload(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.config.Storage.UploadDir, rel)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", rel).Msg("Failed to remove upload")
	}
}

// respondUploadError answers with the message the portal shows next to the file field
func respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errFileTooLarge):
		respondMessage(c, http.StatusRequestEntityTooLarge, "El archivo supera el tamaño máximo permitido (10 MB)")
	case errors.Is(err, errFileType):
		respondMessage(c, http.StatusBadRequest, "Tipo de archivo no permitido")
	case errors.Is(err, errNoFile):
		respondMessage(c, http.StatusBadRequest, "El archivo es requerido")
	default:
		respondMessage(c, http.StatusInternalServerError, "No se pudo guardar el archivo")
	}
}

func attachmentURL(kind, id, rel string) string {
	if rel == "" {
		return ""
	}
	return "/archivos/" + kind + "/" + id
}

// @Summary Download the attachment of a comunicado or convocatoria
// @Tags public
// @Router /archivos/{kind}/{id} [get]
func (s *Server) serveAttachment(c *gin.Context) {
	var rel, name string
	switch c.Param("kind") {
	case "comunicados":
		announcement, ok := s.findPublishedAnnouncement(c)
		if !ok {
			return
		}
		rel, name = announcement.FilePath, announcement.Title
	case "convocatorias":
		var posting models.JobPosting
		if err := models.FindByID(s.db, c.Param("id"), &posting); err != nil {
			s.respondDBError(c, err, "Convocatoria no encontrada")
			return
		}
		rel, name = posting.FilePath, posting.Code
	default:
		respondMessage(c, http.StatusNotFound, "Recurso no encontrado")
		return
	}

	if rel == "" {
		respondMessage(c, http.StatusNotFound, "El registro no tiene archivo adjunto")
		return
	}
	c.FileAttachment(filepath.Join(s.config.Storage.UploadDir, rel), name+filepath.Ext(rel))
}
