package portal

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
)

func (p *Portal) home(c *gin.Context) {
	ctx := c.Request.Context()

	announcements, err := p.api.ListAnnouncements(ctx, client.ListOptions{Limit: 5})
	if err != nil {
		p.fail(c, err)
		return
	}
	postings, err := p.api.ListPostings(ctx, client.ListOptions{Limit: 5, Filters: map[string]string{"estado": "ABIERTA"}})
	if err != nil {
		p.fail(c, err)
		return
	}

	p.render(c, http.StatusOK, "inicio", gin.H{
		"Announcements": announcements.Items,
		"Postings":      postings.Items,
	})
}

func (p *Portal) listAnnouncements(c *gin.Context) {
	page, err := p.api.ListAnnouncements(c.Request.Context(), listOptions(c, "categoria"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "comunicados", gin.H{
		"Items":      page.Items,
		"Pager":      newPager(c, page.Pagination),
		"Categoria":  c.Query("categoria"),
		"Categories": format.AnnouncementCategoryLabels,
	})
}

func (p *Portal) showAnnouncement(c *gin.Context) {
	item, err := p.api.GetAnnouncement(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "comunicado", gin.H{"Item": item})
}

func (p *Portal) listPostings(c *gin.Context) {
	page, err := p.api.ListPostings(c.Request.Context(), listOptions(c, "estado", "tipo"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "convocatorias", gin.H{
		"Items":    page.Items,
		"Pager":    newPager(c, page.Pagination),
		"Estado":   c.Query("estado"),
		"Tipo":     c.Query("tipo"),
		"Statuses": format.PostingStatusLabels,
		"Types":    format.PostingTypeLabels,
	})
}

func (p *Portal) showPosting(c *gin.Context) {
	item, err := p.api.GetPosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "convocatoria", gin.H{"Item": item})
}

func (p *Portal) listDocuments(c *gin.Context) {
	page, err := p.api.ListDocuments(c.Request.Context(), listOptions(c, "categoria", "busqueda"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "documentos", gin.H{
		"Items":      page.Items,
		"Pager":      newPager(c, page.Pagination),
		"Categoria":  c.Query("categoria"),
		"Busqueda":   c.Query("busqueda"),
		"Categories": format.DocumentCategoryLabels,
	})
}

func (p *Portal) downloadDocument(c *gin.Context) {
	var buf bytes.Buffer
	name, err := p.api.DownloadDocument(c.Request.Context(), c.Param("id"), &buf)
	if err != nil {
		p.fail(c, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (p *Portal) submissionForm(c *gin.Context) {
	p.render(c, http.StatusOK, "mesa_de_partes", gin.H{
		"Form":  api.SubmissionInput{},
		"Types": format.SubmissionTypeLabels,
	})
}

func (p *Portal) registerSubmission(c *gin.Context) {
	in := api.SubmissionInput{
		FirstName:   strings.TrimSpace(c.PostForm("nombre")),
		LastName:    strings.TrimSpace(c.PostForm("apellido")),
		DNI:         strings.TrimSpace(c.PostForm("dni")),
		Email:       strings.TrimSpace(c.PostForm("email")),
		Phone:       strings.TrimSpace(c.PostForm("telefono")),
		Type:        c.PostForm("tipoTramite"),
		Subject:     strings.TrimSpace(c.PostForm("asunto")),
		Description: strings.TrimSpace(c.PostForm("descripcion")),
	}
	data := gin.H{"Form": in, "Types": format.SubmissionTypeLabels}

	var upload *api.Upload
	fh, err := c.FormFile("archivo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		data["Error"] = "No se pudo leer el archivo adjunto"
		p.render(c, http.StatusBadRequest, "mesa_de_partes", data)
		return
	default:
		f, err := fh.Open()
		if err != nil {
			data["Error"] = "No se pudo leer el archivo adjunto"
			p.render(c, http.StatusBadRequest, "mesa_de_partes", data)
			return
		}
		defer f.Close()
		upload = &api.Upload{Name: fh.Filename, Reader: f}
	}

	submission, err := p.api.RegisterSubmission(c.Request.Context(), in, upload)
	if err != nil {
		data["Error"] = errorMessage(err)
		p.render(c, http.StatusOK, "mesa_de_partes", data)
		return
	}

	p.render(c, http.StatusCreated, "mesa_de_partes", gin.H{"Created": submission})
}

func (p *Portal) trackSubmission(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Query("codigo")))
	data := gin.H{"Codigo": code}
	if code == "" {
		p.render(c, http.StatusOK, "consulta", data)
		return
	}

	tracking, err := p.api.TrackSubmission(c.Request.Context(), code)
	if err != nil {
		data["Error"] = errorMessage(err)
		p.render(c, http.StatusOK, "consulta", data)
		return
	}
	data["Tracking"] = tracking
	p.render(c, http.StatusOK, "consulta", data)
}
