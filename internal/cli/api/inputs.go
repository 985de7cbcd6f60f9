package api

import (
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/ugel-satipo/portal/internal/auth"
)

const dateLayout = "2006-01-02"

// Upload is a file attached to a multipart request
type Upload struct {
	Name   string
	Reader io.Reader
}

// SubmissionInput is the mesa de partes form
type SubmissionInput struct {
	FirstName   string
	LastName    string
	DNI         string
	Email       string
	Phone       string
	Type        string
	Subject     string
	Description string
}

// Form encodes the input as the API's multipart field names
func (in SubmissionInput) Form() url.Values {
	form := url.Values{}
	form.Set("nombre", in.FirstName)
	form.Set("apellido", in.LastName)
	form.Set("dni", in.DNI)
	form.Set("email", in.Email)
	form.Set("telefono", in.Phone)
	form.Set("tipoTramite", in.Type)
	form.Set("asunto", in.Subject)
	form.Set("descripcion", in.Description)
	return form
}

// AnnouncementInput creates or edits a comunicado
type AnnouncementInput struct {
	Title    string
	Summary  string
	Content  string
	Category string
	Status   string
	Featured bool
}

func (in AnnouncementInput) Form() url.Values {
	form := url.Values{}
	form.Set("titulo", in.Title)
	form.Set("resumen", in.Summary)
	form.Set("contenido", in.Content)
	setIfNotEmpty(form, "categoria", in.Category)
	setIfNotEmpty(form, "estado", in.Status)
	form.Set("destacado", strconv.FormatBool(in.Featured))
	return form
}

// PostingInput creates or edits a convocatoria
type PostingInput struct {
	Code         string
	Title        string
	Description  string
	Requirements string
	Benefits     string
	Type         string
	Status       string
	Openings     int
	StartsAt     time.Time
	EndsAt       time.Time
	ResultsAt    *time.Time
}

func (in PostingInput) Form() url.Values {
	form := url.Values{}
	form.Set("codigo", in.Code)
	form.Set("titulo", in.Title)
	form.Set("descripcion", in.Description)
	form.Set("requisitos", in.Requirements)
	form.Set("beneficios", in.Benefits)
	form.Set("tipo", in.Type)
	setIfNotEmpty(form, "estado", in.Status)
	if in.Openings > 0 {
		form.Set("plazas", strconv.Itoa(in.Openings))
	}
	form.Set("fechaInicio", in.StartsAt.Format(dateLayout))
	form.Set("fechaFin", in.EndsAt.Format(dateLayout))
	if in.ResultsAt != nil {
		form.Set("fechaResultados", in.ResultsAt.Format(dateLayout))
	}
	return form
}

// DocumentInput creates or edits a documento
type DocumentInput struct {
	Title       string
	Description string
	Category    string
}

func (in DocumentInput) Form() url.Values {
	form := url.Values{}
	form.Set("titulo", in.Title)
	form.Set("descripcion", in.Description)
	form.Set("categoria", in.Category)
	return form
}

// UserInput creates or edits a back-office account. Password may be empty on update.
type UserInput struct {
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	DNI       string    `json:"dni,omitempty"`
	Phone     string    `json:"telefono,omitempty"`
	Role      auth.Role `json:"rol"`
	Active    *bool     `json:"activo,omitempty"`
}

func setIfNotEmpty(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
