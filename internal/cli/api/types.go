// Package api holds the wire types exchanged with the UGEL REST API.
package api

import (
	"strings"
	"time"

	"github.com/ugel-satipo/portal/internal/auth"
)

// User is a back-office account as the API serializes it
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"nombre"`
	LastName     string     `json:"apellido"`
	Email        string     `json:"email"`
	Role         auth.Role  `json:"rol"`
	DNI          string     `json:"dni,omitempty"`
	Phone        string     `json:"telefono,omitempty"`
	Active       bool       `json:"activo"`
	LastAccessAt *time.Time `json:"ultimoAcceso,omitempty"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// LoginResult is what the authentication endpoint returns on success
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"usuario"`
}

// Pagination mirrors the list envelope's pagination block
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"pagina"`
	Limit      int   `json:"limite"`
	TotalPages int   `json:"totalPaginas"`
}

// Page is one page of a list endpoint
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Announcement is a comunicado
type Announcement struct {
	ID          string     `json:"id"`
	Title       string     `json:"titulo"`
	Summary     string     `json:"resumen"`
	Content     string     `json:"contenido"`
	Category    string     `json:"categoria"`
	Status      string     `json:"estado"`
	Featured    bool       `json:"destacado"`
	PublishedAt *time.Time `json:"fechaPublicacion,omitempty"`
	FileURL     string     `json:"archivoUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Posting is a convocatoria
type Posting struct {
	ID           string     `json:"id"`
	Code         string     `json:"codigo"`
	Title        string     `json:"titulo"`
	Description  string     `json:"descripcion"`
	Requirements string     `json:"requisitos"`
	Benefits     string     `json:"beneficios"`
	Type         string     `json:"tipo"`
	Status       string     `json:"estado"`
	Openings     int        `json:"plazas"`
	StartsAt     time.Time  `json:"fechaInicio"`
	EndsAt       time.Time  `json:"fechaFin"`
	ResultsAt    *time.Time `json:"fechaResultados,omitempty"`
	FileURL      string     `json:"archivoUrl,omitempty"`
}

// Submission is a trámite as seen by the back-office
type Submission struct {
	ID          string    `json:"id"`
	FileNumber  string    `json:"numeroExpediente"`
	Type        string    `json:"tipoTramite"`
	Subject     string    `json:"asunto"`
	Description string    `json:"descripcion"`
	FirstName   string    `json:"nombre"`
	LastName    string    `json:"apellido"`
	DNI         string    `json:"dni"`
	Email       string    `json:"email"`
	Phone       string    `json:"telefono"`
	Status      string    `json:"estado"`
	Notes       string    `json:"observaciones"`
	FileName    string    `json:"archivoNombre,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tracking is the public view of a trámite
type Tracking struct {
	FileNumber string    `json:"numeroExpediente"`
	Type       string    `json:"tipoTramite"`
	Subject    string    `json:"asunto"`
	FirstName  string    `json:"nombre"`
	LastName   string    `json:"apellido"`
	Status     string    `json:"estado"`
	Notes      string    `json:"observaciones,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Document is a downloadable documento
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"titulo"`
	Description string    `json:"descripcion"`
	Category    string    `json:"categoria"`
	FileName    string    `json:"archivoNombre"`
	FileSize    int64     `json:"archivoTamanio"`
	Downloads   int64     `json:"descargas"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Stats is the per-estado trámite count, plus "total"
type Stats map[string]int64
