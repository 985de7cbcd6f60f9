package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/auth"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first setup (64 hex chars)
}

// User represents a back-office account
type User struct {
	BaseModel
	FirstName    string     `json:"nombre" gorm:"not null"`
	LastName     string     `json:"apellido" gorm:"not null"`
	Email        string     `json:"email" gorm:"unique;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	DNI          string     `json:"dni,omitempty"`
	Phone        string     `json:"telefono,omitempty"`
	Role         auth.Role  `json:"rol" gorm:"type:varchar(16);not null"`
	Active       bool       `json:"activo" gorm:"not null;default:true"`
	LastAccessAt *time.Time `json:"ultimoAcceso,omitempty"`
}

// Announcement is a public notice ("comunicado")
type Announcement struct {
	BaseModel
	Title       string             `json:"titulo" gorm:"not null"`
	Summary     string             `json:"resumen"`
	Content     string             `json:"contenido" gorm:"type:text"`
	Category    AnnouncementCat    `json:"categoria" gorm:"type:varchar(20);not null;index"`
	Status      AnnouncementStatus `json:"estado" gorm:"type:varchar(20);not null;index"`
	Featured    bool               `json:"destacado" gorm:"not null;default:false"`
	PublishedAt *time.Time         `json:"fechaPublicacion,omitempty"`
	FilePath    string             `json:"-"`
	FileURL     string             `json:"archivoUrl,omitempty" gorm:"-"`
	CreatedByID string             `json:"-"`
}

// JobPosting is a hiring call ("convocatoria")
type JobPosting struct {
	BaseModel
	Code         string        `json:"codigo" gorm:"unique;not null"`
	Title        string        `json:"titulo" gorm:"not null"`
	Description  string        `json:"descripcion" gorm:"type:text"`
	Requirements string        `json:"requisitos" gorm:"type:text"`
	Benefits     string        `json:"beneficios" gorm:"type:text"`
	Type         PostingType   `json:"tipo" gorm:"type:varchar(20);not null;index"`
	Status       PostingStatus `json:"estado" gorm:"type:varchar(20);not null;index"`
	Openings     int           `json:"plazas" gorm:"not null;default:1"`
	StartsAt     time.Time     `json:"fechaInicio"`
	EndsAt       time.Time     `json:"fechaFin"`
	ResultsAt    *time.Time    `json:"fechaResultados,omitempty"`
	FilePath     string        `json:"-"`
	FileURL      string        `json:"archivoUrl,omitempty" gorm:"-"`
}

// Submission is a document filed through the mesa de partes ("trámite")
type Submission struct {
	BaseModel
	FileNumber     string           `json:"numeroExpediente" gorm:"unique;not null"`
	Type           SubmissionType   `json:"tipoTramite" gorm:"type:varchar(32);not null;index"`
	Subject        string           `json:"asunto" gorm:"not null"`
	Description    string           `json:"descripcion" gorm:"type:text"`
	FirstName      string           `json:"nombre" gorm:"not null"`
	LastName       string           `json:"apellido" gorm:"not null"`
	DNI            string           `json:"dni" gorm:"type:varchar(8);not null;index"`
	Email          string           `json:"email"`
	Phone          string           `json:"telefono"`
	Status         SubmissionStatus `json:"estado" gorm:"type:varchar(20);not null;index"`
	Notes          string           `json:"observaciones" gorm:"type:text"`
	FilePath       string           `json:"-"`
	FileName       string           `json:"archivoNombre,omitempty"`
	AcknowledgedAt *time.Time       `json:"acuseEnviadoAt,omitempty"`
	HandledByID    string           `json:"-"`
}

// Document is a downloadable institutional file ("documento")
type Document struct {
	BaseModel
	Title       string      `json:"titulo" gorm:"not null"`
	Description string      `json:"descripcion"`
	Category    DocumentCat `json:"categoria" gorm:"type:varchar(20);not null;index"`
	FilePath    string      `json:"-" gorm:"not null"`
	FileName    string      `json:"archivoNombre"`
	FileSize    int64       `json:"archivoTamanio"`
	Downloads   int64       `json:"descargas" gorm:"not null;default:0"`
	CreatedByID string      `json:"-"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &Announcement{}, &JobPosting{}, &Submission{}, &Document{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
