package models

import "slices"

// SubmissionStatus is the processing state of a trámite
type SubmissionStatus string

const (
	SubmissionReceived   SubmissionStatus = "RECIBIDO"
	SubmissionInProgress SubmissionStatus = "EN_PROCESO"
	SubmissionResolved   SubmissionStatus = "ATENDIDO"
	SubmissionRejected   SubmissionStatus = "RECHAZADO"
)

// SubmissionStatuses lists every status in workflow order
var SubmissionStatuses = []SubmissionStatus{
	SubmissionReceived, SubmissionInProgress, SubmissionResolved, SubmissionRejected,
}

func (s SubmissionStatus) Valid() bool { return slices.Contains(SubmissionStatuses, s) }

// Final reports whether no further transition is allowed
func (s SubmissionStatus) Final() bool {
	return s == SubmissionResolved || s == SubmissionRejected
}

// CanTransitionTo reports whether a submission may move from s to next
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	if !next.Valid() || s.Final() || s == next {
		return false
	}
	// Nothing goes back to RECIBIDO.
	return next != SubmissionReceived
}

// SubmissionType is the kind of trámite requested
type SubmissionType string

// SubmissionTypes lists the accepted trámite kinds
var SubmissionTypes = []SubmissionType{
	"CONTRATACION_DOCENTE", "LICENCIA", "PERMISO", "REASIGNACION", "PERMUTA", "CESE",
	"REINCORPORACION", "PAGO_HABERES", "ESCALAFON", "RECONOCIMIENTO", "SUBSANACION",
	"APELACION", "OTRO",
}

func (t SubmissionType) Valid() bool { return slices.Contains(SubmissionTypes, t) }

// PostingStatus is the lifecycle state of a convocatoria
type PostingStatus string

const (
	PostingUpcoming  PostingStatus = "PROXIMA"
	PostingOpen      PostingStatus = "ABIERTA"
	PostingClosed    PostingStatus = "CERRADA"
	PostingVoid      PostingStatus = "DESIERTA"
	PostingConcluded PostingStatus = "CONCLUIDA"
)

var PostingStatuses = []PostingStatus{
	PostingUpcoming, PostingOpen, PostingClosed, PostingVoid, PostingConcluded,
}

func (s PostingStatus) Valid() bool { return slices.Contains(PostingStatuses, s) }

// PostingType is the staff category a convocatoria hires for
type PostingType string

var PostingTypes = []PostingType{"DOCENTE", "ADMINISTRATIVO", "CAS", "DIRECTIVO", "AUXILIAR", "OTRO"}

func (t PostingType) Valid() bool { return slices.Contains(PostingTypes, t) }

// AnnouncementStatus controls public visibility of a comunicado
type AnnouncementStatus string

const (
	AnnouncementPublished AnnouncementStatus = "PUBLICADO"
	AnnouncementDraft     AnnouncementStatus = "BORRADOR"
	AnnouncementArchived  AnnouncementStatus = "ARCHIVADO"
)

var AnnouncementStatuses = []AnnouncementStatus{
	AnnouncementPublished, AnnouncementDraft, AnnouncementArchived,
}

func (s AnnouncementStatus) Valid() bool { return slices.Contains(AnnouncementStatuses, s) }

// AnnouncementCat is the category of a comunicado
type AnnouncementCat string

var AnnouncementCats = []AnnouncementCat{"GENERAL", "ACADEMICO", "ADMINISTRATIVO", "URGENTE"}

func (c AnnouncementCat) Valid() bool { return slices.Contains(AnnouncementCats, c) }

// DocumentCat is the category of a downloadable document
type DocumentCat string

var DocumentCats = []DocumentCat{
	"DIRECTIVA", "RESOLUCION", "OFICIO", "MEMORANDO", "INFORME", "FORMATO", "OTRO",
}

func (c DocumentCat) Valid() bool { return slices.Contains(DocumentCats, c) }
