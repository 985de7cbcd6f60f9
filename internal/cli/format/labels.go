package format

// SubmissionStatusLabels names trámite estados
var SubmissionStatusLabels = map[string]string{
	"RECIBIDO":   "Recibido",
	"EN_PROCESO": "En Proceso",
	"ATENDIDO":   "Atendido",
	"RECHAZADO":  "Rechazado",
}

// SubmissionStatusOrder lists trámite estados in workflow order
var SubmissionStatusOrder = []string{"RECIBIDO", "EN_PROCESO", "ATENDIDO", "RECHAZADO"}

// SubmissionTypeLabels names trámite tipos
var SubmissionTypeLabels = map[string]string{
	"CONTRATACION_DOCENTE": "Contratación Docente",
	"LICENCIA":             "Licencia",
	"PERMISO":              "Permiso",
	"REASIGNACION":         "Reasignación",
	"PERMUTA":              "Permuta",
	"CESE":                 "Cese",
	"REINCORPORACION":      "Reincorporación",
	"PAGO_HABERES":         "Pago de Haberes",
	"ESCALAFON":            "Escalafón",
	"RECONOCIMIENTO":       "Reconocimiento",
	"SUBSANACION":          "Subsanación",
	"APELACION":            "Apelación",
	"OTRO":                 "Otro",
}

// PostingStatusLabels names convocatoria estados
var PostingStatusLabels = map[string]string{
	"PROXIMA":   "Próxima",
	"ABIERTA":   "Abierta",
	"CERRADA":   "Cerrada",
	"DESIERTA":  "Desierta",
	"CONCLUIDA": "Concluida",
}

// PostingTypeLabels names convocatoria tipos
var PostingTypeLabels = map[string]string{
	"DOCENTE":        "Docente",
	"ADMINISTRATIVO": "Administrativo",
	"CAS":            "CAS",
	"DIRECTIVO":      "Directivo",
	"AUXILIAR":       "Auxiliar",
	"OTRO":           "Otro",
}

// AnnouncementCategoryLabels names comunicado categorías
var AnnouncementCategoryLabels = map[string]string{
	"GENERAL":        "General",
	"ACADEMICO":      "Académico",
	"ADMINISTRATIVO": "Administrativo",
	"URGENTE":        "Urgente",
}

// DocumentCategoryLabels names documento categorías
var DocumentCategoryLabels = map[string]string{
	"DIRECTIVA":  "Directiva",
	"RESOLUCION": "Resolución",
	"OFICIO":     "Oficio",
	"MEMORANDO":  "Memorando",
	"INFORME":    "Informe",
	"FORMATO":    "Formato",
	"OTRO":       "Otro",
}

// RoleLabels names back-office roles
var RoleLabels = map[string]string{
	"ADMIN":    "Administrador",
	"OPERADOR": "Operador",
}

// Label looks value up in labels, falling back to the raw value
func Label(labels map[string]string, value string) string {
	if label, ok := labels[value]; ok {
		return label
	}
	return value
}
