package server

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// envelope is the response shape every endpoint shares
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Pagination describes one page of a list response
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"pagina"`
	Limit      int   `json:"limite"`
	TotalPages int   `json:"totalPaginas"`
}

type pageRequest struct {
	page  int
	limit int
}

func parsePage(c *gin.Context) pageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("pagina", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limite", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return pageRequest{page: page, limit: limit}
}

func (p pageRequest) offset() int { return (p.page - 1) * p.limit }

func (p pageRequest) describe(total int64) *Pagination {
	pages := int(math.Ceil(float64(total) / float64(p.limit)))
	if pages == 0 {
		pages = 1
	}
	return &Pagination{Total: total, Page: p.page, Limit: p.limit, TotalPages: pages}
}

// paginate counts the filtered query then loads one page into dest
func paginate[T any](query *gorm.DB, p pageRequest, dest *[]T) (*Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Offset(p.offset()).Limit(p.limit).Find(dest).Error; err != nil {
		return nil, err
	}
	return p.describe(total), nil
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondList(c *gin.Context, data any, pagination *Pagination) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Pagination: pagination})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: status < http.StatusBadRequest, Message: message})
}

// respondDBError maps record-not-found to 404 and logs anything else as a 500
func (s *Server) respondDBError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondMessage(c, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Database error")
	respondMessage(c, http.StatusInternalServerError, "Error interno del servidor")
}

var dniPattern = regexp.MustCompile(`^[0-9]{8}$`)

type enumValue interface{ Valid() bool }

func newValidator() *validator.Validate {
	validate := validator.New()

	// Peruvian national ID: exactly 8 digits
	_ = validate.RegisterValidation("dni", func(fl validator.FieldLevel) bool {
		return dniPattern.MatchString(fl.Field().String())
	})

	// Closed-set enums from the models package
	_ = validate.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		if v, ok := fl.Field().Interface().(enumValue); ok {
			return v.Valid()
		}
		return false
	})

	return validate
}

// validationMessage turns the first validator failure into a readable message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Datos inválidos"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "El campo " + fe.Field() + " es requerido"
	case "email":
		return "El email no es válido"
	case "dni":
		return "El DNI debe tener 8 dígitos"
	case "enum":
		return "Valor no permitido para " + fe.Field()
	case "min":
		return "El campo " + fe.Field() + " es demasiado corto"
	default:
		return "El campo " + fe.Field() + " no es válido"
	}
}
