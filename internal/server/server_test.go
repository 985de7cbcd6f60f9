package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-satipo/portal/internal/config"
)

// fakeEnqueuer records tasks instead of talking to Redis
type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeEnqueuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		HTTP:     config.HTTPConfig{Address: ":0", CORSOrigins: []string{"http://localhost:5173"}},
		Database: config.DatabaseConfig{URL: filepath.Join(dir, "test.sqlite")},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
		Storage:  config.StorageConfig{UploadDir: filepath.Join(dir, "uploads"), MaxUploadSize: 1 << 20},
	}

	db, err := InitDatabase(cfg, zerolog.Nop())
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	srv, err := NewWithDeps(db, cfg, zerolog.Nop(), enq, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return srv, enq
}

type apiResult struct {
	Code int
	Body map[string]any
}

func (r apiResult) message() string {
	msg, _ := r.Body["message"].(string)
	return msg
}

func (r apiResult) data() map[string]any {
	data, _ := r.Body["data"].(map[string]any)
	return data
}

func doRequest(t *testing.T, srv *Server, req *http.Request) apiResult {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	result := apiResult{Code: w.Code, Body: map[string]any{}}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "application/pdf" {
		_ = json.Unmarshal(w.Body.Bytes(), &result.Body)
	}
	return result
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) apiResult {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(t, srv, req)
}

func doMultipart(t *testing.T, srv *Server, method, path, token string, fields map[string]string, fileName string, content []byte) apiResult {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("archivo", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(t, srv, req)
}

// setupAdmin bootstraps the first admin and returns its token
func setupAdmin(t *testing.T, srv *Server) string {
	t.Helper()
	res := doJSON(t, srv, http.MethodPost, "/setup", "", map[string]string{
		"email":    "admin@ugel.gob.pe",
		"password": "Admin2024!",
		"nombre":   "Ana",
		"apellido": "Quispe",
	})
	require.Equal(t, http.StatusOK, res.Code, res.message())
	token, _ := res.Body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// createOperator creates an OPERADOR account and logs in as it
func createOperator(t *testing.T, srv *Server, adminToken string) string {
	t.Helper()
	res := doJSON(t, srv, http.MethodPost, "/admin/usuarios", adminToken, map[string]any{
		"nombre":   "Luis",
		"apellido": "Huaman",
		"email":    "operador@ugel.gob.pe",
		"password": "Operador2024!",
		"rol":      "OPERADOR",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.message())

	login := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "operador@ugel.gob.pe",
		"password": "Operador2024!",
	})
	require.Equal(t, http.StatusOK, login.Code, login.message())
	return login.Body["token"].(string)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)
	res := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "online", res.Body["status"])
}

func TestSetupOnlyOnce(t *testing.T) {
	srv, _ := newTestServer(t)
	setupAdmin(t, srv)

	res := doJSON(t, srv, http.MethodPost, "/setup", "", map[string]string{
		"email": "otro@ugel.gob.pe", "password": "Password123", "nombre": "X", "apellido": "Y",
	})
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	setupAdmin(t, srv)

	t.Run("valid credentials", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "ADMIN@ugel.gob.pe", "password": "Admin2024!",
		})
		require.Equal(t, http.StatusOK, res.Code)
		user := res.Body["usuario"].(map[string]any)
		assert.Equal(t, "ADMIN", user["rol"])
		assert.Equal(t, "Ana", user["nombre"])
		assert.NotContains(t, user, "passwordHash")
		assert.NotEmpty(t, user["ultimoAcceso"])
	})

	t.Run("wrong password", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "admin@ugel.gob.pe", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "Credenciales inválidas", res.message())
	})

	t.Run("unknown email", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "nadie@ugel.gob.pe", "password": "Admin2024!",
		})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "Credenciales inválidas", res.message())
	})

	t.Run("malformed body", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "no-es-email"})
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestMeRequiresValidBearer(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/auth/me", "not-a-jwt", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, srv, req).Code)

	res := doJSON(t, srv, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "admin@ugel.gob.pe", res.Body["usuario"].(map[string]any)["email"])
}

func TestDeactivatedUserTokenIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := setupAdmin(t, srv)
	operatorToken := createOperator(t, srv, adminToken)

	users := doJSON(t, srv, http.MethodGet, "/admin/usuarios", adminToken, nil)
	require.Equal(t, http.StatusOK, users.Code)
	var operatorID string
	for _, u := range users.Body["data"].([]any) {
		user := u.(map[string]any)
		if user["rol"] == "OPERADOR" {
			operatorID = user["id"].(string)
		}
	}
	require.NotEmpty(t, operatorID)

	res := doJSON(t, srv, http.MethodPut, "/admin/usuarios/"+operatorID, adminToken, map[string]any{
		"nombre": "Luis", "apellido": "Huaman", "email": "operador@ugel.gob.pe", "rol": "OPERADOR", "activo": false,
	})
	require.Equal(t, http.StatusOK, res.Code, res.message())

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/auth/me", operatorToken, nil).Code)
}

func TestRoleGates(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := setupAdmin(t, srv)
	operatorToken := createOperator(t, srv, adminToken)

	assert.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/admin/tramites", operatorToken, nil).Code)

	res := doJSON(t, srv, http.MethodGet, "/admin/usuarios", operatorToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Se requiere rol de administrador", res.message())

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/admin/tramites", "", nil).Code)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	me := doJSON(t, srv, http.MethodGet, "/auth/me", token, nil)
	id := me.Body["usuario"].(map[string]any)["id"].(string)

	res := doJSON(t, srv, http.MethodDelete, "/admin/usuarios/"+id, token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestChangePassword(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	res := doJSON(t, srv, http.MethodPost, "/auth/cambiar-password", token, map[string]string{
		"passwordActual": "incorrecta", "passwordNuevo": "NuevaClave2025",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = doJSON(t, srv, http.MethodPost, "/auth/cambiar-password", token, map[string]string{
		"passwordActual": "Admin2024!", "passwordNuevo": "NuevaClave2025",
	})
	require.Equal(t, http.StatusOK, res.Code, res.message())

	login := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@ugel.gob.pe", "password": "NuevaClave2025",
	})
	assert.Equal(t, http.StatusOK, login.Code)
}

func submissionFields() map[string]string {
	return map[string]string{
		"nombre":      "María",
		"apellido":    "Rojas",
		"dni":         "45678912",
		"email":       "maria@correo.pe",
		"telefono":    "987654321",
		"tipoTramite": "LICENCIA",
		"asunto":      "Licencia por maternidad",
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	srv, enq := newTestServer(t)
	token := setupAdmin(t, srv)

	res := doMultipart(t, srv, http.MethodPost, "/tramites", "", submissionFields(), "solicitud.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusCreated, res.Code, res.message())

	created := res.data()
	number := created["numeroExpediente"].(string)
	assert.Equal(t, fmt.Sprintf("EXP-%d-000001", time.Now().Year()), number)
	assert.Equal(t, "RECIBIDO", created["estado"])
	assert.Equal(t, "solicitud.pdf", created["archivoNombre"])
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, "tramite:received", enq.tasks[0].Type())

	tracked := doJSON(t, srv, http.MethodGet, "/tramites/consultar/"+number, "", nil)
	require.Equal(t, http.StatusOK, tracked.Code)
	assert.Equal(t, "RECIBIDO", tracked.data()["estado"])
	assert.NotContains(t, tracked.data(), "email")
	assert.NotContains(t, tracked.data(), "dni")

	id := created["id"].(string)
	path := "/admin/tramites/" + id + "/estado"

	res = doJSON(t, srv, http.MethodPatch, path, token, map[string]string{"estado": "EN_PROCESO"})
	require.Equal(t, http.StatusOK, res.Code, res.message())

	res = doJSON(t, srv, http.MethodPatch, path, token, map[string]string{"estado": "ATENDIDO", "observaciones": "Resolución emitida"})
	require.Equal(t, http.StatusOK, res.Code, res.message())

	res = doJSON(t, srv, http.MethodPatch, path, token, map[string]string{"estado": "EN_PROCESO"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = doJSON(t, srv, http.MethodPatch, path, token, map[string]string{"estado": "ARCHIVADO"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	tracked = doJSON(t, srv, http.MethodGet, "/tramites/consultar/"+number, "", nil)
	assert.Equal(t, "ATENDIDO", tracked.data()["estado"])
	assert.Equal(t, "Resolución emitida", tracked.data()["observaciones"])

	stats := doJSON(t, srv, http.MethodGet, "/admin/tramites/estadisticas", token, nil)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.EqualValues(t, 1, stats.data()["ATENDIDO"])
	assert.EqualValues(t, 0, stats.data()["RECIBIDO"])
	assert.EqualValues(t, 1, stats.data()["total"])
}

func TestSubmissionNumbersIncrement(t *testing.T) {
	srv, _ := newTestServer(t)

	first := doMultipart(t, srv, http.MethodPost, "/tramites", "", submissionFields(), "", nil)
	second := doMultipart(t, srv, http.MethodPost, "/tramites", "", submissionFields(), "", nil)
	require.Equal(t, http.StatusCreated, first.Code, first.message())
	require.Equal(t, http.StatusCreated, second.Code, second.message())

	assert.Equal(t, fmt.Sprintf("EXP-%d-000002", time.Now().Year()), second.data()["numeroExpediente"])
}

func TestSubmissionValidation(t *testing.T) {
	srv, enq := newTestServer(t)

	fields := submissionFields()
	fields["dni"] = "1234"
	res := doMultipart(t, srv, http.MethodPost, "/tramites", "", fields, "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "El DNI debe tener 8 dígitos", res.message())

	fields = submissionFields()
	fields["tipoTramite"] = "VACACIONES"
	res = doMultipart(t, srv, http.MethodPost, "/tramites", "", fields, "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = doMultipart(t, srv, http.MethodPost, "/tramites", "", submissionFields(), "virus.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Tipo de archivo no permitido", res.message())

	assert.Empty(t, enq.tasks)
}

func TestTrackUnknownSubmission(t *testing.T) {
	srv, _ := newTestServer(t)
	res := doJSON(t, srv, http.MethodGet, "/tramites/consultar/EXP-2024-999999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "No se encontró ningún expediente con ese código", res.message())
}

func TestPublicAnnouncementsHideDrafts(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	published := doMultipart(t, srv, http.MethodPost, "/admin/comunicados", token, map[string]string{
		"titulo": "Inicio del año escolar", "contenido": "...", "categoria": "ACADEMICO", "estado": "PUBLICADO",
	}, "", nil)
	require.Equal(t, http.StatusCreated, published.Code, published.message())
	assert.NotEmpty(t, published.data()["fechaPublicacion"])

	draft := doMultipart(t, srv, http.MethodPost, "/admin/comunicados", token, map[string]string{
		"titulo": "Borrador interno", "contenido": "...",
	}, "", nil)
	require.Equal(t, http.StatusCreated, draft.Code, draft.message())
	assert.Equal(t, "BORRADOR", draft.data()["estado"])

	list := doJSON(t, srv, http.MethodGet, "/comunicados", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	items := list.Body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Inicio del año escolar", items[0].(map[string]any)["titulo"])
	assert.EqualValues(t, 1, list.Body["pagination"].(map[string]any)["total"])

	hidden := doJSON(t, srv, http.MethodGet, "/comunicados/"+draft.data()["id"].(string), "", nil)
	assert.Equal(t, http.StatusNotFound, hidden.Code)

	all := doJSON(t, srv, http.MethodGet, "/admin/comunicados", token, nil)
	assert.Len(t, all.Body["data"].([]any), 2)

	// The back-office reads drafts by id
	got := doJSON(t, srv, http.MethodGet, "/admin/comunicados/"+draft.data()["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, got.Code, got.message())
	assert.Equal(t, "Borrador interno", got.data()["titulo"])
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, srv, http.MethodGet, "/admin/comunicados/"+draft.data()["id"].(string), "", nil).Code)
}

func TestPostingDatesValidated(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	res := doMultipart(t, srv, http.MethodPost, "/admin/convocatorias", token, map[string]string{
		"codigo": "CAS-001-2025", "titulo": "Especialista", "tipo": "CAS",
		"fechaInicio": "2025-03-10", "fechaFin": "2025-03-01",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = doMultipart(t, srv, http.MethodPost, "/admin/convocatorias", token, map[string]string{
		"codigo": "CAS-001-2025", "titulo": "Especialista", "tipo": "CAS",
		"fechaInicio": "2025-03-01", "fechaFin": "2025-03-10", "plazas": "2",
	}, "bases.pdf", []byte("%PDF"))
	require.Equal(t, http.StatusCreated, res.Code, res.message())
	assert.Equal(t, "PROXIMA", res.data()["estado"])
	assert.NotEmpty(t, res.data()["archivoUrl"])

	list := doJSON(t, srv, http.MethodGet, "/convocatorias?tipo=CAS", "", nil)
	assert.Len(t, list.Body["data"].([]any), 1)
}

func TestDocumentDownloadCountsDownloads(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAdmin(t, srv)

	res := doMultipart(t, srv, http.MethodPost, "/admin/documentos", token, map[string]string{
		"titulo": "Directiva 001", "categoria": "DIRECTIVA",
	}, "directiva.pdf", []byte("%PDF-1.4 contenido"))
	require.Equal(t, http.StatusCreated, res.Code, res.message())
	id := res.data()["id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/documentos/"+id+"/descargar", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 contenido", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "directiva.pdf")

	got := doJSON(t, srv, http.MethodGet, "/admin/documentos/"+id, token, nil)
	require.Equal(t, http.StatusOK, got.Code, got.message())
	assert.Equal(t, "Directiva 001", got.data()["titulo"])
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/admin/documentos/no-existe", token, nil).Code)

	list := doJSON(t, srv, http.MethodGet, "/documentos?categoria=DIRECTIVA", "", nil)
	items := list.Body["data"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].(map[string]any)["descargas"])

	missingFile := doMultipart(t, srv, http.MethodPost, "/admin/documentos", token, map[string]string{
		"titulo": "Sin archivo", "categoria": "OFICIO",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, missingFile.Code)
}
