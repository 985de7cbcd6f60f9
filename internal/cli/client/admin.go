package client

import (
	"context"
	"net/http"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

// AdminListAnnouncements lists comunicados in every estado
func (c *Client) AdminListAnnouncements(ctx context.Context, opts ListOptions) (*api.Page[api.Announcement], error) {
	return getPage[api.Announcement](ctx, c, "/admin/comunicados", opts)
}

// AdminGetAnnouncement returns a comunicado in any estado
func (c *Client) AdminGetAnnouncement(ctx context.Context, id string) (*api.Announcement, error) {
	return getData[*api.Announcement](ctx, c, request{method: http.MethodGet, path: pathID("/admin/comunicados", id)})
}

func (c *Client) AdminCreateAnnouncement(ctx context.Context, in api.AnnouncementInput, file *api.Upload) (*api.Announcement, error) {
	r, err := multipartRequest(http.MethodPost, "/admin/comunicados", in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Announcement](ctx, c, r)
}

func (c *Client) AdminUpdateAnnouncement(ctx context.Context, id string, in api.AnnouncementInput, file *api.Upload) (*api.Announcement, error) {
	r, err := multipartRequest(http.MethodPut, pathID("/admin/comunicados", id), in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Announcement](ctx, c, r)
}

func (c *Client) AdminDeleteAnnouncement(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/admin/comunicados", id)}, nil)
}

// AdminListPostings lists convocatorias for the back-office
func (c *Client) AdminListPostings(ctx context.Context, opts ListOptions) (*api.Page[api.Posting], error) {
	return getPage[api.Posting](ctx, c, "/admin/convocatorias", opts)
}

func (c *Client) AdminGetPosting(ctx context.Context, id string) (*api.Posting, error) {
	return getData[*api.Posting](ctx, c, request{method: http.MethodGet, path: pathID("/admin/convocatorias", id)})
}

func (c *Client) AdminCreatePosting(ctx context.Context, in api.PostingInput, file *api.Upload) (*api.Posting, error) {
	r, err := multipartRequest(http.MethodPost, "/admin/convocatorias", in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Posting](ctx, c, r)
}

func (c *Client) AdminUpdatePosting(ctx context.Context, id string, in api.PostingInput, file *api.Upload) (*api.Posting, error) {
	r, err := multipartRequest(http.MethodPut, pathID("/admin/convocatorias", id), in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Posting](ctx, c, r)
}

func (c *Client) AdminDeletePosting(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/admin/convocatorias", id)}, nil)
}

// AdminListSubmissions lists trámites; filters: estado, tipoTramite, busqueda
func (c *Client) AdminListSubmissions(ctx context.Context, opts ListOptions) (*api.Page[api.Submission], error) {
	return getPage[api.Submission](ctx, c, "/admin/tramites", opts)
}

func (c *Client) AdminGetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	return getData[*api.Submission](ctx, c, request{method: http.MethodGet, path: pathID("/admin/tramites", id)})
}

// AdminChangeSubmissionStatus moves a trámite to status, optionally replacing its notes
func (c *Client) AdminChangeSubmissionStatus(ctx context.Context, id, status, notes string) (*api.Submission, error) {
	r, err := jsonRequest(http.MethodPatch, pathID("/admin/tramites", id)+"/estado", map[string]string{
		"estado":        status,
		"observaciones": notes,
	})
	if err != nil {
		return nil, err
	}
	return getData[*api.Submission](ctx, c, r)
}

// AdminSubmissionStats returns trámite counts per estado
func (c *Client) AdminSubmissionStats(ctx context.Context) (api.Stats, error) {
	return getData[api.Stats](ctx, c, request{method: http.MethodGet, path: "/admin/tramites/estadisticas"})
}

// AdminListDocuments lists documentos for the back-office
func (c *Client) AdminListDocuments(ctx context.Context, opts ListOptions) (*api.Page[api.Document], error) {
	return getPage[api.Document](ctx, c, "/admin/documentos", opts)
}

func (c *Client) AdminGetDocument(ctx context.Context, id string) (*api.Document, error) {
	return getData[*api.Document](ctx, c, request{method: http.MethodGet, path: pathID("/admin/documentos", id)})
}

func (c *Client) AdminCreateDocument(ctx context.Context, in api.DocumentInput, file *api.Upload) (*api.Document, error) {
	r, err := multipartRequest(http.MethodPost, "/admin/documentos", in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Document](ctx, c, r)
}

func (c *Client) AdminUpdateDocument(ctx context.Context, id string, in api.DocumentInput, file *api.Upload) (*api.Document, error) {
	r, err := multipartRequest(http.MethodPut, pathID("/admin/documentos", id), in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Document](ctx, c, r)
}

func (c *Client) AdminDeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/admin/documentos", id)}, nil)
}

// AdminListUsers lists back-office accounts (ADMIN only)
func (c *Client) AdminListUsers(ctx context.Context) ([]api.User, error) {
	return getData[[]api.User](ctx, c, request{method: http.MethodGet, path: "/admin/usuarios"})
}

func (c *Client) AdminCreateUser(ctx context.Context, in api.UserInput) (*api.User, error) {
	r, err := jsonRequest(http.MethodPost, "/admin/usuarios", in)
	if err != nil {
		return nil, err
	}
	return getData[*api.User](ctx, c, r)
}

func (c *Client) AdminUpdateUser(ctx context.Context, id string, in api.UserInput) (*api.User, error) {
	r, err := jsonRequest(http.MethodPut, pathID("/admin/usuarios", id), in)
	if err != nil {
		return nil, err
	}
	return getData[*api.User](ctx, c, r)
}

func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/admin/usuarios", id)}, nil)
}
