package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

// ListAnnouncements returns published comunicados
func (c *Client) ListAnnouncements(ctx context.Context, opts ListOptions) (*api.Page[api.Announcement], error) {
	return getPage[api.Announcement](ctx, c, "/comunicados", opts)
}

// GetAnnouncement returns one published comunicado
func (c *Client) GetAnnouncement(ctx context.Context, id string) (*api.Announcement, error) {
	return getData[*api.Announcement](ctx, c, request{method: http.MethodGet, path: pathID("/comunicados", id)})
}

// ListPostings returns convocatorias, filterable by estado and tipo
func (c *Client) ListPostings(ctx context.Context, opts ListOptions) (*api.Page[api.Posting], error) {
	return getPage[api.Posting](ctx, c, "/convocatorias", opts)
}

// GetPosting returns one convocatoria
func (c *Client) GetPosting(ctx context.Context, id string) (*api.Posting, error) {
	return getData[*api.Posting](ctx, c, request{method: http.MethodGet, path: pathID("/convocatorias", id)})
}

// RegisterSubmission files a trámite through the mesa de partes
func (c *Client) RegisterSubmission(ctx context.Context, in api.SubmissionInput, file *api.Upload) (*api.Submission, error) {
	r, err := multipartRequest(http.MethodPost, "/tramites", in.Form(), file)
	if err != nil {
		return nil, err
	}
	return getData[*api.Submission](ctx, c, r)
}

// TrackSubmission looks a trámite up by expediente number
func (c *Client) TrackSubmission(ctx context.Context, fileNumber string) (*api.Tracking, error) {
	return getData[*api.Tracking](ctx, c, request{method: http.MethodGet, path: pathID("/tramites/consultar", fileNumber)})
}

// ListDocuments returns downloadable documentos
func (c *Client) ListDocuments(ctx context.Context, opts ListOptions) (*api.Page[api.Document], error) {
	return getPage[api.Document](ctx, c, "/documentos", opts)
}

// DownloadDocument streams a documento into w and returns its file name
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: pathID("/documentos", id) + "/descargar"})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("%w: download interrupted: %w", ErrTransport, err)
	}

	name := id
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, nil
}
