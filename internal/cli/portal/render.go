package portal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
)

const pageSize = 10

// render executes a page with the current user made available to the layout
func (p *Portal) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	user := p.session.User()
	data["User"] = user
	data["IsAdmin"] = user != nil && user.Role.IsAdmin()
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

// fail renders an API error. A rejected token has already scheduled the
// redirect to the login screen, so nothing is written in that case.
func (p *Portal) fail(c *gin.Context, err error) {
	if errors.Is(err, client.ErrUnauthorized) && redirectPending(c.Request.Context()) {
		return
	}

	status := http.StatusBadGateway
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	} else {
		p.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("API request failed")
	}
	p.render(c, status, "error", gin.H{"Message": errorMessage(err)})
}

// errorMessage is what a screen shows for err. API messages are shown verbatim.
func errorMessage(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrTransport):
		return "No se pudo conectar con el servidor"
	default:
		return "Ocurrió un error inesperado"
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("pagina"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func listOptions(c *gin.Context, filters ...string) client.ListOptions {
	opts := client.ListOptions{Page: pageParam(c), Limit: pageSize, Filters: map[string]string{}}
	for _, f := range filters {
		opts.Filters[f] = c.Query(f)
	}
	return opts
}

// pager holds the links of a paginated list
type pager struct {
	Page       int
	TotalPages int
	Total      int64
	Prev       string
	Next       string
}

func newPager(c *gin.Context, p api.Pagination) pager {
	pg := pager{Page: p.Page, TotalPages: p.TotalPages, Total: p.Total}
	link := func(n int) string {
		q := c.Request.URL.Query()
		q.Set("pagina", strconv.Itoa(n))
		return c.Request.URL.Path + "?" + q.Encode()
	}
	if p.Page > 1 {
		pg.Prev = link(p.Page - 1)
	}
	if p.Page < p.TotalPages {
		pg.Next = link(p.Page + 1)
	}
	return pg
}
