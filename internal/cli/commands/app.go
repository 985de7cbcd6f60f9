package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/config"
	"github.com/ugel-satipo/portal/internal/cli/credstore"
	"github.com/ugel-satipo/portal/internal/cli/guard"
	"github.com/ugel-satipo/portal/internal/cli/session"
	"github.com/ugel-satipo/portal/internal/logger"
)

// app bundles what a command needs to talk to the API. The session is
// created on first use so public commands never verify credentials.
type app struct {
	cfg    *config.Config
	store  credstore.Store
	client *client.Client
	logger zerolog.Logger
	sess   *session.Manager
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, "console")

	store, err := credstore.Open(cfg.StoreOptions())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		store:  store,
		client: client.New(cfg.APIURL, store, client.WithLogger(log)),
		logger: log,
	}, nil
}

// session returns the session manager, starting startup verification the
// first time it is called
func (a *app) session(ctx context.Context) *session.Manager {
	if a.sess != nil {
		return a.sess
	}

	var opts []session.Option
	if a.cfg.KeepSessionOnNetworkError {
		opts = append(opts, session.WithKeepSessionOnTransportError())
	}
	sess := session.New(ctx, a.store, a.client, a.logger, opts...)
	a.client.OnUnauthorized(func(req *http.Request) {
		sess.Expire(client.BearerToken(req))
	})
	a.sess = sess
	return sess
}

// requireSession is the route guard for commands: it waits out startup
// verification, then either proceeds or fails with ErrNotAuthenticated
func (a *app) requireSession(ctx context.Context) (*session.Manager, error) {
	sess := a.session(ctx)
	if err := sess.Wait(ctx); err != nil {
		return nil, err
	}
	if guard.Check(sess) != guard.Render {
		return nil, guard.ErrNotAuthenticated
	}
	return sess, nil
}

// apiError turns a failed API call into the message a user should see. A
// rejected token has already ended the session.
func apiError(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%s: %w", err.Error(), guard.ErrNotAuthenticated)
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, client.ErrTransport):
		return fmt.Errorf("no se pudo conectar con el servidor: %w", err)
	default:
		return err
	}
}
