package app

import (
	"context"
	"net/http"
	"time"

	"github.com/2300031420/Tastoria5/internal/config"
)

// App owns the HTTP server and the infrastructure it was wired
// against. Shutdown drains the server first, then releases the rest.
type App struct {
	server  *http.Server
	release func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, release, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		server: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		release: release,
	}, nil
}

func (a *App) Run() error {
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.release != nil {
		if cerr := a.release(); err == nil {
			err = cerr
		}
	}
	return err
}
