// Package stubapi runs a self-contained clinical coding API for local
// development and end-to-end tests of the client: login with rotating
// refresh tokens, JWT-protected code catalogue endpoints.
package stubapi

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/codemap/internal/logging"
	"github.com/dmitrijs2005/codemap/internal/stubapi/codes"
	"github.com/dmitrijs2005/codemap/internal/stubapi/config"
	"github.com/dmitrijs2005/codemap/internal/stubapi/httpapi"
	"github.com/dmitrijs2005/codemap/internal/stubapi/users"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(c.LogLevel)

	us, err := users.NewService(c)
	if err != nil {
		return nil, fmt.Errorf("users init error: %w", err)
	}

	catalogue := codes.NewCatalogue()
	codes.Seed(catalogue)

	srv := httpapi.NewServer(c.Addr, logger, us, catalogue, c.Latency)
	return &App{config: c, logger: logger, server: srv}, nil
}

// Run blocks until ctx is cancelled or the server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "user", app.config.Username)
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}
	return nil
}
