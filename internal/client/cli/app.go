package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
	"github.com/dmitrijs2005/codemap/internal/client/config"
	"github.com/dmitrijs2005/codemap/internal/client/credentials"
	"github.com/dmitrijs2005/codemap/internal/client/services"
	"github.com/dmitrijs2005/codemap/internal/client/storage/factory"
	"github.com/dmitrijs2005/codemap/internal/logging"
)

// Streams are the process's standard streams; tests substitute buffers.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type App struct {
	config *config.Config
	api    *apiclient.Client
	auth   services.AuthService
	codes  *services.CodeService
	log    logging.Logger
	closer func() error
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the credential storage named by cfg.Storage, restores any
// saved session and installs the process-wide API client.
func NewApp(ctx context.Context, cfg *config.Config, s Streams) (*App, error) {
	log := logging.NewText(s.Err, cfg.LogLevel)

	st, closeFn, err := factory.Open(ctx, cfg.Storage, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	store := credentials.NewStore(st,
		credentials.WithSkew(cfg.SkewMargin),
		credentials.WithLogger(log),
	)
	store.Load(ctx)

	api, err := apiclient.Init(cfg.APIConfig(),
		apiclient.WithStore(store),
		apiclient.WithLogger(log),
	)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &App{
		config: cfg,
		api:    api,
		auth:   services.NewAuthService(api),
		codes:  services.NewCodeService(api),
		log:    log,
		closer: closeFn,
		reader: bufio.NewReader(s.In),
		out:    s.Out,
	}, nil
}

// Close drops the process-wide client and releases the storage.
func (a *App) Close() error {
	apiclient.Reset()
	return a.closer()
}

func (a *App) isLoggedIn() bool {
	return a.api.IsAuthenticated()
}

func (a *App) getStatus() string {
	if a.isLoggedIn() {
		return "(authenticated)"
	}
	if _, ok := a.api.Store().Current(); ok {
		return "(expired)"
	}
	return ""
}
