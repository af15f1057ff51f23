package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/modelvault/modelvault/internal/client/api"
	"github.com/modelvault/modelvault/internal/client/config"
	"github.com/modelvault/modelvault/internal/client/remote"
	"github.com/modelvault/modelvault/internal/client/sync"
	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/store/sqlite"
	"github.com/modelvault/modelvault/internal/vcs"
)

// App wires the local store, the server API client, and the sync
// orchestrator behind the interactive command surface.
type App struct {
	config   *config.Config
	api      *api.Client
	local    *vcs.Service
	remote   *remote.Service
	orch     *sync.Orchestrator
	store    *sqlite.Store
	logger   logging.Logger
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	st, err := sqlite.Open(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.New(c.ServerAddr, c.RequestTimeout)
	localSvc := vcs.NewService(st)
	remoteSvc := remote.NewService(apiClient)
	orch := sync.NewOrchestrator(localSvc, remoteSvc, apiClient, logger)

	return &App{
		config: c,
		api:    apiClient,
		local:  localSvc,
		remote: remoteSvc,
		orch:   orch,
		store:  st,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "not logged in"
	}
	return a.userName
}
