package app

import (
	"log/slog"
	"net/http"

	"papertrail-server/internal/config"
	"papertrail-server/internal/health"
	"papertrail-server/internal/observability"
)

// App bundles the process-wide handles wired in cmd/server: configuration,
// logger, the HTTP server and the observability runtime.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Readiness     *health.ProbeRunner
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, readiness *health.ProbeRunner) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		Readiness:     readiness,
	}
}
