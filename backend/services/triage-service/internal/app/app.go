package app

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libmetrics "ampera/backend/libs/metrics"
	libredis "ampera/backend/libs/redis"
	"ampera/backend/services/triage-service/internal/cache"
	"ampera/backend/services/triage-service/internal/clients"
	"ampera/backend/services/triage-service/internal/config"
	httpserver "ampera/backend/services/triage-service/internal/http"
	"ampera/backend/services/triage-service/internal/http/handlers"
	"ampera/backend/services/triage-service/internal/service"
)

// App wires triage-service dependencies.
type App struct {
	server      *httpserver.Server
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{logger: logger}

	var snapshots service.SnapshotLoader
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.redisClient = redisClient
		snapshots = cache.NewSnapshotReader(redisClient)
	}

	completionClient := clients.NewCompletionClient(
		cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, nil, logger)
	triageService := service.NewTriageService(completionClient, snapshots, logger)

	routes := httpserver.Routes{
		Triage:  handlers.NewTriageHandler(triageService, logger),
		Health:  handlers.NewHealthHandler(),
		Metrics: promhttp.Handler(),
	}

	httpMetrics := libmetrics.NewHTTPMetrics("triage")
	router := httpserver.NewRouter(routes, httpMetrics.Middleware)
	app.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return app, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
