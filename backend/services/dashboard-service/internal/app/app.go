package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "ampera/backend/libs/db"
	libmetrics "ampera/backend/libs/metrics"
	libredis "ampera/backend/libs/redis"
	"ampera/backend/services/dashboard-service/internal/cache"
	"ampera/backend/services/dashboard-service/internal/config"
	httpserver "ampera/backend/services/dashboard-service/internal/http"
	"ampera/backend/services/dashboard-service/internal/http/handlers"
	"ampera/backend/services/dashboard-service/internal/service"
	"ampera/backend/services/dashboard-service/internal/source"
)

// App wires dashboard-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{logger: logger}

	src, err := app.buildSource(cfg)
	if err != nil {
		return nil, err
	}

	var snapshots *cache.SnapshotStore
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redisClient = redisClient
		snapshots = cache.NewSnapshotStore(redisClient, cfg.SnapshotTTLDuration())
	}

	live := cfg.Upstream.Mode != config.ModeMock
	dashboardService := service.NewDashboardService(src, snapshots, live, logger)

	routes := httpserver.Routes{
		LiveDashboard: handlers.NewDashboardHandler(dashboardService, logger),
		Health:        handlers.NewHealthHandler(),
		Metrics:       promhttp.Handler(),
	}

	httpMetrics := libmetrics.NewHTTPMetrics("dashboard")
	router := httpserver.NewRouter(routes, httpMetrics.Middleware)
	app.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return app, nil
}

func (a *App) buildSource(cfg *config.Config) (source.Source, error) {
	telemetryTable := strings.TrimSpace(cfg.Upstream.TelemetryTable)
	if telemetryTable == "" {
		telemetryTable = source.DefaultTelemetryTable
	}
	predictionTable := strings.TrimSpace(cfg.Upstream.PredictionTable)
	if predictionTable == "" {
		predictionTable = source.DefaultPredictionTable
	}

	switch cfg.Upstream.Mode {
	case config.ModeREST:
		client := &http.Client{Timeout: cfg.Upstream.Timeout}
		return source.NewRESTSource(cfg.Upstream.RESTURL, cfg.Upstream.ServiceKey, client, telemetryTable, predictionTable), nil
	case config.ModePostgres:
		sqlDB, err := libdb.NewPostgres(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		return source.NewPostgresSource(sqlDB, telemetryTable, predictionTable), nil
	default:
		a.logger.Info("using mock fleet source", zap.Int64("seed", cfg.Mock.Seed))
		return source.NewMockSource(cfg.Mock.Seed), nil
	}
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
