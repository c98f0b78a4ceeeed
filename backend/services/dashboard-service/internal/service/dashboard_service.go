package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ampera/backend/services/dashboard-service/internal/cache"
	"ampera/backend/services/dashboard-service/internal/derive"
	"ampera/backend/services/dashboard-service/internal/metrics"
	"ampera/backend/services/dashboard-service/internal/models"
	"ampera/backend/services/dashboard-service/internal/source"
)

// DashboardService derives the live fleet payload on demand. Each request is
// independent; there is no shared mutable state between builds.
type DashboardService struct {
	source    source.Source
	snapshots *cache.SnapshotStore
	srcLabel  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService returns the service. snapshots may be nil when no redis
// is configured. live marks upstream-backed payloads, demo deployments report
// fallback.
func NewDashboardService(src source.Source, snapshots *cache.SnapshotStore, live bool, logger *zap.Logger) *DashboardService {
	label := models.SourceFallback
	if live {
		label = models.SourceLive
	}
	return &DashboardService{
		source:    src,
		snapshots: snapshots,
		srcLabel:  label,
		logger:    logger,
		now:       time.Now,
	}
}

// BuildSnapshot fetches both row sets concurrently, derives the canonical
// payload and publishes it to the snapshot cache. A failed fetch aborts the
// whole build; partial payloads are never returned.
func (s *DashboardService) BuildSnapshot(ctx context.Context) (*models.DashboardResponse, error) {
	var (
		telemetryRows  []models.TelemetryRow
		predictionRows []models.PredictionRow
	)

	g, fetchCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.source.FetchTelemetry(fetchCtx)
		if err != nil {
			return err
		}
		telemetryRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.FetchPredictions(fetchCtx)
		if err != nil {
			return err
		}
		predictionRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.BuildFailures.Inc()
		return nil, err
	}

	metrics.RowsFetched.WithLabelValues("telemetry").Add(float64(len(telemetryRows)))
	metrics.RowsFetched.WithLabelValues("predictions").Add(float64(len(predictionRows)))

	payload := derive.BuildDashboard(telemetryRows, predictionRows, s.now())
	payload.Source = s.srcLabel
	metrics.BuildsTotal.Inc()
	s.recordIncidentGauges(payload.Incidents)

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, payload); err != nil {
			// Cache misses only degrade the triage fallback path.
			metrics.SnapshotCacheWrites.WithLabelValues("error").Inc()
			s.logger.Warn("failed to cache dashboard snapshot", zap.Error(err))
		} else {
			metrics.SnapshotCacheWrites.WithLabelValues("ok").Inc()
		}
	}

	return payload, nil
}

func (s *DashboardService) recordIncidentGauges(incidents []models.Incident) {
	critical, warning := 0, 0
	for _, incident := range incidents {
		if incident.Severity == models.StatusCritical {
			critical++
		} else {
			warning++
		}
	}
	metrics.ActiveIncidents.WithLabelValues("critical").Set(float64(critical))
	metrics.ActiveIncidents.WithLabelValues("warning").Set(float64(warning))
}
