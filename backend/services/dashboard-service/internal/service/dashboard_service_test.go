package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"ampera/backend/services/dashboard-service/internal/models"
)

type fakeSource struct {
	telemetry    []models.TelemetryRow
	predictions  []models.PredictionRow
	telemetryErr error
	predictErr   error
}

func (f *fakeSource) FetchTelemetry(ctx context.Context) ([]models.TelemetryRow, error) {
	if f.telemetryErr != nil {
		return nil, f.telemetryErr
	}
	return f.telemetry, nil
}

func (f *fakeSource) FetchPredictions(ctx context.Context) ([]models.PredictionRow, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return f.predictions, nil
}

func TestBuildSnapshotDerivesPayload(t *testing.T) {
	status := "critical"
	ts := "2026-03-14T11:50:00Z"
	src := &fakeSource{
		telemetry: []models.TelemetryRow{{
			ChargerID:    "12",
			VoltageV:     218.0,
			TemperatureC: 30.0,
			HealthStatus: &status,
			Timestamp:    &ts,
		}},
	}

	svc := NewDashboardService(src, nil, true, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	payload, err := svc.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	if payload.Source != models.SourceLive {
		t.Fatalf("expected live source marker, got %s", payload.Source)
	}
	if len(payload.Chargers) != 1 || payload.Chargers[0].Status != models.StatusCritical {
		t.Fatalf("unexpected chargers: %+v", payload.Chargers)
	}
	if len(payload.Incidents) != 1 || payload.Incidents[0].Metric != "voltage" {
		t.Fatalf("unexpected incidents: %+v", payload.Incidents)
	}
}

func TestBuildSnapshotFallbackMarker(t *testing.T) {
	svc := NewDashboardService(&fakeSource{}, nil, false, zap.NewNop())
	payload, err := svc.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	if payload.Source != models.SourceFallback {
		t.Fatalf("expected fallback marker, got %s", payload.Source)
	}
}

func TestBuildSnapshotAbortsWhenTelemetryFails(t *testing.T) {
	src := &fakeSource{
		telemetryErr: errors.New("telemetry_live request failed (503)"),
		predictions:  []models.PredictionRow{{ChargerID: "1", NormalizedRiskPct100: 10.0}},
	}
	svc := NewDashboardService(src, nil, true, zap.NewNop())

	if _, err := svc.BuildSnapshot(context.Background()); err == nil {
		t.Fatal("a failed source fetch must abort the build")
	}
}

func TestBuildSnapshotAbortsWhenPredictionsFail(t *testing.T) {
	src := &fakeSource{
		telemetry:  []models.TelemetryRow{{ChargerID: "1"}},
		predictErr: errors.New("predictions unavailable"),
	}
	svc := NewDashboardService(src, nil, true, zap.NewNop())

	if _, err := svc.BuildSnapshot(context.Background()); err == nil {
		t.Fatal("a failed source fetch must abort the build")
	}
}
