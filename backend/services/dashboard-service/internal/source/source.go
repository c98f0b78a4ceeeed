package source

import (
	"context"

	"ampera/backend/services/dashboard-service/internal/models"
)

// Bounded page sizes for the newest-first upstream fetches.
const (
	TelemetryLimit  = 5000
	PredictionLimit = 3000
)

// Default upstream table names.
const (
	DefaultTelemetryTable  = "telemetry_live"
	DefaultPredictionTable = "charger_predictions_live"
)

// Source yields raw rows ordered newest-first. A failed fetch aborts the
// whole derivation; partial results are never returned.
type Source interface {
	FetchTelemetry(ctx context.Context) ([]models.TelemetryRow, error)
	FetchPredictions(ctx context.Context) ([]models.PredictionRow, error)
}
