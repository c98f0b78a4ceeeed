package source

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var telemetryColumns = []string{
	"charger_id", "latitude", "longitude", "area", "voltage_v", "current_a",
	"temperature_c", "ambient_temp_c", "session_duration_min", "error_count",
	"risk_score", "health_status", "soc", "battery_temp_c",
	"charging_duration_min", "efficiency", "timestamp",
}

func TestPostgresSourceFetchTelemetry(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	recorded := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM telemetry_live`).
		WithArgs(TelemetryLimit).
		WillReturnRows(sqlmock.NewRows(telemetryColumns).
			AddRow("charger_5", 38.6, -121.2, "Folsom", 231.5, 28.0,
				33.2, 22.0, 45.0, 0.0,
				0.12, "healthy", 65.0, 31.0,
				40.0, 0.94, recorded).
			AddRow("charger_6", nil, nil, nil, nil, nil,
				nil, nil, nil, nil,
				nil, nil, nil, nil,
				nil, nil, nil))

	src := NewPostgresSource(db, "", "")
	rows, err := src.FetchTelemetry(context.Background())
	if err != nil {
		t.Fatalf("fetch telemetry: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.ChargerID != "charger_5" {
		t.Fatalf("unexpected charger id %v", first.ChargerID)
	}
	if first.VoltageV != 231.5 {
		t.Fatalf("unexpected voltage %v", first.VoltageV)
	}
	if first.Timestamp == nil || *first.Timestamp != "2026-03-14T10:00:00Z" {
		t.Fatalf("timestamp should format as RFC3339, got %v", first.Timestamp)
	}

	second := rows[1]
	if second.VoltageV != nil || second.Area != nil || second.Timestamp != nil {
		t.Fatalf("null columns must surface as absent values: %+v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSourceFetchPredictions(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	asOf := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	columns := []string{
		"charger_id", "as_of_timestamp", "failure_prone", "normalized_risk_pct_100",
		"failure_risk_prob_norm", "failure_risk_prob_raw", "predicted_failure_pattern",
		"pattern_confidence", "risk_trend", "composite_risk", "updated_at",
	}
	mock.ExpectQuery(`SELECT .+ FROM charger_predictions_live`).
		WithArgs(PredictionLimit).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("charger_5", asOf, true, 82.4,
				0.82, 0.79, "thermal drift",
				0.9, "rising", 81.0, asOf))

	src := NewPostgresSource(db, "", "")
	rows, err := src.FetchPredictions(context.Background())
	if err != nil {
		t.Fatalf("fetch predictions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.NormalizedRiskPct100 != 82.4 {
		t.Fatalf("unexpected normalized risk %v", row.NormalizedRiskPct100)
	}
	if row.PredictedFailurePattern == nil || *row.PredictedFailurePattern != "thermal drift" {
		t.Fatalf("unexpected pattern %v", row.PredictedFailurePattern)
	}
	if row.FailureProne == nil || !*row.FailureProne {
		t.Fatalf("unexpected failure_prone %v", row.FailureProne)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSourceQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM telemetry_live`).
		WithArgs(TelemetryLimit).
		WillReturnError(errors.New("connection refused"))

	src := NewPostgresSource(db, "", "")
	if _, err := src.FetchTelemetry(context.Background()); err == nil {
		t.Fatal("expected query error to propagate")
	}
}
