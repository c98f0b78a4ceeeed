package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ampera/backend/services/dashboard-service/internal/models"
)

// PostgresSource reads the same live tables directly over SQL, for
// deployments with database access instead of the REST gateway.
type PostgresSource struct {
	db              *sql.DB
	telemetryTable  string
	predictionTable string
}

// NewPostgresSource builds a SQL row source. Empty table names use the defaults.
func NewPostgresSource(db *sql.DB, telemetryTable, predictionTable string) *PostgresSource {
	if telemetryTable == "" {
		telemetryTable = DefaultTelemetryTable
	}
	if predictionTable == "" {
		predictionTable = DefaultPredictionTable
	}
	return &PostgresSource{db: db, telemetryTable: telemetryTable, predictionTable: predictionTable}
}

// FetchTelemetry returns the newest telemetry rows.
func (s *PostgresSource) FetchTelemetry(ctx context.Context) ([]models.TelemetryRow, error) {
	query := fmt.Sprintf(`
		SELECT charger_id, latitude, longitude, area, voltage_v, current_a,
		       temperature_c, ambient_temp_c, session_duration_min, error_count,
		       risk_score, health_status, soc, battery_temp_c,
		       charging_duration_min, efficiency, timestamp
		FROM %s
		ORDER BY timestamp DESC
		LIMIT $1
	`, s.telemetryTable)

	rows, err := s.db.QueryContext(ctx, query, TelemetryLimit)
	if err != nil {
		return nil, fmt.Errorf("source: query %s: %w", s.telemetryTable, err)
	}
	defer rows.Close()

	var result []models.TelemetryRow
	for rows.Next() {
		var (
			chargerID    sql.NullString
			latitude     sql.NullFloat64
			longitude    sql.NullFloat64
			area         sql.NullString
			voltage      sql.NullFloat64
			current      sql.NullFloat64
			temperature  sql.NullFloat64
			ambientTemp  sql.NullFloat64
			sessionMin   sql.NullFloat64
			errorCount   sql.NullFloat64
			riskScore    sql.NullFloat64
			healthStatus sql.NullString
			soc          sql.NullFloat64
			batteryTemp  sql.NullFloat64
			chargingMin  sql.NullFloat64
			efficiency   sql.NullFloat64
			timestamp    sql.NullTime
		)
		if err := rows.Scan(
			&chargerID, &latitude, &longitude, &area, &voltage, &current,
			&temperature, &ambientTemp, &sessionMin, &errorCount,
			&riskScore, &healthStatus, &soc, &batteryTemp,
			&chargingMin, &efficiency, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("source: scan %s row: %w", s.telemetryTable, err)
		}
		result = append(result, models.TelemetryRow{
			ChargerID:           nullableString(chargerID),
			Latitude:            nullableFloat(latitude),
			Longitude:           nullableFloat(longitude),
			Area:                stringPtr(area),
			VoltageV:            nullableFloat(voltage),
			CurrentA:            nullableFloat(current),
			TemperatureC:        nullableFloat(temperature),
			AmbientTempC:        nullableFloat(ambientTemp),
			SessionDurationMin:  nullableFloat(sessionMin),
			ErrorCount:          nullableFloat(errorCount),
			RiskScore:           nullableFloat(riskScore),
			HealthStatus:        stringPtr(healthStatus),
			SOC:                 nullableFloat(soc),
			BatteryTempC:        nullableFloat(batteryTemp),
			ChargingDurationMin: nullableFloat(chargingMin),
			Efficiency:          nullableFloat(efficiency),
			Timestamp:           timePtr(timestamp),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: iterate %s rows: %w", s.telemetryTable, err)
	}
	return result, nil
}

// FetchPredictions returns the newest prediction rows.
func (s *PostgresSource) FetchPredictions(ctx context.Context) ([]models.PredictionRow, error) {
	query := fmt.Sprintf(`
		SELECT charger_id, as_of_timestamp, failure_prone, normalized_risk_pct_100,
		       failure_risk_prob_norm, failure_risk_prob_raw, predicted_failure_pattern,
		       pattern_confidence, risk_trend, composite_risk, updated_at
		FROM %s
		ORDER BY as_of_timestamp DESC
		LIMIT $1
	`, s.predictionTable)

	rows, err := s.db.QueryContext(ctx, query, PredictionLimit)
	if err != nil {
		return nil, fmt.Errorf("source: query %s: %w", s.predictionTable, err)
	}
	defer rows.Close()

	var result []models.PredictionRow
	for rows.Next() {
		var (
			chargerID         sql.NullString
			asOfTimestamp     sql.NullTime
			failureProne      sql.NullBool
			normalizedRisk    sql.NullFloat64
			probNorm          sql.NullFloat64
			probRaw           sql.NullFloat64
			failurePattern    sql.NullString
			patternConfidence sql.NullFloat64
			riskTrend         sql.NullString
			compositeRisk     sql.NullFloat64
			updatedAt         sql.NullTime
		)
		if err := rows.Scan(
			&chargerID, &asOfTimestamp, &failureProne, &normalizedRisk,
			&probNorm, &probRaw, &failurePattern,
			&patternConfidence, &riskTrend, &compositeRisk, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("source: scan %s row: %w", s.predictionTable, err)
		}
		result = append(result, models.PredictionRow{
			ChargerID:               nullableString(chargerID),
			AsOfTimestamp:           timePtr(asOfTimestamp),
			FailureProne:            boolPtr(failureProne),
			NormalizedRiskPct100:    nullableFloat(normalizedRisk),
			FailureRiskProbNorm:     nullableFloat(probNorm),
			FailureRiskProbRaw:      nullableFloat(probRaw),
			PredictedFailurePattern: stringPtr(failurePattern),
			PatternConfidence:       nullableFloat(patternConfidence),
			RiskTrend:               stringPtr(riskTrend),
			CompositeRisk:           nullableFloat(compositeRisk),
			UpdatedAt:               timePtr(updatedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: iterate %s rows: %w", s.predictionTable, err)
	}
	return result, nil
}

func nullableString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullableFloat(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func timePtr(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	s := v.Time.UTC().Format(time.RFC3339)
	return &s
}
