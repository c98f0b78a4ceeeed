package models

// TelemetryRow is a raw telemetry record as delivered by the upstream source.
// Numeric fields arrive as number, string or null depending on the ingestion
// path, so they are kept loose and coerced explicitly downstream.
type TelemetryRow struct {
	ChargerID           any     `json:"charger_id"`
	Latitude            any     `json:"latitude"`
	Longitude           any     `json:"longitude"`
	Area                *string `json:"area"`
	VoltageV            any     `json:"voltage_v"`
	CurrentA            any     `json:"current_a"`
	TemperatureC        any     `json:"temperature_c"`
	AmbientTempC        any     `json:"ambient_temp_c"`
	SessionDurationMin  any     `json:"session_duration_min"`
	ErrorCount          any     `json:"error_count"`
	RiskScore           any     `json:"risk_score"`
	HealthStatus        *string `json:"health_status"`
	SOC                 any     `json:"soc"`
	BatteryTempC        any     `json:"battery_temp_c"`
	ChargingDurationMin any     `json:"charging_duration_min"`
	Efficiency          any     `json:"efficiency"`
	Timestamp           *string `json:"timestamp"`
}

// PredictionRow is a raw failure-prediction record from the model pipeline.
type PredictionRow struct {
	ChargerID               any     `json:"charger_id"`
	AsOfTimestamp           *string `json:"as_of_timestamp"`
	FailureProne            *bool   `json:"failure_prone"`
	NormalizedRiskPct100    any     `json:"normalized_risk_pct_100"`
	FailureRiskProbNorm     any     `json:"failure_risk_prob_norm"`
	FailureRiskProbRaw      any     `json:"failure_risk_prob_raw"`
	PredictedFailurePattern *string `json:"predicted_failure_pattern"`
	PatternConfidence       any     `json:"pattern_confidence"`
	RiskTrend               *string `json:"risk_trend"`
	CompositeRisk           any     `json:"composite_risk"`
	UpdatedAt               *string `json:"updated_at"`
}
