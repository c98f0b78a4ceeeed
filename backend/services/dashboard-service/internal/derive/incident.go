package derive

import (
	"fmt"
	"strconv"
	"time"

	"ampera/backend/services/dashboard-service/internal/models"
)

// Incident metric thresholds. The voltage domain (cell-level vs line-level)
// is inferred from the reading itself.
const (
	tempCriticalThreshold = 45.0
	tempWarningThreshold  = 40.0

	lowVoltageCritical  = 3.65
	lowVoltageWarning   = 3.75
	lineVoltageCritical = 230.0
	lineVoltageWarning  = 235.0
)

const defaultFailurePattern = "anomaly"

// DeriveIncident produces at most one incident for a charger. Healthy
// chargers never produce one. Metric selection follows a fixed precedence
// (risk default, temperature override, then voltage override), not severity
// magnitude.
func DeriveIncident(charger models.Charger, latestTelemetry *models.TelemetryRow, latestPrediction *models.PredictionRow, now time.Time) *models.Incident {
	if charger.Status == models.StatusHealthy {
		return nil
	}

	temperature := charger.Temperature
	voltage := charger.Voltage
	risk := charger.RiskScore

	failurePattern := defaultFailurePattern
	if latestPrediction != nil && latestPrediction.PredictedFailurePattern != nil && *latestPrediction.PredictedFailurePattern != "" {
		failurePattern = *latestPrediction.PredictedFailurePattern
	}

	critical := charger.Status == models.StatusCritical

	metric := "risk"
	threshold := WarningRiskThreshold
	if critical {
		threshold = CriticalRiskThreshold
	}
	currentValue := risk
	title := "Elevated risk detected"
	if critical {
		title = "Critical risk threshold exceeded"
	}
	description := fmt.Sprintf("Risk score at %.1f (threshold: %s)", risk, fmtThreshold(threshold))
	detailedDescription := fmt.Sprintf(
		"%s is currently reporting a %s health state with a live composite risk score of %.1f. Predictive signals indicate %s.",
		charger.Name, charger.Status, risk, failurePattern,
	)

	if temperature >= tempCriticalThreshold || (charger.Status != models.StatusHealthy && temperature >= tempWarningThreshold) {
		metric = "temperature"
		threshold = tempWarningThreshold
		if critical {
			threshold = tempCriticalThreshold
		}
		currentValue = temperature
		title = "Elevated temperature"
		relation := "approaching"
		if critical {
			title = "Overheating detected"
			relation = "above"
		}
		description = fmt.Sprintf("Temperature at %.1fC (threshold: %sC)", temperature, fmtThreshold(threshold))
		detailedDescription = fmt.Sprintf(
			"%s temperature is %.1fC, which is %s the configured threshold of %sC. Predicted pattern: %s.",
			charger.Name, temperature, relation, fmtThreshold(threshold), failurePattern,
		)
	} else {
		isLowVoltageDomain := voltage > 0 && voltage < 20
		criticalVoltageThreshold := lineVoltageCritical
		warningVoltageThreshold := lineVoltageWarning
		if isLowVoltageDomain {
			criticalVoltageThreshold = lowVoltageCritical
			warningVoltageThreshold = lowVoltageWarning
		}
		isVoltageIncident := voltage > 0 &&
			(voltage <= criticalVoltageThreshold ||
				(charger.Status != models.StatusHealthy && voltage <= warningVoltageThreshold))

		if isVoltageIncident {
			metric = "voltage"
			threshold = warningVoltageThreshold
			if critical {
				threshold = criticalVoltageThreshold
			}
			currentValue = voltage
			voltageDigits := 1
			if isLowVoltageDomain {
				voltageDigits = 2
			}
			title = "Voltage fluctuation warning"
			relation := "near"
			if critical {
				title = "Voltage drop detected"
				relation = "below"
			}
			description = fmt.Sprintf(
				"Voltage at %.*fV (threshold: %sV)",
				voltageDigits, voltage, fmtThreshold(threshold),
			)
			detailedDescription = fmt.Sprintf(
				"%s is reporting %.*fV. This is %s the operating threshold (%sV), and may indicate power instability.",
				charger.Name, voltageDigits, voltage, relation, fmtThreshold(threshold),
			)
		}
	}

	timestamp := pickTimestamp(now,
		telemetryTimestamp(latestTelemetry),
		predictionAsOf(latestPrediction),
		predictionUpdatedAt(latestPrediction),
	)
	patternTimestamp := pickTimestamp(now,
		predictionAsOf(latestPrediction),
		predictionUpdatedAt(latestPrediction),
		&timestamp,
	)

	valueDigits := 2
	if metric == "temperature" {
		valueDigits = 1
	}

	severity := models.StatusWarning
	if critical {
		severity = models.StatusCritical
	}

	return &models.Incident{
		ID:                  fmt.Sprintf("%s-%s", charger.ID, metric),
		ChargerID:           charger.ID,
		ChargerName:         charger.Name,
		ChargerCode:         charger.Code,
		Location:            charger.Location,
		Severity:            severity,
		Status:              "active",
		Title:               title,
		Description:         description,
		DetailedDescription: detailedDescription,
		Metric:              metric,
		Threshold:           threshold,
		CurrentValue:        Round(currentValue, valueDigits),
		TimeAgo:             FormatTimeAgo(&timestamp, now),
		Timestamp:           timestamp,
		Timeline: []models.TimelineEntry{
			{Event: "Live telemetry ingested", Time: FormatClockTime(&timestamp)},
			{Event: fmt.Sprintf("Status classified as %s", charger.Status), Time: FormatClockTime(&timestamp)},
			{Event: fmt.Sprintf("Pattern scored: %s", failurePattern), Time: FormatClockTime(&patternTimestamp)},
		},
		AIRecommendation: recommendation(charger.Name, critical),
	}
}

func recommendation(name string, critical bool) string {
	if critical {
		return fmt.Sprintf(
			"Prioritize immediate inspection for %s. Live telemetry and prediction signals indicate elevated failure probability. Confirm power, cooling, and connector integrity before returning to service.",
			name,
		)
	}
	return fmt.Sprintf(
		"Schedule a preventive maintenance check for %s. Continue monitoring live telemetry and prediction trend for escalation over the next 24 hours.",
		name,
	)
}

func fmtThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pickTimestamp(now time.Time, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return now.UTC().Format(time.RFC3339)
}

func telemetryTimestamp(row *models.TelemetryRow) *string {
	if row == nil {
		return nil
	}
	return row.Timestamp
}

func predictionAsOf(row *models.PredictionRow) *string {
	if row == nil {
		return nil
	}
	return row.AsOfTimestamp
}

func predictionUpdatedAt(row *models.PredictionRow) *string {
	if row == nil {
		return nil
	}
	return row.UpdatedAt
}
