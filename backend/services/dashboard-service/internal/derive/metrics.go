package derive

import (
	"ampera/backend/services/dashboard-service/internal/models"
)

// History window sizes.
const (
	RiskHistorySize    = 7
	VoltageHistorySize = 24
	TempHistorySize    = 24
)

// ComputeRiskScore derives the 0-100 risk score with a fixed source
// precedence: normalized percentage, composite risk, normalized failure
// probability, then raw telemetry risk. Probability-scale values (<=1) are
// stretched to percent. Absence of every source yields 0.
func ComputeRiskScore(latestTelemetry *models.TelemetryRow, latestPrediction *models.PredictionRow) float64 {
	if latestPrediction != nil {
		if normalized, ok := Number(latestPrediction.NormalizedRiskPct100); ok {
			return Clamp(normalized, 0, 100)
		}
		if composite, ok := Number(latestPrediction.CompositeRisk); ok {
			return Clamp(scaleProbability(composite), 0, 100)
		}
		if prob, ok := Number(latestPrediction.FailureRiskProbNorm); ok {
			return Clamp(scaleProbability(prob), 0, 100)
		}
	}

	if latestTelemetry != nil {
		if telemetryRisk, ok := Number(latestTelemetry.RiskScore); ok {
			return Clamp(scaleProbability(telemetryRisk), 0, 100)
		}
	}

	return 0
}

func scaleProbability(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// InferUptime scales a reported efficiency into a percentage, or synthesizes
// one from the status tier and the error count when efficiency is absent.
func InferUptime(latestTelemetry *models.TelemetryRow, status models.ChargerStatus) float64 {
	if latestTelemetry != nil {
		if efficiency, ok := Number(latestTelemetry.Efficiency); ok {
			pct := efficiency
			if efficiency <= 1.5 {
				pct = efficiency * 100
			}
			return Round(Clamp(pct, 40, 100), 1)
		}
	}

	errorCount := 0.0
	if latestTelemetry != nil {
		errorCount = NumberOr(latestTelemetry.ErrorCount, 0)
	}
	basePenalty := 2.0
	switch status {
	case models.StatusCritical:
		basePenalty = 28
	case models.StatusWarning:
		basePenalty = 12
	}
	return Round(Clamp(100-basePenalty-errorCount*3, 40, 99.9), 1)
}

// InferEnergyDelivered estimates session energy in kWh from voltage, current
// and charge duration; missing duration falls back from charging to session
// duration, then to zero.
func InferEnergyDelivered(latestTelemetry *models.TelemetryRow) float64 {
	if latestTelemetry == nil {
		return 0
	}
	voltage := NumberOr(latestTelemetry.VoltageV, 0)
	current := NumberOr(latestTelemetry.CurrentA, 0)
	durationMin, ok := Number(latestTelemetry.ChargingDurationMin)
	if !ok {
		durationMin = NumberOr(latestTelemetry.SessionDurationMin, 0)
	}
	kWh := voltage * current * durationMin / 60000
	if kWh < 0 {
		kWh = 0
	}
	return Round(kWh, 1)
}

// BuildHistory turns a newest-first sequence of optional samples into a
// fixed-window oldest-first series. With no samples the window is filled with
// the fallback value; short series are front-padded with their earliest point.
func BuildHistory(values []*float64, fallback float64, size, digits int) []float64 {
	cleaned := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			cleaned = append(cleaned, *v)
		}
	}
	if len(cleaned) > size {
		cleaned = cleaned[:size]
	}

	history := make([]float64, len(cleaned))
	for i, v := range cleaned {
		history[len(cleaned)-1-i] = v
	}

	if len(history) == 0 {
		history = make([]float64, size)
		for i := range history {
			history[i] = fallback
		}
	}
	for len(history) < size {
		history = append([]float64{history[0]}, history...)
	}

	for i, v := range history {
		history[i] = Round(v, digits)
	}
	return history
}
