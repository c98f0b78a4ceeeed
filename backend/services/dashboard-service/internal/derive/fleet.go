package derive

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"ampera/backend/services/dashboard-service/internal/models"
)

// ChargerKey renders a raw charger_id field as a grouping key. Rows without
// an identifier report false and are discarded by the aggregator.
func ChargerKey(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func groupRows[T any](rows []T, key func(T) any) (map[string][]T, []string) {
	grouped := make(map[string][]T)
	order := make([]string, 0)
	for _, row := range rows {
		k, ok := ChargerKey(key(row))
		if !ok {
			continue
		}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], row)
	}
	return grouped, order
}

// BuildDashboard derives the full canonical payload from raw newest-first
// telemetry and prediction rows. Each call is independent and stateless.
func BuildDashboard(telemetryRows []models.TelemetryRow, predictionRows []models.PredictionRow, now time.Time) *models.DashboardResponse {
	telemetryByCharger, telemetryOrder := groupRows(telemetryRows, func(r models.TelemetryRow) any { return r.ChargerID })
	predictionsByCharger, predictionOrder := groupRows(predictionRows, func(r models.PredictionRow) any { return r.ChargerID })

	chargerIDs := telemetryOrder
	for _, id := range predictionOrder {
		if _, ok := telemetryByCharger[id]; !ok {
			chargerIDs = append(chargerIDs, id)
		}
	}

	chargers := make([]models.Charger, 0, len(chargerIDs))
	incidents := make([]models.Incident, 0)
	var latestTimestamp *string
	totalEnergyKwh := 0.0

	for _, rawChargerID := range chargerIDs {
		telemetryHistory := telemetryByCharger[rawChargerID]
		predictionHistory := predictionsByCharger[rawChargerID]

		var latestTelemetry *models.TelemetryRow
		if len(telemetryHistory) > 0 {
			latestTelemetry = &telemetryHistory[0]
		}
		var latestPrediction *models.PredictionRow
		if len(predictionHistory) > 0 {
			latestPrediction = &predictionHistory[0]
		}

		identity := DeriveDisplayIdentity(rawChargerID)

		riskScore := Round(ComputeRiskScore(latestTelemetry, latestPrediction), 2)
		status := models.StatusHealthy
		if latestTelemetry != nil {
			status = NormalizeStatus(latestTelemetry.HealthStatus, riskScore)
		} else {
			status = NormalizeStatus(nil, riskScore)
		}

		var coords Coordinates
		if latestTelemetry != nil {
			coords = ResolveCoordinates(latestTelemetry.Latitude, latestTelemetry.Longitude, latestTelemetry.Area, rawChargerID)
		} else {
			coords = ResolveCoordinates(nil, nil, nil, rawChargerID)
		}

		voltage := 0.0
		temperature := 0.0
		if latestTelemetry != nil {
			voltage = NumberOr(latestTelemetry.VoltageV, 0)
			temperature = latestTemperature(latestTelemetry)
		}
		voltage = Round(voltage, 2)
		temperature = Round(temperature, 1)

		uptime := InferUptime(latestTelemetry, status)
		energyDelivered := InferEnergyDelivered(latestTelemetry)
		totalEnergyKwh += energyDelivered

		newestTs := newestTimestamp(telemetryHistory, latestPrediction)
		if newestTs != nil && isNewer(newestTs, latestTimestamp) {
			latestTimestamp = newestTs
		}

		riskValues := make([]*float64, 0, len(predictionHistory)+len(telemetryHistory))
		for i := range predictionHistory {
			riskValues = append(riskValues, predictionRiskValue(&predictionHistory[i]))
		}
		for i := range telemetryHistory {
			riskValues = append(riskValues, telemetryRiskValue(&telemetryHistory[i]))
		}
		riskHistory := BuildHistory(riskValues, riskScore, RiskHistorySize, 2)

		voltageValues := make([]*float64, 0, len(telemetryHistory))
		tempValues := make([]*float64, 0, len(telemetryHistory))
		for i := range telemetryHistory {
			voltageValues = append(voltageValues, optionalNumber(telemetryHistory[i].VoltageV))
			tempValues = append(tempValues, temperatureValue(&telemetryHistory[i]))
		}
		voltageHistory := BuildHistory(voltageValues, voltage, VoltageHistorySize, 2)
		tempHistory := BuildHistory(tempValues, temperature, TempHistorySize, 1)

		location := "Unknown location"
		if latestTelemetry != nil && latestTelemetry.Area != nil {
			if trimmed := strings.TrimSpace(*latestTelemetry.Area); trimmed != "" {
				location = trimmed
			}
		}

		lastUpdated := pickTimestampRef(
			telemetryTimestamp(latestTelemetry),
			predictionAsOf(latestPrediction),
			predictionUpdatedAt(latestPrediction),
		)

		charger := models.Charger{
			ID:              identity.ID,
			Name:            identity.Name,
			Code:            identity.Code,
			Location:        location,
			Lat:             coords.Lat,
			Lng:             coords.Lng,
			Status:          status,
			RiskScore:       riskScore,
			RiskHistory:     riskHistory,
			Temperature:     temperature,
			Voltage:         voltage,
			Uptime:          uptime,
			EnergyDelivered: energyDelivered,
			LastUpdated:     FormatTimeAgo(lastUpdated, now),
			VoltageHistory:  voltageHistory,
			TempHistory:     tempHistory,
		}
		chargers = append(chargers, charger)

		if incident := DeriveIncident(charger, latestTelemetry, latestPrediction, now); incident != nil {
			incidents = append(incidents, *incident)
		}
	}

	sort.SliceStable(chargers, func(i, j int) bool {
		if chargers[i].RiskScore != chargers[j].RiskScore {
			return chargers[i].RiskScore > chargers[j].RiskScore
		}
		return chargers[i].Name < chargers[j].Name
	})
	sort.SliceStable(incidents, func(i, j int) bool {
		if incidents[i].Severity != incidents[j].Severity {
			return incidents[i].Severity == models.StatusCritical
		}
		return incidents[i].CurrentValue > incidents[j].CurrentValue
	})

	healthy, warning, critical := 0, 0, 0
	locationSet := make(map[string]struct{})
	sumRisk := 0.0
	for _, c := range chargers {
		switch c.Status {
		case models.StatusHealthy:
			healthy++
		case models.StatusWarning:
			warning++
		case models.StatusCritical:
			critical++
		}
		locationSet[c.Location] = struct{}{}
		sumRisk += c.RiskScore
	}
	avgRisk := 0.0
	if len(chargers) > 0 {
		avgRisk = sumRisk / float64(len(chargers))
	}

	stats := models.FleetStats{
		TotalChargers:    len(chargers),
		Healthy:          healthy,
		Warning:          warning,
		Critical:         critical,
		TotalLocations:   len(locationSet),
		HealthScore:      Round(Clamp(100-avgRisk, 0, 100), 1),
		TotalEnergyToday: Round(totalEnergyKwh/1000, 3),
	}

	return &models.DashboardResponse{
		Chargers:        chargers,
		Incidents:       incidents,
		FleetStats:      stats,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
		Source:          models.SourceLive,
		LatestTimestamp: latestTimestamp,
	}
}

func latestTemperature(row *models.TelemetryRow) float64 {
	if v, ok := Number(row.TemperatureC); ok {
		return v
	}
	if v, ok := Number(row.BatteryTempC); ok {
		return v
	}
	return NumberOr(row.AmbientTempC, 0)
}

func temperatureValue(row *models.TelemetryRow) *float64 {
	if v, ok := Number(row.TemperatureC); ok {
		return &v
	}
	if v, ok := Number(row.BatteryTempC); ok {
		return &v
	}
	if v, ok := Number(row.AmbientTempC); ok {
		return &v
	}
	return nil
}

func optionalNumber(raw any) *float64 {
	if v, ok := Number(raw); ok {
		return &v
	}
	return nil
}

// predictionRiskValue mirrors the risk-score precedence for a single history row.
func predictionRiskValue(row *models.PredictionRow) *float64 {
	if v, ok := Number(row.NormalizedRiskPct100); ok {
		return &v
	}
	if v, ok := Number(row.CompositeRisk); ok {
		scaled := scaleProbability(v)
		return &scaled
	}
	if v, ok := Number(row.FailureRiskProbNorm); ok {
		scaled := scaleProbability(v)
		return &scaled
	}
	return nil
}

func telemetryRiskValue(row *models.TelemetryRow) *float64 {
	if v, ok := Number(row.RiskScore); ok {
		scaled := scaleProbability(v)
		return &scaled
	}
	return nil
}

// newestTimestamp prefers the newest telemetry timestamp, falling back to the
// latest prediction's as-of then update time.
func newestTimestamp(telemetryHistory []models.TelemetryRow, latestPrediction *models.PredictionRow) *string {
	for i := range telemetryHistory {
		ts := telemetryHistory[i].Timestamp
		if ts != nil && *ts != "" {
			return ts
		}
	}
	if ts := predictionAsOf(latestPrediction); ts != nil && *ts != "" {
		return ts
	}
	if ts := predictionUpdatedAt(latestPrediction); ts != nil && *ts != "" {
		return ts
	}
	return nil
}

func isNewer(candidate, current *string) bool {
	if current == nil {
		return true
	}
	candidateTs, okC := parseTimestamp(*candidate)
	currentTs, okN := parseTimestamp(*current)
	if !okC || !okN {
		return false
	}
	return candidateTs.After(currentTs)
}

func pickTimestampRef(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}
