package derive

import (
	"strings"

	"ampera/backend/services/dashboard-service/internal/models"
)

// Risk thresholds shared by status classification and incident synthesis.
const (
	WarningRiskThreshold  = 50.0
	CriticalRiskThreshold = 75.0
)

var criticalLabels = map[string]bool{
	"critical": true,
	"crit":     true,
	"failed":   true,
	"failure":  true,
}

var warningLabels = map[string]bool{
	"warning":   true,
	"warn":      true,
	"at_risk":   true,
	"at risk":   true,
	"degraded":  true,
	"attention": true,
}

// NormalizeStatus maps a raw health label and a computed risk score to a
// severity tier. Known labels win; otherwise the risk thresholds decide.
func NormalizeStatus(raw *string, riskScore float64) models.ChargerStatus {
	value := ""
	if raw != nil {
		value = strings.ToLower(strings.TrimSpace(*raw))
	}
	if criticalLabels[value] {
		return models.StatusCritical
	}
	if warningLabels[value] {
		return models.StatusWarning
	}

	if riskScore >= CriticalRiskThreshold {
		return models.StatusCritical
	}
	if riskScore >= WarningRiskThreshold {
		return models.StatusWarning
	}
	return models.StatusHealthy
}
