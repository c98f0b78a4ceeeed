package livecontext

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"ampera/backend/services/triage-service/internal/models"
)

// Projection caps for the full and compact context variants.
const (
	topRiskFull    = 15
	topRiskCompact = 8

	summaryCompact = 60

	incidentsFull    = 30
	incidentsCompact = 20

	riskTail         = 7
	historyTail      = 10
	selectedHistTail = 12
)

var mentionPattern = regexp.MustCompile(`(?i)charger\s*(\d{1,4})`)

// ExtractChargerMentions scans free text for "charger N" references and
// returns canonical charger ids, deduplicated in first-seen order.
func ExtractChargerMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		id := "charger-" + strconv.Itoa(num)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ChargerSummary is the flat per-charger projection.
type ChargerSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Location    string  `json:"location"`
	Status      string  `json:"status"`
	RiskScore   float64 `json:"riskScore"`
	Temperature float64 `json:"temperature"`
	Voltage     float64 `json:"voltage"`
	Uptime      float64 `json:"uptime"`
	LastUpdated string  `json:"lastUpdated"`
}

// TopRiskCharger extends the summary with history tails. Histories are
// omitted in the compact variant.
type TopRiskCharger struct {
	ChargerSummary
	RiskHistory    []float64 `json:"riskHistory,omitempty"`
	VoltageHistory []float64 `json:"voltageHistory,omitempty"`
	TempHistory    []float64 `json:"tempHistory,omitempty"`
}

// ChargerDetail is the projection for selected and mentioned chargers.
type ChargerDetail struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	Location       string    `json:"location"`
	Status         string    `json:"status"`
	RiskScore      float64   `json:"riskScore"`
	Temperature    float64   `json:"temperature"`
	Voltage        float64   `json:"voltage"`
	Uptime         float64   `json:"uptime"`
	RiskHistory    []float64 `json:"riskHistory"`
	VoltageHistory []float64 `json:"voltageHistory"`
	TempHistory    []float64 `json:"tempHistory"`
}

// Snapshot is the live context document injected into the model prompt.
type Snapshot struct {
	GeneratedAt        string             `json:"generatedAt"`
	FleetStats         *models.FleetStats `json:"fleetStats"`
	SelectedCharger    *ChargerDetail     `json:"selectedCharger"`
	MentionedChargers  []ChargerDetail    `json:"mentionedChargers"`
	TopRiskChargers    []TopRiskCharger   `json:"topRiskChargers"`
	ActiveIncidents    []models.Incident  `json:"activeIncidents"`
	AllChargersSummary []ChargerSummary   `json:"allChargersSummary"`
}

// BuildInput carries everything Build needs.
type BuildInput struct {
	Chargers           []models.Charger
	Incidents          []models.Incident
	FleetStats         *models.FleetStats
	PreloadedChargerID *string
	LatestUserPrompt   string
	Compact            bool
	Now                time.Time
}

// Build assembles the context snapshot. The compact variant trims list
// lengths and drops top-risk histories so the serialized document stays
// small enough for a retry.
func Build(in BuildInput) *Snapshot {
	mentioned := make(map[string]struct{})
	if in.PreloadedChargerID != nil && *in.PreloadedChargerID != "" {
		mentioned[*in.PreloadedChargerID] = struct{}{}
	}
	for _, id := range ExtractChargerMentions(in.LatestUserPrompt) {
		mentioned[id] = struct{}{}
	}

	snap := &Snapshot{
		GeneratedAt:        in.Now.UTC().Format(time.RFC3339),
		FleetStats:         in.FleetStats,
		MentionedChargers:  []ChargerDetail{},
		TopRiskChargers:    []TopRiskCharger{},
		ActiveIncidents:    []models.Incident{},
		AllChargersSummary: []ChargerSummary{},
	}

	if in.PreloadedChargerID != nil {
		for i := range in.Chargers {
			if in.Chargers[i].ID == *in.PreloadedChargerID {
				detail := detailOf(in.Chargers[i], selectedHistTail)
				snap.SelectedCharger = &detail
				break
			}
		}
	}

	for i := range in.Chargers {
		if _, ok := mentioned[in.Chargers[i].ID]; ok {
			snap.MentionedChargers = append(snap.MentionedChargers, detailOf(in.Chargers[i], historyTail))
		}
	}

	byRisk := make([]models.Charger, len(in.Chargers))
	copy(byRisk, in.Chargers)
	sort.SliceStable(byRisk, func(i, j int) bool {
		return byRisk[i].RiskScore > byRisk[j].RiskScore
	})
	topLimit := topRiskFull
	if in.Compact {
		topLimit = topRiskCompact
	}
	for i := 0; i < len(byRisk) && i < topLimit; i++ {
		entry := TopRiskCharger{ChargerSummary: summaryOf(byRisk[i])}
		if !in.Compact {
			entry.RiskHistory = tail(byRisk[i].RiskHistory, riskTail)
			entry.VoltageHistory = tail(byRisk[i].VoltageHistory, historyTail)
			entry.TempHistory = tail(byRisk[i].TempHistory, historyTail)
		}
		snap.TopRiskChargers = append(snap.TopRiskChargers, entry)
	}

	incidentLimit := incidentsFull
	if in.Compact {
		incidentLimit = incidentsCompact
	}
	for _, incident := range in.Incidents {
		if incident.Status == "resolved" {
			continue
		}
		snap.ActiveIncidents = append(snap.ActiveIncidents, incident)
		if len(snap.ActiveIncidents) == incidentLimit {
			break
		}
	}

	summaryLimit := len(in.Chargers)
	if in.Compact && summaryLimit > summaryCompact {
		summaryLimit = summaryCompact
	}
	for i := 0; i < summaryLimit; i++ {
		snap.AllChargersSummary = append(snap.AllChargersSummary, summaryOf(in.Chargers[i]))
	}

	return snap
}

func summaryOf(c models.Charger) ChargerSummary {
	return ChargerSummary{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Location:    c.Location,
		Status:      c.Status,
		RiskScore:   c.RiskScore,
		Temperature: c.Temperature,
		Voltage:     c.Voltage,
		Uptime:      c.Uptime,
		LastUpdated: c.LastUpdated,
	}
}

func detailOf(c models.Charger, histTail int) ChargerDetail {
	return ChargerDetail{
		ID:             c.ID,
		Name:           c.Name,
		Code:           c.Code,
		Location:       c.Location,
		Status:         c.Status,
		RiskScore:      c.RiskScore,
		Temperature:    c.Temperature,
		Voltage:        c.Voltage,
		Uptime:         c.Uptime,
		RiskHistory:    tail(c.RiskHistory, riskTail),
		VoltageHistory: tail(c.VoltageHistory, histTail),
		TempHistory:    tail(c.TempHistory, histTail),
	}
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, n)
	copy(out, values[len(values)-n:])
	return out
}
