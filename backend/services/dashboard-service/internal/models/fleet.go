package models

// ChargerStatus is the derived severity tier of a charger.
type ChargerStatus string

const (
	StatusHealthy  ChargerStatus = "healthy"
	StatusWarning  ChargerStatus = "warning"
	StatusCritical ChargerStatus = "critical"
)

// Payload source markers.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Charger is the canonical per-charger view served to the dashboard.
type Charger struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Code            string        `json:"code"`
	Location        string        `json:"location"`
	Lat             float64       `json:"lat"`
	Lng             float64       `json:"lng"`
	Status          ChargerStatus `json:"status"`
	RiskScore       float64       `json:"riskScore"`
	RiskHistory     []float64     `json:"riskHistory"`
	Temperature     float64       `json:"temperature"`
	Voltage         float64       `json:"voltage"`
	Uptime          float64       `json:"uptime"`
	EnergyDelivered float64       `json:"energyDelivered"`
	LastUpdated     string        `json:"lastUpdated"`
	VoltageHistory  []float64     `json:"voltageHistory"`
	TempHistory     []float64     `json:"tempHistory"`
}

// TimelineEntry is one step of an incident's synthetic event timeline.
type TimelineEntry struct {
	Event string `json:"event"`
	Time  string `json:"time"`
}

// Incident is derived per refresh for every non-healthy charger. It is
// ephemeral: the next refresh fully replaces it.
type Incident struct {
	ID                  string          `json:"id"`
	ChargerID           string          `json:"chargerId"`
	ChargerName         string          `json:"chargerName"`
	ChargerCode         string          `json:"chargerCode"`
	Location            string          `json:"location"`
	Severity            ChargerStatus   `json:"severity"`
	Status              string          `json:"status"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	DetailedDescription string          `json:"detailedDescription"`
	Metric              string          `json:"metric"`
	Threshold           float64         `json:"threshold"`
	CurrentValue        float64         `json:"currentValue"`
	TimeAgo             string          `json:"timeAgo"`
	Timestamp           string          `json:"timestamp"`
	Timeline            []TimelineEntry `json:"timeline"`
	AIRecommendation    string          `json:"aiRecommendation"`
}

// FleetStats aggregates the whole fleet; recomputed in full on every build.
type FleetStats struct {
	TotalChargers    int     `json:"totalChargers"`
	Healthy          int     `json:"healthy"`
	Warning          int     `json:"warning"`
	Critical         int     `json:"critical"`
	TotalLocations   int     `json:"totalLocations"`
	HealthScore      float64 `json:"healthScore"`
	TotalEnergyToday float64 `json:"totalEnergyToday"`
}

// DashboardResponse is the live-dashboard payload.
type DashboardResponse struct {
	Chargers        []Charger  `json:"chargers"`
	Incidents       []Incident `json:"incidents"`
	FleetStats      FleetStats `json:"fleetStats"`
	GeneratedAt     string     `json:"generatedAt"`
	Source          string     `json:"source"`
	LatestTimestamp *string    `json:"latestTimestamp"`
}
