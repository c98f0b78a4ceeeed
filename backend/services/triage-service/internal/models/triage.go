package models

// Message roles accepted on the triage conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the triage conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Charger is the fleet view consumed by the assistant. It decodes the
// dashboard payload; fields the assistant never projects are dropped.
type Charger struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	Location       string    `json:"location"`
	Status         string    `json:"status"`
	RiskScore      float64   `json:"riskScore"`
	Temperature    float64   `json:"temperature"`
	Voltage        float64   `json:"voltage"`
	Uptime         float64   `json:"uptime"`
	LastUpdated    string    `json:"lastUpdated"`
	RiskHistory    []float64 `json:"riskHistory"`
	VoltageHistory []float64 `json:"voltageHistory"`
	TempHistory    []float64 `json:"tempHistory"`
}

// Incident mirrors the dashboard incident shape.
type Incident struct {
	ID           string  `json:"id"`
	ChargerID    string  `json:"chargerId"`
	ChargerName  string  `json:"chargerName"`
	ChargerCode  string  `json:"chargerCode"`
	Location     string  `json:"location"`
	Severity     string  `json:"severity"`
	Status       string  `json:"status"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Metric       string  `json:"metric"`
	Threshold    float64 `json:"threshold"`
	CurrentValue float64 `json:"currentValue"`
	TimeAgo      string  `json:"timeAgo"`
}

// FleetStats mirrors the dashboard fleet aggregate.
type FleetStats struct {
	TotalChargers    int     `json:"totalChargers"`
	Healthy          int     `json:"healthy"`
	Warning          int     `json:"warning"`
	Critical         int     `json:"critical"`
	TotalLocations   int     `json:"totalLocations"`
	HealthScore      float64 `json:"healthScore"`
	TotalEnergyToday float64 `json:"totalEnergyToday"`
}

// FleetSnapshot is the subset of the dashboard payload the assistant reads.
type FleetSnapshot struct {
	Chargers   []Charger   `json:"chargers"`
	Incidents  []Incident  `json:"incidents"`
	FleetStats *FleetStats `json:"fleetStats"`
}

// TriageRequest is the POST /api/ai-triage body. Fleet data is optional;
// when absent the service falls back to the cached dashboard snapshot.
type TriageRequest struct {
	Messages           []Message   `json:"messages"`
	Chargers           []Charger   `json:"chargers"`
	Incidents          []Incident  `json:"incidents"`
	FleetStats         *FleetStats `json:"fleetStats"`
	PreloadedChargerID *string     `json:"preloadedChargerId"`
}

// TriageResponse is the assistant reply.
type TriageResponse struct {
	Content             string   `json:"content"`
	MentionedChargerIDs []string `json:"mentionedChargerIds"`
}
