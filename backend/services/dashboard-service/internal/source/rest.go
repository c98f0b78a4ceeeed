package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ampera/backend/services/dashboard-service/internal/models"
)

var telemetrySelect = strings.Join([]string{
	"charger_id",
	"latitude",
	"longitude",
	"area",
	"voltage_v",
	"current_a",
	"temperature_c",
	"ambient_temp_c",
	"session_duration_min",
	"error_count",
	"risk_score",
	"health_status",
	"soc",
	"battery_temp_c",
	"charging_duration_min",
	"efficiency",
	"timestamp",
}, ",")

var predictionSelect = strings.Join([]string{
	"charger_id",
	"as_of_timestamp",
	"failure_prone",
	"normalized_risk_pct_100",
	"failure_risk_prob_norm",
	"failure_risk_prob_raw",
	"predicted_failure_pattern",
	"pattern_confidence",
	"risk_trend",
	"composite_risk",
	"updated_at",
}, ",")

// HTTPDoer defines the http.Client interface subset used by the REST source.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// RESTSource fetches rows from a PostgREST-style endpoint.
type RESTSource struct {
	baseURL         string
	serviceKey      string
	client          HTTPDoer
	telemetryTable  string
	predictionTable string
}

// NewRESTSource builds a REST row source. Empty table names use the defaults.
func NewRESTSource(baseURL, serviceKey string, client HTTPDoer, telemetryTable, predictionTable string) *RESTSource {
	if telemetryTable == "" {
		telemetryTable = DefaultTelemetryTable
	}
	if predictionTable == "" {
		predictionTable = DefaultPredictionTable
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTSource{
		baseURL:         strings.TrimRight(baseURL, "/"),
		serviceKey:      serviceKey,
		client:          client,
		telemetryTable:  telemetryTable,
		predictionTable: predictionTable,
	}
}

// FetchTelemetry returns the newest telemetry rows.
func (s *RESTSource) FetchTelemetry(ctx context.Context) ([]models.TelemetryRow, error) {
	return fetchRows[models.TelemetryRow](ctx, s, s.telemetryTable, telemetrySelect, "timestamp", TelemetryLimit)
}

// FetchPredictions returns the newest prediction rows.
func (s *RESTSource) FetchPredictions(ctx context.Context) ([]models.PredictionRow, error) {
	return fetchRows[models.PredictionRow](ctx, s, s.predictionTable, predictionSelect, "as_of_timestamp", PredictionLimit)
}

func fetchRows[T any](ctx context.Context, s *RESTSource, table, selectColumns, orderColumn string, limit int) ([]T, error) {
	params := url.Values{}
	params.Set("select", selectColumns)
	params.Set("order", orderColumn+".desc")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, table, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build %s request: %w", table, err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetch %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read %s response: %w", table, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("source: %s request failed (%d): %s", table, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("source: decode %s response: %w", table, err)
	}
	return rows, nil
}
