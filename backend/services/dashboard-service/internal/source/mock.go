package source

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"ampera/backend/services/dashboard-service/internal/models"
)

// MockSource synthesizes a deterministic demo fleet. The generator is seeded
// explicitly per fetch, never shared, so identical seeds always reproduce the
// same rows.
type MockSource struct {
	seed int64
	now  func() time.Time
}

// NewMockSource returns a demo row source for the given seed.
func NewMockSource(seed int64) *MockSource {
	return &MockSource{seed: seed, now: time.Now}
}

type mockArea struct {
	name string
	lat  float64
	lng  float64
}

var mockAreas = []mockArea{
	{"Folsom", 38.677959, -121.176058},
	{"Sacramento Downtown", 38.581572, -121.4944},
	{"Davis", 38.544907, -121.740517},
	{"Roseville", 38.752123, -121.288006},
	{"West Sacramento", 38.58046, -121.530235},
	{"Elk Grove", 38.408799, -121.371618},
	{"Rancho Cordova", 38.589072, -121.302728},
	{"Citrus Heights", 38.707129, -121.281059},
}

const (
	mockChargerCount  = 27
	mockWarningFirst  = 20
	mockCriticalFirst = 25
	mockTelemetryRows = 8
	mockPredictionRow = 7
)

type mockTier struct {
	riskLo, riskHi float64
	voltLo, voltHi float64
	tempLo, tempHi float64
	effLo, effHi   float64
	maxErrors      int
}

func tierFor(chargerNum int) mockTier {
	switch {
	case chargerNum >= mockCriticalFirst:
		return mockTier{70, 95, 216, 228, 46, 55, 0.60, 0.80, 6}
	case chargerNum >= mockWarningFirst:
		return mockTier{40, 65, 228, 234, 38, 44, 0.85, 0.93, 2}
	default:
		return mockTier{5, 25, 236, 244, 28, 38, 0.92, 0.99, 0}
	}
}

// FetchTelemetry generates newest-first telemetry rows for the demo fleet.
func (s *MockSource) FetchTelemetry(ctx context.Context) ([]models.TelemetryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.seed))
	base := s.now().UTC()
	rows := make([]models.TelemetryRow, 0, mockChargerCount*mockTelemetryRows)

	for num := 1; num <= mockChargerCount; num++ {
		tier := tierFor(num)
		area := mockAreas[(num-1)%len(mockAreas)]
		areaName := area.name
		lat := area.lat + (rng.Float64()-0.5)*0.01
		lng := area.lng + (rng.Float64()-0.5)*0.01

		for i := 0; i < mockTelemetryRows; i++ {
			ts := base.Add(-time.Duration(i*10) * time.Minute).Format(time.RFC3339)
			rows = append(rows, models.TelemetryRow{
				ChargerID:           fmt.Sprintf("charger_%d", num),
				Latitude:            lat,
				Longitude:           lng,
				Area:                &areaName,
				VoltageV:            between(rng, tier.voltLo, tier.voltHi),
				CurrentA:            between(rng, 16, 32),
				TemperatureC:        between(rng, tier.tempLo, tier.tempHi),
				AmbientTempC:        between(rng, 18, 28),
				SessionDurationMin:  between(rng, 20, 90),
				ErrorCount:          float64(rng.Intn(tier.maxErrors + 1)),
				HealthStatus:        nil,
				ChargingDurationMin: between(rng, 15, 75),
				Efficiency:          between(rng, tier.effLo, tier.effHi),
				Timestamp:           &ts,
			})
		}
	}
	return rows, nil
}

// FetchPredictions generates newest-first prediction rows for the demo fleet.
func (s *MockSource) FetchPredictions(ctx context.Context) ([]models.PredictionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Offset seed keeps the prediction stream independent but reproducible.
	rng := rand.New(rand.NewSource(s.seed + 1))
	base := s.now().UTC()
	rows := make([]models.PredictionRow, 0, mockChargerCount*mockPredictionRow)

	patterns := []string{"thermal drift", "voltage sag", "connector wear", "charge-curve anomaly"}

	for num := 1; num <= mockChargerCount; num++ {
		tier := tierFor(num)
		pattern := patterns[rng.Intn(len(patterns))]

		for i := 0; i < mockPredictionRow; i++ {
			asOf := base.Add(-time.Duration(i*30) * time.Minute).Format(time.RFC3339)
			risk := between(rng, tier.riskLo, tier.riskHi)
			prone := risk >= 50
			confidence := between(rng, 0.55, 0.95)
			trend := "stable"
			if risk >= 70 {
				trend = "rising"
			}
			rows = append(rows, models.PredictionRow{
				ChargerID:               fmt.Sprintf("charger_%d", num),
				AsOfTimestamp:           &asOf,
				FailureProne:            &prone,
				NormalizedRiskPct100:    risk,
				FailureRiskProbNorm:     risk / 100,
				FailureRiskProbRaw:      risk / 100,
				PredictedFailurePattern: &pattern,
				PatternConfidence:       confidence,
				RiskTrend:               &trend,
				CompositeRisk:           risk,
				UpdatedAt:               &asOf,
			})
		}
	}
	return rows, nil
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
