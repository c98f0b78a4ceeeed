package derive

import (
	"testing"

	"ampera/backend/services/dashboard-service/internal/models"
)

func f64ptr(v float64) *float64 { return &v }

func TestComputeRiskScorePrecedence(t *testing.T) {
	tel := &models.TelemetryRow{RiskScore: 0.10}
	pred := &models.PredictionRow{
		NormalizedRiskPct100: 62.0,
		CompositeRisk:        0.9,
		FailureRiskProbNorm:  0.8,
	}
	if got := ComputeRiskScore(tel, pred); got != 62 {
		t.Fatalf("normalized field should win, got %v", got)
	}

	pred.NormalizedRiskPct100 = nil
	if got := ComputeRiskScore(tel, pred); got != 90 {
		t.Fatalf("composite risk (probability scale) should yield 90, got %v", got)
	}

	pred.CompositeRisk = nil
	if got := ComputeRiskScore(tel, pred); got != 80 {
		t.Fatalf("failure probability should yield 80, got %v", got)
	}

	pred.FailureRiskProbNorm = nil
	if got := ComputeRiskScore(tel, pred); got != 10 {
		t.Fatalf("telemetry risk should yield 10, got %v", got)
	}

	if got := ComputeRiskScore(nil, nil); got != 0 {
		t.Fatalf("absent sources should yield 0, got %v", got)
	}
}

func TestComputeRiskScoreAlwaysWithinBounds(t *testing.T) {
	cases := []struct {
		tel  *models.TelemetryRow
		pred *models.PredictionRow
	}{
		{nil, &models.PredictionRow{NormalizedRiskPct100: 250.0}},
		{nil, &models.PredictionRow{NormalizedRiskPct100: -10.0}},
		{nil, &models.PredictionRow{CompositeRisk: 180.0}},
		{nil, &models.PredictionRow{FailureRiskProbNorm: 0.999}},
		{&models.TelemetryRow{RiskScore: "1500"}, nil},
		{&models.TelemetryRow{RiskScore: 0.0001}, nil},
	}
	for i, tc := range cases {
		got := ComputeRiskScore(tc.tel, tc.pred)
		if got < 0 || got > 100 {
			t.Errorf("case %d: risk %v out of [0,100]", i, got)
		}
	}
}

func TestInferUptimeFromEfficiency(t *testing.T) {
	tel := &models.TelemetryRow{Efficiency: 0.93}
	if got := InferUptime(tel, models.StatusHealthy); got != 93 {
		t.Fatalf("fractional efficiency should scale to 93, got %v", got)
	}

	tel = &models.TelemetryRow{Efficiency: 97.4}
	if got := InferUptime(tel, models.StatusCritical); got != 97.4 {
		t.Fatalf("percent efficiency should pass through, got %v", got)
	}

	tel = &models.TelemetryRow{Efficiency: 0.1}
	if got := InferUptime(tel, models.StatusHealthy); got != 40 {
		t.Fatalf("efficiency floor should clamp to 40, got %v", got)
	}
}

func TestInferUptimeSyntheticFallback(t *testing.T) {
	cases := []struct {
		status models.ChargerStatus
		errors any
		want   float64
	}{
		{models.StatusHealthy, nil, 98},
		{models.StatusHealthy, 2, 92},
		{models.StatusWarning, 0, 88},
		{models.StatusCritical, 0, 72},
		{models.StatusCritical, 50, 40},
	}
	for _, tc := range cases {
		tel := &models.TelemetryRow{ErrorCount: tc.errors}
		if got := InferUptime(tel, tc.status); got != tc.want {
			t.Errorf("status %s errors %v: got %v, want %v", tc.status, tc.errors, got, tc.want)
		}
	}
}

func TestInferEnergyDelivered(t *testing.T) {
	tel := &models.TelemetryRow{VoltageV: 230.0, CurrentA: 32.0, ChargingDurationMin: 45.0}
	// 230*32*45/60000 = 5.52 -> 5.5
	if got := InferEnergyDelivered(tel); got != 5.5 {
		t.Fatalf("expected 5.5 kWh, got %v", got)
	}

	tel = &models.TelemetryRow{VoltageV: 230.0, CurrentA: 32.0, SessionDurationMin: 45.0}
	if got := InferEnergyDelivered(tel); got != 5.5 {
		t.Fatalf("session duration fallback should apply, got %v", got)
	}

	tel = &models.TelemetryRow{VoltageV: 230.0, CurrentA: 32.0}
	if got := InferEnergyDelivered(tel); got != 0 {
		t.Fatalf("missing duration should yield 0, got %v", got)
	}

	tel = &models.TelemetryRow{VoltageV: 230.0, CurrentA: -5.0, ChargingDurationMin: 30.0}
	if got := InferEnergyDelivered(tel); got != 0 {
		t.Fatalf("negative product should floor at 0, got %v", got)
	}
}

func TestBuildHistoryWindows(t *testing.T) {
	// Newest-first input is reversed to oldest-first output.
	got := BuildHistory([]*float64{f64ptr(3), f64ptr(2), f64ptr(1)}, 0, 7, 2)
	if len(got) != 7 {
		t.Fatalf("expected full window of 7, got %d", len(got))
	}
	if got[len(got)-1] != 3 || got[len(got)-2] != 2 {
		t.Fatalf("expected newest value last, got %v", got)
	}
	// Front-padded with the earliest known value.
	for i := 0; i < 5; i++ {
		if got[i] != 1 {
			t.Fatalf("expected front padding with earliest value, got %v", got)
		}
	}
}

func TestBuildHistoryEmptyFillsFallback(t *testing.T) {
	got := BuildHistory(nil, 42.5, 24, 2)
	if len(got) != 24 {
		t.Fatalf("expected window of 24, got %d", len(got))
	}
	for _, v := range got {
		if v != 42.5 {
			t.Fatalf("expected fallback fill, got %v", got)
		}
	}

	got = BuildHistory([]*float64{nil, nil}, 7.0, 7, 2)
	if len(got) != 7 || got[0] != 7 {
		t.Fatalf("all-absent samples should behave like empty input, got %v", got)
	}
}

func TestBuildHistoryTruncatesToWindow(t *testing.T) {
	values := make([]*float64, 30)
	for i := range values {
		v := float64(i)
		values[i] = &v
	}
	got := BuildHistory(values, 0, 24, 2)
	if len(got) != 24 {
		t.Fatalf("expected truncation to 24, got %d", len(got))
	}
	// Newest sample (index 0) must be the final point.
	if got[len(got)-1] != 0 {
		t.Fatalf("expected newest sample last, got %v", got)
	}
}

func TestBuildHistoryRoundsDigits(t *testing.T) {
	got := BuildHistory([]*float64{f64ptr(1.23456)}, 0, 7, 1)
	if got[len(got)-1] != 1.2 {
		t.Fatalf("expected 1 digit rounding, got %v", got)
	}
}
