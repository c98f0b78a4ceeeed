package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestReader(t *testing.T) (*SnapshotReader, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotReader(client), srv
}

func TestLoadMissReturnsNil(t *testing.T) {
	reader, _ := newTestReader(t)

	snapshot, err := reader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("snapshot = %+v, want nil on miss", snapshot)
	}
}

func TestLoadDecodesDashboardPayload(t *testing.T) {
	reader, srv := newTestReader(t)
	srv.Set(SnapshotKey, `{
		"chargers":[{"id":"charger-1","name":"Charger 1","riskScore":42.5,"riskHistory":[40,41,42]}],
		"incidents":[{"id":"charger-1-risk","chargerId":"charger-1","status":"active"}],
		"fleetStats":{"totalChargers":1,"healthy":0,"warning":1,"critical":0,"healthScore":57.5},
		"generatedAt":"2026-09-01T10:00:00Z",
		"source":"live"
	}`)

	snapshot, err := reader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot == nil {
		t.Fatal("snapshot is nil")
	}
	if len(snapshot.Chargers) != 1 || snapshot.Chargers[0].RiskScore != 42.5 {
		t.Fatalf("chargers = %+v", snapshot.Chargers)
	}
	if len(snapshot.Incidents) != 1 || snapshot.Incidents[0].ChargerID != "charger-1" {
		t.Fatalf("incidents = %+v", snapshot.Incidents)
	}
	if snapshot.FleetStats == nil || snapshot.FleetStats.HealthScore != 57.5 {
		t.Fatalf("fleetStats = %+v", snapshot.FleetStats)
	}
}

func TestLoadRejectsCorruptPayload(t *testing.T) {
	reader, srv := newTestReader(t)
	srv.Set(SnapshotKey, "not json")

	if _, err := reader.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
