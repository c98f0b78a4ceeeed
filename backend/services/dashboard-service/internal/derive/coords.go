package derive

import (
	"fmt"
	"strings"
)

// Coordinates is a resolved map position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const unassignedArea = "unassigned"

// Fallback positions for chargers whose telemetry carries no usable fix.
var areaFallbackCoords = map[string]Coordinates{
	"folsom":              {Lat: 38.677959, Lng: -121.176058},
	"sacramento-downtown": {Lat: 38.581572, Lng: -121.4944},
	"sacramento downtown": {Lat: 38.581572, Lng: -121.4944},
	"davis":               {Lat: 38.544907, Lng: -121.740517},
	"roseville":           {Lat: 38.752123, Lng: -121.288006},
	"west-sacramento":     {Lat: 38.58046, Lng: -121.530235},
	"west sacramento":     {Lat: 38.58046, Lng: -121.530235},
	"elk-grove":           {Lat: 38.408799, Lng: -121.371618},
	"elk grove":           {Lat: 38.408799, Lng: -121.371618},
	unassignedArea:        {Lat: 38.581572, Lng: -121.4944},
}

func hashKey(input string) uint32 {
	var hash uint32
	for i := 0; i < len(input); i++ {
		hash = hash*31 + uint32(input[i])
	}
	return hash
}

func jitterFromSeed(seed uint32) float64 {
	return float64(seed%10000)/10000*2 - 1
}

// ResolveCoordinates returns real coordinates when valid and non-origin,
// otherwise a fallback position for the charger's area with a deterministic
// per-charger offset. Identical inputs always yield identical output, which
// keeps map markers stable across refreshes.
func ResolveCoordinates(latitudeRaw, longitudeRaw any, area *string, chargerKey string) Coordinates {
	lat, latOK := Number(latitudeRaw)
	lng, lngOK := Number(longitudeRaw)

	if latOK && lngOK &&
		lat >= -90 && lat <= 90 &&
		lng >= -180 && lng <= 180 &&
		!(lat == 0 && lng == 0) {
		return Coordinates{Lat: lat, Lng: lng}
	}

	areaKey := unassignedArea
	if area != nil {
		areaKey = strings.ToLower(strings.TrimSpace(*area))
	}
	base, ok := areaFallbackCoords[areaKey]
	if !ok {
		base = areaFallbackCoords[unassignedArea]
	}
	hash := hashKey(fmt.Sprintf("%s:%s", chargerKey, areaKey))

	// Small jitter so stacked fallback markers remain individually visible.
	latJitter := jitterFromSeed(hash) * 0.01
	lngJitter := jitterFromSeed(hash>>8) * 0.01

	return Coordinates{
		Lat: Round(base.Lat+latJitter, 6),
		Lng: Round(base.Lng+lngJitter, 6),
	}
}
