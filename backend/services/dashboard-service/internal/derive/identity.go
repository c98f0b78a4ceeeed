package derive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DisplayIdentity is the stable id/name/code triple derived from a raw charger key.
type DisplayIdentity struct {
	ID   string
	Name string
	Code string
}

var (
	digitsPattern  = regexp.MustCompile(`(\d+)`)
	nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// DeriveDisplayIdentity builds display identifiers from a raw charger id.
// Ids containing a number become charger-N / Charger N / CHG-00N; anything
// else is slugged.
func DeriveDisplayIdentity(rawChargerID string) DisplayIdentity {
	if match := digitsPattern.FindStringSubmatch(rawChargerID); match != nil {
		if num, err := strconv.Atoi(match[1]); err == nil {
			return DisplayIdentity{
				ID:   fmt.Sprintf("charger-%d", num),
				Name: fmt.Sprintf("Charger %d", num),
				Code: fmt.Sprintf("CHG-%03d", num),
			}
		}
	}

	safe := strings.Trim(nonSlugPattern.ReplaceAllString(strings.ToLower(rawChargerID), "-"), "-")
	id := "charger-unknown"
	if safe != "" {
		id = "charger-" + safe
	}
	name := rawChargerID
	if name == "" {
		name = "Charger"
	}
	code := strings.ToUpper(rawChargerID)
	if code == "" {
		code = "UNK"
	}
	return DisplayIdentity{ID: id, Name: name, Code: code}
}
