package derive

import "testing"

func TestDeriveDisplayIdentityNumeric(t *testing.T) {
	cases := []struct {
		raw        string
		id, name   string
		code       string
	}{
		{"7", "charger-7", "Charger 7", "CHG-007"},
		{"CHG_042", "charger-42", "Charger 42", "CHG-042"},
		{"station 103 north", "charger-103", "Charger 103", "CHG-103"},
	}
	for _, tc := range cases {
		got := DeriveDisplayIdentity(tc.raw)
		if got.ID != tc.id || got.Name != tc.name || got.Code != tc.code {
			t.Errorf("%q: got %+v", tc.raw, got)
		}
	}
}

func TestDeriveDisplayIdentitySlugFallback(t *testing.T) {
	got := DeriveDisplayIdentity("Depot-East!!")
	if got.ID != "charger-depot-east" {
		t.Fatalf("unexpected slug id %q", got.ID)
	}
	if got.Name != "Depot-East!!" || got.Code != "DEPOT-EAST!!" {
		t.Fatalf("unexpected name/code %q/%q", got.Name, got.Code)
	}
}

func TestDeriveDisplayIdentityEmpty(t *testing.T) {
	got := DeriveDisplayIdentity("")
	if got.ID != "charger-unknown" || got.Name != "Charger" || got.Code != "UNK" {
		t.Fatalf("unexpected empty identity %+v", got)
	}
}
