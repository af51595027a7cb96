package locations_test

import (
	"testing"
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
)

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// TestChangedWithinWindow checks the 6-month boundary of the
// changed_recently flag, including the never-changed case.
func TestChangedWithinWindow(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		lastChange *time.Time
		want       bool
	}{
		{"never changed", nil, false},
		{"changed yesterday", datePtr("2025-01-14"), true},
		{"exactly on the boundary", datePtr("2024-07-15"), true},
		{"just outside the window", datePtr("2024-07-14"), false},
		{"changed a year ago", datePtr("2024-01-15"), false},
	}
	for _, tc := range cases {
		p := locations.Precinct{LastChangeDate: tc.lastChange}
		if got := p.ChangedWithinWindow(now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestPollingPlaceAddressKey verifies the stored-model key matches the
// adapter-side normalization so address comparisons line up.
func TestPollingPlaceAddressKey(t *testing.T) {
	a := locations.PollingPlace{
		AddressLine1: "123 Main St",
		City:         "Fairfax",
		State:        "VA",
		ZipCode:      "22030",
	}
	b := a
	b.AddressLine1 = " 123  main ST"
	if a.AddressKey() != b.AddressKey() {
		t.Errorf("normalized keys differ: %q vs %q", a.AddressKey(), b.AddressKey())
	}
}
