package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeCents(t *testing.T) {
	tests := []struct {
		province string
		want     int
	}{
		{"Metro Manila", 5000},
		{"Batangas", 8000},
		{"Pangasinan", 8000},
		{"Cebu", 12000},
		{"Iloilo", 12000},
		{"Davao del Sur", 15000},
		{"Zamboanga Sibugay", 15000},
		{"Atlantis", DefaultFeeCents},
		{"", DefaultFeeCents},
	}
	for _, tt := range tests {
		t.Run(tt.province, func(t *testing.T) {
			assert.Equal(t, tt.want, FeeCents(tt.province))
		})
	}
}

func TestRegionName(t *testing.T) {
	assert.Equal(t, "Metro Manila", RegionName("Metro Manila"))
	assert.Equal(t, "Luzon", RegionName("Laguna"))
	assert.Equal(t, "Visayas", RegionName("Bohol"))
	assert.Equal(t, "Mindanao", RegionName("Bukidnon"))
	assert.Equal(t, "Unknown Region", RegionName("Narnia"))
}

func TestNoProvinceInTwoRegions(t *testing.T) {
	seen := map[string]string{}
	for _, r := range Regions {
		for _, p := range r.Provinces {
			if prev, ok := seen[p]; ok {
				t.Fatalf("province %q in both %s and %s", p, prev, r.Name)
			}
			seen[p] = r.Name
		}
	}
}
