package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Date", "date"},
		{"Min Delay", "min_delay"},
		{"  Min  Gap ", "min_gap"},
		{"minDelay", "min_delay"},
		{"MinDelay", "min_delay"},
		{"XMLFile", "xml_file"},
		{"Vehicle #", "vehicle"},
		{"Café No.", "cafe_no"},
		{"Incident-Type", "incident_type"},
		{"1st Stop", "x1st_stop"},
		{"route_2", "route_2"},
		{"", "x"},
		{"---", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.raw), "raw %q", tt.raw)
	}
}

func TestNormalizeNamesDeduplicates(t *testing.T) {
	got := NormalizeNames([]string{"Route", "route", "ROUTE", "Route 2"})
	assert.Equal(t, []string{"route", "route_2", "route_3", "route_2_2"}, got)
}

func TestNormalizeNamesTTCHeader(t *testing.T) {
	raw := []string{"Date", "Route", "Time", "Day", "Location", "Incident", "Min Delay", "Min Gap", "Direction", "Vehicle"}
	assert.Equal(t, []string{
		"date", "route", "time", "day", "location",
		"incident", "min_delay", "min_gap", "direction", "vehicle",
	}, NormalizeNames(raw))
}
