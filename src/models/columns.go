package models

// Column names after header normalization.
const (
	ColDate      = "date"
	ColRoute     = "route"
	ColTime      = "time"
	ColDay       = "day"
	ColLocation  = "location"
	ColIncident  = "incident"
	ColMinDelay  = "min_delay"
	ColMinGap    = "min_gap"
	ColDirection = "direction"
	ColVehicle   = "vehicle"

	// derived by the aggregator, never persisted
	ColMonth  = "month"
	ColDayNum = "day_num"
)

// RawColumns is the full record layout of the published delay dataset.
var RawColumns = []string{
	ColDate, ColRoute, ColTime, ColDay, ColLocation,
	ColIncident, ColMinDelay, ColMinGap, ColDirection, ColVehicle,
}

// CleanColumns is the projection kept by the cleaner and the exact column
// order of the cleaned snapshot.
var CleanColumns = []string{ColDate, ColTime, ColDay, ColIncident, ColMinDelay}

// DefaultMaxDelay is the largest delay in minutes treated as a real delay.
const DefaultMaxDelay = 120.0
