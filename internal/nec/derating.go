package nec

import "github.com/voltlint/voltlint/pkg/schema"

// Load adjustment factor for continuous and motor loads (NEC 210.19, 430.22).
const LoadAdjustmentFactor = 1.25

// minCountFactor is the floor applied when the conductor count falls past
// the last table band.
const minCountFactor = 0.35

// countBand is one step of the conductor-count adjustment table
// (NEC 310.15(C)(1)).
type countBand struct {
	maxCount int
	factor   float64
}

var countBands = []countBand{
	{3, 1.00},
	{6, 0.80},
	{9, 0.70},
	{20, 0.50},
	{30, 0.45},
	{40, 0.40},
}

// ConductorCountFactor returns the ampacity adjustment factor for the
// number of current-carrying conductors bundled in one raceway. Counts
// past the table clamp to the most conservative known factor.
func ConductorCountFactor(count int) float64 {
	if count <= 0 {
		return 1.00
	}
	for _, b := range countBands {
		if count <= b.maxCount {
			return b.factor
		}
	}
	return minCountFactor
}

// ambientBand is one 5°C step of the ambient correction table, referenced
// to a 30°C baseline (NEC 310.15(B)(1), 75°C column).
type ambientBand struct {
	maxTempC float64
	factor   float64
}

var ambientBands = []ambientBand{
	{10, 1.20},
	{15, 1.15},
	{20, 1.11},
	{25, 1.05},
	{30, 1.00},
	{35, 0.94},
	{40, 0.88},
	{45, 0.82},
	{50, 0.75},
	{55, 0.67},
	{60, 0.58},
	{65, 0.47},
	{70, 0.33},
}

// AmbientFactor returns the ampacity correction factor for the ambient
// temperature in °C. Temperatures past the table bounds clamp to the
// nearest band.
func AmbientFactor(tempC float64) float64 {
	for _, b := range ambientBands {
		if tempC <= b.maxTempC {
			return b.factor
		}
	}
	return ambientBands[len(ambientBands)-1].factor
}

// DeratedAmpacity applies the conductor-count and ambient corrections to a
// base ampacity. Purely numeric; out-of-table inputs produce the most
// conservative known factor, never an error.
func DeratedAmpacity(base float64, d schema.DeratingContext) float64 {
	return base * ConductorCountFactor(d.ConductorCount) * AmbientFactor(d.AmbientTempC)
}

// AdjustedLoad returns the required load after continuous- and motor-load
// margins. The motor factor never reduces the continuous-adjusted figure.
func AdjustedLoad(loadAmps float64, d schema.DeratingContext) float64 {
	adjusted := loadAmps
	if d.ContinuousLoad {
		adjusted = loadAmps * LoadAdjustmentFactor
	}
	if d.MotorLoad {
		motor := loadAmps * LoadAdjustmentFactor
		if motor > adjusted {
			adjusted = motor
		}
	}
	return adjusted
}
