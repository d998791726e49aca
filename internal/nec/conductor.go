// Package nec holds the static electrical-code reference data and the
// derating arithmetic built on it: conductor ampacities by gauge, material
// and insulation temperature rating, circular-mil areas, resistivity
// constants and standard overcurrent-device ratings.
//
// All tables are package-level constants initialized once; nothing in this
// package mutates them after init.
package nec

import (
	"github.com/voltlint/voltlint/pkg/schema"
)

// Conductor is one row of the ampacity table. A zero ampacity for a
// material/rating pair means the table has no entry (the size is not
// recognized for that material) and the gauge is skipped as a candidate.
type Conductor struct {
	Gauge        string
	CircularMils float64

	// Ampacity in amps, indexed [material][rating column].
	copper   [3]float64 // 60°C, 75°C, 90°C
	aluminum [3]float64
}

// Ampacity returns the base (underated) ampacity for the material and
// temperature rating, and whether the table has an entry.
func (c *Conductor) Ampacity(m schema.Material, r schema.TempRating) (float64, bool) {
	col, ok := ratingColumn(r)
	if !ok {
		return 0, false
	}
	var a float64
	switch m {
	case schema.MaterialCopper:
		a = c.copper[col]
	case schema.MaterialAluminum:
		a = c.aluminum[col]
	default:
		return 0, false
	}
	if a == 0 {
		return 0, false
	}
	return a, true
}

func ratingColumn(r schema.TempRating) (int, bool) {
	switch r {
	case schema.TempRating60:
		return 0, true
	case schema.TempRating75:
		return 1, true
	case schema.TempRating90:
		return 2, true
	}
	return 0, false
}

// conductors is the ampacity table in ascending size order (NEC 310.16
// values, 14 AWG through 500 kcmil). Aluminum has no 14 AWG entry.
var conductors = []Conductor{
	{Gauge: "14", CircularMils: 4110, copper: [3]float64{15, 20, 25}},
	{Gauge: "12", CircularMils: 6530, copper: [3]float64{20, 25, 30}, aluminum: [3]float64{15, 20, 25}},
	{Gauge: "10", CircularMils: 10380, copper: [3]float64{30, 35, 40}, aluminum: [3]float64{25, 30, 35}},
	{Gauge: "8", CircularMils: 16510, copper: [3]float64{40, 50, 55}, aluminum: [3]float64{35, 40, 45}},
	{Gauge: "6", CircularMils: 26240, copper: [3]float64{55, 65, 75}, aluminum: [3]float64{40, 50, 55}},
	{Gauge: "4", CircularMils: 41740, copper: [3]float64{70, 85, 95}, aluminum: [3]float64{55, 65, 75}},
	{Gauge: "3", CircularMils: 52620, copper: [3]float64{85, 100, 115}, aluminum: [3]float64{65, 75, 85}},
	{Gauge: "2", CircularMils: 66360, copper: [3]float64{95, 115, 130}, aluminum: [3]float64{75, 90, 100}},
	{Gauge: "1", CircularMils: 83690, copper: [3]float64{110, 130, 145}, aluminum: [3]float64{85, 100, 115}},
	{Gauge: "1/0", CircularMils: 105600, copper: [3]float64{125, 150, 170}, aluminum: [3]float64{100, 120, 135}},
	{Gauge: "2/0", CircularMils: 133100, copper: [3]float64{145, 175, 195}, aluminum: [3]float64{115, 135, 150}},
	{Gauge: "3/0", CircularMils: 167800, copper: [3]float64{165, 200, 225}, aluminum: [3]float64{130, 155, 175}},
	{Gauge: "4/0", CircularMils: 211600, copper: [3]float64{195, 230, 260}, aluminum: [3]float64{150, 180, 205}},
	{Gauge: "250", CircularMils: 250000, copper: [3]float64{215, 255, 290}, aluminum: [3]float64{170, 205, 230}},
	{Gauge: "300", CircularMils: 300000, copper: [3]float64{240, 285, 320}, aluminum: [3]float64{190, 230, 255}},
	{Gauge: "350", CircularMils: 350000, copper: [3]float64{260, 310, 350}, aluminum: [3]float64{210, 250, 280}},
	{Gauge: "400", CircularMils: 400000, copper: [3]float64{280, 335, 380}, aluminum: [3]float64{225, 270, 305}},
	{Gauge: "500", CircularMils: 500000, copper: [3]float64{320, 380, 430}, aluminum: [3]float64{260, 310, 350}},
}

// gaugeIndex maps gauge identifier to its position in the ascending table.
var gaugeIndex = func() map[string]int {
	m := make(map[string]int, len(conductors))
	for i, c := range conductors {
		m[c.Gauge] = i
	}
	return m
}()

// Conductors returns the full table in ascending size order. The returned
// slice is shared; callers must not mutate it.
func Conductors() []Conductor {
	return conductors
}

// Lookup returns the conductor row for a gauge identifier.
func Lookup(gauge string) (*Conductor, bool) {
	i, ok := gaugeIndex[gauge]
	if !ok {
		return nil, false
	}
	return &conductors[i], true
}

// GaugeIndex returns the position of a gauge in the ascending size order,
// or -1 if the gauge is not a standard size.
func GaugeIndex(gauge string) int {
	i, ok := gaugeIndex[gauge]
	if !ok {
		return -1
	}
	return i
}

// LargestGauge returns the last (largest) entry in the table.
func LargestGauge() *Conductor {
	return &conductors[len(conductors)-1]
}

// Resistivity K constants for the simplified voltage-drop formula, in
// ohm-cmil per foot.
const (
	KCopper   = 12.9
	KAluminum = 21.2
)

// KConstant returns the resistivity constant for a material.
func KConstant(m schema.Material) (float64, bool) {
	switch m {
	case schema.MaterialCopper:
		return KCopper, true
	case schema.MaterialAluminum:
		return KAluminum, true
	}
	return 0, false
}

// standardBreakers holds the standard overcurrent-device ratings in amps
// (NEC 240.6(A)), ascending.
var standardBreakers = []int{
	15, 20, 25, 30, 35, 40, 45, 50, 60, 70, 80, 90, 100,
	110, 125, 150, 175, 200, 225, 250, 300, 350, 400, 450, 500, 600,
}

// StandardBreakerRatings returns the standard device ratings, ascending.
// The returned slice is shared; callers must not mutate it.
func StandardBreakerRatings() []int {
	return standardBreakers
}

// NextStandardBreaker returns the smallest standard device rating >= amps,
// or 0 if amps exceeds the largest standard rating.
func NextStandardBreaker(amps float64) int {
	for _, r := range standardBreakers {
		if float64(r) >= amps {
			return r
		}
	}
	return 0
}

// IsStandardBreaker reports whether amps is exactly a standard rating.
func IsStandardBreaker(amps int) bool {
	for _, r := range standardBreakers {
		if r == amps {
			return true
		}
		if r > amps {
			return false
		}
	}
	return false
}

// ValidateTables sanity-checks the reference data at startup: ascending
// circular-mil areas, monotonically non-decreasing copper ampacities, and
// non-empty breaker table. A failure here is a process-fatal condition.
func ValidateTables() error {
	if len(conductors) == 0 {
		return schema.NewError(schema.ErrCodeTable, "conductor table is empty")
	}
	for i := 1; i < len(conductors); i++ {
		prev, cur := &conductors[i-1], &conductors[i]
		if cur.CircularMils <= prev.CircularMils {
			return schema.NewErrorf(schema.ErrCodeTable,
				"conductor table not ascending: %s (%v cmil) after %s (%v cmil)",
				cur.Gauge, cur.CircularMils, prev.Gauge, prev.CircularMils)
		}
		for col := 0; col < 3; col++ {
			if cur.copper[col] < prev.copper[col] {
				return schema.NewErrorf(schema.ErrCodeTable,
					"copper ampacity decreases at %s", cur.Gauge)
			}
		}
	}
	if len(standardBreakers) == 0 {
		return schema.NewError(schema.ErrCodeTable, "breaker rating table is empty")
	}
	return nil
}
