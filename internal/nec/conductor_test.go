package nec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

func TestValidateTables(t *testing.T) {
	assert.NoError(t, ValidateTables())
}

func TestConductors_AscendingOrder(t *testing.T) {
	table := Conductors()
	require.NotEmpty(t, table)

	for i := 1; i < len(table); i++ {
		assert.Greater(t, table[i].CircularMils, table[i-1].CircularMils,
			"circular mils must grow with gauge index at %s", table[i].Gauge)
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("12")
	require.True(t, ok)
	assert.Equal(t, "12", c.Gauge)
	assert.Equal(t, 6530.0, c.CircularMils)

	_, ok = Lookup("11")
	assert.False(t, ok)
}

func TestAmpacity_Copper(t *testing.T) {
	c, ok := Lookup("12")
	require.True(t, ok)

	a, ok := c.Ampacity(schema.MaterialCopper, schema.TempRating60)
	require.True(t, ok)
	assert.Equal(t, 20.0, a)

	a, ok = c.Ampacity(schema.MaterialCopper, schema.TempRating75)
	require.True(t, ok)
	assert.Equal(t, 25.0, a)

	a, ok = c.Ampacity(schema.MaterialCopper, schema.TempRating90)
	require.True(t, ok)
	assert.Equal(t, 30.0, a)
}

func TestAmpacity_AluminumHasNo14AWG(t *testing.T) {
	c, ok := Lookup("14")
	require.True(t, ok)

	_, ok = c.Ampacity(schema.MaterialAluminum, schema.TempRating75)
	assert.False(t, ok, "aluminum has no 14 AWG entry")

	a, ok := c.Ampacity(schema.MaterialCopper, schema.TempRating75)
	require.True(t, ok)
	assert.Equal(t, 20.0, a)
}

func TestAmpacity_UnknownMaterialOrRating(t *testing.T) {
	c, ok := Lookup("10")
	require.True(t, ok)

	_, ok = c.Ampacity(schema.Material("tin"), schema.TempRating75)
	assert.False(t, ok)

	_, ok = c.Ampacity(schema.MaterialCopper, schema.TempRating(80))
	assert.False(t, ok)
}

func TestGaugeIndex(t *testing.T) {
	assert.Equal(t, 0, GaugeIndex("14"))
	assert.Equal(t, 1, GaugeIndex("12"))
	assert.Less(t, GaugeIndex("10"), GaugeIndex("4/0"))
	assert.Equal(t, -1, GaugeIndex("750"))
}

func TestLargestGauge(t *testing.T) {
	c := LargestGauge()
	assert.Equal(t, "500", c.Gauge)
	assert.Equal(t, 500000.0, c.CircularMils)
}

func TestKConstant(t *testing.T) {
	k, ok := KConstant(schema.MaterialCopper)
	require.True(t, ok)
	assert.Equal(t, 12.9, k)

	k, ok = KConstant(schema.MaterialAluminum)
	require.True(t, ok)
	assert.Equal(t, 21.2, k)

	_, ok = KConstant(schema.Material("gold"))
	assert.False(t, ok)
}

func TestNextStandardBreaker(t *testing.T) {
	tests := []struct {
		amps float64
		want int
	}{
		{1, 15},
		{15, 15},
		{16, 20},
		{25, 25},
		{26, 30},
		{50, 50},
		{52, 60},
		{600, 600},
		{601, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextStandardBreaker(tt.amps), "amps=%v", tt.amps)
	}
}

func TestIsStandardBreaker(t *testing.T) {
	assert.True(t, IsStandardBreaker(20))
	assert.True(t, IsStandardBreaker(600))
	assert.False(t, IsStandardBreaker(22))
	assert.False(t, IsStandardBreaker(700))
}
