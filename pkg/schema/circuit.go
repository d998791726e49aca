package schema

// Material is the conductor material.
type Material string

const (
	MaterialCopper   Material = "copper"
	MaterialAluminum Material = "aluminum"
)

// TempRating is the conductor insulation temperature rating in °C.
type TempRating int

const (
	TempRating60 TempRating = 60
	TempRating75 TempRating = 75
	TempRating90 TempRating = 90
)

// DeratingContext describes the installation conditions that adjust a
// conductor's base ampacity and a circuit's required load. Derived per
// calculation call; not persisted.
type DeratingContext struct {
	ConductorCount int     `json:"conductor_count"`
	AmbientTempC   float64 `json:"ambient_temp_c"`
	ContinuousLoad bool    `json:"continuous_load"`
	MotorLoad      bool    `json:"motor_load"`
}

// CircuitSpec is the full electrical description of one circuit run.
// Owned by the caller; the engine only reads it.
type CircuitSpec struct {
	LoadAmps          float64         `json:"load_amps"`
	Voltage           float64         `json:"voltage"`
	LengthFt          float64         `json:"length_ft"`
	Material          Material        `json:"material"`
	TempRating        TempRating      `json:"temp_rating"`
	MaxVoltageDropPct float64         `json:"max_voltage_drop_pct"`
	Derating          DeratingContext `json:"derating"`
}

// WireSizingResult is the outcome of one solve call. Produced fresh on
// every call; no shared mutable state.
type WireSizingResult struct {
	Gauge           string      `json:"gauge"`
	BaseAmpacity    float64     `json:"base_ampacity"`
	DeratedAmpacity float64     `json:"derated_ampacity"`
	AdjustedLoad    float64     `json:"adjusted_load"`
	VoltageDrop     float64     `json:"voltage_drop"`
	VoltageDropPct  float64     `json:"voltage_drop_pct"`
	BreakerAmps     int         `json:"breaker_amps,omitempty"`
	Compliant       bool        `json:"compliant"`
	Violations      []Violation `json:"violations,omitempty"`
}
