// Package validation is the engine's input boundary: structural validation
// of diagram documents against a JSON Schema, and fallible parsing of the
// string-keyed specification maps into typed per-component structs. Rule
// bodies only ever see the typed forms.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voltlint/voltlint/pkg/schema"
)

// PanelSpec is the typed specification of a main or sub panel.
type PanelSpec struct {
	BusRatingAmps   float64
	MainBreakerAmps float64
}

// InverterSpec is the typed specification of an inverter.
type InverterSpec struct {
	OutputAmps  float64
	BreakerAmps float64
}

// EVSESpec is the typed specification of an EVSE charger.
type EVSESpec struct {
	NameplateAmps float64
	Voltage       float64
}

// BreakerSpec is the typed specification of a standalone breaker.
type BreakerSpec struct {
	RatingAmps float64
}

// WireSpec is the typed specification of a connection's wiring run.
// Zero-valued electrical fields mean "not specified"; HasCircuit reports
// whether enough is present to infer a CircuitSpec.
type WireSpec struct {
	Gauge             string
	Material          schema.Material
	TempRating        schema.TempRating
	LengthFt          float64
	LoadAmps          float64
	Voltage           float64
	Continuous        bool
	Motor             bool
	ConductorCount    int
	AmbientTempC      float64
	MaxVoltageDropPct float64
	Color             string
	Role              string // ground, neutral, phase
}

// Circuit defaults applied when a connection spec leaves a field out.
const (
	defaultTempRating     = schema.TempRating75
	defaultMaxVDropPct    = 3.0
	defaultConductorCount = 3
	defaultAmbientC       = 30.0
)

// HasCircuit reports whether the run carries enough data for wire sizing.
func (w *WireSpec) HasCircuit() bool {
	return w.LoadAmps > 0 && w.Voltage > 0
}

// Circuit builds the CircuitSpec for this run.
func (w *WireSpec) Circuit() schema.CircuitSpec {
	return schema.CircuitSpec{
		LoadAmps:          w.LoadAmps,
		Voltage:           w.Voltage,
		LengthFt:          w.LengthFt,
		Material:          w.Material,
		TempRating:        w.TempRating,
		MaxVoltageDropPct: w.MaxVoltageDropPct,
		Derating: schema.DeratingContext{
			ConductorCount: w.ConductorCount,
			AmbientTempC:   w.AmbientTempC,
			ContinuousLoad: w.Continuous,
			MotorLoad:      w.Motor,
		},
	}
}

// ParsedDiagram holds every typed specification extracted from a diagram
// snapshot, keyed by component or connection ID, plus the input-shape
// problems found along the way. Problems are violations, not errors: the
// evaluator folds them into the result and keeps going.
type ParsedDiagram struct {
	Panels    map[string]*PanelSpec
	Inverters map[string]*InverterSpec
	EVSEs     map[string]*EVSESpec
	Breakers  map[string]*BreakerSpec
	Wires     map[string]*WireSpec
	Problems  []schema.Violation
}

// Parse extracts typed specifications from all components and connections.
// It never fails; malformed fields become INVALID_SPEC violations tagged
// with the owning component or connection ID.
func Parse(d *schema.Diagram) *ParsedDiagram {
	p := &ParsedDiagram{
		Panels:    make(map[string]*PanelSpec),
		Inverters: make(map[string]*InverterSpec),
		EVSEs:     make(map[string]*EVSESpec),
		Breakers:  make(map[string]*BreakerSpec),
		Wires:     make(map[string]*WireSpec),
	}
	if d == nil {
		return p
	}

	for i := range d.Components {
		p.parseComponent(&d.Components[i])
	}
	for i := range d.Connections {
		p.parseConnection(&d.Connections[i])
	}
	return p
}

func (p *ParsedDiagram) parseComponent(c *schema.Component) {
	r := &specReader{spec: c.Spec, componentID: c.ID}

	switch c.Type {
	case schema.ComponentMainPanel, schema.ComponentSubPanel:
		p.Panels[c.ID] = &PanelSpec{
			BusRatingAmps:   r.number("bus_rating", 0),
			MainBreakerAmps: r.number("main_breaker", 0),
		}
	case schema.ComponentInverter:
		p.Inverters[c.ID] = &InverterSpec{
			OutputAmps:  r.number("output_amps", 0),
			BreakerAmps: r.number("breaker_rating", 0),
		}
	case schema.ComponentEVSECharger:
		p.EVSEs[c.ID] = &EVSESpec{
			NameplateAmps: r.number("nameplate_amps", 0),
			Voltage:       r.number("voltage", 240),
		}
	case schema.ComponentBreaker:
		p.Breakers[c.ID] = &BreakerSpec{
			RatingAmps: r.number("rating", 0),
		}
	}

	p.Problems = append(p.Problems, r.problems...)
}

func (p *ParsedDiagram) parseConnection(c *schema.Connection) {
	r := &specReader{spec: c.Spec, connectionID: c.ID}

	w := &WireSpec{
		Gauge:             r.str("wire_gauge", ""),
		Material:          schema.Material(r.str("material", string(schema.MaterialCopper))),
		TempRating:        schema.TempRating(int(r.number("temp_rating", float64(defaultTempRating)))),
		LengthFt:          r.number("length_ft", 0),
		LoadAmps:          r.number("load_amps", 0),
		Voltage:           r.number("voltage", 0),
		Continuous:        r.boolean("continuous", false),
		Motor:             r.boolean("motor", false),
		ConductorCount:    int(r.number("conductor_count", defaultConductorCount)),
		AmbientTempC:      r.number("ambient_temp_c", defaultAmbientC),
		MaxVoltageDropPct: r.number("max_voltage_drop_pct", defaultMaxVDropPct),
		Color:             r.str("color", ""),
		Role:              r.str("role", ""),
	}

	switch w.Material {
	case schema.MaterialCopper, schema.MaterialAluminum:
	default:
		r.problem("material", fmt.Sprintf("unknown conductor material %q", w.Material))
		w.Material = schema.MaterialCopper
	}
	switch w.TempRating {
	case schema.TempRating60, schema.TempRating75, schema.TempRating90:
	default:
		r.problem("temp_rating", fmt.Sprintf("unknown temperature rating %d", w.TempRating))
		w.TempRating = defaultTempRating
	}

	p.Wires[c.ID] = w
	p.Problems = append(p.Problems, r.problems...)
}

// specReader reads loosely typed fields from a specification map,
// recording a violation for each present-but-unparseable value.
type specReader struct {
	spec         map[string]any
	componentID  string
	connectionID string
	problems     []schema.Violation
}

func (r *specReader) problem(field, msg string) {
	r.problems = append(r.problems, schema.Violation{
		Code:         schema.CodeInvalidSpec,
		Section:      "NEC 110.3",
		Description:  fmt.Sprintf("specification field %q: %s", field, msg),
		Severity:     schema.SeverityError,
		Remediation:  "correct the specification value in the property panel",
		ComponentID:  r.componentID,
		ConnectionID: r.connectionID,
	})
}

// number reads a numeric field. Accepts JSON numbers and numeric strings
// (with an optional trailing unit such as "40A" or "100ft"). A missing
// field yields the default; an unparseable one records a problem and
// yields the default.
func (r *specReader) number(field string, def float64) float64 {
	v, ok := r.spec[field]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimRight(s, "AaVvWf%t ")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
		r.problem(field, fmt.Sprintf("unparseable numeric value %q", n))
		return def
	default:
		r.problem(field, fmt.Sprintf("expected a number, got %T", v))
		return def
	}
}

func (r *specReader) str(field, def string) string {
	v, ok := r.spec[field]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.problem(field, fmt.Sprintf("expected a string, got %T", v))
		return def
	}
	return s
}

func (r *specReader) boolean(field string, def bool) bool {
	v, ok := r.spec[field]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "yes" || b == "1"
	default:
		r.problem(field, fmt.Sprintf("expected a boolean, got %T", v))
		return def
	}
}
