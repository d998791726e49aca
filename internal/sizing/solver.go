// Package sizing implements the constrained wire-size search: the smallest
// standard conductor gauge that satisfies both derated ampacity and maximum
// voltage drop for a circuit.
package sizing

import (
	"fmt"

	"github.com/voltlint/voltlint/internal/nec"
	"github.com/voltlint/voltlint/pkg/schema"
)

// Code sections cited by solver violations.
const (
	sectionAmpacity    = "NEC 310.16"
	sectionVoltageDrop = "NEC 210.19(A) IN 4"
	sectionMinSize     = "NEC 240.4(D)"
	sectionAluminum    = "NEC 310.3(B)"
)

// Solve finds the smallest gauge, in ascending standard order, whose
// derated ampacity covers the adjusted load and whose voltage drop stays
// within the circuit's limit. It never fails: malformed input and table
// exhaustion both return a usable non-compliant result with violations
// attached.
func Solve(spec schema.CircuitSpec) *schema.WireSizingResult {
	if v, ok := checkSpec(spec); !ok {
		return &schema.WireSizingResult{
			Compliant:  false,
			Violations: []schema.Violation{v},
		}
	}

	adjusted := nec.AdjustedLoad(spec.LoadAmps, spec.Derating)
	k, _ := nec.KConstant(spec.Material)

	for i := range nec.Conductors() {
		c := &nec.Conductors()[i]

		base, ok := c.Ampacity(spec.Material, spec.TempRating)
		if !ok {
			continue // no table entry for this material/size
		}

		// Hard floor independent of the ampacity search: below 12 AWG is
		// rejected outright on 240V circuits above 15A.
		if belowMinimumSize(c, spec) {
			continue
		}

		derated := nec.DeratedAmpacity(base, spec.Derating)
		drop, dropPct := voltageDrop(k, spec, c)

		if derated >= adjusted && dropPct <= spec.MaxVoltageDropPct {
			// First fit is the cost-minimal compliant choice: ampacity and
			// cross-section both grow with gauge index.
			res := &schema.WireSizingResult{
				Gauge:           c.Gauge,
				BaseAmpacity:    base,
				DeratedAmpacity: derated,
				AdjustedLoad:    adjusted,
				VoltageDrop:     drop,
				VoltageDropPct:  dropPct,
				BreakerAmps:     nec.NextStandardBreaker(adjusted),
				Compliant:       true,
			}
			if w, flag := aluminumCaveat(c, spec); flag {
				res.Violations = append(res.Violations, w)
			}
			return res
		}
	}

	return exhausted(spec, adjusted, k)
}

// EvaluateGauge computes the derated ampacity and voltage drop of a
// specific assigned gauge against a circuit, returning the violations the
// assignment produces. Used by connection rules that check an existing
// wire choice rather than searching for one.
func EvaluateGauge(gauge string, spec schema.CircuitSpec) []schema.Violation {
	if v, ok := checkSpec(spec); !ok {
		return []schema.Violation{v}
	}

	c, ok := nec.Lookup(gauge)
	if !ok {
		return []schema.Violation{{
			Code:        schema.CodeInvalidSpec,
			Section:     sectionAmpacity,
			Description: fmt.Sprintf("wire size %q is not a standard gauge", gauge),
			Severity:    schema.SeverityError,
			Remediation: "use a standard AWG or kcmil conductor size",
		}}
	}

	adjusted := nec.AdjustedLoad(spec.LoadAmps, spec.Derating)
	k, _ := nec.KConstant(spec.Material)

	var out []schema.Violation

	base, ok := c.Ampacity(spec.Material, spec.TempRating)
	if !ok {
		out = append(out, schema.Violation{
			Code:        schema.CodeInvalidSpec,
			Section:     sectionAmpacity,
			Description: fmt.Sprintf("no ampacity entry for %s AWG %s at %d°C", c.Gauge, spec.Material, spec.TempRating),
			Severity:    schema.SeverityError,
		})
		return out
	}

	if belowMinimumSize(c, spec) {
		out = append(out, schema.Violation{
			Code:        schema.CodeMinWireSize,
			Section:     sectionMinSize,
			Description: fmt.Sprintf("%s AWG is below the minimum size for a %.0fV circuit over 15A", c.Gauge, spec.Voltage),
			Severity:    schema.SeverityError,
			Remediation: fmt.Sprintf("use 12 AWG or larger%s", minimumGaugeHint(spec)),
		})
	}

	if w, flag := aluminumCaveat(c, spec); flag {
		out = append(out, w)
	}

	derated := nec.DeratedAmpacity(base, spec.Derating)
	if derated < adjusted {
		out = append(out, schema.Violation{
			Code:        schema.CodeAmpacityExceeded,
			Section:     sectionAmpacity,
			Description: fmt.Sprintf("%s AWG carries %.1fA after derating; circuit requires %.1fA", c.Gauge, derated, adjusted),
			Severity:    schema.SeverityError,
			Remediation: fmt.Sprintf("increase conductor size%s", minimumGaugeHint(spec)),
			Calculation: &schema.Calculation{Actual: derated, Required: adjusted, Unit: "A"},
		})
	}

	_, dropPct := voltageDrop(k, spec, c)
	if dropPct > spec.MaxVoltageDropPct {
		out = append(out, schema.Violation{
			Code:        schema.CodeVoltageDropExceeded,
			Section:     sectionVoltageDrop,
			Description: fmt.Sprintf("voltage drop %.2f%% exceeds the %.2f%% limit on %s AWG", dropPct, spec.MaxVoltageDropPct, c.Gauge),
			Severity:    schema.SeverityError,
			Remediation: fmt.Sprintf("increase conductor size or shorten the run%s", minimumGaugeHint(spec)),
			Calculation: &schema.Calculation{Actual: dropPct, Required: spec.MaxVoltageDropPct, Unit: "%"},
		})
	}

	return out
}

// checkSpec validates input shape. Failures are reported as error-severity
// violations with a dedicated code, never as Go errors.
func checkSpec(spec schema.CircuitSpec) (schema.Violation, bool) {
	var reason string
	switch {
	case spec.LoadAmps < 0:
		reason = fmt.Sprintf("load amps must be non-negative, got %.2f", spec.LoadAmps)
	case spec.Voltage <= 0:
		reason = fmt.Sprintf("nominal voltage must be positive, got %.2f", spec.Voltage)
	case spec.LengthFt < 0:
		reason = fmt.Sprintf("run length must be non-negative, got %.2f", spec.LengthFt)
	case spec.MaxVoltageDropPct <= 0:
		reason = fmt.Sprintf("max voltage drop percent must be positive, got %.2f", spec.MaxVoltageDropPct)
	default:
		if _, ok := nec.KConstant(spec.Material); !ok {
			reason = fmt.Sprintf("unknown conductor material %q", spec.Material)
		} else if spec.TempRating != schema.TempRating60 && spec.TempRating != schema.TempRating75 && spec.TempRating != schema.TempRating90 {
			reason = fmt.Sprintf("unknown temperature rating %d", spec.TempRating)
		}
	}
	if reason == "" {
		return schema.Violation{}, true
	}
	return schema.Violation{
		Code:        schema.CodeInvalidSpec,
		Section:     sectionAmpacity,
		Description: "invalid circuit specification: " + reason,
		Severity:    schema.SeverityError,
		Remediation: "correct the circuit parameters and re-run the check",
	}, false
}

// voltageDrop computes Vdrop = 2*K*I*L/CM and its percentage of nominal
// voltage. A zero-length run is valid and drops nothing.
func voltageDrop(k float64, spec schema.CircuitSpec, c *nec.Conductor) (drop, pct float64) {
	if spec.LengthFt == 0 {
		return 0, 0
	}
	drop = 2 * k * spec.LoadAmps * spec.LengthFt / c.CircularMils
	pct = drop / spec.Voltage * 100
	return drop, pct
}

// belowMinimumSize applies the 12 AWG hard floor for 240V circuits above
// 15A.
func belowMinimumSize(c *nec.Conductor, spec schema.CircuitSpec) bool {
	return spec.Voltage >= 240 && spec.LoadAmps > 15 &&
		nec.GaugeIndex(c.Gauge) < nec.GaugeIndex("12")
}

// aluminumCaveat flags aluminum conductors smaller than 10 AWG. Code
// permits them with caveats, so this is a warning, not an exclusion.
func aluminumCaveat(c *nec.Conductor, spec schema.CircuitSpec) (schema.Violation, bool) {
	if spec.Material != schema.MaterialAluminum || nec.GaugeIndex(c.Gauge) >= nec.GaugeIndex("10") {
		return schema.Violation{}, false
	}
	return schema.Violation{
		Code:        schema.CodeAluminumSmallGauge,
		Section:     sectionAluminum,
		Description: fmt.Sprintf("aluminum conductor %s AWG is smaller than 10 AWG; verify terminations are rated for aluminum", c.Gauge),
		Severity:    schema.SeverityWarning,
		Remediation: "use copper, or confirm AL-rated terminations and anti-oxidant compound",
	}, true
}

// minimumGaugeHint re-solves the circuit to name the smallest compliant
// gauge in remediation text; empty when no gauge qualifies.
func minimumGaugeHint(spec schema.CircuitSpec) string {
	res := Solve(spec)
	if !res.Compliant {
		return ""
	}
	return fmt.Sprintf(" (minimum compliant size: %s AWG)", res.Gauge)
}

// exhausted builds the fallback result when no gauge qualifies: the
// largest table entry, tagged non-compliant, with the violations that
// apply to that gauge attached. The caller always receives a usable
// recommendation.
func exhausted(spec schema.CircuitSpec, adjusted, k float64) *schema.WireSizingResult {
	c := nec.LargestGauge()
	base, _ := c.Ampacity(spec.Material, spec.TempRating)
	derated := nec.DeratedAmpacity(base, spec.Derating)
	drop, dropPct := voltageDrop(k, spec, c)

	var violations []schema.Violation
	if w, flag := aluminumCaveat(c, spec); flag {
		violations = append(violations, w)
	}
	violations = append(violations, schema.Violation{
		Code:        schema.CodeTableExhausted,
		Section:     sectionAmpacity,
		Description: fmt.Sprintf("no standard conductor size satisfies %.1fA at %.2f%% max voltage drop over %.0fft", adjusted, spec.MaxVoltageDropPct, spec.LengthFt),
		Severity:    schema.SeverityError,
		Remediation: "split the load across multiple circuits or use parallel conductors",
	})
	if derated < adjusted {
		violations = append(violations, schema.Violation{
			Code:        schema.CodeAmpacityExceeded,
			Section:     sectionAmpacity,
			Description: fmt.Sprintf("largest gauge %s carries %.1fA after derating; circuit requires %.1fA", c.Gauge, derated, adjusted),
			Severity:    schema.SeverityError,
			Calculation: &schema.Calculation{Actual: derated, Required: adjusted, Unit: "A"},
		})
	}
	if dropPct > spec.MaxVoltageDropPct {
		violations = append(violations, schema.Violation{
			Code:        schema.CodeVoltageDropExceeded,
			Section:     sectionVoltageDrop,
			Description: fmt.Sprintf("voltage drop %.2f%% exceeds the %.2f%% limit on %s", dropPct, spec.MaxVoltageDropPct, c.Gauge),
			Severity:    schema.SeverityError,
			Calculation: &schema.Calculation{Actual: dropPct, Required: spec.MaxVoltageDropPct, Unit: "%"},
		})
	}

	return &schema.WireSizingResult{
		Gauge:           c.Gauge,
		BaseAmpacity:    base,
		DeratedAmpacity: derated,
		AdjustedLoad:    adjusted,
		VoltageDrop:     drop,
		VoltageDropPct:  dropPct,
		BreakerAmps:     nec.NextStandardBreaker(adjusted),
		Compliant:       false,
		Violations:      violations,
	}
}
