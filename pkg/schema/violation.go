package schema

// Severity classifies a violation's impact on compliance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RuleCategory groups rules by the scope they inspect.
type RuleCategory string

const (
	CategoryComponent  RuleCategory = "component"
	CategoryConnection RuleCategory = "connection"
	CategorySystem     RuleCategory = "system"
)

// Calculation carries the numbers behind a violation for traceability.
type Calculation struct {
	Actual   float64 `json:"actual"`
	Required float64 `json:"required"`
	Unit     string  `json:"unit,omitempty"`
}

// Violation is a single code-compliance finding. Rules tag violations with
// the component or connection they pertain to; the evaluator buckets on
// those IDs, never on text matching.
type Violation struct {
	Code         string       `json:"code"`
	Section      string       `json:"section"`
	Description  string       `json:"description"`
	Severity     Severity     `json:"severity"`
	Remediation  string       `json:"remediation,omitempty"`
	ComponentID  string       `json:"component_id,omitempty"`
	ConnectionID string       `json:"connection_id,omitempty"`
	Calculation  *Calculation `json:"calculation,omitempty"`
}

// Violation codes emitted by the built-in rule base and solver.
const (
	CodeAmpacityExceeded     = "AMPACITY_EXCEEDED"
	CodeVoltageDropExceeded  = "VOLTAGE_DROP_EXCEEDED"
	CodeMinWireSize          = "MIN_WIRE_SIZE"
	CodeAluminumSmallGauge   = "ALUMINUM_SMALL_GAUGE"
	CodeTableExhausted       = "WIRE_TABLE_EXHAUSTED"
	CodeInvalidSpec          = "INVALID_SPEC"
	CodeMissingDisconnect    = "MISSING_SERVICE_DISCONNECT"
	CodeMissingGrounding     = "MISSING_GROUNDING_ELECTRODE"
	CodeMissingRapidShutdown = "MISSING_RAPID_SHUTDOWN"
	CodeEVSEUndersized       = "EVSE_BRANCH_UNDERSIZED"
	CodeWireColorConvention  = "WIRE_COLOR_CONVENTION"
	CodeBusOverload120       = "BUS_120_PERCENT"
	CodeBreakerNonStandard   = "BREAKER_NON_STANDARD"
	CodeUnlabeledComponent   = "UNLABELED_COMPONENT"
	CodeDanglingConnection   = "DANGLING_CONNECTION"
	CodeServiceCapacity      = "SERVICE_CAPACITY_EXCEEDED"
	CodeCustomRule           = "CUSTOM_RULE"
)

// IsError reports whether the violation blocks compliance.
func (v Violation) IsError() bool {
	return v.Severity == SeverityError
}
