package schema

// ComponentType identifies the electrical role of a diagram component.
type ComponentType string

const (
	ComponentPVArray            ComponentType = "pv_array"
	ComponentInverter           ComponentType = "inverter"
	ComponentMainPanel          ComponentType = "main_panel"
	ComponentSubPanel           ComponentType = "sub_panel"
	ComponentBreaker            ComponentType = "breaker"
	ComponentDisconnect         ComponentType = "disconnect"
	ComponentMeter              ComponentType = "meter"
	ComponentGroundingElectrode ComponentType = "grounding_electrode"
	ComponentRapidShutdown      ComponentType = "rapid_shutdown"
	ComponentEVSECharger        ComponentType = "evse_charger"
	ComponentBattery            ComponentType = "battery"
	ComponentLoad               ComponentType = "load"
)

// Component is a single element of a single-line diagram. Spec carries the
// raw string-keyed specification supplied by the editing layer; typed access
// goes through the boundary parser, never through raw map reads in rules.
type Component struct {
	ID    string         `json:"id"`
	Type  ComponentType  `json:"type"`
	Name  string         `json:"name,omitempty"`
	Label string         `json:"label,omitempty"`
	Spec  map[string]any `json:"spec,omitempty"`
}

// Connection is a wiring run between two components.
type Connection struct {
	ID     string         `json:"id"`
	FromID string         `json:"from_id"`
	ToID   string         `json:"to_id"`
	Spec   map[string]any `json:"spec,omitempty"`
}

// Diagram is a snapshot of a single-line diagram: plain data, owned by the
// caller. The engine only reads it.
type Diagram struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Components  []Component  `json:"components"`
	Connections []Connection `json:"connections"`
}

// ComponentsOfType returns all components matching the given type, in
// diagram order.
func (d *Diagram) ComponentsOfType(t ComponentType) []Component {
	var out []Component
	for _, c := range d.Components {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// HasComponentType reports whether at least one component of the given type
// is present.
func (d *Diagram) HasComponentType(t ComponentType) bool {
	for _, c := range d.Components {
		if c.Type == t {
			return true
		}
	}
	return false
}

// ComponentByID returns the component with the given ID, or nil.
func (d *Diagram) ComponentByID(id string) *Component {
	for i := range d.Components {
		if d.Components[i].ID == id {
			return &d.Components[i]
		}
	}
	return nil
}

// LoadContext carries optional aggregate load data supplied by the caller
// alongside a diagram (service size, total connected load).
type LoadContext struct {
	ServiceAmps    float64 `json:"service_amps,omitempty"`
	TotalLoadAmps  float64 `json:"total_load_amps,omitempty"`
	ContinuousAmps float64 `json:"continuous_amps,omitempty"`
}
