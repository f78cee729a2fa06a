package models

// Role is a persona that decides which widgets appear on which dashboard.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleOperator  Role = "operator"
	RoleExecutive Role = "executive"
	RoleSecurity  Role = "security"
)

// AllRoles lists every role in dashboard display order.
func AllRoles() []Role {
	return []Role{RoleDeveloper, RoleOperator, RoleExecutive, RoleSecurity}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleOperator, RoleExecutive, RoleSecurity:
		return true
	}
	return false
}

// WidgetView is how a widget is drawn by the backend.
type WidgetView string

const (
	ViewTimeSeries  WidgetView = "time-series"
	ViewSingleValue WidgetView = "single-value"
	ViewGauge       WidgetView = "gauge"
	ViewLogQuery    WidgetView = "log-query"
)

// MetricRef points a widget at one backend metric.
type MetricRef struct {
	Namespace  string     `yaml:"namespace" json:"namespace"`
	Metric     string     `yaml:"metric" json:"metric"`
	Dimensions Dimensions `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Statistic  string     `yaml:"statistic,omitempty" json:"statistic,omitempty"`
	Label      string     `yaml:"label,omitempty" json:"label,omitempty"`
}

// Layout holds sizing hints on a 24-column grid.
type Layout struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Position is where a widget lands on the grid after rendering.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// WidgetSpec is the declarative description of one dashboard panel.
type WidgetSpec struct {
	Title        string       `yaml:"title" json:"title"`
	Role         Role         `yaml:"role" json:"role"`
	Kind         string       `yaml:"kind" json:"kind"`
	View         WidgetView   `yaml:"view" json:"view"`
	ResourceType ResourceType `yaml:"resource_type" json:"resource_type"`
	ResourceID   string       `yaml:"resource_id" json:"resource_id"`
	MetricRefs   []MetricRef  `yaml:"metric_refs,omitempty" json:"metric_refs,omitempty"`
	Query        string       `yaml:"query,omitempty" json:"query,omitempty"`
	Layout       Layout       `yaml:"layout" json:"layout"`
	Position     Position     `yaml:"position" json:"position"`
}

// Clone returns a deep copy of w.
func (w WidgetSpec) Clone() WidgetSpec {
	out := w
	if w.MetricRefs != nil {
		out.MetricRefs = make([]MetricRef, len(w.MetricRefs))
		for i, ref := range w.MetricRefs {
			ref.Dimensions = ref.Dimensions.Clone()
			out.MetricRefs[i] = ref
		}
	}
	return out
}

// RoleDashboard is the ordered widget list shown to one role.
type RoleDashboard struct {
	Role     Role         `yaml:"role" json:"role"`
	Name     string       `yaml:"name" json:"name"`
	Widgets  []WidgetSpec `yaml:"widgets" json:"widgets"`
	Revision int          `yaml:"revision" json:"revision"`
}

// Clone returns a deep copy of d.
func (d RoleDashboard) Clone() RoleDashboard {
	out := d
	out.Widgets = make([]WidgetSpec, len(d.Widgets))
	for i, w := range d.Widgets {
		out.Widgets[i] = w.Clone()
	}
	return out
}
