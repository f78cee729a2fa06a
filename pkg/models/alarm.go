package models

// Severity classifies how strict an alarm's evaluation window is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AllSeverities lists the severities from most to least urgent.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityWarning, SeverityInfo}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Rank orders severities for display: critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// ComparisonDirection is how a datapoint is compared with the threshold.
type ComparisonDirection string

const (
	GreaterThanThreshold          ComparisonDirection = "GreaterThanThreshold"
	GreaterThanOrEqualToThreshold ComparisonDirection = "GreaterThanOrEqualToThreshold"
	LessThanThreshold             ComparisonDirection = "LessThanThreshold"
	LessThanOrEqualToThreshold    ComparisonDirection = "LessThanOrEqualToThreshold"
)

// Upward reports whether the alarm fires on values above the threshold.
func (c ComparisonDirection) Upward() bool {
	return c == GreaterThanThreshold || c == GreaterThanOrEqualToThreshold
}

// MissingDataTreatment tells the backend how to treat gaps in the metric.
type MissingDataTreatment string

const (
	MissingDataBreaching    MissingDataTreatment = "breaching"
	MissingDataNotBreaching MissingDataTreatment = "notBreaching"
	MissingDataIgnore       MissingDataTreatment = "ignore"
	MissingDataMissing      MissingDataTreatment = "missing"
)

// Valid reports whether m is a known treatment.
func (m MissingDataTreatment) Valid() bool {
	switch m {
	case MissingDataBreaching, MissingDataNotBreaching, MissingDataIgnore, MissingDataMissing:
		return true
	}
	return false
}

// AlarmCatalogEntry is the static definition of one alarm for a resource type.
type AlarmCatalogEntry struct {
	MetricName       string              `yaml:"metric_name" json:"metric_name"`
	Namespace        string              `yaml:"namespace" json:"namespace"`
	BackendMetric    string              `yaml:"backend_metric" json:"backend_metric"`
	Statistic        string              `yaml:"statistic" json:"statistic"`
	PeriodSeconds    int                 `yaml:"period_seconds" json:"period_seconds"`
	Comparison       ComparisonDirection `yaml:"comparison" json:"comparison"`
	DefaultThreshold float64             `yaml:"default_threshold" json:"default_threshold"`
	Severity         Severity            `yaml:"severity" json:"severity"`
	Description      string              `yaml:"description,omitempty" json:"description,omitempty"`

	// DimensionKey names the dimension filled with the resource identifier
	// when the descriptor carries no binding for this metric.
	DimensionKey string `yaml:"dimension_key" json:"dimension_key"`
}

// AlarmOverride adjusts a resolved alarm. Nil fields leave lower layers untouched.
// DatapointsToAlarm set without EvaluationPeriods must fit the periods the
// policy layers resolve to. When a narrower scope lowers EvaluationPeriods
// below a wider scope's datapoints, datapoints are clamped to the periods.
type AlarmOverride struct {
	Threshold         *float64              `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	EvaluationPeriods *int                  `yaml:"evaluation_periods,omitempty" json:"evaluation_periods,omitempty"`
	DatapointsToAlarm *int                  `yaml:"datapoints_to_alarm,omitempty" json:"datapoints_to_alarm,omitempty"`
	MissingData       *MissingDataTreatment `yaml:"missing_data,omitempty" json:"missing_data,omitempty"`
	Enabled           *bool                 `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// AlarmOverrides groups caller overrides by scope.
// Precedence, lowest first: Global, BySeverity, ByMetric.
type AlarmOverrides struct {
	Global     *AlarmOverride             `yaml:"global,omitempty" json:"global,omitempty"`
	BySeverity map[Severity]AlarmOverride `yaml:"by_severity,omitempty" json:"by_severity,omitempty"`
	ByMetric   map[string]AlarmOverride   `yaml:"by_metric,omitempty" json:"by_metric,omitempty"`
}

// ResolvedAlarm is the final alarm configuration handed to the backend.
// It is never mutated after creation.
type ResolvedAlarm struct {
	ID                  string               `yaml:"id" json:"id"`
	Name                string               `yaml:"name" json:"name"`
	ResourceType        ResourceType         `yaml:"resource_type" json:"resource_type"`
	ResourceID          string               `yaml:"resource_id" json:"resource_id"`
	Environment         Environment          `yaml:"environment" json:"environment"`
	MetricName          string               `yaml:"metric_name" json:"metric_name"`
	Namespace           string               `yaml:"namespace" json:"namespace"`
	BackendMetric       string               `yaml:"backend_metric" json:"backend_metric"`
	Dimensions          Dimensions           `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Statistic           string               `yaml:"statistic" json:"statistic"`
	PeriodSeconds       int                  `yaml:"period_seconds" json:"period_seconds"`
	Threshold           float64              `yaml:"threshold" json:"threshold"`
	Comparison          ComparisonDirection  `yaml:"comparison" json:"comparison"`
	EvaluationPeriods   int                  `yaml:"evaluation_periods" json:"evaluation_periods"`
	DatapointsToAlarm   int                  `yaml:"datapoints_to_alarm" json:"datapoints_to_alarm"`
	MissingData         MissingDataTreatment `yaml:"missing_data" json:"missing_data"`
	Severity            Severity             `yaml:"severity" json:"severity"`
	Enabled             bool                 `yaml:"enabled" json:"enabled"`
	Description         string               `yaml:"description,omitempty" json:"description,omitempty"`
	NotificationChannel string               `yaml:"notification_channel,omitempty" json:"notification_channel,omitempty"`
	Tags                map[string]string    `yaml:"tags,omitempty" json:"tags,omitempty"`
}
