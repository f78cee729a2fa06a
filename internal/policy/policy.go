// Package policy holds the static tuning tables that alarm resolution
// merges: one baseline per environment and one strictness level per
// severity. The tables are versioned data and carry no behaviour beyond
// lookup.
package policy

import "github.com/valter-silva-au/obsforge/pkg/models"

// Version identifies the current revision of the tables. Bump it whenever
// a value changes so synthesized output can be traced to a table revision.
const Version = "2024-11.1"

// Layer is one precedence layer of alarm tuning. Nil fields are unset and
// leave the value to other layers.
type Layer struct {
	EvaluationPeriods *int
	DatapointsToAlarm *int
	MissingData       *models.MissingDataTreatment
	Enabled           *bool
}

// EnvironmentPolicy is the baseline tuning for one environment.
type EnvironmentPolicy struct {
	Layer

	// ThresholdScale relaxes catalog thresholds; 1.0 keeps the production
	// default, larger values move the threshold away from the alarm side.
	ThresholdScale float64
}

// SeverityPolicy is the evaluation strictness for one severity.
type SeverityPolicy struct {
	Layer
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func missingp(v models.MissingDataTreatment) *models.MissingDataTreatment { return &v }

var environments = map[models.Environment]EnvironmentPolicy{
	models.EnvProd: {
		Layer: Layer{
			EvaluationPeriods: intp(2),
			DatapointsToAlarm: intp(2),
			MissingData:       missingp(models.MissingDataNotBreaching),
			Enabled:           boolp(true),
		},
		ThresholdScale: 1.0,
	},
	models.EnvStaging: {
		Layer: Layer{
			EvaluationPeriods: intp(3),
			DatapointsToAlarm: intp(2),
			MissingData:       missingp(models.MissingDataNotBreaching),
			Enabled:           boolp(true),
		},
		ThresholdScale: 1.25,
	},
	models.EnvDev: {
		Layer: Layer{
			EvaluationPeriods: intp(5),
			DatapointsToAlarm: intp(3),
			MissingData:       missingp(models.MissingDataIgnore),
			Enabled:           boolp(false),
		},
		ThresholdScale: 1.5,
	},
}

var severities = map[models.Severity]SeverityPolicy{
	models.SeverityCritical: {Layer: Layer{
		EvaluationPeriods: intp(1),
		DatapointsToAlarm: intp(1),
		MissingData:       missingp(models.MissingDataBreaching),
		Enabled:           boolp(true),
	}},
	models.SeverityWarning: {Layer: Layer{
		EvaluationPeriods: intp(3),
		DatapointsToAlarm: intp(2),
	}},
	models.SeverityInfo: {Layer: Layer{
		EvaluationPeriods: intp(5),
		DatapointsToAlarm: intp(3),
		MissingData:       missingp(models.MissingDataMissing),
	}},
}

// ForEnvironment returns the baseline for env.
func ForEnvironment(env models.Environment) (EnvironmentPolicy, bool) {
	p, ok := environments[env]
	if !ok {
		return EnvironmentPolicy{}, false
	}
	return EnvironmentPolicy{Layer: p.Layer.clone(), ThresholdScale: p.ThresholdScale}, true
}

// ForSeverity returns the strictness policy for sev.
func ForSeverity(sev models.Severity) (SeverityPolicy, bool) {
	p, ok := severities[sev]
	if !ok {
		return SeverityPolicy{}, false
	}
	return SeverityPolicy{Layer: p.Layer.clone()}, true
}

// SeverityWins reports whether the severity layer takes precedence over the
// environment layer. Critical alarms keep their strict window regardless of
// how lax the environment is; for everything else the environment decides.
func SeverityWins(sev models.Severity) bool {
	return sev == models.SeverityCritical
}

// ScaleThreshold relaxes a catalog default for env. Upward comparisons move
// the threshold up, downward comparisons move it down.
func ScaleThreshold(threshold float64, cmp models.ComparisonDirection, env EnvironmentPolicy) float64 {
	scale := env.ThresholdScale
	if scale <= 0 {
		scale = 1
	}
	if cmp.Upward() {
		return threshold * scale
	}
	return threshold / scale
}

// Apply overlays l onto base: every field set in l replaces the one in base.
func (l Layer) Apply(base Layer) Layer {
	out := base.clone()
	if l.EvaluationPeriods != nil {
		out.EvaluationPeriods = intp(*l.EvaluationPeriods)
	}
	if l.DatapointsToAlarm != nil {
		out.DatapointsToAlarm = intp(*l.DatapointsToAlarm)
	}
	if l.MissingData != nil {
		out.MissingData = missingp(*l.MissingData)
	}
	if l.Enabled != nil {
		out.Enabled = boolp(*l.Enabled)
	}
	return out
}

func (l Layer) clone() Layer {
	var out Layer
	if l.EvaluationPeriods != nil {
		out.EvaluationPeriods = intp(*l.EvaluationPeriods)
	}
	if l.DatapointsToAlarm != nil {
		out.DatapointsToAlarm = intp(*l.DatapointsToAlarm)
	}
	if l.MissingData != nil {
		out.MissingData = missingp(*l.MissingData)
	}
	if l.Enabled != nil {
		out.Enabled = boolp(*l.Enabled)
	}
	return out
}
