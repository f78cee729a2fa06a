package core

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/valter-silva-au/obsforge/internal/policy"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// AlarmCatalog supplies the alarm rows for a resource type.
type AlarmCatalog interface {
	Alarms(rt models.ResourceType) []models.AlarmCatalogEntry
}

// AlarmLookup finds an alarm that was already resolved and registered.
type AlarmLookup interface {
	Get(id string) (models.ResolvedAlarm, bool)
}

// ResolveOptions carries the coordinator-level settings the resolver needs.
type ResolveOptions struct {
	DefaultEnvironment  models.Environment
	AlarmsEnabled       *bool
	NamePrefix          string
	NotificationChannel string
}

// AlarmResolver turns a descriptor into its final alarm set.
type AlarmResolver interface {
	Resolve(desc models.ResourceDescriptor, catalog AlarmCatalog, overrides *models.AlarmOverrides) ([]models.ResolvedAlarm, error)
}

type alarmResolver struct {
	opts   ResolveOptions
	lookup AlarmLookup
}

// NewAlarmResolver creates an AlarmResolver. When lookup is non-nil, alarms
// whose id is already known are returned as-is instead of being recomputed.
func NewAlarmResolver(opts ResolveOptions, lookup AlarmLookup) AlarmResolver {
	return &alarmResolver{opts: opts, lookup: lookup}
}

// AlarmID derives the stable id of the alarm for one resource metric. Each
// segment is path-escaped, so distinct triples never share an id.
func AlarmID(rt models.ResourceType, identifier, metric string) string {
	return strings.Join([]string{
		url.PathEscape(string(rt)),
		url.PathEscape(identifier),
		url.PathEscape(metric),
	}, "/")
}

// AlarmName builds the human-facing alarm name.
func AlarmName(prefix, identifier, metric string) string {
	if prefix == "" {
		return identifier + "-" + metric
	}
	return prefix + "-" + identifier + "-" + metric
}

func (r *alarmResolver) Resolve(desc models.ResourceDescriptor, catalog AlarmCatalog, overrides *models.AlarmOverrides) ([]models.ResolvedAlarm, error) {
	entries := catalog.Alarms(desc.Type)
	if len(entries) == 0 {
		return nil, nil
	}

	env := desc.Environment
	if env == "" {
		env = r.opts.DefaultEnvironment
	}
	envPolicy, ok := policy.ForEnvironment(env)
	if !ok {
		return nil, &InvalidDescriptorError{ResourceID: desc.Identifier, Err: fmt.Errorf("unknown environment %q", env)}
	}

	if err := validateOverrides(desc.Identifier, entries, overrides); err != nil {
		return nil, err
	}

	// An explicit "off" only replaces the environment default.
	envLayer := envPolicy.Layer
	if r.opts.AlarmsEnabled != nil && !*r.opts.AlarmsEnabled {
		off := false
		envLayer.Enabled = &off
	}

	var alarms []models.ResolvedAlarm
	for _, entry := range entries {
		id := AlarmID(desc.Type, desc.Identifier, entry.MetricName)
		if r.lookup != nil {
			if existing, ok := r.lookup.Get(id); ok {
				alarms = append(alarms, existing)
				continue
			}
		}

		sevPolicy, ok := policy.ForSeverity(entry.Severity)
		if !ok {
			return nil, fmt.Errorf("resolving %s alarm %q: no policy for severity %q", desc.Type, entry.MetricName, entry.Severity)
		}

		var merged policy.Layer
		if policy.SeverityWins(entry.Severity) {
			merged = sevPolicy.Layer.Apply(envLayer)
		} else {
			merged = envLayer.Apply(sevPolicy.Layer)
		}

		ov := effectiveOverride(overrides, entry)
		merged = overrideLayer(ov).Apply(merged)

		enabled := merged.Enabled == nil || *merged.Enabled
		if r.opts.AlarmsEnabled != nil && *r.opts.AlarmsEnabled {
			enabled = true
		}
		if !enabled {
			continue
		}

		threshold := policy.ScaleThreshold(entry.DefaultThreshold, entry.Comparison, envPolicy)
		if ov.Threshold != nil {
			threshold = *ov.Threshold
		}

		periods := derefInt(merged.EvaluationPeriods, 1)
		if ov.DatapointsToAlarm != nil && ov.EvaluationPeriods == nil && *ov.DatapointsToAlarm > periods {
			return nil, &InvalidOverrideError{
				ResourceID: desc.Identifier,
				Field:      datapointsScope(overrides, entry) + ".datapoints_to_alarm",
				Reason:     fmt.Sprintf("%d exceeds the %d evaluation periods of alarm %q", *ov.DatapointsToAlarm, periods, entry.MetricName),
			}
		}
		datapoints := derefInt(merged.DatapointsToAlarm, periods)
		if datapoints > periods {
			datapoints = periods
		}
		missing := models.MissingDataMissing
		if merged.MissingData != nil {
			missing = *merged.MissingData
		}

		dims := desc.Binding(entry.MetricName).Clone()
		if len(dims) == 0 {
			dims = models.Dimensions{entry.DimensionKey: desc.Identifier}
		}

		alarms = append(alarms, models.ResolvedAlarm{
			ID:                  id,
			Name:                AlarmName(r.opts.NamePrefix, desc.Identifier, entry.MetricName),
			ResourceType:        desc.Type,
			ResourceID:          desc.Identifier,
			Environment:         env,
			MetricName:          entry.MetricName,
			Namespace:           entry.Namespace,
			BackendMetric:       entry.BackendMetric,
			Dimensions:          dims,
			Statistic:           entry.Statistic,
			PeriodSeconds:       entry.PeriodSeconds,
			Threshold:           threshold,
			Comparison:          entry.Comparison,
			EvaluationPeriods:   periods,
			DatapointsToAlarm:   datapoints,
			MissingData:         missing,
			Severity:            entry.Severity,
			Enabled:             true,
			Description:         entry.Description,
			NotificationChannel: r.opts.NotificationChannel,
			Tags:                cloneTags(desc.Tags),
		})
	}

	return alarms, nil
}

// effectiveOverride folds the override scopes for one entry:
// global, then per-severity, then per-metric.
func effectiveOverride(overrides *models.AlarmOverrides, entry models.AlarmCatalogEntry) models.AlarmOverride {
	var out models.AlarmOverride
	if overrides == nil {
		return out
	}
	if overrides.Global != nil {
		out = mergeOverride(out, *overrides.Global)
	}
	if ov, ok := overrides.BySeverity[entry.Severity]; ok {
		out = mergeOverride(out, ov)
	}
	if ov, ok := overrides.ByMetric[entry.MetricName]; ok {
		out = mergeOverride(out, ov)
	}
	return out
}

// datapointsScope names the most specific scope that set datapoints for entry.
func datapointsScope(overrides *models.AlarmOverrides, entry models.AlarmCatalogEntry) string {
	if ov, ok := overrides.ByMetric[entry.MetricName]; ok && ov.DatapointsToAlarm != nil {
		return fmt.Sprintf("by_metric[%s]", entry.MetricName)
	}
	if ov, ok := overrides.BySeverity[entry.Severity]; ok && ov.DatapointsToAlarm != nil {
		return fmt.Sprintf("by_severity[%s]", entry.Severity)
	}
	return "global"
}

func mergeOverride(base, top models.AlarmOverride) models.AlarmOverride {
	if top.Threshold != nil {
		base.Threshold = top.Threshold
	}
	if top.EvaluationPeriods != nil {
		base.EvaluationPeriods = top.EvaluationPeriods
	}
	if top.DatapointsToAlarm != nil {
		base.DatapointsToAlarm = top.DatapointsToAlarm
	}
	if top.MissingData != nil {
		base.MissingData = top.MissingData
	}
	if top.Enabled != nil {
		base.Enabled = top.Enabled
	}
	return base
}

func overrideLayer(ov models.AlarmOverride) policy.Layer {
	return policy.Layer{
		EvaluationPeriods: ov.EvaluationPeriods,
		DatapointsToAlarm: ov.DatapointsToAlarm,
		MissingData:       ov.MissingData,
		Enabled:           ov.Enabled,
	}
}

// validateOverrides rejects overrides that reference unknown keys or carry
// values the backend would refuse.
func validateOverrides(resourceID string, entries []models.AlarmCatalogEntry, overrides *models.AlarmOverrides) error {
	if overrides == nil {
		return nil
	}

	if overrides.Global != nil {
		if err := validateOverride(resourceID, "global", *overrides.Global); err != nil {
			return err
		}
	}

	sevKeys := make([]string, 0, len(overrides.BySeverity))
	for sev := range overrides.BySeverity {
		sevKeys = append(sevKeys, string(sev))
	}
	sort.Strings(sevKeys)
	for _, key := range sevKeys {
		sev := models.Severity(key)
		ov := overrides.BySeverity[sev]
		field := fmt.Sprintf("by_severity[%s]", sev)
		if !sev.Valid() {
			return &InvalidOverrideError{ResourceID: resourceID, Field: field, Reason: "unknown severity key"}
		}
		if err := validateOverride(resourceID, field, ov); err != nil {
			return err
		}
	}

	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.MetricName] = true
	}
	metricKeys := make([]string, 0, len(overrides.ByMetric))
	for metric := range overrides.ByMetric {
		metricKeys = append(metricKeys, metric)
	}
	sort.Strings(metricKeys)
	for _, metric := range metricKeys {
		ov := overrides.ByMetric[metric]
		field := fmt.Sprintf("by_metric[%s]", metric)
		if !known[metric] {
			return &InvalidOverrideError{ResourceID: resourceID, Field: field, Reason: "unknown metric key"}
		}
		if err := validateOverride(resourceID, field, ov); err != nil {
			return err
		}
	}

	return nil
}

func validateOverride(resourceID, field string, ov models.AlarmOverride) error {
	fail := func(sub, reason string) error {
		return &InvalidOverrideError{ResourceID: resourceID, Field: field + "." + sub, Reason: reason}
	}

	if ov.Threshold != nil {
		v := *ov.Threshold
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail("threshold", "must be a finite number")
		}
		if v < 0 {
			return fail("threshold", fmt.Sprintf("must be non-negative, got %v", v))
		}
	}
	if ov.EvaluationPeriods != nil && *ov.EvaluationPeriods < 1 {
		return fail("evaluation_periods", fmt.Sprintf("must be at least 1, got %d", *ov.EvaluationPeriods))
	}
	if ov.DatapointsToAlarm != nil && *ov.DatapointsToAlarm < 1 {
		return fail("datapoints_to_alarm", fmt.Sprintf("must be at least 1, got %d", *ov.DatapointsToAlarm))
	}
	if ov.EvaluationPeriods != nil && ov.DatapointsToAlarm != nil && *ov.DatapointsToAlarm > *ov.EvaluationPeriods {
		return fail("datapoints_to_alarm", "must not exceed evaluation_periods")
	}
	if ov.MissingData != nil && !ov.MissingData.Valid() {
		return fail("missing_data", fmt.Sprintf("unknown treatment %q", *ov.MissingData))
	}
	return nil
}

func derefInt(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
