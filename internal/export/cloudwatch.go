// Package export converts resolved alarms and role dashboards into the
// request shapes of the CloudWatch API. It builds inputs only; nothing here
// calls AWS.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// DefaultRegion is used in dashboard bodies when no region is configured.
const DefaultRegion = "us-east-1"

// Tag keys added to every exported alarm.
const (
	TagAlarmID     = "obsforge:alarm-id"
	TagSeverity    = "obsforge:severity"
	TagEnvironment = "obsforge:environment"
)

var standardStatistics = map[string]types.Statistic{
	"SampleCount": types.StatisticSampleCount,
	"Average":     types.StatisticAverage,
	"Sum":         types.StatisticSum,
	"Minimum":     types.StatisticMinimum,
	"Maximum":     types.StatisticMaximum,
}

var comparisonOperators = map[models.ComparisonDirection]types.ComparisonOperator{
	models.GreaterThanThreshold:          types.ComparisonOperatorGreaterThanThreshold,
	models.GreaterThanOrEqualToThreshold: types.ComparisonOperatorGreaterThanOrEqualToThreshold,
	models.LessThanThreshold:             types.ComparisonOperatorLessThanThreshold,
	models.LessThanOrEqualToThreshold:    types.ComparisonOperatorLessThanOrEqualToThreshold,
}

// MetricAlarmInput converts a resolved alarm into a PutMetricAlarm request.
// Percentile statistics such as "p99" become extended statistics.
func MetricAlarmInput(a models.ResolvedAlarm) (*cloudwatch.PutMetricAlarmInput, error) {
	op, ok := comparisonOperators[a.Comparison]
	if !ok {
		return nil, fmt.Errorf("alarm %s: unsupported comparison %q", a.ID, a.Comparison)
	}

	in := &cloudwatch.PutMetricAlarmInput{
		AlarmName:          aws.String(a.Name),
		AlarmDescription:   aws.String(a.Description),
		Namespace:          aws.String(a.Namespace),
		MetricName:         aws.String(a.BackendMetric),
		Dimensions:         dimensions(a.Dimensions),
		Period:             aws.Int32(int32(a.PeriodSeconds)),
		EvaluationPeriods:  aws.Int32(int32(a.EvaluationPeriods)),
		DatapointsToAlarm:  aws.Int32(int32(a.DatapointsToAlarm)),
		Threshold:          aws.Float64(a.Threshold),
		ComparisonOperator: op,
		TreatMissingData:   aws.String(string(a.MissingData)),
		ActionsEnabled:     aws.Bool(a.Enabled && a.NotificationChannel != ""),
		Tags:               alarmTags(a),
	}

	if stat, ok := standardStatistics[a.Statistic]; ok {
		in.Statistic = stat
	} else if isPercentile(a.Statistic) {
		in.ExtendedStatistic = aws.String(a.Statistic)
	} else {
		return nil, fmt.Errorf("alarm %s: unsupported statistic %q", a.ID, a.Statistic)
	}

	if a.NotificationChannel != "" {
		in.AlarmActions = []string{a.NotificationChannel}
		in.OKActions = []string{a.NotificationChannel}
	}

	return in, nil
}

// MetricAlarmInputs converts every alarm, stopping at the first failure.
func MetricAlarmInputs(alarms []models.ResolvedAlarm) ([]*cloudwatch.PutMetricAlarmInput, error) {
	out := make([]*cloudwatch.PutMetricAlarmInput, 0, len(alarms))
	for _, a := range alarms {
		in, err := MetricAlarmInput(a)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func dimensions(d models.Dimensions) []types.Dimension {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Dimension{Name: aws.String(k), Value: aws.String(d[k])})
	}
	return out
}

func alarmTags(a models.ResolvedAlarm) []types.Tag {
	tags := map[string]string{
		TagAlarmID:     a.ID,
		TagSeverity:    string(a.Severity),
		TagEnvironment: string(a.Environment),
	}
	for k, v := range a.Tags {
		if _, reserved := tags[k]; !reserved {
			tags[k] = v
		}
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func isPercentile(stat string) bool {
	if !strings.HasPrefix(stat, "p") || len(stat) < 2 {
		return false
	}
	for _, r := range stat[1:] {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// dashboardBody is the JSON document CloudWatch expects in DashboardBody.
type dashboardBody struct {
	Widgets []dashboardWidget `json:"widgets"`
}

type dashboardWidget struct {
	Type       string           `json:"type"`
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Properties widgetProperties `json:"properties"`
}

type widgetProperties struct {
	Title   string  `json:"title"`
	Region  string  `json:"region"`
	View    string  `json:"view,omitempty"`
	Metrics [][]any `json:"metrics,omitempty"`
	Query   string  `json:"query,omitempty"`
	YAxis   *yAxis  `json:"yAxis,omitempty"`
}

type yAxis struct {
	Left axisRange `json:"left"`
}

type axisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var cloudwatchViews = map[models.WidgetView]string{
	models.ViewTimeSeries:  "timeSeries",
	models.ViewSingleValue: "singleValue",
	models.ViewGauge:       "gauge",
	models.ViewLogQuery:    "table",
}

// DashboardBody renders d as a CloudWatch dashboard body.
func DashboardBody(d models.RoleDashboard, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}

	body := dashboardBody{Widgets: make([]dashboardWidget, 0, len(d.Widgets))}
	for _, w := range d.Widgets {
		view, ok := cloudwatchViews[w.View]
		if !ok {
			return "", fmt.Errorf("dashboard %s: widget %q has unsupported view %q", d.Name, w.Title, w.View)
		}

		cw := dashboardWidget{
			Type:   "metric",
			X:      w.Position.X,
			Y:      w.Position.Y,
			Width:  w.Layout.Width,
			Height: w.Layout.Height,
			Properties: widgetProperties{
				Title:  w.Title,
				Region: region,
				View:   view,
			},
		}

		switch w.View {
		case models.ViewLogQuery:
			cw.Type = "log"
			cw.Properties.Query = w.Query
		case models.ViewGauge:
			cw.Properties.YAxis = &yAxis{Left: axisRange{Min: 0, Max: 100}}
			cw.Properties.Metrics = metricRows(w.MetricRefs)
		default:
			cw.Properties.Metrics = metricRows(w.MetricRefs)
		}

		body.Widgets = append(body.Widgets, cw)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshalling dashboard %s: %w", d.Name, err)
	}
	return string(data), nil
}

// metricRows builds the CloudWatch metric array form:
// [namespace, metric, dimName, dimValue, ..., {options}].
func metricRows(refs []models.MetricRef) [][]any {
	rows := make([][]any, 0, len(refs))
	for _, ref := range refs {
		row := []any{ref.Namespace, ref.Metric}
		for _, dim := range dimensions(ref.Dimensions) {
			row = append(row, aws.ToString(dim.Name), aws.ToString(dim.Value))
		}
		opts := map[string]string{}
		if ref.Statistic != "" {
			opts["stat"] = ref.Statistic
		}
		if ref.Label != "" {
			opts["label"] = ref.Label
		}
		if len(opts) > 0 {
			row = append(row, opts)
		}
		rows = append(rows, row)
	}
	return rows
}

// DashboardInput converts a role dashboard into a PutDashboard request.
func DashboardInput(d models.RoleDashboard, region string) (*cloudwatch.PutDashboardInput, error) {
	body, err := DashboardBody(d, region)
	if err != nil {
		return nil, err
	}
	return &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(d.Name),
		DashboardBody: aws.String(body),
	}, nil
}
