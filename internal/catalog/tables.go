package catalog

import "github.com/valter-silva-au/obsforge/pkg/models"

var defaultMetrics = map[models.ResourceType]ResourceMetrics{
	models.ResourceComputeVM: {
		Namespace:    "AWS/EC2",
		DimensionKey: "InstanceId",
		Metrics: map[string]MetricDef{
			"cpu-utilization":     {Backend: "CPUUtilization", Statistic: "Average", Label: "CPU %"},
			"status-check-failed": {Backend: "StatusCheckFailed", Statistic: "Maximum", Label: "Status checks failed"},
			"network-in":          {Backend: "NetworkIn", Statistic: "Sum", Label: "Network in"},
			"network-out":         {Backend: "NetworkOut", Statistic: "Sum", Label: "Network out"},
		},
	},
	models.ResourceComputeContainer: {
		Namespace:    "ECS/ContainerInsights",
		DimensionKey: "ServiceName",
		Metrics: map[string]MetricDef{
			"cpu-utilization":    {Backend: "CpuUtilized", Statistic: "Average", Label: "CPU"},
			"memory-utilization": {Backend: "MemoryUtilized", Statistic: "Average", Label: "Memory"},
			"running-tasks":      {Backend: "RunningTaskCount", Statistic: "Minimum", Label: "Running tasks"},
		},
	},
	models.ResourceComputeFunction: {
		Namespace:    "AWS/Lambda",
		DimensionKey: "FunctionName",
		Metrics: map[string]MetricDef{
			"errors":      {Backend: "Errors", Statistic: "Sum", Label: "Errors"},
			"duration":    {Backend: "Duration", Statistic: "p95", Label: "Duration p95"},
			"invocations": {Backend: "Invocations", Statistic: "Sum", Label: "Invocations"},
			"throttles":   {Backend: "Throttles", Statistic: "Sum", Label: "Throttles"},
			"concurrency": {Backend: "ConcurrentExecutions", Statistic: "Maximum", Label: "Concurrency"},
		},
	},
	models.ResourceDatabase: {
		Namespace:    "AWS/RDS",
		DimensionKey: "DBInstanceIdentifier",
		Metrics: map[string]MetricDef{
			"connections":     {Backend: "DatabaseConnections", Statistic: "Average", Label: "Connections"},
			"free-storage":    {Backend: "FreeStorageSpace", Statistic: "Minimum", Label: "Free storage"},
			"freeable-memory": {Backend: "FreeableMemory", Statistic: "Minimum", Label: "Freeable memory"},
			"cpu-utilization": {Backend: "CPUUtilization", Statistic: "Average", Label: "CPU %"},
			"read-latency":    {Backend: "ReadLatency", Statistic: "Average", Label: "Read latency"},
			"write-latency":   {Backend: "WriteLatency", Statistic: "Average", Label: "Write latency"},
		},
	},
	models.ResourceObjectStore: {
		Namespace:    "AWS/S3",
		DimensionKey: "BucketName",
		Metrics: map[string]MetricDef{
			"requests":    {Backend: "AllRequests", Statistic: "Sum", Label: "Requests"},
			"4xx-errors":  {Backend: "4xxErrors", Statistic: "Sum", Label: "4xx"},
			"5xx-errors":  {Backend: "5xxErrors", Statistic: "Sum", Label: "5xx"},
			"bucket-size": {Backend: "BucketSizeBytes", Statistic: "Average", Label: "Bucket size"},
			"objects":     {Backend: "NumberOfObjects", Statistic: "Average", Label: "Objects"},
		},
	},
	models.ResourceNetworkGateway: {
		Namespace:    "AWS/ApiGateway",
		DimensionKey: "ApiName",
		Metrics: map[string]MetricDef{
			"requests":   {Backend: "Count", Statistic: "Sum", Label: "Requests"},
			"latency":    {Backend: "Latency", Statistic: "p99", Label: "Latency p99"},
			"4xx-errors": {Backend: "4XXError", Statistic: "Sum", Label: "4xx"},
			"5xx-errors": {Backend: "5XXError", Statistic: "Sum", Label: "5xx"},
		},
	},
}

const tenGiB = 10 * 1024 * 1024 * 1024

var defaultAlarmRows = map[models.ResourceType][]alarmRow{
	models.ResourceComputeVM: {
		{"cpu-utilization", 300, models.GreaterThanThreshold, 80, models.SeverityWarning, "Sustained high CPU"},
		{"status-check-failed", 60, models.GreaterThanOrEqualToThreshold, 1, models.SeverityCritical, "Instance or system status check failing"},
	},
	models.ResourceComputeContainer: {
		{"cpu-utilization", 300, models.GreaterThanThreshold, 85, models.SeverityWarning, "Service CPU near reservation"},
		{"memory-utilization", 300, models.GreaterThanThreshold, 90, models.SeverityCritical, "Service memory near reservation"},
		{"running-tasks", 60, models.LessThanThreshold, 1, models.SeverityCritical, "No running tasks"},
	},
	models.ResourceComputeFunction: {
		{"errors", 60, models.GreaterThanThreshold, 5, models.SeverityCritical, "Function errors"},
		{"duration", 300, models.GreaterThanThreshold, 3000, models.SeverityWarning, "p95 duration in milliseconds"},
		{"throttles", 60, models.GreaterThanThreshold, 1, models.SeverityWarning, "Invocations throttled"},
		{"concurrency", 300, models.GreaterThanThreshold, 800, models.SeverityInfo, "Approaching account concurrency"},
	},
	models.ResourceDatabase: {
		{"connections", 300, models.GreaterThanThreshold, 100, models.SeverityWarning, "Connection count high"},
		{"free-storage", 300, models.LessThanThreshold, tenGiB, models.SeverityCritical, "Free storage below 10 GiB"},
		{"cpu-utilization", 300, models.GreaterThanThreshold, 80, models.SeverityWarning, "Sustained high CPU"},
		{"read-latency", 300, models.GreaterThanThreshold, 0.02, models.SeverityInfo, "Read latency above 20ms"},
	},
	models.ResourceObjectStore: {
		{"5xx-errors", 300, models.GreaterThanThreshold, 10, models.SeverityWarning, "Server errors"},
		{"4xx-errors", 300, models.GreaterThanThreshold, 100, models.SeverityInfo, "Client errors"},
	},
	models.ResourceNetworkGateway: {
		{"5xx-errors", 60, models.GreaterThanThreshold, 10, models.SeverityCritical, "Gateway server errors"},
		{"latency", 300, models.GreaterThanThreshold, 2000, models.SeverityWarning, "p99 latency in milliseconds"},
		{"4xx-errors", 300, models.GreaterThanThreshold, 50, models.SeverityInfo, "Client errors"},
	},
}

var (
	wide   = models.Layout{Width: 12, Height: 6}
	narrow = models.Layout{Width: 6, Height: 6}
	full   = models.Layout{Width: 24, Height: 6}

	devOps = []models.Role{models.RoleDeveloper, models.RoleOperator}
)

var defaultWidgets = map[models.ResourceType][]WidgetTemplate{
	models.ResourceComputeVM: {
		{Kind: "cpu+network", Title: "{identifier} CPU and network", View: models.ViewTimeSeries, Roles: devOps,
			Metrics: []string{"cpu-utilization", "network-in", "network-out"}, Layout: wide},
		{Kind: "status-checks", Title: "{identifier} status checks", View: models.ViewSingleValue, Roles: []models.Role{models.RoleOperator},
			Metrics: []string{"status-check-failed"}, Layout: narrow},
		{Kind: "health", Title: "{identifier} health", View: models.ViewSingleValue, Roles: []models.Role{models.RoleExecutive},
			Metrics: []string{"status-check-failed"}, Layout: narrow},
	},
	models.ResourceComputeContainer: {
		{Kind: "cpu+memory", Title: "{identifier} CPU and memory", View: models.ViewTimeSeries, Roles: devOps,
			Metrics: []string{"cpu-utilization", "memory-utilization"}, Layout: wide},
		{Kind: "task-count", Title: "{identifier} running tasks", View: models.ViewSingleValue, Roles: []models.Role{models.RoleOperator},
			Metrics: []string{"running-tasks"}, Layout: narrow},
		{Kind: "health", Title: "{identifier} health", View: models.ViewSingleValue, Roles: []models.Role{models.RoleExecutive},
			Metrics: []string{"running-tasks"}, Layout: narrow},
	},
	models.ResourceComputeFunction: {
		{Kind: "errors+duration+invocations", Title: "{identifier} errors, duration and invocations", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleDeveloper}, Metrics: []string{"errors", "duration", "invocations"}, Layout: wide},
		{Kind: "error-logs", Title: "{identifier} recent errors", View: models.ViewLogQuery, Roles: []models.Role{models.RoleDeveloper},
			Query: "SOURCE '/aws/lambda/{identifier}' | fields @timestamp, @message | filter @message like /ERROR/ | sort @timestamp desc | limit 50",
			Layout: full},
		{Kind: "throttles+concurrency", Title: "{identifier} throttles and concurrency", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleOperator}, Metrics: []string{"throttles", "concurrency"}, Layout: wide},
		{Kind: "health", Title: "{identifier} health", View: models.ViewSingleValue, Roles: []models.Role{models.RoleExecutive},
			Metrics: []string{"errors", "invocations"}, Layout: narrow},
	},
	models.ResourceDatabase: {
		{Kind: "connections+latency", Title: "{identifier} connections and latency", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleDeveloper}, Metrics: []string{"connections", "read-latency", "write-latency"}, Layout: wide},
		{Kind: "capacity", Title: "{identifier} free storage and memory", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleOperator}, Metrics: []string{"free-storage", "freeable-memory"}, Layout: wide},
		{Kind: "cpu", Title: "{identifier} CPU", View: models.ViewGauge, Roles: devOps,
			Metrics: []string{"cpu-utilization"}, Layout: narrow},
	},
	models.ResourceObjectStore: {
		{Kind: "requests+errors", Title: "{identifier} requests and errors", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleDeveloper}, Metrics: []string{"requests", "4xx-errors", "5xx-errors"}, Layout: wide},
		{Kind: "bucket-size", Title: "{identifier} size", View: models.ViewSingleValue, Roles: []models.Role{models.RoleOperator},
			Metrics: []string{"bucket-size", "objects"}, Layout: narrow},
		{Kind: "access-denied", Title: "{identifier} denied requests", View: models.ViewTimeSeries, Roles: []models.Role{models.RoleSecurity},
			Metrics: []string{"4xx-errors"}, Layout: wide},
	},
	models.ResourceNetworkGateway: {
		{Kind: "requests+latency", Title: "{identifier} traffic and latency", View: models.ViewTimeSeries,
			Roles: []models.Role{models.RoleOperator}, Metrics: []string{"requests", "latency"}, Layout: wide},
		{Kind: "errors", Title: "{identifier} 4xx and 5xx", View: models.ViewTimeSeries, Roles: []models.Role{models.RoleOperator},
			Metrics: []string{"4xx-errors", "5xx-errors"}, Layout: wide},
	},
}
