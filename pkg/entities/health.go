package entities

import "time"

// ModelHealth is the query-time health view of one model: its latest run
// joined with per-model test aggregates and the derived health status.
type ModelHealth struct {
	UniqueID      string       `json:"unique_id"`
	Name          string       `json:"name"`
	ResourceType  string       `json:"resource_type"`
	Status        *string      `json:"status"`
	ExecutionTime *float64     `json:"execution_time"`
	ExecutedAt    *time.Time   `json:"executed_at"`
	HealthStatus  HealthStatus `json:"health_status"`
	TotalTests    int          `json:"total_tests"`
	FailedTests   int          `json:"failed_tests"`

	DependsOn    []string `json:"depends_on"`
	SchemaName   *string  `json:"schema_name"`
	DatabaseName *string  `json:"database_name"`
	ErrorMessage *string  `json:"error_message"`

	Alias            *string        `json:"alias"`
	MaterializedType *string        `json:"materialized_type"`
	Description      *string        `json:"description"`
	Meta             map[string]any `json:"meta"`
	Tags             []string       `json:"tags"`
	Owner            *string        `json:"owner"`
	PackageName      *string        `json:"package_name"`
	Language         *string        `json:"language"`
	Access           *string        `json:"access"`
	CompiledSQL      *string        `json:"compiled_sql"`
	RawSQL           *string        `json:"raw_sql"`
	Columns          map[string]any `json:"columns"`
	ChildrenL1       []string       `json:"children_l1"`
	ParentsModels    []string       `json:"parents_models"`
	ParentsSources   []string       `json:"parents_sources"`
}

// TestResult is the compact test view served by test queries.
type TestResult struct {
	UniqueID       string     `json:"unique_id"`
	TestName       string     `json:"test_name"`
	Status         string     `json:"status"`
	ExecutedAt     *time.Time `json:"executed_at"`
	DependsOnNodes []string   `json:"depends_on_nodes"`
	TestedModels   []string   `json:"tested_models"`
	TestType       *string    `json:"test_type"`
	Severity       *string    `json:"severity"`
	ErrorMessage   *string    `json:"error_message"`
}

// ModelDependency is one node of an upstream traversal, Level hops away
// from the starting model.
type ModelDependency struct {
	UniqueID      string        `json:"unique_id"`
	Name          string        `json:"name"`
	Level         int           `json:"level"`
	ResourceType  string        `json:"resource_type"`
	Status        *string       `json:"status"`
	ExecutionTime *float64      `json:"execution_time"`
	ExecutedAt    *time.Time    `json:"executed_at"`
	HealthStatus  *HealthStatus `json:"health_status"`
}

const (
	ImpactAlreadyImpacted = "Already Impacted"
	ImpactMayBeAffected   = "May Be Affected"
)

// ModelImpact is one node of a downstream traversal.
type ModelImpact struct {
	UniqueID     string     `json:"unique_id"`
	Name         string     `json:"name"`
	Level        int        `json:"level"`
	Status       *string    `json:"status"`
	ExecutedAt   *time.Time `json:"executed_at"`
	ImpactStatus string     `json:"impact_status"`
}

// DependencyImpact buckets the downstream nodes of a failed model by their
// own run status.
type DependencyImpact struct {
	FailedModel         string   `json:"failed_model"`
	CriticalModels      []string `json:"critical_models"`
	WarningModels       []string `json:"warning_models"`
	PotentiallyAffected []string `json:"potentially_affected"`
	TotalAffected       int      `json:"total_affected"`
}

type HealthDashboard struct {
	ScheduleName     string    `json:"schedule_name"`
	TotalModels      int       `json:"total_models"`
	HealthyModels    int       `json:"healthy_models"`
	WarningModels    int       `json:"warning_models"`
	CriticalModels   int       `json:"critical_models"`
	AvgExecutionTime float64   `json:"avg_execution_time"`
	TestSuccessRate  float64   `json:"test_success_rate"`
	TotalTests       int       `json:"total_tests"`
	FailedTests      int       `json:"failed_tests"`
	SourcesChecked   int       `json:"sources_checked"`
	StaleSources     int       `json:"stale_sources"`
	LastUpdated      time.Time `json:"last_updated"`
}

// SlowModel is one row of the slowest-models ranking.
type SlowModel struct {
	Name          string   `json:"name"`
	ExecutionTime *float64 `json:"execution_time"`
	Status        *string  `json:"status"`
}

type PerformanceMetrics struct {
	ScheduleName         string      `json:"schedule_name"`
	TimePeriodDays       int         `json:"time_period_days"`
	SlowestModels        []SlowModel `json:"slowest_models"`
	AverageExecutionTime float64     `json:"average_execution_time"`
	TotalRuns            int         `json:"total_runs"`
	SuccessRate          float64     `json:"success_rate"`
}

// MetadataResponse bundles the sections of a combined metadata query.
type MetadataResponse struct {
	Models         []ModelHealth           `json:"models"`
	Tests          []TestResult            `json:"tests"`
	Sources        []SourceFreshnessResult `json:"sources"`
	ScheduleName   string                  `json:"schedule_name"`
	QueryTimestamp time.Time               `json:"query_timestamp"`
}

// ResultSet is the shape of a raw SQL query result.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
