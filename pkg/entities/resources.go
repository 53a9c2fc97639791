package entities

import "time"

// SeedData is a manifest seed node joined with its run-result entry.
type SeedData struct {
	UniqueID     string `json:"unique_id"`
	Name         string `json:"name"`
	ResourceType string `json:"resource_type"`

	Database   *string `json:"database"`
	SchemaName *string `json:"schema_name"`
	Alias      *string `json:"alias"`

	Status         *string  `json:"status"`
	ExecutionTime  *float64 `json:"execution_time"`
	RunElapsedTime *float64 `json:"run_elapsed_time"`

	CompileStartedAt   *time.Time `json:"compile_started_at"`
	CompileCompletedAt *time.Time `json:"compile_completed_at"`
	ExecuteStartedAt   *time.Time `json:"execute_started_at"`
	ExecuteCompletedAt *time.Time `json:"execute_completed_at"`
	RunGeneratedAt     *time.Time `json:"run_generated_at"`

	CompiledCode *string `json:"compiled_code"`
	CompiledSQL  *string `json:"compiled_sql"`
	RawCode      *string `json:"raw_code"`
	RawSQL       *string `json:"raw_sql"`

	Description *string        `json:"description"`
	Comment     *string        `json:"comment"`
	Meta        map[string]any `json:"meta"`
	Tags        []string       `json:"tags"`
	Owner       *string        `json:"owner"`
	PackageName *string        `json:"package_name"`

	Error    *string `json:"error"`
	Skip     bool    `json:"skip"`
	ThreadID *string `json:"thread_id"`
	Type     *string `json:"type"`

	ChildrenL1 []string       `json:"children_l1"`
	Columns    map[string]any `json:"columns"`
	Stats      map[string]any `json:"stats"`
	DependsOn  []string       `json:"depends_on"`
}

// SnapshotData mirrors SeedData with dependency edges and parent splits.
type SnapshotData struct {
	UniqueID     string `json:"unique_id"`
	Name         string `json:"name"`
	ResourceType string `json:"resource_type"`

	Database   *string `json:"database"`
	SchemaName *string `json:"schema_name"`
	Alias      *string `json:"alias"`

	Status         *string  `json:"status"`
	ExecutionTime  *float64 `json:"execution_time"`
	RunElapsedTime *float64 `json:"run_elapsed_time"`

	CompileStartedAt   *time.Time `json:"compile_started_at"`
	CompileCompletedAt *time.Time `json:"compile_completed_at"`
	ExecuteStartedAt   *time.Time `json:"execute_started_at"`
	ExecuteCompletedAt *time.Time `json:"execute_completed_at"`
	RunGeneratedAt     *time.Time `json:"run_generated_at"`

	CompiledCode *string `json:"compiled_code"`
	CompiledSQL  *string `json:"compiled_sql"`
	RawCode      *string `json:"raw_code"`
	RawSQL       *string `json:"raw_sql"`

	Description *string        `json:"description"`
	Comment     *string        `json:"comment"`
	Meta        map[string]any `json:"meta"`
	Tags        []string       `json:"tags"`
	Owner       *string        `json:"owner"`
	PackageName *string        `json:"package_name"`

	Error    *string `json:"error"`
	Skip     bool    `json:"skip"`
	ThreadID *string `json:"thread_id"`
	Type     *string `json:"type"`

	ChildrenL1 []string       `json:"children_l1"`
	Columns    map[string]any `json:"columns"`
	Stats      map[string]any `json:"stats"`

	DependsOn      []string `json:"depends_on"`
	ParentsModels  []string `json:"parents_models"`
	ParentsSources []string `json:"parents_sources"`
}

// TestData is a run-result test entry joined with its manifest node. Status
// carries the detail (failing row count, "ERROR", or the reported message);
// State carries the normalized outcome.
type TestData struct {
	UniqueID     string  `json:"unique_id"`
	Name         *string `json:"name"`
	ResourceType string  `json:"resource_type"`

	RunID        *string `json:"run_id"`
	InvocationID *string `json:"invocation_id"`
	ColumnName   *string `json:"column_name"`

	State  *string `json:"state"`
	Status *string `json:"status"`
	Fail   *bool   `json:"fail"`
	Warn   *bool   `json:"warn"`
	Skip   *bool   `json:"skip"`

	ExecutionTime  *float64 `json:"execution_time"`
	RunElapsedTime *float64 `json:"run_elapsed_time"`

	CompileStartedAt   *time.Time `json:"compile_started_at"`
	CompileCompletedAt *time.Time `json:"compile_completed_at"`
	ExecuteStartedAt   *time.Time `json:"execute_started_at"`
	ExecuteCompletedAt *time.Time `json:"execute_completed_at"`
	RunGeneratedAt     *time.Time `json:"run_generated_at"`

	CompiledCode *string `json:"compiled_code"`
	CompiledSQL  *string `json:"compiled_sql"`
	RawCode      *string `json:"raw_code"`
	RawSQL       *string `json:"raw_sql"`

	Description *string        `json:"description"`
	Meta        map[string]any `json:"meta"`
	Tags        []string       `json:"tags"`
	Language    *string        `json:"language"`
	DbtVersion  *string        `json:"dbt_version"`
	ThreadID    *string        `json:"thread_id"`
	Error       *string        `json:"error"`

	DependsOn []string `json:"depends_on"`
}

// ExposureData is a manifest exposure node. Exposures never execute, so the
// run fields stay null.
type ExposureData struct {
	UniqueID     string  `json:"unique_id"`
	Name         *string `json:"name"`
	ResourceType string  `json:"resource_type"`

	RunID        *string `json:"run_id"`
	ExposureType *string `json:"exposure_type"`
	Maturity     *string `json:"maturity"`
	OwnerName    *string `json:"owner_name"`
	OwnerEmail   *string `json:"owner_email"`
	URL          *string `json:"url"`
	PackageName  *string `json:"package_name"`

	Status        *string  `json:"status"`
	ExecutionTime *float64 `json:"execution_time"`
	ThreadID      *string  `json:"thread_id"`

	CompileStartedAt    *time.Time `json:"compile_started_at"`
	CompileCompletedAt  *time.Time `json:"compile_completed_at"`
	ExecuteStartedAt    *time.Time `json:"execute_started_at"`
	ExecuteCompletedAt  *time.Time `json:"execute_completed_at"`
	ManifestGeneratedAt *time.Time `json:"manifest_generated_at"`

	Description *string        `json:"description"`
	Meta        map[string]any `json:"meta"`
	Tags        []string       `json:"tags"`
	DbtVersion  *string        `json:"dbt_version"`

	DependsOn      []string `json:"depends_on"`
	Parents        []string `json:"parents"`
	ParentsModels  []string `json:"parents_models"`
	ParentsSources []string `json:"parents_sources"`
}
