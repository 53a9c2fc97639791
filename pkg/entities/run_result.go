package entities

import "time"

// RunResult is one node execution from a run-results artifact, enriched with
// manifest metadata where a matching node exists.
type RunResult struct {
	UniqueID      string   `json:"unique_id"`
	Name          string   `json:"name"`
	ResourceType  string   `json:"resource_type"`
	Status        *string  `json:"status"`
	ExecutionTime *float64 `json:"execution_time"`

	// ExecutedAt is the execute-phase completion, falling back to the last
	// timing entry when the artifact reports no execute phase.
	ExecutedAt   *time.Time `json:"executed_at"`
	ErrorMessage *string    `json:"error_message"`

	DependsOn    []string       `json:"depends_on"`
	SchemaName   *string        `json:"schema_name"`
	DatabaseName *string        `json:"database_name"`
	ModelType    *string        `json:"model_type"`
	Config       map[string]any `json:"config"`
	Tags         []string       `json:"tags"`
	Meta         map[string]any `json:"meta"`

	Alias            *string        `json:"alias"`
	MaterializedType *string        `json:"materialized_type"`
	Description      *string        `json:"description"`
	Access           *string        `json:"access"`
	Language         *string        `json:"language"`
	PackageName      *string        `json:"package_name"`
	Owner            *string        `json:"owner"`
	CompiledSQL      *string        `json:"compiled_sql"`
	RawSQL           *string        `json:"raw_sql"`
	Columns          map[string]any `json:"columns"`
	Children         []string       `json:"children"`
	ParentsModels    []string       `json:"parents_models"`
	ParentsSources   []string       `json:"parents_sources"`
	OriginalFilePath *string        `json:"original_file_path"`
	RootPath         *string        `json:"root_path"`

	CompileStartedAt   *time.Time `json:"compile_started_at"`
	CompileCompletedAt *time.Time `json:"compile_completed_at"`
	ExecuteStartedAt   *time.Time `json:"execute_started_at"`
	ExecuteCompletedAt *time.Time `json:"execute_completed_at"`

	ThreadID        *string        `json:"thread_id"`
	AdapterResponse map[string]any `json:"adapter_response"`
}
