package entities

// ModelMetadata is one manifest node. It is the source of truth for the
// dependency graph: DependsOn holds forward edges, Children the reverse
// edges computed over the extracted set.
type ModelMetadata struct {
	UniqueID     string `json:"unique_id"`
	Name         string `json:"name"`
	ResourceType string `json:"resource_type"`

	DependsOn []string       `json:"depends_on"`
	Config    map[string]any `json:"config"`
	Tags      []string       `json:"tags"`
	Meta      map[string]any `json:"meta"`

	Description      *string        `json:"description"`
	SchemaName       *string        `json:"schema_name"`
	DatabaseName     *string        `json:"database_name"`
	Alias            *string        `json:"alias"`
	MaterializedType *string        `json:"materialized_type"`
	Access           *string        `json:"access"`
	Language         *string        `json:"language"`
	PackageName      *string        `json:"package_name"`
	Owner            *string        `json:"owner"`
	CompiledSQL      *string        `json:"compiled_sql"`
	RawSQL           *string        `json:"raw_sql"`
	Columns          map[string]any `json:"columns"`

	Parents        []string `json:"parents"`
	Children       []string `json:"children"`
	ParentsModels  []string `json:"parents_models"`
	ParentsSources []string `json:"parents_sources"`

	OriginalFilePath *string `json:"original_file_path"`
	RootPath         *string `json:"root_path"`
}
