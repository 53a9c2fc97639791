package artifacts

import (
	"sort"
	"strings"
	"time"

	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

// ExtractRunResults flattens a run-results document into run records. The
// resource type and name come from the unique id segments; the executed-at
// timestamp prefers the execute phase completion and falls back to the last
// timing entry. Entries without a unique id are dropped.
func ExtractRunResults(doc *RunResultsDoc) []*entities.RunResult {
	if doc == nil {
		return nil
	}

	results := make([]*entities.RunResult, 0, len(doc.Results))
	for _, entry := range doc.Results {
		if entry.UniqueID == "" {
			continue
		}

		parts := strings.Split(entry.UniqueID, ".")
		var (
			executedAt         *time.Time
			compileStartedAt   *time.Time
			compileCompletedAt *time.Time
			executeStartedAt   *time.Time
			executeCompletedAt *time.Time
		)
		for _, timing := range entry.Timing {
			switch timing.Name {
			case "compile":
				compileStartedAt = timing.StartedAt.TimePtr()
				compileCompletedAt = timing.CompletedAt.TimePtr()
			case "execute":
				executeStartedAt = timing.StartedAt.TimePtr()
				executeCompletedAt = timing.CompletedAt.TimePtr()
				executedAt = timing.CompletedAt.TimePtr()
			}
		}
		if executedAt == nil && len(entry.Timing) > 0 {
			executedAt = entry.Timing[len(entry.Timing)-1].CompletedAt.TimePtr()
		}

		var errorMessage *string
		if entry.Status != nil && (*entry.Status == "error" || *entry.Status == "fail") {
			errorMessage = entry.Message
		}

		results = append(results, &entities.RunResult{
			UniqueID:           entry.UniqueID,
			Name:               parts[len(parts)-1],
			ResourceType:       parts[0],
			Status:             entry.Status,
			ExecutionTime:      entry.ExecutionTime,
			ExecutedAt:         executedAt,
			DependsOn:          []string{},
			ErrorMessage:       errorMessage,
			CompileStartedAt:   compileStartedAt,
			CompileCompletedAt: compileCompletedAt,
			ExecuteStartedAt:   executeStartedAt,
			ExecuteCompletedAt: executeCompletedAt,
			ThreadID:           entry.ThreadID,
			AdapterResponse:    entry.AdapterResponse,
		})
	}

	return results
}

// ExtractSourceFreshness flattens a source-freshness document, enriching
// each row with the manifest's source node when one matches.
func ExtractSourceFreshness(sources *SourcesDoc, manifest *ManifestDoc) []*entities.SourceFreshnessResult {
	if sources == nil {
		return nil
	}

	var manifestSources map[string]ManifestSource
	if manifest != nil {
		manifestSources = manifest.Sources
	}

	results := make([]*entities.SourceFreshnessResult, 0, len(sources.Results))
	for _, entry := range sources.Results {
		if entry.UniqueID == "" {
			continue
		}

		parts := strings.Split(entry.UniqueID, ".")
		sourceName := "unknown"
		if len(parts) > 1 {
			sourceName = parts[1]
		}
		tableName := "unknown"
		if len(parts) > 2 {
			tableName = parts[2]
		}

		var errorAfterHours, warnAfterHours *float64
		if entry.Criteria != nil {
			if entry.Criteria.ErrorAfter != nil {
				errorAfterHours = entry.Criteria.ErrorAfter.Count
			}
			if entry.Criteria.WarnAfter != nil {
				warnAfterHours = entry.Criteria.WarnAfter.Count
			}
		}

		maxLoadedAt := entry.MaxLoadedAt.TimePtr()
		snapshottedAt := entry.SnapshottedAt.TimePtr()
		var timeAgoSeconds, hoursSinceLoad *float64
		if maxLoadedAt != nil && snapshottedAt != nil {
			seconds := snapshottedAt.Sub(*maxLoadedAt).Seconds()
			hours := seconds / 3600
			timeAgoSeconds = &seconds
			hoursSinceLoad = &hours
		}

		record := &entities.SourceFreshnessResult{
			UniqueID:              entry.UniqueID,
			SourceName:            sourceName,
			Name:                  tableName,
			TableName:             tableName,
			FreshnessStatus:       entry.Status,
			FreshnessChecked:      entry.Status != nil,
			MaxLoadedAt:           maxLoadedAt,
			SnapshottedAt:         snapshottedAt,
			MaxLoadedAtTimeAgoInS: timeAgoSeconds,
			HoursSinceLoad:        hoursSinceLoad,
			ErrorAfterHours:       errorAfterHours,
			WarnAfterHours:        warnAfterHours,
			Criteria:              criteriaEntity(entry.Criteria),
			Description:           utils.PtrTo(""),
			SourceDescription:     utils.PtrTo(""),
			Type:                  utils.PtrTo("table"),
			ErrorMessage:          entry.Error,
		}

		if node, ok := manifestSources[entry.UniqueID]; ok {
			record.Database = node.Database
			record.SchemaName = node.Schema
			record.Identifier = node.Identifier
			record.Description = utils.PtrTo(stringOrEmpty(node.Description))
			record.SourceDescription = utils.PtrTo(stringOrEmpty(node.SourceDescription))
			record.Comment = node.Comment
			record.Meta = node.Meta
			record.Tags = node.Tags
			record.Owner = ownerFromMeta(node.Meta)
			record.Loader = node.Loader
			record.Columns = node.Columns
		}

		results = append(results, record)
	}

	return results
}

// ExtractModelMetadata flattens every manifest node into a metadata record
// and computes the reverse dependency edges over the extracted set. Nodes
// without a resource type are dropped.
func ExtractModelMetadata(manifest *ManifestDoc) []*entities.ModelMetadata {
	if manifest == nil {
		return nil
	}

	records := make([]*entities.ModelMetadata, 0, len(manifest.Nodes))
	for uniqueID, node := range manifest.Nodes {
		if node.ResourceType == "" {
			continue
		}

		dependsOn := node.DependsOn.Nodes
		if dependsOn == nil {
			dependsOn = []string{}
		}

		records = append(records, &entities.ModelMetadata{
			UniqueID:         uniqueID,
			Name:             node.Name,
			ResourceType:     node.ResourceType,
			DependsOn:        dependsOn,
			Config:           node.Config,
			Tags:             node.Tags,
			Meta:             node.Meta,
			Description:      utils.PtrTo(stringOrEmpty(node.Description)),
			SchemaName:       node.Schema,
			DatabaseName:     node.Database,
			Alias:            node.Alias,
			MaterializedType: materializedType(node.Config),
			Access:           node.Access,
			Language:         languageOrSQL(node.Language),
			PackageName:      node.PackageName,
			Owner:            ownerFromMeta(node.Meta),
			CompiledSQL:      firstNonEmpty(node.CompiledCode, node.CompiledSQL),
			RawSQL:           firstNonEmpty(node.RawCode, node.RawSQL),
			Columns:          node.Columns,
			Parents:          dependsOn,
			Children:         []string{},
			OriginalFilePath: node.OriginalFilePath,
			RootPath:         node.RootPath,
		})
	}

	computeDependencyGraph(records)
	// Map iteration order is random; keep the output stable for callers.
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	return records
}

// computeDependencyGraph fills Children with the reverse edges found inside
// the extracted set and splits parents into model and source buckets,
// bucketing unknown kinds with models.
func computeDependencyGraph(records []*entities.ModelMetadata) {
	children := make(map[string][]string, len(records))
	for _, record := range records {
		children[record.UniqueID] = []string{}
	}
	for _, record := range records {
		for _, parentID := range record.DependsOn {
			if _, ok := children[parentID]; ok {
				children[parentID] = append(children[parentID], record.UniqueID)
			}
		}
	}

	for _, record := range records {
		record.Children = children[record.UniqueID]
		record.ParentsModels, record.ParentsSources = splitParents(record.DependsOn)
	}
}

func splitParents(parents []string) (models, sources []string) {
	models = []string{}
	sources = []string{}
	for _, parentID := range parents {
		if strings.HasPrefix(parentID, "source.") {
			sources = append(sources, parentID)
		} else {
			models = append(models, parentID)
		}
	}

	return models, sources
}

// EnrichRunResults overwrites the manifest-derived fields of every run
// record whose unique id has a metadata match. Unmatched records pass
// through untouched.
func EnrichRunResults(results []*entities.RunResult, metadata []*entities.ModelMetadata) {
	byID := make(map[string]*entities.ModelMetadata, len(metadata))
	for _, record := range metadata {
		byID[record.UniqueID] = record
	}

	for _, result := range results {
		record, ok := byID[result.UniqueID]
		if !ok {
			continue
		}

		result.DependsOn = record.DependsOn
		result.SchemaName = record.SchemaName
		result.DatabaseName = record.DatabaseName
		result.Config = record.Config
		result.Tags = record.Tags
		result.Meta = record.Meta
		result.ModelType = modelType(record.Config)
		result.Alias = record.Alias
		result.MaterializedType = record.MaterializedType
		result.Description = record.Description
		result.Access = record.Access
		result.Language = record.Language
		result.PackageName = record.PackageName
		result.Owner = record.Owner
		result.CompiledSQL = record.CompiledSQL
		result.RawSQL = record.RawSQL
		result.Columns = record.Columns
		result.Children = record.Children
		result.ParentsModels = record.ParentsModels
		result.ParentsSources = record.ParentsSources
		result.OriginalFilePath = record.OriginalFilePath
		result.RootPath = record.RootPath
	}
}

func criteriaEntity(criteria *CriteriaDoc) *entities.FreshnessCriteria {
	if criteria == nil {
		return nil
	}

	out := &entities.FreshnessCriteria{}
	if criteria.WarnAfter != nil {
		out.WarnAfter = &entities.FreshnessThreshold{Count: criteria.WarnAfter.Count, Period: criteria.WarnAfter.Period}
	}
	if criteria.ErrorAfter != nil {
		out.ErrorAfter = &entities.FreshnessThreshold{Count: criteria.ErrorAfter.Count, Period: criteria.ErrorAfter.Period}
	}

	return out
}

func ownerFromMeta(meta map[string]any) *string {
	owner, ok := meta["owner"].(string)
	if !ok {
		return nil
	}

	return &owner
}

func materializedType(config map[string]any) *string {
	materialized, ok := config["materialized"].(string)
	if !ok {
		return nil
	}

	return &materialized
}

// modelType is materializedType with the "unknown" default applied during
// run-result enrichment.
func modelType(config map[string]any) *string {
	if materialized := materializedType(config); materialized != nil {
		return materialized
	}

	return utils.PtrTo("unknown")
}

func languageOrSQL(language *string) *string {
	if language != nil {
		return language
	}

	return utils.PtrTo("sql")
}

// firstNonEmpty mirrors the coalescing the artifacts use for code fields,
// where an empty string falls through to the next candidate.
func firstNonEmpty(values ...*string) *string {
	for _, value := range values {
		if utils.IsNotNilOrEmptyString(value) {
			return value
		}
	}

	return nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}
