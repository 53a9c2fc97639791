package artifacts

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

type runEntryInfo struct {
	status             *string
	executionTime      *float64
	message            *string
	failures           *int
	threadID           *string
	compileStartedAt   *time.Time
	compileCompletedAt *time.Time
	executeStartedAt   *time.Time
	executeCompletedAt *time.Time
}

func runEntriesByPrefix(doc *RunResultsDoc, prefix string) map[string]runEntryInfo {
	entries := make(map[string]runEntryInfo)
	if doc == nil {
		return entries
	}

	for _, entry := range doc.Results {
		if entry.UniqueID == "" || !strings.HasPrefix(entry.UniqueID, prefix) {
			continue
		}
		info := runEntryInfo{
			status:        entry.Status,
			executionTime: entry.ExecutionTime,
			message:       entry.Message,
			failures:      entry.Failures,
			threadID:      entry.ThreadID,
		}
		for _, timing := range entry.Timing {
			switch timing.Name {
			case "compile":
				info.compileStartedAt = timing.StartedAt.TimePtr()
				info.compileCompletedAt = timing.CompletedAt.TimePtr()
			case "execute":
				info.executeStartedAt = timing.StartedAt.TimePtr()
				info.executeCompletedAt = timing.CompletedAt.TimePtr()
			}
		}
		entries[entry.UniqueID] = info
	}

	return entries
}

// ExtractSeedData joins manifest seed nodes with their run-result entries.
func ExtractSeedData(manifest *ManifestDoc, runResults *RunResultsDoc) []*entities.SeedData {
	if manifest == nil {
		return nil
	}

	runs := runEntriesByPrefix(runResults, "seed.")
	records := make([]*entities.SeedData, 0)
	for uniqueID, node := range manifest.Nodes {
		if node.ResourceType != "seed" {
			continue
		}

		run := runs[uniqueID]
		compiled := firstNonEmpty(node.CompiledCode, node.CompiledSQL)
		raw := firstNonEmpty(node.RawCode, node.RawSQL)

		records = append(records, &entities.SeedData{
			UniqueID:           uniqueID,
			Name:               node.Name,
			ResourceType:       node.ResourceType,
			Database:           node.Database,
			SchemaName:         node.Schema,
			Alias:              node.Alias,
			Status:             run.status,
			ExecutionTime:      run.executionTime,
			RunElapsedTime:     run.executionTime,
			CompileStartedAt:   run.compileStartedAt,
			CompileCompletedAt: run.compileCompletedAt,
			ExecuteStartedAt:   run.executeStartedAt,
			ExecuteCompletedAt: run.executeCompletedAt,
			RunGeneratedAt:     run.executeCompletedAt,
			CompiledCode:       compiled,
			CompiledSQL:        compiled,
			RawCode:            raw,
			RawSQL:             raw,
			Description:        utils.PtrTo(stringOrEmpty(node.Description)),
			Comment:            node.Comment,
			Meta:               node.Meta,
			Tags:               tagsOrEmpty(node.Tags),
			Owner:              ownerFromMeta(node.Meta),
			PackageName:        node.PackageName,
			Error:              run.message,
			Skip:               stringOrEmpty(run.status) == "skipped",
			ThreadID:           run.threadID,
			Type:               utils.PtrTo("seed"),
			ChildrenL1:         []string{},
			Columns:            node.Columns,
			Stats:              map[string]any{},
			DependsOn:          []string{},
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	return records
}

// ExtractSnapshotData joins manifest snapshot nodes with their run-result
// entries, keeping the dependency edges seeds do not have.
func ExtractSnapshotData(manifest *ManifestDoc, runResults *RunResultsDoc) []*entities.SnapshotData {
	if manifest == nil {
		return nil
	}

	runs := runEntriesByPrefix(runResults, "snapshot.")
	records := make([]*entities.SnapshotData, 0)
	for uniqueID, node := range manifest.Nodes {
		if node.ResourceType != "snapshot" {
			continue
		}

		run := runs[uniqueID]
		compiled := firstNonEmpty(node.CompiledCode, node.CompiledSQL)
		raw := firstNonEmpty(node.RawCode, node.RawSQL)
		dependsOn := node.DependsOn.Nodes
		if dependsOn == nil {
			dependsOn = []string{}
		}
		parentsModels, parentsSources := splitParents(dependsOn)

		records = append(records, &entities.SnapshotData{
			UniqueID:           uniqueID,
			Name:               node.Name,
			ResourceType:       node.ResourceType,
			Database:           node.Database,
			SchemaName:         node.Schema,
			Alias:              node.Alias,
			Status:             run.status,
			ExecutionTime:      run.executionTime,
			RunElapsedTime:     run.executionTime,
			CompileStartedAt:   run.compileStartedAt,
			CompileCompletedAt: run.compileCompletedAt,
			ExecuteStartedAt:   run.executeStartedAt,
			ExecuteCompletedAt: run.executeCompletedAt,
			RunGeneratedAt:     run.executeCompletedAt,
			CompiledCode:       compiled,
			CompiledSQL:        compiled,
			RawCode:            raw,
			RawSQL:             raw,
			Description:        utils.PtrTo(stringOrEmpty(node.Description)),
			Comment:            node.Comment,
			Meta:               node.Meta,
			Tags:               tagsOrEmpty(node.Tags),
			Owner:              ownerFromMeta(node.Meta),
			PackageName:        node.PackageName,
			Error:              run.message,
			Skip:               stringOrEmpty(run.status) == "skipped",
			ThreadID:           run.threadID,
			Type:               utils.PtrTo("snapshot"),
			ChildrenL1:         []string{},
			Columns:            node.Columns,
			Stats:              map[string]any{},
			DependsOn:          dependsOn,
			ParentsModels:      parentsModels,
			ParentsSources:     parentsSources,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	return records
}

// ExtractTestData flattens the test entries of a run-results document,
// joining each with its manifest node and normalizing the outcome into
// state plus fail/warn/skip flags. Status carries the detail: the failing
// row count, "ERROR", or the reported message.
func ExtractTestData(runResults *RunResultsDoc, manifest *ManifestDoc) []*entities.TestData {
	if runResults == nil {
		return nil
	}

	var nodes map[string]ManifestNode
	if manifest != nil {
		nodes = manifest.Nodes
	}

	records := make([]*entities.TestData, 0)
	for _, entry := range runResults.Results {
		if entry.UniqueID == "" || !strings.HasPrefix(entry.UniqueID, "test.") {
			continue
		}

		parts := strings.Split(entry.UniqueID, ".")
		name := parts[len(parts)-1]

		node, hasNode := nodes[entry.UniqueID]
		manifestName := name
		if hasNode && node.Name != "" {
			manifestName = node.Name
		}

		var (
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
			}
		}

		status := stringOrEmpty(entry.Status)
		var state *string
		var fail, warn, skip *bool
		var errorMessage *string
		switch status {
		case "pass":
			state = utils.PtrTo("pass")
			fail = utils.PtrTo(false)
		case "fail":
			state = utils.PtrTo("fail")
			fail = utils.PtrTo(true)
		case "error":
			state = utils.PtrTo("error")
			if utils.IsNotNilOrEmptyString(entry.Message) {
				errorMessage = entry.Message
			}
		case "warn":
			state = utils.PtrTo("warn")
			warn = utils.PtrTo(true)
		case "skip", "skipped":
			state = utils.PtrTo("skip")
			skip = utils.PtrTo(true)
		default:
			state = entry.Status
		}

		var statusDetail *string
		switch {
		case entry.Failures != nil && *entry.Failures != 0:
			statusDetail = utils.PtrTo(strconv.Itoa(*entry.Failures))
		case status == "error":
			statusDetail = utils.PtrTo("ERROR")
		case utils.IsNotNilOrEmptyString(entry.Message):
			statusDetail = entry.Message
		}

		dependsOn := node.DependsOn.Nodes
		if dependsOn == nil {
			dependsOn = []string{}
		}

		records = append(records, &entities.TestData{
			UniqueID:           entry.UniqueID,
			Name:               utils.PtrTo(manifestName),
			ResourceType:       "test",
			ColumnName:         node.ColumnName,
			State:              state,
			Status:             statusDetail,
			Fail:               fail,
			Warn:               warn,
			Skip:               skip,
			ExecutionTime:      entry.ExecutionTime,
			RunElapsedTime:     entry.ExecutionTime,
			CompileStartedAt:   compileStartedAt,
			CompileCompletedAt: compileCompletedAt,
			ExecuteStartedAt:   executeStartedAt,
			ExecuteCompletedAt: executeCompletedAt,
			RunGeneratedAt:     executeCompletedAt,
			CompiledCode:       node.CompiledCode,
			CompiledSQL:        node.CompiledSQL,
			RawCode:            node.RawCode,
			RawSQL:             node.RawSQL,
			Description:        node.Description,
			Meta:               node.Meta,
			Tags:               tagsOrEmpty(node.Tags),
			Language:           languageOrSQL(node.Language),
			ThreadID:           entry.ThreadID,
			Error:              errorMessage,
			DependsOn:          dependsOn,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	return records
}

// ExtractExposureData flattens the manifest's exposures. Exposures never
// execute, so every run field stays null; parent splits keep only model
// and source edges.
func ExtractExposureData(manifest *ManifestDoc) []*entities.ExposureData {
	if manifest == nil {
		return nil
	}

	records := make([]*entities.ExposureData, 0, len(manifest.Exposures))
	for uniqueID, exposure := range manifest.Exposures {
		if !strings.HasPrefix(uniqueID, "exposure.") {
			continue
		}

		nodes := exposure.DependsOn.Nodes
		if nodes == nil {
			nodes = []string{}
		}
		parentsModels := []string{}
		parentsSources := []string{}
		for _, parentID := range nodes {
			switch {
			case strings.HasPrefix(parentID, "model."):
				parentsModels = append(parentsModels, parentID)
			case strings.HasPrefix(parentID, "source."):
				parentsSources = append(parentsSources, parentID)
			}
		}

		records = append(records, &entities.ExposureData{
			UniqueID:       uniqueID,
			Name:           exposure.Name,
			ResourceType:   "exposure",
			ExposureType:   exposure.Type,
			Maturity:       exposure.Maturity,
			OwnerName:      exposure.Owner.Name,
			OwnerEmail:     exposure.Owner.Email,
			URL:            exposure.URL,
			PackageName:    exposure.PackageName,
			Description:    exposure.Description,
			Meta:           exposure.Meta,
			Tags:           tagsOrEmpty(exposure.Tags),
			DependsOn:      nodes,
			Parents:        nodes,
			ParentsModels:  parentsModels,
			ParentsSources: parentsSources,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	return records
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}
