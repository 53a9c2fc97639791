package sql

import (
	"sort"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

// lineageGraph is the manifest's dependency graph for one schedule, with
// the latest run result per node joined in.
type lineageGraph struct {
	nodes      map[string]model.ModelMetadata
	downstream map[string][]string
	latestRun  map[string]model.RunResult
}

func (s *Store) loadLineageGraph(scheduleName string) (*lineageGraph, error) {
	var metadata []model.ModelMetadata

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Find(&metadata).Error
	if err != nil {
		return nil, err
	}

	var runs []model.RunResult

	err = s.db.
		Where("schedule_name = ?", scheduleName).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}

	graph := &lineageGraph{
		nodes:      make(map[string]model.ModelMetadata, len(metadata)),
		downstream: make(map[string][]string),
		latestRun:  make(map[string]model.RunResult, len(runs)),
	}

	for _, node := range metadata {
		graph.nodes[node.UniqueID] = node
		for _, parent := range node.DependsOn {
			graph.downstream[parent] = append(graph.downstream[parent], node.UniqueID)
		}
	}

	for _, run := range latestPerUniqueID(runs) {
		graph.latestRun[run.UniqueID] = run
	}

	return graph, nil
}

// findNode resolves a model name to its manifest node. Unique ids match too
// so callers can pass either form.
func (g *lineageGraph) findNode(modelName string) (model.ModelMetadata, bool) {
	if node, ok := g.nodes[modelName]; ok {
		return node, true
	}

	for _, node := range g.nodes {
		if node.Name == modelName {
			return node, true
		}
	}

	return model.ModelMetadata{}, false
}

// walk runs a breadth-first traversal from start along the given edge
// function, visiting each node once and stopping at maxDepth levels.
func (g *lineageGraph) walk(
	start string, maxDepth int, edges func(string) []string, visit func(node model.ModelMetadata, level int),
) {
	visited := map[string]struct{}{start: {}}
	frontier := []string{start}

	for level := 1; level <= maxDepth && len(frontier) > 0; level++ {
		var next []string

		for _, uniqueID := range frontier {
			for _, neighbor := range edges(uniqueID) {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}

				node, known := g.nodes[neighbor]
				if !known {
					continue
				}

				visit(node, level)
				next = append(next, neighbor)
			}
		}

		frontier = next
	}
}

func upstreamHealth(status *string) *entities.HealthStatus {
	if status == nil {
		return nil
	}

	switch *status {
	case string(entities.RunStatusError), string(entities.RunStatusFail):
		return utils.PtrTo(entities.HealthStatusCritical)
	case string(entities.RunStatusWarn):
		return utils.PtrTo(entities.HealthStatusWarning)
	default:
		return utils.PtrTo(entities.HealthStatusHealthy)
	}
}

// GetUpstreamDependencies walks the depends_on edges from the named model,
// up to maxDepth levels, and reports each ancestor with its latest run
// outcome. An unknown model yields an empty result.
func (s *Store) GetUpstreamDependencies(
	modelName, scheduleName string, maxDepth int,
) ([]*entities.ModelDependency, *contract.Error) {
	graph, err := s.loadLineageGraph(scheduleName)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get upstream dependencies", err)
	}

	start, found := graph.findNode(modelName)
	if !found {
		return []*entities.ModelDependency{}, nil
	}

	results := make([]*entities.ModelDependency, 0)

	graph.walk(start.UniqueID, maxDepth, func(uniqueID string) []string {
		return graph.nodes[uniqueID].DependsOn
	}, func(node model.ModelMetadata, level int) {
		dependency := &entities.ModelDependency{
			UniqueID:     node.UniqueID,
			Name:         node.Name,
			Level:        level,
			ResourceType: node.ResourceType,
		}

		if run, ok := graph.latestRun[node.UniqueID]; ok {
			dependency.Status = run.Status
			dependency.ExecutionTime = run.ExecutionTime
			dependency.ExecutedAt = run.ExecutedAt
			dependency.HealthStatus = upstreamHealth(run.Status)
		}

		results = append(results, dependency)
	})

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Level != results[j].Level {
			return results[i].Level < results[j].Level
		}

		return results[i].Name < results[j].Name
	})

	return results, nil
}

// GetDownstreamImpact walks the reverse edges from the named model and
// classifies each descendant: Already Impacted when its own latest run
// failed, May Be Affected otherwise.
func (s *Store) GetDownstreamImpact(
	modelName, scheduleName string, maxDepth int,
) ([]*entities.ModelImpact, *contract.Error) {
	graph, err := s.loadLineageGraph(scheduleName)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get downstream impact", err)
	}

	start, found := graph.findNode(modelName)
	if !found {
		return []*entities.ModelImpact{}, nil
	}

	results := make([]*entities.ModelImpact, 0)

	graph.walk(start.UniqueID, maxDepth, func(uniqueID string) []string {
		return graph.downstream[uniqueID]
	}, func(node model.ModelMetadata, level int) {
		// Tests hang off models as reverse edges too; impact is about the
		// models themselves.
		if node.ResourceType != string(entities.ResourceTypeModel) {
			return
		}

		impact := &entities.ModelImpact{
			UniqueID:     node.UniqueID,
			Name:         node.Name,
			Level:        level,
			ImpactStatus: entities.ImpactMayBeAffected,
		}

		if run, ok := graph.latestRun[node.UniqueID]; ok {
			impact.Status = run.Status
			impact.ExecutedAt = run.ExecutedAt
			if run.Status != nil &&
				(*run.Status == string(entities.RunStatusError) || *run.Status == string(entities.RunStatusFail)) {
				impact.ImpactStatus = entities.ImpactAlreadyImpacted
			}
		}

		results = append(results, impact)
	})

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Level != results[j].Level {
			return results[i].Level < results[j].Level
		}

		return results[i].Name < results[j].Name
	})

	return results, nil
}
