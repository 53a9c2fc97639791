package sql

import (
	"fmt"
	"sort"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
)

// testAggregate is the per-model test rollup behind the health view: tests
// are run-result rows of resource type "test" whose depends_on contains the
// model's unique id.
type testAggregate struct {
	total  int
	failed int
}

func (s *Store) modelTestAggregates(scheduleName string) (map[string]testAggregate, error) {
	var tests []model.RunResult

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Where("resource_type = ?", string(entities.ResourceTypeTest)).
		Find(&tests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query test rows for schedule %q: %w", scheduleName, err)
	}

	aggregates := make(map[string]testAggregate)
	for _, test := range tests {
		failed := test.Status != nil &&
			(*test.Status == string(entities.RunStatusFail) || *test.Status == string(entities.RunStatusError))
		for _, dependency := range test.DependsOn {
			aggregate := aggregates[dependency]
			aggregate.total++
			if failed {
				aggregate.failed++
			}
			aggregates[dependency] = aggregate
		}
	}

	return aggregates, nil
}

// healthStatus applies the classification policy: Critical on a failed run,
// Warning on any failed associated test, Healthy otherwise.
func healthStatus(status *string, failedTests int) entities.HealthStatus {
	if status != nil &&
		(*status == string(entities.RunStatusError) || *status == string(entities.RunStatusFail)) {
		return entities.HealthStatusCritical
	}
	if failedTests > 0 {
		return entities.HealthStatusWarning
	}

	return entities.HealthStatusHealthy
}

func modelHealthFromRow(row model.RunResult, aggregates map[string]testAggregate) *entities.ModelHealth {
	aggregate := aggregates[row.UniqueID]

	return &entities.ModelHealth{
		UniqueID:         row.UniqueID,
		Name:             row.Name,
		ResourceType:     row.ResourceType,
		Status:           row.Status,
		ExecutionTime:    row.ExecutionTime,
		ExecutedAt:       row.ExecutedAt,
		HealthStatus:     healthStatus(row.Status, aggregate.failed),
		TotalTests:       aggregate.total,
		FailedTests:      aggregate.failed,
		DependsOn:        []string(row.DependsOn),
		SchemaName:       row.SchemaName,
		DatabaseName:     row.DatabaseName,
		ErrorMessage:     row.ErrorMessage,
		Alias:            row.Alias,
		MaterializedType: row.MaterializedType,
		Description:      row.Description,
		Meta:             map[string]any(row.Meta),
		Tags:             []string(row.Tags),
		Owner:            row.Owner,
		PackageName:      row.PackageName,
		Language:         row.Language,
		Access:           row.Access,
		CompiledSQL:      row.CompiledSQL,
		RawSQL:           row.RawSQL,
		Columns:          map[string]any(row.Columns),
		ChildrenL1:       []string(row.Children),
		ParentsModels:    []string(row.ParentsModels),
		ParentsSources:   []string(row.ParentsSources),
	}
}

// latestPerUniqueID deduplicates to the most recent row per unique id. A
// load fully replaces a schedule so this is normally a no-op, but merged
// multi-command artifacts can repeat an id; the most recent non-null
// executed_at wins.
func latestPerUniqueID(rows []model.RunResult) []model.RunResult {
	latest := make(map[string]model.RunResult, len(rows))
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		current, seen := latest[row.UniqueID]
		if !seen {
			latest[row.UniqueID] = row
			order = append(order, row.UniqueID)

			continue
		}

		if current.ExecutedAt == nil ||
			(row.ExecutedAt != nil && row.ExecutedAt.After(*current.ExecutedAt)) {
			latest[row.UniqueID] = row
		}
	}

	result := make([]model.RunResult, 0, len(latest))
	for _, uniqueID := range order {
		result = append(result, latest[uniqueID])
	}

	return result
}

func (s *Store) modelRows(scheduleName string) ([]model.RunResult, error) {
	var rows []model.RunResult

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Where("resource_type = ?", string(entities.ResourceTypeModel)).
		Order("unique_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query model rows for schedule %q: %w", scheduleName, err)
	}

	return rows, nil
}

func (s *Store) GetModelHealth(scheduleName string) ([]*entities.ModelHealth, *contract.Error) {
	rows, err := s.modelRows(scheduleName)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get model health", err)
	}

	aggregates, err := s.modelTestAggregates(scheduleName)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get model health", err)
	}

	results := make([]*entities.ModelHealth, 0, len(rows))
	for _, row := range latestPerUniqueID(rows) {
		results = append(results, modelHealthFromRow(row, aggregates))
	}

	// Critical first, then slowest first within a severity bucket.
	sort.SliceStable(results, func(i, j int) bool {
		left, right := results[i], results[j]
		if left.HealthStatus != right.HealthStatus {
			return left.HealthStatus.Severity() < right.HealthStatus.Severity()
		}

		return executionTimeOrZero(left.ExecutionTime) > executionTimeOrZero(right.ExecutionTime)
	})

	return results, nil
}

// GetModelHealthPage serves one page of the streaming order: executed_at
// descending then unique_id, a stable total order across pages.
func (s *Store) GetModelHealthPage(
	scheduleName string, limit, offset int,
) ([]*entities.ModelHealth, *contract.Error) {
	var rows []model.RunResult

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Where("resource_type = ?", string(entities.ResourceTypeModel)).
		Order("executed_at DESC").
		Order("unique_id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to get model health page for schedule %q", scheduleName),
			err,
		)
	}

	aggregates, aggErr := s.modelTestAggregates(scheduleName)
	if aggErr != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get model health page", aggErr)
	}

	results := make([]*entities.ModelHealth, 0, len(rows))
	for _, row := range rows {
		results = append(results, modelHealthFromRow(row, aggregates))
	}

	return results, nil
}

func executionTimeOrZero(value *float64) float64 {
	if value == nil {
		return 0
	}

	return *value
}
