package sql

import (
	"fmt"
	"strings"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
)

func getKindRows[M any, E any](
	s *Store, scheduleName, kind string, toEntity func(M) E,
) ([]E, *contract.Error) {
	var rows []M

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to get %s for schedule %q", kind, scheduleName),
			err,
		)
	}

	results := make([]E, 0, len(rows))
	for _, row := range rows {
		results = append(results, toEntity(row))
	}

	return results, nil
}

func (s *Store) GetSeedData(scheduleName string) ([]*entities.SeedData, *contract.Error) {
	return getKindRows(s, scheduleName, "seeds", model.Seed.ToEntity)
}

func (s *Store) GetSnapshotData(scheduleName string) ([]*entities.SnapshotData, *contract.Error) {
	return getKindRows(s, scheduleName, "snapshots", model.Snapshot.ToEntity)
}

func (s *Store) GetTestData(scheduleName string) ([]*entities.TestData, *contract.Error) {
	return getKindRows(s, scheduleName, "tests", model.Test.ToEntity)
}

func (s *Store) GetExposureData(scheduleName string) ([]*entities.ExposureData, *contract.Error) {
	return getKindRows(s, scheduleName, "exposures", model.Exposure.ToEntity)
}

// GetTestResults lists the run's test executions, newest first. With
// failedOnly set only failing and erroring tests are returned.
func (s *Store) GetTestResults(scheduleName string, failedOnly bool) ([]*entities.TestResult, *contract.Error) {
	query := s.db.
		Where("schedule_name = ?", scheduleName).
		Where("resource_type = ?", string(entities.ResourceTypeTest))

	if failedOnly {
		query = query.Where(
			"status IN ?",
			[]string{string(entities.RunStatusFail), string(entities.RunStatusError)},
		)
	}

	var rows []model.RunResult
	if err := query.Order("executed_at DESC").Find(&rows).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get test results", err)
	}

	results := make([]*entities.TestResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, testResultFromRow(row))
	}

	return results, nil
}

func testResultFromRow(row model.RunResult) *entities.TestResult {
	status := ""
	if row.Status != nil {
		status = *row.Status
	}

	testedModels := make([]string, 0, len(row.DependsOn))
	for _, dependency := range row.DependsOn {
		if strings.HasPrefix(dependency, "model.") {
			testedModels = append(testedModels, dependency)
		}
	}

	return &entities.TestResult{
		UniqueID:       row.UniqueID,
		TestName:       row.Name,
		Status:         status,
		ExecutedAt:     row.ExecutedAt,
		DependsOnNodes: []string(row.DependsOn),
		TestedModels:   testedModels,
		TestType:       row.ModelType,
		Severity:       metaString(row.Config, "severity"),
		ErrorMessage:   row.ErrorMessage,
	}
}

func metaString(values map[string]any, key string) *string {
	if raw, ok := values[key]; ok {
		if value, ok := raw.(string); ok {
			return &value
		}
	}

	return nil
}
