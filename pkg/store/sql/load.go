package sql

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
)

const loadBatchSize = 1000

// replaceScheduleRows is the load primitive shared by all seven kinds:
// delete every row of the schedule, then bulk-insert the new set, all in one
// transaction so a concurrent reader never observes a half-replaced table.
// A failed bulk insert retries row by row (savepoint per attempt), logging
// and skipping offending rows instead of poisoning the whole load.
func replaceScheduleRows[T any](s *Store, scheduleName string, rows []T) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var table T
		if err := tx.Where("schedule_name = ?", scheduleName).Delete(&table).Error; err != nil {
			return fmt.Errorf("failed to delete prior rows for schedule %q: %w", scheduleName, err)
		}

		if len(rows) == 0 {
			return nil
		}

		batchErr := tx.Transaction(func(batchTx *gorm.DB) error {
			return batchTx.CreateInBatches(rows, loadBatchSize).Error
		})
		if batchErr == nil {
			return nil
		}

		s.log.Warnf(
			"Bulk insert failed for schedule %q, retrying row by row: %s",
			scheduleName, batchErr,
		)

		for i := range rows {
			rowErr := tx.Transaction(func(rowTx *gorm.DB) error {
				return rowTx.Create(&rows[i]).Error
			})
			if rowErr != nil {
				s.log.Warnf("Skipping row %d for schedule %q: %s", i, scheduleName, rowErr)
			}
		}

		return nil
	})
}

func loadError(scheduleName, kind string, err error) *contract.Error {
	return contract.NewErrorWith(
		contract.ErrorCodeInternalError,
		fmt.Sprintf("failed to load %s for schedule %q", kind, scheduleName),
		err,
	)
}

func (s *Store) LoadRunResults(scheduleName string, rows []*entities.RunResult) *contract.Error {
	records := make([]model.RunResult, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewRunResultFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "run results", err)
	}

	return nil
}

func (s *Store) LoadSourceFreshness(scheduleName string, rows []*entities.SourceFreshnessResult) *contract.Error {
	records := make([]model.SourceFreshness, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewSourceFreshnessFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "source freshness", err)
	}

	return nil
}

func (s *Store) LoadModelMetadata(scheduleName string, rows []*entities.ModelMetadata) *contract.Error {
	records := make([]model.ModelMetadata, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewModelMetadataFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "model metadata", err)
	}

	return nil
}

func (s *Store) LoadSeedData(scheduleName string, rows []*entities.SeedData) *contract.Error {
	records := make([]model.Seed, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewSeedFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "seeds", err)
	}

	return nil
}

func (s *Store) LoadSnapshotData(scheduleName string, rows []*entities.SnapshotData) *contract.Error {
	records := make([]model.Snapshot, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewSnapshotFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "snapshots", err)
	}

	return nil
}

func (s *Store) LoadTestData(scheduleName string, rows []*entities.TestData) *contract.Error {
	records := make([]model.Test, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewTestFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "tests", err)
	}

	return nil
}

func (s *Store) LoadExposureData(scheduleName string, rows []*entities.ExposureData) *contract.Error {
	records := make([]model.Exposure, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NewExposureFromEntity(scheduleName, row))
	}

	if err := replaceScheduleRows(s, scheduleName, records); err != nil {
		return loadError(scheduleName, "exposures", err)
	}

	return nil
}
