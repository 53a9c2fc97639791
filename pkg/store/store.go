// Package store defines the contract of the metadata store: schedule-scoped
// full-replace loads of the seven artifact record kinds plus the derived
// health, lineage and search queries the client facade serves.
package store

import (
	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
)

type MetadataStore interface {
	// Loads replace every row of the schedule with the given set. An empty
	// set still clears the schedule's prior rows.
	LoadRunResults(scheduleName string, rows []*entities.RunResult) *contract.Error
	LoadSourceFreshness(scheduleName string, rows []*entities.SourceFreshnessResult) *contract.Error
	LoadModelMetadata(scheduleName string, rows []*entities.ModelMetadata) *contract.Error
	LoadSeedData(scheduleName string, rows []*entities.SeedData) *contract.Error
	LoadSnapshotData(scheduleName string, rows []*entities.SnapshotData) *contract.Error
	LoadTestData(scheduleName string, rows []*entities.TestData) *contract.Error
	LoadExposureData(scheduleName string, rows []*entities.ExposureData) *contract.Error

	// GetModelHealth returns the latest row per model joined with its test
	// aggregates, ordered Critical < Warning < Healthy, then slowest first.
	GetModelHealth(scheduleName string) ([]*entities.ModelHealth, *contract.Error)

	// GetModelHealthPage serves the streaming facade: a stable
	// (executed_at DESC, unique_id) total order cut by limit/offset.
	GetModelHealthPage(scheduleName string, limit, offset int) ([]*entities.ModelHealth, *contract.Error)

	GetTestResults(scheduleName string, failedOnly bool) ([]*entities.TestResult, *contract.Error)
	GetSourceFreshness(scheduleName string) ([]*entities.SourceFreshnessResult, *contract.Error)
	GetSeedData(scheduleName string) ([]*entities.SeedData, *contract.Error)
	GetSnapshotData(scheduleName string) ([]*entities.SnapshotData, *contract.Error)
	GetTestData(scheduleName string) ([]*entities.TestData, *contract.Error)
	GetExposureData(scheduleName string) ([]*entities.ExposureData, *contract.Error)

	GetUpstreamDependencies(modelName, scheduleName string, maxDepth int) ([]*entities.ModelDependency, *contract.Error)
	GetDownstreamImpact(modelName, scheduleName string, maxDepth int) ([]*entities.ModelImpact, *contract.Error)

	SearchModels(
		scheduleName string,
		filter string,
		maxResults int,
		pageToken string,
	) (*PagedList[*entities.ModelHealth], *contract.Error)

	// QuerySQL is the raw escape hatch; engine errors propagate unwrapped.
	QuerySQL(query string, params ...any) (*entities.ResultSet, error)

	Close() error
}

type PagedList[T any] struct {
	Items         []T
	NextPageToken *string
}
