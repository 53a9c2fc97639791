package sql

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := NewStore(logger, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func modelRun(uniqueID, name string, status string, executionTime float64, executedAt time.Time) *entities.RunResult {
	return &entities.RunResult{
		UniqueID:      uniqueID,
		Name:          name,
		ResourceType:  string(entities.ResourceTypeModel),
		Status:        utils.PtrTo(status),
		ExecutionTime: utils.PtrTo(executionTime),
		ExecutedAt:    utils.PtrTo(executedAt),
	}
}

func testRun(uniqueID, name, status string, dependsOn []string) *entities.RunResult {
	return &entities.RunResult{
		UniqueID:     uniqueID,
		Name:         name,
		ResourceType: string(entities.ResourceTypeTest),
		Status:       utils.PtrTo(status),
		ExecutedAt:   utils.PtrTo(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)),
		DependsOn:    dependsOn,
	}
}

func metadataNode(uniqueID, name string, dependsOn ...string) *entities.ModelMetadata {
	return &entities.ModelMetadata{
		UniqueID:     uniqueID,
		Name:         name,
		ResourceType: string(entities.ResourceTypeModel),
		DependsOn:    dependsOn,
	}
}

func TestLoadRunResultsReplacesPriorRows(t *testing.T) {
	store := newTestStore(t)

	executedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	first := []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "success", 12.5, executedAt),
		modelRun("model.demo.customers", "customers", "success", 3.1, executedAt),
	}
	require.Nil(t, store.LoadRunResults("nightly", first))

	second := []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "error", 1.2, executedAt.Add(time.Hour)),
	}
	require.Nil(t, store.LoadRunResults("nightly", second))

	health, contractError := store.GetModelHealth("nightly")
	require.Nil(t, contractError)
	require.Len(t, health, 1)
	assert.Equal(t, "model.demo.orders", health[0].UniqueID)
	assert.Equal(t, "error", *health[0].Status)
}

func TestLoadEmptySetClearsSchedule(t *testing.T) {
	store := newTestStore(t)

	executedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "success", 12.5, executedAt),
	}))
	require.Nil(t, store.LoadRunResults("nightly", nil))

	health, contractError := store.GetModelHealth("nightly")
	require.Nil(t, contractError)
	assert.Empty(t, health)
}

func TestSchedulesAreIsolated(t *testing.T) {
	store := newTestStore(t)

	executedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "success", 12.5, executedAt),
	}))
	require.Nil(t, store.LoadRunResults("hourly", []*entities.RunResult{
		modelRun("model.demo.events", "events", "error", 2.0, executedAt),
	}))

	nightly, contractError := store.GetModelHealth("nightly")
	require.Nil(t, contractError)
	hourly, contractError := store.GetModelHealth("hourly")
	require.Nil(t, contractError)

	require.Len(t, nightly, 1)
	require.Len(t, hourly, 1)
	assert.Equal(t, "orders", nightly[0].Name)
	assert.Equal(t, "events", hourly[0].Name)
}

func TestModelHealthClassificationAndOrder(t *testing.T) {
	store := newTestStore(t)

	executedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.broken", "broken", "error", 1.0, executedAt),
		modelRun("model.demo.flaky", "flaky", "success", 8.0, executedAt),
		modelRun("model.demo.solid", "solid", "success", 30.0, executedAt),
		testRun("test.demo.not_null_flaky", "not_null_flaky", "fail", []string{"model.demo.flaky"}),
		testRun("test.demo.unique_flaky", "unique_flaky", "pass", []string{"model.demo.flaky"}),
		testRun("test.demo.unique_solid", "unique_solid", "pass", []string{"model.demo.solid"}),
	}))

	health, contractError := store.GetModelHealth("nightly")
	require.Nil(t, contractError)
	require.Len(t, health, 3)

	// Critical first, then Warning, then Healthy.
	assert.Equal(t, "broken", health[0].Name)
	assert.Equal(t, entities.HealthStatusCritical, health[0].HealthStatus)

	assert.Equal(t, "flaky", health[1].Name)
	assert.Equal(t, entities.HealthStatusWarning, health[1].HealthStatus)
	assert.Equal(t, 2, health[1].TotalTests)
	assert.Equal(t, 1, health[1].FailedTests)

	assert.Equal(t, "solid", health[2].Name)
	assert.Equal(t, entities.HealthStatusHealthy, health[2].HealthStatus)
	assert.Equal(t, 1, health[2].TotalTests)
	assert.Equal(t, 0, health[2].FailedTests)
}

func TestModelHealthDeduplicatesToLatestRun(t *testing.T) {
	store := newTestStore(t)

	earlier := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "error", 5.0, earlier),
		modelRun("model.demo.orders", "orders", "success", 6.0, later),
	}))

	health, contractError := store.GetModelHealth("nightly")
	require.Nil(t, contractError)
	require.Len(t, health, 1)
	assert.Equal(t, "success", *health[0].Status)
	assert.Equal(t, entities.HealthStatusHealthy, health[0].HealthStatus)
}

func TestModelHealthPageOrderIsStable(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.a", "a", "success", 1.0, base.Add(2*time.Hour)),
		modelRun("model.demo.b", "b", "success", 1.0, base.Add(time.Hour)),
		modelRun("model.demo.c", "c", "success", 1.0, base),
	}))

	firstPage, contractError := store.GetModelHealthPage("nightly", 2, 0)
	require.Nil(t, contractError)
	secondPage, contractError := store.GetModelHealthPage("nightly", 2, 2)
	require.Nil(t, contractError)

	require.Len(t, firstPage, 2)
	require.Len(t, secondPage, 1)
	assert.Equal(t, "a", firstPage[0].Name)
	assert.Equal(t, "b", firstPage[1].Name)
	assert.Equal(t, "c", secondPage[0].Name)
}

func TestGetTestResultsFailedOnly(t *testing.T) {
	store := newTestStore(t)

	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		testRun("test.demo.not_null", "not_null", "fail", []string{"model.demo.orders", "source.demo.raw"}),
		testRun("test.demo.unique", "unique", "pass", []string{"model.demo.orders"}),
	}))

	all, contractError := store.GetTestResults("nightly", false)
	require.Nil(t, contractError)
	assert.Len(t, all, 2)

	failed, contractError := store.GetTestResults("nightly", true)
	require.Nil(t, contractError)
	require.Len(t, failed, 1)
	assert.Equal(t, "not_null", failed[0].TestName)
	assert.Equal(t, []string{"model.demo.orders"}, failed[0].TestedModels)
}

func TestGetSourceFreshnessRecomputesAndOrders(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	require.Nil(t, store.LoadSourceFreshness("nightly", []*entities.SourceFreshnessResult{
		{
			UniqueID:        "source.demo.raw.orders",
			SourceName:      "raw",
			Name:            "orders",
			TableName:       "orders",
			FreshnessStatus: utils.PtrTo("pass"),
			MaxLoadedAt:     utils.PtrTo(now.Add(-1 * time.Hour)),
		},
		{
			UniqueID:        "source.demo.raw.events",
			SourceName:      "raw",
			Name:            "events",
			TableName:       "events",
			FreshnessStatus: utils.PtrTo("error"),
			MaxLoadedAt:     utils.PtrTo(now.Add(-48 * time.Hour)),
		},
		{
			UniqueID:        "source.demo.raw.users",
			SourceName:      "raw",
			Name:            "users",
			TableName:       "users",
			FreshnessStatus: utils.PtrTo("warn"),
			MaxLoadedAt:     utils.PtrTo(now.Add(-12 * time.Hour)),
		},
	}))

	results, contractError := store.GetSourceFreshness("nightly")
	require.Nil(t, contractError)
	require.Len(t, results, 3)

	assert.Equal(t, "events", results[0].Name)
	assert.Equal(t, "Critical - Data is stale", *results[0].AlertLevel)
	assert.InDelta(t, 48.0, *results[0].HoursSinceLoad, 0.1)

	assert.Equal(t, "users", results[1].Name)
	assert.Equal(t, "Warning - Data aging", *results[1].AlertLevel)

	assert.Equal(t, "orders", results[2].Name)
	assert.Equal(t, "Fresh", *results[2].AlertLevel)
}

func loadDiamondGraph(t *testing.T, store *Store) {
	t.Helper()

	// raw -> staging -> {orders, customers} -> mart
	require.Nil(t, store.LoadModelMetadata("nightly", []*entities.ModelMetadata{
		metadataNode("model.demo.staging", "staging", "source.demo.raw.input"),
		metadataNode("model.demo.orders", "orders", "model.demo.staging"),
		metadataNode("model.demo.customers", "customers", "model.demo.staging"),
		metadataNode("model.demo.mart", "mart", "model.demo.orders", "model.demo.customers"),
	}))

	executedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.Nil(t, store.LoadRunResults("nightly", []*entities.RunResult{
		modelRun("model.demo.staging", "staging", "error", 4.0, executedAt),
		modelRun("model.demo.orders", "orders", "fail", 2.0, executedAt),
		modelRun("model.demo.customers", "customers", "success", 2.0, executedAt),
		modelRun("model.demo.mart", "mart", "skipped", 0.0, executedAt),
	}))
}

func TestGetUpstreamDependencies(t *testing.T) {
	store := newTestStore(t)
	loadDiamondGraph(t, store)

	dependencies, contractError := store.GetUpstreamDependencies("mart", "nightly", 5)
	require.Nil(t, contractError)
	require.Len(t, dependencies, 3)

	assert.Equal(t, "customers", dependencies[0].Name)
	assert.Equal(t, 1, dependencies[0].Level)
	assert.Equal(t, entities.HealthStatusHealthy, *dependencies[0].HealthStatus)

	assert.Equal(t, "orders", dependencies[1].Name)
	assert.Equal(t, 1, dependencies[1].Level)
	assert.Equal(t, entities.HealthStatusCritical, *dependencies[1].HealthStatus)

	assert.Equal(t, "staging", dependencies[2].Name)
	assert.Equal(t, 2, dependencies[2].Level)
	assert.Equal(t, entities.HealthStatusCritical, *dependencies[2].HealthStatus)
}

func TestGetUpstreamDependenciesHonorsMaxDepth(t *testing.T) {
	store := newTestStore(t)
	loadDiamondGraph(t, store)

	dependencies, contractError := store.GetUpstreamDependencies("mart", "nightly", 1)
	require.Nil(t, contractError)
	require.Len(t, dependencies, 2)
	for _, dependency := range dependencies {
		assert.Equal(t, 1, dependency.Level)
	}
}

func TestGetDownstreamImpact(t *testing.T) {
	store := newTestStore(t)
	loadDiamondGraph(t, store)

	impacts, contractError := store.GetDownstreamImpact("staging", "nightly", 5)
	require.Nil(t, contractError)
	require.Len(t, impacts, 3)

	assert.Equal(t, "customers", impacts[0].Name)
	assert.Equal(t, entities.ImpactMayBeAffected, impacts[0].ImpactStatus)

	assert.Equal(t, "orders", impacts[1].Name)
	assert.Equal(t, entities.ImpactAlreadyImpacted, impacts[1].ImpactStatus)

	assert.Equal(t, "mart", impacts[2].Name)
	assert.Equal(t, 2, impacts[2].Level)
	assert.Equal(t, entities.ImpactMayBeAffected, impacts[2].ImpactStatus)
}

func TestLineageUnknownModelYieldsEmptyResult(t *testing.T) {
	store := newTestStore(t)
	loadDiamondGraph(t, store)

	dependencies, contractError := store.GetUpstreamDependencies("nonexistent", "nightly", 5)
	require.Nil(t, contractError)
	assert.Empty(t, dependencies)
}

func TestLineageSurvivesCycles(t *testing.T) {
	store := newTestStore(t)

	require.Nil(t, store.LoadModelMetadata("nightly", []*entities.ModelMetadata{
		metadataNode("model.demo.a", "a", "model.demo.b"),
		metadataNode("model.demo.b", "b", "model.demo.a"),
	}))

	dependencies, contractError := store.GetUpstreamDependencies("a", "nightly", 10)
	require.Nil(t, contractError)
	require.Len(t, dependencies, 1)
	assert.Equal(t, "b", dependencies[0].Name)
}

func loadSearchFixture(t *testing.T, store *Store) {
	t.Helper()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	rows := []*entities.RunResult{
		modelRun("model.demo.orders", "orders", "error", 45.0, base.Add(3*time.Hour)),
		modelRun("model.demo.order_items", "order_items", "success", 12.0, base.Add(2*time.Hour)),
		modelRun("model.demo.customers", "customers", "success", 3.0, base.Add(time.Hour)),
	}
	rows[0].Tags = []string{"core", "finance"}
	rows[1].Tags = []string{"core"}
	rows[2].Tags = []string{"crm"}

	require.Nil(t, store.LoadRunResults("nightly", rows))
}

func TestSearchModelsByStatus(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	page, contractError := store.SearchModels("nightly", `status = "error"`, 10, "")
	require.Nil(t, contractError)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "orders", page.Items[0].Name)
	assert.Nil(t, page.NextPageToken)
}

func TestSearchModelsCaseInsensitiveLike(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	page, contractError := store.SearchModels("nightly", `name ILIKE "%ORDER%"`, 10, "")
	require.Nil(t, contractError)
	require.Len(t, page.Items, 2)
}

func TestSearchModelsByExecutionTime(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	page, contractError := store.SearchModels("nightly", `execution_time > 10`, 10, "")
	require.Nil(t, contractError)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "orders", page.Items[0].Name)
	assert.Equal(t, "order_items", page.Items[1].Name)
}

func TestSearchModelsByTag(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	page, contractError := store.SearchModels("nightly", `tags = "core"`, 10, "")
	require.Nil(t, contractError)
	require.Len(t, page.Items, 2)

	page, contractError = store.SearchModels("nightly", `tags IN ("crm", "finance")`, 10, "")
	require.Nil(t, contractError)
	require.Len(t, page.Items, 2)
}

func TestSearchModelsPagination(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	firstPage, contractError := store.SearchModels("nightly", "", 2, "")
	require.Nil(t, contractError)
	require.Len(t, firstPage.Items, 2)
	require.NotNil(t, firstPage.NextPageToken)
	assert.Equal(t, "orders", firstPage.Items[0].Name)

	secondPage, contractError := store.SearchModels("nightly", "", 2, *firstPage.NextPageToken)
	require.Nil(t, contractError)
	require.Len(t, secondPage.Items, 1)
	assert.Equal(t, "customers", secondPage.Items[0].Name)
}

func TestSearchModelsRejectsBadInput(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	_, contractError := store.SearchModels("nightly", `nonsense = "x"`, 10, "")
	require.NotNil(t, contractError)

	_, contractError = store.SearchModels("nightly", "", 10, "not-a-token")
	require.NotNil(t, contractError)
}

func TestQuerySQL(t *testing.T) {
	store := newTestStore(t)
	loadSearchFixture(t, store)

	result, err := store.QuerySQL(
		"SELECT name, status FROM dbt_run_results WHERE schedule_name = ? ORDER BY name",
		"nightly",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "status"}, result.Columns)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "customers", result.Rows[0][0])
}

func TestQuerySQLPropagatesEngineErrors(t *testing.T) {
	store := newTestStore(t)

	_, err := store.QuerySQL("SELECT * FROM no_such_table")
	require.Error(t, err)
}
