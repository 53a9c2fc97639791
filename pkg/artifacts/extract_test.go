package artifacts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipemeta/pipemeta/pkg/artifacts"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

func ts(t *testing.T, value string) artifacts.Timestamp {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return artifacts.Timestamp{Time: parsed}
}

func TestExtractRunResults(t *testing.T) {
	doc := &artifacts.RunResultsDoc{
		Results: []artifacts.RunResultEntry{
			{
				UniqueID:      "model.analytics.orders",
				Status:        utils.PtrTo("success"),
				ExecutionTime: utils.PtrTo(2.5),
				Message:       utils.PtrTo("SELECT 42"),
				ThreadID:      utils.PtrTo("Thread-1"),
				Timing: []artifacts.TimingEntry{
					{Name: "compile", StartedAt: ts(t, "2024-05-01T10:00:00Z"), CompletedAt: ts(t, "2024-05-01T10:00:01Z")},
					{Name: "execute", StartedAt: ts(t, "2024-05-01T10:00:01Z"), CompletedAt: ts(t, "2024-05-01T10:00:03Z")},
				},
			},
			{UniqueID: ""},
			{
				UniqueID: "model.analytics.customers",
				Status:   utils.PtrTo("error"),
				Message:  utils.PtrTo("relation does not exist"),
			},
		},
	}

	results := artifacts.ExtractRunResults(doc)
	require.Len(t, results, 2)

	orders := results[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, "model", orders.ResourceType)
	require.NotNil(t, orders.ExecutedAt)
	assert.Equal(t, ts(t, "2024-05-01T10:00:03Z").Time, *orders.ExecutedAt)
	require.NotNil(t, orders.CompileStartedAt)
	assert.Equal(t, ts(t, "2024-05-01T10:00:00Z").Time, *orders.CompileStartedAt)
	require.NotNil(t, orders.ExecuteStartedAt)
	assert.Equal(t, ts(t, "2024-05-01T10:00:01Z").Time, *orders.ExecuteStartedAt)
	assert.Nil(t, orders.ErrorMessage)
	assert.Equal(t, []string{}, orders.DependsOn)

	customers := results[1]
	require.NotNil(t, customers.ErrorMessage)
	assert.Equal(t, "relation does not exist", *customers.ErrorMessage)
	assert.Nil(t, customers.ExecutedAt)
}

func TestExtractRunResultsFallsBackToLastTiming(t *testing.T) {
	doc := &artifacts.RunResultsDoc{
		Results: []artifacts.RunResultEntry{
			{
				UniqueID: "seed.analytics.countries",
				Timing: []artifacts.TimingEntry{
					{Name: "materialize", CompletedAt: ts(t, "2024-05-01T11:00:00Z")},
				},
			},
		},
	}

	results := artifacts.ExtractRunResults(doc)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].ExecutedAt)
	assert.Equal(t, ts(t, "2024-05-01T11:00:00Z").Time, *results[0].ExecutedAt)
}

func TestExtractSourceFreshness(t *testing.T) {
	sources := &artifacts.SourcesDoc{
		Results: []artifacts.SourceFreshnessEntry{
			{
				UniqueID:      "source.raw.events",
				Status:        utils.PtrTo("warn"),
				MaxLoadedAt:   ts(t, "2024-05-01T00:00:00Z"),
				SnapshottedAt: ts(t, "2024-05-01T06:00:00Z"),
				Criteria: &artifacts.CriteriaDoc{
					WarnAfter:  &artifacts.ThresholdDoc{Count: utils.PtrTo(4.0), Period: utils.PtrTo("hour")},
					ErrorAfter: &artifacts.ThresholdDoc{Count: utils.PtrTo(12.0), Period: utils.PtrTo("hour")},
				},
			},
			{UniqueID: "source.short"},
		},
	}
	manifest := &artifacts.ManifestDoc{
		Sources: map[string]artifacts.ManifestSource{
			"source.raw.events": {
				Database:   utils.PtrTo("warehouse"),
				Schema:     utils.PtrTo("raw"),
				Identifier: utils.PtrTo("events_v1"),
				Loader:     utils.PtrTo("fivetran"),
				Meta:       map[string]any{"owner": "data-eng"},
				Tags:       []string{"pii"},
			},
		},
	}

	results := artifacts.ExtractSourceFreshness(sources, manifest)
	require.Len(t, results, 2)

	events := results[0]
	assert.Equal(t, "raw", events.SourceName)
	assert.Equal(t, "events", events.TableName)
	assert.Equal(t, "events", events.Name)
	assert.True(t, events.FreshnessChecked)
	require.NotNil(t, events.HoursSinceLoad)
	assert.InDelta(t, 6.0, *events.HoursSinceLoad, 0.0001)
	require.NotNil(t, events.MaxLoadedAtTimeAgoInS)
	assert.InDelta(t, 21600.0, *events.MaxLoadedAtTimeAgoInS, 0.0001)
	require.NotNil(t, events.WarnAfterHours)
	assert.InDelta(t, 4.0, *events.WarnAfterHours, 0.0001)
	require.NotNil(t, events.ErrorAfterHours)
	assert.InDelta(t, 12.0, *events.ErrorAfterHours, 0.0001)
	require.NotNil(t, events.Database)
	assert.Equal(t, "warehouse", *events.Database)
	require.NotNil(t, events.SchemaName)
	assert.Equal(t, "raw", *events.SchemaName)
	require.NotNil(t, events.Owner)
	assert.Equal(t, "data-eng", *events.Owner)
	require.NotNil(t, events.Loader)
	assert.Equal(t, "fivetran", *events.Loader)

	short := results[1]
	assert.Equal(t, "short", short.SourceName)
	assert.Equal(t, "unknown", short.TableName)
	assert.False(t, short.FreshnessChecked)
	assert.Nil(t, short.HoursSinceLoad)
	require.NotNil(t, short.Description)
	assert.Empty(t, *short.Description)
	require.NotNil(t, short.Type)
	assert.Equal(t, "table", *short.Type)
}

func TestExtractModelMetadata(t *testing.T) {
	manifest := &artifacts.ManifestDoc{
		Nodes: map[string]artifacts.ManifestNode{
			"model.analytics.orders": {
				Name:         "orders",
				ResourceType: "model",
				DependsOn:    artifacts.DependsOnDoc{Nodes: []string{"model.analytics.stg_orders", "source.raw.orders"}},
				Config:       map[string]any{"materialized": "table"},
				Meta:         map[string]any{"owner": "data-eng"},
				CompiledCode: utils.PtrTo(""),
				CompiledSQL:  utils.PtrTo("select * from stg_orders"),
			},
			"model.analytics.stg_orders": {
				Name:         "stg_orders",
				ResourceType: "model",
			},
			"docs.analytics.overview": {Name: "overview"},
		},
	}

	records := artifacts.ExtractModelMetadata(manifest)
	require.Len(t, records, 2)

	orders := records[0]
	assert.Equal(t, "model.analytics.orders", orders.UniqueID)
	assert.Equal(t, []string{"model.analytics.stg_orders"}, orders.ParentsModels)
	assert.Equal(t, []string{"source.raw.orders"}, orders.ParentsSources)
	require.NotNil(t, orders.MaterializedType)
	assert.Equal(t, "table", *orders.MaterializedType)
	require.NotNil(t, orders.Language)
	assert.Equal(t, "sql", *orders.Language)
	require.NotNil(t, orders.Owner)
	assert.Equal(t, "data-eng", *orders.Owner)
	require.NotNil(t, orders.CompiledSQL)
	assert.Equal(t, "select * from stg_orders", *orders.CompiledSQL)
	assert.Equal(t, []string{}, orders.Children)

	stgOrders := records[1]
	assert.Equal(t, "model.analytics.stg_orders", stgOrders.UniqueID)
	assert.Equal(t, []string{"model.analytics.orders"}, stgOrders.Children)
	assert.Equal(t, []string{}, stgOrders.DependsOn)
	assert.Nil(t, stgOrders.MaterializedType)
}

func TestEnrichRunResults(t *testing.T) {
	results := []*entities.RunResult{
		{UniqueID: "model.analytics.orders", Status: utils.PtrTo("success")},
		{UniqueID: "model.analytics.bare"},
		{UniqueID: "model.analytics.orphan"},
	}
	metadata := []*entities.ModelMetadata{
		{
			UniqueID:   "model.analytics.orders",
			DependsOn:  []string{"model.analytics.stg_orders"},
			SchemaName: utils.PtrTo("analytics"),
			Config:     map[string]any{"materialized": "incremental"},
			Owner:      utils.PtrTo("data-eng"),
			Children:   []string{"model.analytics.orders_daily"},
		},
		{UniqueID: "model.analytics.bare"},
	}

	artifacts.EnrichRunResults(results, metadata)

	enriched := results[0]
	assert.Equal(t, []string{"model.analytics.stg_orders"}, enriched.DependsOn)
	require.NotNil(t, enriched.SchemaName)
	assert.Equal(t, "analytics", *enriched.SchemaName)
	require.NotNil(t, enriched.ModelType)
	assert.Equal(t, "incremental", *enriched.ModelType)
	require.NotNil(t, enriched.Owner)
	assert.Equal(t, "data-eng", *enriched.Owner)
	assert.Equal(t, []string{"model.analytics.orders_daily"}, enriched.Children)

	bare := results[1]
	require.NotNil(t, bare.ModelType)
	assert.Equal(t, "unknown", *bare.ModelType)

	orphan := results[2]
	assert.Nil(t, orphan.SchemaName)
	assert.Nil(t, orphan.ModelType)
	assert.Nil(t, orphan.DependsOn)
}
