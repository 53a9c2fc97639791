package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipemeta/pipemeta/pkg/artifacts"
	"github.com/pipemeta/pipemeta/pkg/client"
	"github.com/pipemeta/pipemeta/pkg/config"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

type staticSource struct {
	set *artifacts.ArtifactSet
}

func (s *staticSource) GetAllLatestArtifacts(_ context.Context, _ string) (*artifacts.ArtifactSet, error) {
	if s.set == nil {
		return nil, artifacts.ErrNotFound
	}

	return s.set, nil
}

func fixtureArtifacts() *artifacts.ArtifactSet {
	executedAt := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	timing := []artifacts.TimingEntry{
		{
			Name:        "execute",
			StartedAt:   artifacts.Timestamp{Time: executedAt.Add(-time.Minute)},
			CompletedAt: artifacts.Timestamp{Time: executedAt},
		},
	}

	return &artifacts.ArtifactSet{
		Manifest: &artifacts.ManifestDoc{
			Nodes: map[string]artifacts.ManifestNode{
				"model.demo.orders": {
					Name:         "orders",
					ResourceType: "model",
					DependsOn:    artifacts.DependsOnDoc{Nodes: []string{"model.demo.staging"}},
				},
				"model.demo.staging": {
					Name:         "staging",
					ResourceType: "model",
				},
			},
		},
		RunResults: &artifacts.RunResultsDoc{
			Results: []artifacts.RunResultEntry{
				{
					UniqueID:      "model.demo.orders",
					Status:        utils.PtrTo("error"),
					ExecutionTime: utils.PtrTo(2.0),
					Timing:        timing,
				},
				{
					UniqueID:      "model.demo.staging",
					Status:        utils.PtrTo("success"),
					ExecutionTime: utils.PtrTo(5.0),
					Timing:        timing,
				},
			},
		},
	}
}

func newTestApp(t *testing.T, source artifacts.ArtifactSource) *fiber.App {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	metadataStore, err := sql.NewStore(logger, ":memory:")
	require.NoError(t, err)

	metadataClient := client.NewWithStore(source, metadataStore, client.WithLogger(logger))
	t.Cleanup(func() {
		require.NoError(t, metadataClient.Close())
	})

	cfg := config.Defaults()
	app, err := newApp(logger, cfg, metadataClient)
	require.NoError(t, err)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	response, err := app.Test(req, 10_000)
	require.NoError(t, err)

	payload, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	return response, payload
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "OK", string(payload))

	response, payload = doRequest(t, app, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "dev", string(payload))
}

func TestModelHealthEndpoint(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet, "/api/2.0/pipemeta/model-health?schedule_name=nightly", "",
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var health []entities.ModelHealth
	require.NoError(t, json.Unmarshal(payload, &health))
	require.Len(t, health, 2)
	assert.Equal(t, "orders", health[0].Name)
	assert.Equal(t, entities.HealthStatusCritical, health[0].HealthStatus)
}

func TestMissingScheduleNameIsRejected(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(t, app, http.MethodGet, "/api/2.0/pipemeta/model-health", "")
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Contains(t, string(payload), "INVALID_PARAMETER_VALUE")
	assert.Contains(t, string(payload), "ScheduleName")
}

func TestUnknownScheduleIs404(t *testing.T) {
	app := newTestApp(t, &staticSource{})

	response, payload := doRequest(
		t, app, http.MethodGet, "/api/2.0/pipemeta/model-health?schedule_name=ghost", "",
	)
	require.Equal(t, http.StatusNotFound, response.StatusCode)
	assert.Contains(t, string(payload), "RESOURCE_DOES_NOT_EXIST")
}

func TestSearchEndpoint(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet,
		"/api/2.0/pipemeta/models/search?schedule_name=nightly&filter="+
			"status+%3D+%22error%22",
		"",
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var result searchResponse
	require.NoError(t, json.Unmarshal(payload, &result))
	require.Len(t, result.Models, 1)
	assert.Equal(t, "orders", result.Models[0].Name)
}

func TestSearchEndpointRejectsBadFilter(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet,
		"/api/2.0/pipemeta/models/search?schedule_name=nightly&filter=bogus+%3D+%22x%22",
		"",
	)
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Contains(t, string(payload), "INVALID_PARAMETER_VALUE")
}

func TestLineageEndpoints(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet,
		"/api/2.0/pipemeta/lineage/downstream?schedule_name=nightly&model_name=staging",
		"",
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var impact entities.DependencyImpact
	require.NoError(t, json.Unmarshal(payload, &impact))
	assert.Equal(t, []string{"orders"}, impact.CriticalModels)
}

func TestDashboardEndpoint(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet, "/api/2.0/pipemeta/dashboard?schedule_name=nightly", "",
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var dashboard entities.HealthDashboard
	require.NoError(t, json.Unmarshal(payload, &dashboard))
	assert.Equal(t, 2, dashboard.TotalModels)
	assert.Equal(t, 1, dashboard.CriticalModels)
	assert.Equal(t, 1, dashboard.HealthyModels)
}

func TestQuerySQLEndpoint(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodPost, "/api/2.0/pipemeta/query-sql",
		`{"schedule_name": "nightly", "sql": "SELECT COUNT(*) AS n FROM dbt_run_results"}`,
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var result entities.ResultSet
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, []string{"n"}, result.Columns)
}

func TestQuerySQLRequiresSQL(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodPost, "/api/2.0/pipemeta/query-sql", `{"schedule_name": "nightly"}`,
	)
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Contains(t, string(payload), "SQL")
}

func TestRefreshAndClearCacheEndpoints(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, _ := doRequest(
		t, app, http.MethodPost, "/api/2.0/pipemeta/refresh", `{"schedule_name": "nightly"}`,
	)
	assert.Equal(t, http.StatusOK, response.StatusCode)

	response, _ = doRequest(t, app, http.MethodDelete, "/api/2.0/pipemeta/cache?schedule_name=nightly", "")
	assert.Equal(t, http.StatusOK, response.StatusCode)
}

func TestStreamEndpoint(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, payload := doRequest(
		t, app, http.MethodGet,
		"/api/2.0/pipemeta/model-health/stream?schedule_name=nightly&batch_size=1",
		"",
	)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var result streamBatchResponse
	require.NoError(t, json.Unmarshal(payload, &result))
	require.Len(t, result.Batches, 2)
	assert.Len(t, result.Batches[0], 1)
}

func TestUnknownEndpointIs404(t *testing.T) {
	app := newTestApp(t, &staticSource{set: fixtureArtifacts()})

	response, _ := doRequest(t, app, http.MethodGet, "/api/2.0/pipemeta/nope?schedule_name=x", "")
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
}
