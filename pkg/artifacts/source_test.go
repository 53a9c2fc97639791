package artifacts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipemeta/pipemeta/pkg/artifacts"
)

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestDirectorySourceMergesRunResults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nightly")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	writeArtifact(t, dir, "manifest.json",
		`{"nodes": {"model.analytics.orders": {"name": "orders", "resource_type": "model"}}}`)
	writeArtifact(t, dir, "run_results_1.json",
		`{"elapsed_time": 10, "results": [{"unique_id": "model.analytics.orders", "status": "success"}]}`)
	writeArtifact(t, dir, "run_results_2.json",
		`{"elapsed_time": 5, "results": [{"unique_id": "test.analytics.not_null_orders_id", "status": "pass"}]}`)

	source := artifacts.NewDirectorySource(newTestLogger(), root)
	set, err := source.GetAllLatestArtifacts(context.Background(), "nightly")
	require.NoError(t, err)
	require.NotNil(t, set)

	runResults, ok := set.RunResults.(*artifacts.RunResultsDoc)
	require.True(t, ok)
	assert.InDelta(t, 15.0, runResults.ElapsedTime, 0.0001)
	assert.Len(t, runResults.Results, 2)

	manifest, ok := set.Manifest.(*artifacts.ManifestDoc)
	require.True(t, ok)
	assert.Contains(t, manifest.Nodes, "model.analytics.orders")

	assert.Nil(t, set.Sources)
}

func TestDirectorySourceNotFound(t *testing.T) {
	source := artifacts.NewDirectorySource(newTestLogger(), t.TempDir())

	_, err := source.GetAllLatestArtifacts(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, artifacts.ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestDirectorySourceSkipsInvalidFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nightly")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	writeArtifact(t, dir, "manifest.json", `{invalid`)
	writeArtifact(t, dir, "sources.json",
		`{"results": [{"unique_id": "source.raw.events", "status": "pass"}]}`)

	set, err := artifacts.NewDirectorySource(newTestLogger(), root).
		GetAllLatestArtifacts(context.Background(), "nightly")
	require.NoError(t, err)
	require.NotNil(t, set)

	assert.Nil(t, set.Manifest)
	sources, ok := set.Sources.(*artifacts.SourcesDoc)
	require.True(t, ok)
	require.Len(t, sources.Results, 1)
	assert.Equal(t, "source.raw.events", sources.Results[0].UniqueID)
}

func TestDirectorySourceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := artifacts.NewDirectorySource(newTestLogger(), t.TempDir()).
		GetAllLatestArtifacts(ctx, "nightly")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
