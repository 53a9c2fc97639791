// Package client is the query facade over the metadata pipeline: it lazily
// ingests a schedule's artifacts into the store on first use and serves the
// typed health, lineage and performance queries, memoizing the expensive
// aggregates.
package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pipemeta/pipemeta/pkg/artifacts"
	"github.com/pipemeta/pipemeta/pkg/cache"
	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store"
	"github.com/pipemeta/pipemeta/pkg/store/sql"
)

const (
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheEntries    = 256
	defaultSlowModelsLimit = 10
)

type MetadataClient struct {
	log    *logrus.Logger
	source artifacts.ArtifactSource
	store  store.MetadataStore
	parser *artifacts.Parser
	now    func() time.Time

	mu     sync.Mutex
	loaded map[string]struct{}

	dashboardCache  *cache.Cache
	dependencyCache *cache.Cache

	closeOnce sync.Once
	closeErr  error
}

type Option func(*options)

type options struct {
	logger   *logrus.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithClock injects the time source used for cache expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(source artifacts.ArtifactSource, storeURL string, opts ...Option) (*MetadataClient, error) {
	resolved := resolveOptions(opts)

	metadataStore, err := sql.NewStore(resolved.logger, storeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	return newClient(source, metadataStore, resolved), nil
}

// NewWithStore builds a facade over a pre-built store. The caller keeps
// handing over ownership: Close still closes the store.
func NewWithStore(source artifacts.ArtifactSource, metadataStore store.MetadataStore, opts ...Option) *MetadataClient {
	return newClient(source, metadataStore, resolveOptions(opts))
}

func resolveOptions(opts []Option) *options {
	resolved := &options{
		logger:   logrus.StandardLogger(),
		cacheTTL: defaultCacheTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(resolved)
	}

	return resolved
}

func newClient(source artifacts.ArtifactSource, metadataStore store.MetadataStore, resolved *options) *MetadataClient {
	return &MetadataClient{
		log:             resolved.logger,
		source:          source,
		store:           metadataStore,
		parser:          artifacts.NewParser(resolved.logger),
		now:             resolved.now,
		loaded:          make(map[string]struct{}),
		dashboardCache:  cache.NewWithClock(resolved.cacheTTL, defaultCacheEntries, resolved.now),
		dependencyCache: cache.New(0, defaultCacheEntries),
	}
}

// ensureLoaded ingests the schedule's artifacts on first use. A forced
// refresh re-fetches and also drops the schedule's memoized aggregates.
func (c *MetadataClient) ensureLoaded(ctx context.Context, scheduleName string, forceRefresh bool) *contract.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.loaded[scheduleName]; ok && !forceRefresh {
		return nil
	}

	loadID := uuid.NewString()
	c.log.Infof("Loading artifacts for schedule %q (load_id=%s, force=%t)", scheduleName, loadID, forceRefresh)

	set, err := c.source.GetAllLatestArtifacts(ctx, scheduleName)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return contract.NewError(
				contract.ErrorCodeResourceDoesNotExist,
				fmt.Sprintf("no artifacts found for schedule %q", scheduleName),
			)
		}

		return contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to fetch artifacts for schedule %q", scheduleName),
			err,
		)
	}

	parsed := c.parser.Parse(set, scheduleName)

	loads := []func() *contract.Error{
		func() *contract.Error { return c.store.LoadRunResults(scheduleName, parsed.RunResults) },
		func() *contract.Error { return c.store.LoadSourceFreshness(scheduleName, parsed.SourceFreshness) },
		func() *contract.Error { return c.store.LoadModelMetadata(scheduleName, parsed.ModelMetadata) },
		func() *contract.Error { return c.store.LoadSeedData(scheduleName, parsed.Seeds) },
		func() *contract.Error { return c.store.LoadSnapshotData(scheduleName, parsed.Snapshots) },
		func() *contract.Error { return c.store.LoadTestData(scheduleName, parsed.Tests) },
		func() *contract.Error { return c.store.LoadExposureData(scheduleName, parsed.Exposures) },
	}
	for _, load := range loads {
		if contractError := load(); contractError != nil {
			return contractError
		}
	}

	if forceRefresh {
		c.dashboardCache.Clear(scheduleName)
		c.dependencyCache.Clear(scheduleName)
	}

	c.loaded[scheduleName] = struct{}{}
	c.log.Infof(
		"Loaded schedule %q (load_id=%s): %d run results, %d freshness checks, %d metadata nodes",
		scheduleName, loadID, len(parsed.RunResults), len(parsed.SourceFreshness), len(parsed.ModelMetadata),
	)

	return nil
}

func (c *MetadataClient) GetModelHealth(ctx context.Context, scheduleName string) ([]*entities.ModelHealth, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetModelHealth(scheduleName)
}

func (c *MetadataClient) GetTestResults(
	ctx context.Context, scheduleName string, failedOnly bool,
) ([]*entities.TestResult, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetTestResults(scheduleName, failedOnly)
}

func (c *MetadataClient) GetSourceFreshness(
	ctx context.Context, scheduleName string,
) ([]*entities.SourceFreshnessResult, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetSourceFreshness(scheduleName)
}

func (c *MetadataClient) GetSeedData(ctx context.Context, scheduleName string) ([]*entities.SeedData, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetSeedData(scheduleName)
}

func (c *MetadataClient) GetSnapshotData(
	ctx context.Context, scheduleName string,
) ([]*entities.SnapshotData, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetSnapshotData(scheduleName)
}

func (c *MetadataClient) GetTestData(ctx context.Context, scheduleName string) ([]*entities.TestData, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetTestData(scheduleName)
}

func (c *MetadataClient) GetExposureData(
	ctx context.Context, scheduleName string,
) ([]*entities.ExposureData, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.GetExposureData(scheduleName)
}

// GetUpstreamModelHealth reports the ancestors of a model with their latest
// run outcomes. Traversals are memoized until the schedule is reloaded.
func (c *MetadataClient) GetUpstreamModelHealth(
	ctx context.Context, modelName, scheduleName string, maxDepth int,
) ([]*entities.ModelDependency, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	key := cache.Key{
		Schedule: scheduleName,
		Op:       "upstream",
		Args:     fmt.Sprintf("%s|%d", modelName, maxDepth),
	}
	if cached, ok := c.dependencyCache.Get(key); ok {
		if dependencies, ok := cached.([]*entities.ModelDependency); ok {
			return dependencies, nil
		}
	}

	dependencies, contractError := c.store.GetUpstreamDependencies(modelName, scheduleName, maxDepth)
	if contractError != nil {
		return nil, contractError
	}

	c.dependencyCache.Put(key, dependencies)

	return dependencies, nil
}

// GetDownstreamImpact buckets the descendants of a failed model by whether
// their own latest run already failed.
func (c *MetadataClient) GetDownstreamImpact(
	ctx context.Context, modelName, scheduleName string, maxDepth int,
) (*entities.DependencyImpact, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	key := cache.Key{
		Schedule: scheduleName,
		Op:       "downstream",
		Args:     fmt.Sprintf("%s|%d", modelName, maxDepth),
	}
	if cached, ok := c.dependencyCache.Get(key); ok {
		if impact, ok := cached.(*entities.DependencyImpact); ok {
			return impact, nil
		}
	}

	impacts, contractError := c.store.GetDownstreamImpact(modelName, scheduleName, maxDepth)
	if contractError != nil {
		return nil, contractError
	}

	impact := &entities.DependencyImpact{
		FailedModel:         modelName,
		CriticalModels:      make([]string, 0),
		WarningModels:       make([]string, 0),
		PotentiallyAffected: make([]string, 0),
		TotalAffected:       len(impacts),
	}
	for _, node := range impacts {
		switch {
		case node.ImpactStatus == entities.ImpactAlreadyImpacted:
			impact.CriticalModels = append(impact.CriticalModels, node.Name)
		case node.Status != nil && *node.Status == string(entities.RunStatusWarn):
			impact.WarningModels = append(impact.WarningModels, node.Name)
		default:
			impact.PotentiallyAffected = append(impact.PotentiallyAffected, node.Name)
		}
	}

	c.dependencyCache.Put(key, impact)

	return impact, nil
}

// GetHealthDashboard aggregates the schedule's health counters. The result
// is cached for the configured TTL.
func (c *MetadataClient) GetHealthDashboard(
	ctx context.Context, scheduleName string,
) (*entities.HealthDashboard, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	key := cache.Key{Schedule: scheduleName, Op: "dashboard"}
	if cached, ok := c.dashboardCache.Get(key); ok {
		if dashboard, ok := cached.(*entities.HealthDashboard); ok {
			return dashboard, nil
		}
	}

	health, contractError := c.store.GetModelHealth(scheduleName)
	if contractError != nil {
		return nil, contractError
	}
	tests, contractError := c.store.GetTestResults(scheduleName, false)
	if contractError != nil {
		return nil, contractError
	}
	freshness, contractError := c.store.GetSourceFreshness(scheduleName)
	if contractError != nil {
		return nil, contractError
	}

	dashboard := &entities.HealthDashboard{
		ScheduleName: scheduleName,
		TotalModels:  len(health),
		TotalTests:   len(tests),
		LastUpdated:  c.now().UTC(),
	}

	var executionTimeSum float64
	var executionTimeCount int
	for _, modelHealth := range health {
		switch modelHealth.HealthStatus {
		case entities.HealthStatusHealthy:
			dashboard.HealthyModels++
		case entities.HealthStatusWarning:
			dashboard.WarningModels++
		case entities.HealthStatusCritical:
			dashboard.CriticalModels++
		}
		if modelHealth.ExecutionTime != nil {
			executionTimeSum += *modelHealth.ExecutionTime
			executionTimeCount++
		}
	}
	if executionTimeCount > 0 {
		dashboard.AvgExecutionTime = executionTimeSum / float64(executionTimeCount)
	}

	for _, test := range tests {
		if test.Status == string(entities.RunStatusFail) || test.Status == string(entities.RunStatusError) {
			dashboard.FailedTests++
		}
	}
	dashboard.TestSuccessRate = 100.0
	if len(tests) > 0 {
		dashboard.TestSuccessRate = 100.0 * float64(len(tests)-dashboard.FailedTests) / float64(len(tests))
	}

	dashboard.SourcesChecked = len(freshness)
	for _, source := range freshness {
		if source.FreshnessStatus != nil && *source.FreshnessStatus != string(entities.FreshnessStatusPass) {
			dashboard.StaleSources++
		}
	}

	c.dashboardCache.Put(key, dashboard)

	return dashboard, nil
}

func (c *MetadataClient) GetModelsWithFailingTests(
	ctx context.Context, scheduleName string,
) ([]*entities.ModelHealth, *contract.Error) {
	health, contractError := c.GetModelHealth(ctx, scheduleName)
	if contractError != nil {
		return nil, contractError
	}

	failing := make([]*entities.ModelHealth, 0)
	for _, modelHealth := range health {
		if modelHealth.FailedTests > 0 {
			failing = append(failing, modelHealth)
		}
	}

	return failing, nil
}

// GetSlowestModels ranks models by execution time, slowest first. Models
// without a recorded execution time are left out.
func (c *MetadataClient) GetSlowestModels(
	ctx context.Context, scheduleName string, limit int,
) ([]*entities.SlowModel, *contract.Error) {
	if limit <= 0 {
		limit = defaultSlowModelsLimit
	}

	health, contractError := c.GetModelHealth(ctx, scheduleName)
	if contractError != nil {
		return nil, contractError
	}

	timed := make([]*entities.ModelHealth, 0, len(health))
	for _, modelHealth := range health {
		if modelHealth.ExecutionTime != nil {
			timed = append(timed, modelHealth)
		}
	}
	sortByExecutionTimeDesc(timed)

	if len(timed) > limit {
		timed = timed[:limit]
	}

	slowest := make([]*entities.SlowModel, 0, len(timed))
	for _, modelHealth := range timed {
		slowest = append(slowest, &entities.SlowModel{
			Name:          modelHealth.Name,
			ExecutionTime: modelHealth.ExecutionTime,
			Status:        modelHealth.Status,
		})
	}

	return slowest, nil
}

// GetPerformanceMetrics summarizes runs whose executed_at falls within the
// trailing window of the given number of days.
func (c *MetadataClient) GetPerformanceMetrics(
	ctx context.Context, scheduleName string, days int,
) (*entities.PerformanceMetrics, *contract.Error) {
	health, contractError := c.GetModelHealth(ctx, scheduleName)
	if contractError != nil {
		return nil, contractError
	}

	cutoff := c.now().UTC().AddDate(0, 0, -days)
	window := make([]*entities.ModelHealth, 0, len(health))
	for _, modelHealth := range health {
		if modelHealth.ExecutedAt != nil && modelHealth.ExecutedAt.After(cutoff) {
			window = append(window, modelHealth)
		}
	}

	metrics := &entities.PerformanceMetrics{
		ScheduleName:   scheduleName,
		TimePeriodDays: days,
		TotalRuns:      len(window),
		SlowestModels:  make([]entities.SlowModel, 0),
	}

	var executionTimeSum float64
	var executionTimeCount int
	var succeeded int
	timed := make([]*entities.ModelHealth, 0, len(window))

	for _, modelHealth := range window {
		if modelHealth.ExecutionTime != nil {
			executionTimeSum += *modelHealth.ExecutionTime
			executionTimeCount++
			timed = append(timed, modelHealth)
		}
		if modelHealth.Status != nil && *modelHealth.Status == string(entities.RunStatusSuccess) {
			succeeded++
		}
	}

	if executionTimeCount > 0 {
		metrics.AverageExecutionTime = executionTimeSum / float64(executionTimeCount)
	}
	if len(window) > 0 {
		metrics.SuccessRate = 100.0 * float64(succeeded) / float64(len(window))
	}

	sortByExecutionTimeDesc(timed)
	if len(timed) > defaultSlowModelsLimit {
		timed = timed[:defaultSlowModelsLimit]
	}
	for _, modelHealth := range timed {
		metrics.SlowestModels = append(metrics.SlowestModels, entities.SlowModel{
			Name:          modelHealth.Name,
			ExecutionTime: modelHealth.ExecutionTime,
			Status:        modelHealth.Status,
		})
	}

	return metrics, nil
}

// Query bundles the requested sections into one response.
func (c *MetadataClient) Query(
	ctx context.Context, scheduleName string, includeModels, includeTests, includeSources bool,
) (*entities.MetadataResponse, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	response := &entities.MetadataResponse{
		Models:         make([]entities.ModelHealth, 0),
		Tests:          make([]entities.TestResult, 0),
		Sources:        make([]entities.SourceFreshnessResult, 0),
		ScheduleName:   scheduleName,
		QueryTimestamp: c.now().UTC(),
	}

	if includeModels {
		health, contractError := c.store.GetModelHealth(scheduleName)
		if contractError != nil {
			return nil, contractError
		}
		for _, modelHealth := range health {
			response.Models = append(response.Models, *modelHealth)
		}
	}
	if includeTests {
		tests, contractError := c.store.GetTestResults(scheduleName, false)
		if contractError != nil {
			return nil, contractError
		}
		for _, test := range tests {
			response.Tests = append(response.Tests, *test)
		}
	}
	if includeSources {
		sources, contractError := c.store.GetSourceFreshness(scheduleName)
		if contractError != nil {
			return nil, contractError
		}
		for _, source := range sources {
			response.Sources = append(response.Sources, *source)
		}
	}

	return response, nil
}

func (c *MetadataClient) SearchModels(
	ctx context.Context, scheduleName, filter string, maxResults int, pageToken string,
) (*store.PagedList[*entities.ModelHealth], *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	return c.store.SearchModels(scheduleName, filter, maxResults, pageToken)
}

// QuerySQL runs a raw read query after making sure the schedule's data is
// present. Engine errors surface as INVALID_PARAMETER_VALUE since the query
// text is caller-supplied.
func (c *MetadataClient) QuerySQL(
	ctx context.Context, scheduleName, query string, params ...any,
) (*entities.ResultSet, *contract.Error) {
	if err := c.ensureLoaded(ctx, scheduleName, false); err != nil {
		return nil, err
	}

	result, err := c.store.QuerySQL(query, params...)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "query failed", err)
	}

	return result, nil
}

// RefreshMetadata re-ingests the schedule's artifacts and invalidates its
// memoized aggregates.
func (c *MetadataClient) RefreshMetadata(ctx context.Context, scheduleName string) *contract.Error {
	return c.ensureLoaded(ctx, scheduleName, true)
}

// ClearCache drops memoized aggregates. An empty schedule clears everything.
func (c *MetadataClient) ClearCache(scheduleName string) {
	c.dashboardCache.Clear(scheduleName)
	c.dependencyCache.Clear(scheduleName)
}

func (c *MetadataClient) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.store.Close()
	})

	return c.closeErr
}

func sortByExecutionTimeDesc(models []*entities.ModelHealth) {
	sort.SliceStable(models, func(i, j int) bool {
		return *models[i].ExecutionTime > *models[j].ExecutionTime
	})
}
