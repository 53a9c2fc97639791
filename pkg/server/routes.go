package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pipemeta/pipemeta/pkg/client"
	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
)

const (
	defaultMaxDepth   = 3
	defaultMaxResults = 100
	defaultBatchSize  = 100
	defaultDays       = 7
)

type scheduleRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
}

type streamRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	BatchSize    int    `query:"batch_size"    validate:"gte=0"`
}

type searchRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	Filter       string `query:"filter"`
	MaxResults   int    `query:"max_results"   validate:"gte=0"`
	PageToken    string `query:"page_token"`
}

type slowestRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	Limit        int    `query:"limit"         validate:"gte=0"`
}

type testResultsRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	FailedOnly   bool   `query:"failed_only"`
}

type lineageRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	ModelName    string `query:"model_name"    validate:"required"`
	MaxDepth     int    `query:"max_depth"     validate:"gte=0"`
}

type performanceRequest struct {
	ScheduleName string `query:"schedule_name" validate:"required"`
	Days         string `query:"days"          validate:"omitempty,positiveInteger"`
}

type metadataRequest struct {
	ScheduleName   string `query:"schedule_name" validate:"required"`
	IncludeModels  bool   `query:"include_models"`
	IncludeTests   bool   `query:"include_tests"`
	IncludeSources bool   `query:"include_sources"`
}

type querySQLRequest struct {
	ScheduleName string `json:"schedule_name" validate:"required"`
	SQL          string `json:"sql"           validate:"required"`
	Params       []any  `json:"params"`
}

type refreshRequest struct {
	ScheduleName string `json:"schedule_name" validate:"required"`
}

type clearCacheRequest struct {
	ScheduleName string `query:"schedule_name"`
}

type searchResponse struct {
	Models        []*entities.ModelHealth `json:"models"`
	NextPageToken *string                 `json:"next_page_token,omitempty"`
}

type streamBatchResponse struct {
	Batches [][]*entities.ModelHealth `json:"batches"`
}

//nolint:funlen
func registerRoutes(app *fiber.App, parser contract.HTTPRequestParser, metadataClient *client.MetadataClient) {
	app.Get("/model-health", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		health, contractError := metadataClient.GetModelHealth(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(health)
	})

	app.Get("/model-health/stream", func(c *fiber.Ctx) error {
		var req streamRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}
		if req.BatchSize == 0 {
			req.BatchSize = defaultBatchSize
		}

		stream := metadataClient.GetModelHealthStream(c.Context(), req.ScheduleName, req.BatchSize)
		response := streamBatchResponse{Batches: make([][]*entities.ModelHealth, 0)}
		for stream.Next() {
			response.Batches = append(response.Batches, stream.Batch())
		}
		if err := stream.Err(); err != nil {
			return err
		}

		return c.JSON(response)
	})

	app.Get("/models/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}
		if req.MaxResults == 0 {
			req.MaxResults = defaultMaxResults
		}

		page, contractError := metadataClient.SearchModels(
			c.Context(), req.ScheduleName, req.Filter, req.MaxResults, req.PageToken,
		)
		if contractError != nil {
			return contractError
		}

		return c.JSON(searchResponse{Models: page.Items, NextPageToken: page.NextPageToken})
	})

	app.Get("/models/failing", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		failing, contractError := metadataClient.GetModelsWithFailingTests(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(failing)
	})

	app.Get("/models/slowest", func(c *fiber.Ctx) error {
		var req slowestRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		slowest, contractError := metadataClient.GetSlowestModels(c.Context(), req.ScheduleName, req.Limit)
		if contractError != nil {
			return contractError
		}

		return c.JSON(slowest)
	})

	app.Get("/test-results", func(c *fiber.Ctx) error {
		var req testResultsRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		results, contractError := metadataClient.GetTestResults(c.Context(), req.ScheduleName, req.FailedOnly)
		if contractError != nil {
			return contractError
		}

		return c.JSON(results)
	})

	app.Get("/tests", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		tests, contractError := metadataClient.GetTestData(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(tests)
	})

	app.Get("/seeds", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		seeds, contractError := metadataClient.GetSeedData(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(seeds)
	})

	app.Get("/snapshots", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		snapshots, contractError := metadataClient.GetSnapshotData(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(snapshots)
	})

	app.Get("/exposures", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		exposures, contractError := metadataClient.GetExposureData(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(exposures)
	})

	app.Get("/source-freshness", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		freshness, contractError := metadataClient.GetSourceFreshness(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(freshness)
	})

	app.Get("/lineage/upstream", func(c *fiber.Ctx) error {
		var req lineageRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}
		if req.MaxDepth == 0 {
			req.MaxDepth = defaultMaxDepth
		}

		dependencies, contractError := metadataClient.GetUpstreamModelHealth(
			c.Context(), req.ModelName, req.ScheduleName, req.MaxDepth,
		)
		if contractError != nil {
			return contractError
		}

		return c.JSON(dependencies)
	})

	app.Get("/lineage/downstream", func(c *fiber.Ctx) error {
		var req lineageRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}
		if req.MaxDepth == 0 {
			req.MaxDepth = defaultMaxDepth
		}

		impact, contractError := metadataClient.GetDownstreamImpact(
			c.Context(), req.ModelName, req.ScheduleName, req.MaxDepth,
		)
		if contractError != nil {
			return contractError
		}

		return c.JSON(impact)
	})

	app.Get("/dashboard", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		dashboard, contractError := metadataClient.GetHealthDashboard(c.Context(), req.ScheduleName)
		if contractError != nil {
			return contractError
		}

		return c.JSON(dashboard)
	})

	app.Get("/performance", func(c *fiber.Ctx) error {
		var req performanceRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		days := defaultDays
		if req.Days != "" {
			days, _ = strconv.Atoi(req.Days)
		}

		metrics, contractError := metadataClient.GetPerformanceMetrics(c.Context(), req.ScheduleName, days)
		if contractError != nil {
			return contractError
		}

		return c.JSON(metrics)
	})

	app.Get("/metadata", func(c *fiber.Ctx) error {
		var req metadataRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		response, contractError := metadataClient.Query(
			c.Context(), req.ScheduleName, req.IncludeModels, req.IncludeTests, req.IncludeSources,
		)
		if contractError != nil {
			return contractError
		}

		return c.JSON(response)
	})

	app.Post("/query-sql", func(c *fiber.Ctx) error {
		var req querySQLRequest
		if err := parser.ParseBody(c, &req); err != nil {
			return err
		}

		result, contractError := metadataClient.QuerySQL(c.Context(), req.ScheduleName, req.SQL, req.Params...)
		if contractError != nil {
			return contractError
		}

		return c.JSON(result)
	})

	app.Post("/refresh", func(c *fiber.Ctx) error {
		var req refreshRequest
		if err := parser.ParseBody(c, &req); err != nil {
			return err
		}

		if contractError := metadataClient.RefreshMetadata(c.Context(), req.ScheduleName); contractError != nil {
			return contractError
		}

		return c.JSON(fiber.Map{"schedule_name": req.ScheduleName, "refreshed": true})
	})

	app.Delete("/cache", func(c *fiber.Ctx) error {
		var req clearCacheRequest
		if err := parser.ParseQuery(c, &req); err != nil {
			return err
		}

		metadataClient.ClearCache(req.ScheduleName)

		return c.JSON(fiber.Map{"cleared": true})
	})
}
