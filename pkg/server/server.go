// Package server exposes the metadata facade over HTTP: a read-mostly JSON
// API for health, lineage, freshness and search queries plus the refresh
// and cache-invalidation verbs.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pipemeta/pipemeta/pkg/client"
	"github.com/pipemeta/pipemeta/pkg/config"
	"github.com/pipemeta/pipemeta/pkg/contract"
)

// Launch serves the API until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func Launch(ctx context.Context, log *logrus.Logger, cfg *config.Config, metadataClient *client.MetadataClient) error {
	app, err := newApp(log, cfg, metadataClient)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout.Duration); err != nil {
			log.Errorf("Failed to gracefully shutdown server: %v", err)
		}
	}()

	log.Infof("Serving metadata API on %s", cfg.Address)
	if err := app.Listen(cfg.Address); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func newApp(log *logrus.Logger, cfg *config.Config, metadataClient *client.MetadataClient) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		BodyLimit:             16 * 1024 * 1024,
		ReadBufferSize:        16384,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          600 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "pipemeta/" + cfg.Version,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(compress.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.SendString(cfg.Version)
	})

	apiApp, err := newAPIApp(log, metadataClient)
	if err != nil {
		return nil, err
	}
	app.Mount("/api/2.0/pipemeta", apiApp)

	return app, nil
}

func newAPIApp(log *logrus.Logger, metadataClient *client.MetadataClient) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *contract.Error
			if !errors.As(err, &e) {
				code := contract.ErrorCodeInternalError

				var f *fiber.Error
				if errors.As(err, &f) {
					switch f.Code {
					case fiber.StatusBadRequest:
						code = contract.ErrorCodeBadRequest
					case fiber.StatusServiceUnavailable:
						code = contract.ErrorCodeServiceUnderMaintenance
					case fiber.StatusNotFound:
						code = contract.ErrorCodeEndpointNotFound
					}
				}

				e = contract.NewError(code, err.Error())
			}

			var fn func(format string, args ...any)

			switch e.StatusCode() {
			case fiber.StatusBadRequest:
				fn = log.Infof
			case fiber.StatusServiceUnavailable:
				fn = log.Warnf
			case fiber.StatusNotFound:
				fn = log.Debugf
			default:
				fn = log.Errorf
			}

			fn("Error encountered in %s %s: %s", c.Method(), c.Path(), err)

			return c.Status(e.StatusCode()).JSON(e)
		},
	})

	parser, err := NewHTTPRequestParser()
	if err != nil {
		return nil, err
	}

	registerRoutes(app, parser, metadataClient)

	return app, nil
}
