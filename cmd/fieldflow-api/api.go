// Package main provides the fieldflow API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/fieldflow/fieldflow/pkg/auth"
	"github.com/fieldflow/fieldflow/pkg/engine"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/registry"
	"github.com/fieldflow/fieldflow/pkg/services"
	"github.com/fieldflow/fieldflow/pkg/status"
	"github.com/fieldflow/fieldflow/pkg/triggers"
	"github.com/fieldflow/fieldflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	refresher   *triggers.Refresher
	handlers    *web.APIHandlers
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	authorizer := auth.NewStaticAuthorizer()

	eng := engine.NewEngine(p.ExecutionRepository(), reg, eventBus, logger, nil, engine.Options{})

	triggerRegistry := triggers.NewRegistry()
	ingestor := triggers.NewIngestor(triggerRegistry, p.WorkflowRepository(), eng, logger)
	refresher := triggers.NewRefresher(triggerRegistry, p.WorkflowRepository(), p.AutomationRepository(), logger, 0)

	workflowService := services.NewWorkflowService(p, authorizer)
	executionService := services.NewExecutionService(
		p,
		eng,
		status.NewReporter(p.ExecutionRepository()),
		authorizer,
		triggers.NewCatalog(),
		ingestor,
	)

	handlers := web.NewAPIHandlers(
		workflowService,
		executionService,
		reg,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	return &API{
		logger:      logger,
		persistence: p,
		registry:    reg,
		eventBus:    eventBus,
		refresher:   refresher,
		handlers:    handlers,
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Fieldflow API")
	})

	web.RegisterRoutes(app, a.handlers)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	err := a.refresher.Refresh(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "initial trigger registry refresh failed", "error", err)
	}

	go a.refresher.Run(ctx)

	return a.App().Listen(":" + strconv.Itoa(port))
}
