// Package main provides the Flowork API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/floworkhq/flowork/pkg/eventbus"
	"github.com/floworkhq/flowork/pkg/llm"
	"github.com/floworkhq/flowork/pkg/persistence"
	"github.com/floworkhq/flowork/pkg/services"
	"github.com/floworkhq/flowork/pkg/web"
	"github.com/floworkhq/flowork/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	llmManager  *llm.Manager
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	llmManager *llm.Manager,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		llmManager:  llmManager,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.eventBus, a.logger)
	executor := workflow.NewExecutor(a.llmManager, a.eventBus, a.tracer, a.logger)
	executionService := services.NewExecution(workflowService, executor, a.logger)

	handlers := web.NewAPIHandlers(workflowService, executionService, a.llmManager, a.validate, a.persistence)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowork API")
	})

	api := app.Group("/api")
	api.Get("/health", handlers.HealthCheck)

	w := api.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Post("/:id/validate", handlers.ValidateWorkflow)

	api.Get("/llm/status", handlers.LLMStatus)
	api.Post("/llm/initialize", handlers.LLMInitialize)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
