package web

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes attaches the API surface to a fiber app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	workflows := app.Group("/workflows")
	workflows.Get("/", handlers.GetWorkflows)
	workflows.Post("/", handlers.CreateWorkflow)
	workflows.Get("/templates", handlers.GetWorkflowTemplates)
	workflows.Get("/:id", handlers.GetWorkflow)
	workflows.Patch("/:id", handlers.UpdateWorkflow)
	workflows.Delete("/:id", handlers.DeleteWorkflow)
	workflows.Post("/:id/run", handlers.RunWorkflow)
	workflows.Get("/:id/executions", handlers.GetWorkflowExecutions)

	app.Post("/triggers/:event/fire", handlers.FireTrigger)
	app.Get("/triggers", handlers.GetTriggers)

	app.Get("/executions/:id/status", handlers.GetExecutionStatus)

	app.Get("/channels", handlers.GetChannels)
	app.Get("/health", handlers.HealthCheck)
}
