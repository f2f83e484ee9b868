package web

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/registry"
	"github.com/fieldflow/fieldflow/pkg/services"
)

// SubjectHeader carries the authenticated caller identity. An absent header
// means the request is unauthenticated.
const SubjectHeader = "X-Subject"

// APIHandlers holds the HTTP handlers for the workflow API.
type APIHandlers struct {
	workflows  *services.WorkflowService
	executions *services.ExecutionService
	registry   *registry.Registry
	validator  *validator.Validate
}

// NewAPIHandlers creates the API handler set.
func NewAPIHandlers(
	workflows *services.WorkflowService,
	executions *services.ExecutionService,
	reg *registry.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflows:  workflows,
		executions: executions,
		registry:   reg,
		validator:  validate,
	}
}

func subject(c fiber.Ctx) string {
	return c.Get(SubjectHeader)
}

// GetWorkflows lists all workflows.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflows.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

// GetWorkflowTemplates lists workflows marked as templates.
func (h *APIHandlers) GetWorkflowTemplates(c fiber.Ctx) error {
	templates, err := h.workflows.ListTemplates(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"templates": templates})
}

// GetWorkflow returns one workflow by id.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflows.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// CreateWorkflow creates a workflow from the request body.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req SaveWorkflowRequest

	err := json.Unmarshal(c.Body(), &req)
	if err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	err = h.validator.Struct(&req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsTemplate:  req.IsTemplate,
		Graph:       req.Graph,
	}

	saved, err := h.workflows.SaveWorkflow(c.Context(), subject(c), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UpdateWorkflow applies a partial update to an existing workflow.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflows.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	var req UpdateWorkflowRequest

	err = json.Unmarshal(c.Body(), &req)
	if err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	err = h.validator.Struct(&req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}

	if req.Description != nil {
		workflow.Description = *req.Description
	}

	if req.Category != nil {
		workflow.Category = *req.Category
	}

	if req.IsTemplate != nil {
		workflow.IsTemplate = *req.IsTemplate
	}

	if req.Graph != nil {
		workflow.Graph = *req.Graph
	}

	saved, err := h.workflows.SaveWorkflow(c.Context(), subject(c), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

// DeleteWorkflow removes a workflow. In-flight executions are unaffected.
func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflows.DeleteWorkflow(c.Context(), subject(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunWorkflow invokes a workflow directly and returns the execution record.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	var req RunWorkflowRequest

	if len(c.Body()) > 0 {
		err := json.Unmarshal(c.Body(), &req)
		if err != nil {
			return badRequest(c, "invalid request body: "+err.Error())
		}
	}

	execution, err := h.executions.RunWorkflow(c.Context(), subject(c), c.Params("id"), req.Input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

// GetWorkflowExecutions returns a workflow's execution history.
func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.executions.ExecutionsByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

// FireTrigger ingests an external trigger event and returns the ids of the
// executions it started.
func (h *APIHandlers) FireTrigger(c fiber.Ctx) error {
	var req FireTriggerRequest

	if len(c.Body()) > 0 {
		err := json.Unmarshal(c.Body(), &req)
		if err != nil {
			return badRequest(c, "invalid request body: "+err.Error())
		}
	}

	executionIDs, err := h.executions.FireTrigger(c.Context(), c.Params("event"), req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(FireTriggerResponse{ExecutionIDs: executionIDs})
}

// GetExecutionStatus returns the pollable snapshot of one execution.
func (h *APIHandlers) GetExecutionStatus(c fiber.Ctx) error {
	snapshot, err := h.executions.ExecutionStatus(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(snapshot)
}

// GetTriggers searches the trigger catalog. Without a query it lists the
// whole catalog.
func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"triggers": h.executions.SearchTriggers(c.Query("query"))})
}

// GetChannels lists the configured channel adapters.
func (h *APIHandlers) GetChannels(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"channels": h.registry.AvailableChannels()})
}

// HealthCheck reports persistence health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.workflows.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy", "message": message})
	}

	return c.JSON(fiber.Map{"status": "healthy", "message": message})
}
