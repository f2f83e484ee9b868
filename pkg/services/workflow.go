package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldflow/fieldflow/pkg/auth"
	"github.com/fieldflow/fieldflow/pkg/graph"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// WorkflowService exposes workflow CRUD with authorization and graph
// validation in front of the store.
type WorkflowService struct {
	persistence persistence.Persistence
	authorizer  auth.Authorizer
	validate    *validator.Validate
}

// NewWorkflowService creates the workflow service.
func NewWorkflowService(p persistence.Persistence, authorizer auth.Authorizer) *WorkflowService {
	return &WorkflowService{
		persistence: p,
		authorizer:  authorizer,
		validate:    validator.New(),
	}
}

// HealthCheck reports whether the persistence layer is reachable.
func (s *WorkflowService) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// ListWorkflows returns all stored workflows.
func (s *WorkflowService) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetAll(ctx)
}

// ListTemplates returns the workflows marked as reusable templates.
func (s *WorkflowService) ListTemplates(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.WorkflowRepository().ListTemplates(ctx)
}

// GetWorkflow returns one workflow by id.
func (s *WorkflowService) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetByID(ctx, id)
}

// SaveWorkflow validates the workflow and its graph, then persists it. The
// subject must be authorized to save; nothing is written otherwise.
func (s *WorkflowService) SaveWorkflow(ctx context.Context, subject string, workflow *models.Workflow) (*models.Workflow, error) {
	err := s.authorizer.CanSave(ctx, subject, workflow.ID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, &ServiceError{Op: "save workflow", Err: ErrNameRequired}
	}

	err = s.validate.Struct(workflow)
	if err != nil {
		return nil, &ServiceError{Op: "save workflow", Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	err = graph.Validate(&workflow.Graph)
	if err != nil {
		return nil, &ServiceError{Op: "save workflow", Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	workflow.Owner = subject

	err = s.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// DeleteWorkflow removes a workflow. Running executions keep their frozen
// graph copy and finish unaffected.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, subject, id string) error {
	err := s.authorizer.CanSave(ctx, subject, id)
	if err != nil {
		return err
	}

	return s.persistence.WorkflowRepository().Delete(ctx, id)
}
