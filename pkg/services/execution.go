package services

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/auth"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/status"
	"github.com/fieldflow/fieldflow/pkg/triggers"
)

// ExecutionService exposes workflow invocation and status queries.
type ExecutionService struct {
	persistence persistence.Persistence
	runner      triggers.Runner
	reporter    *status.Reporter
	authorizer  auth.Authorizer
	catalog     *triggers.Catalog
	ingestor    *triggers.Ingestor
}

// NewExecutionService creates the execution service.
func NewExecutionService(
	p persistence.Persistence,
	runner triggers.Runner,
	reporter *status.Reporter,
	authorizer auth.Authorizer,
	catalog *triggers.Catalog,
	ingestor *triggers.Ingestor,
) *ExecutionService {
	return &ExecutionService{
		persistence: p,
		runner:      runner,
		reporter:    reporter,
		authorizer:  authorizer,
		catalog:     catalog,
		ingestor:    ingestor,
	}
}

// RunWorkflow invokes one workflow directly. Authorization is checked before
// any validation or state is touched.
func (s *ExecutionService) RunWorkflow(ctx context.Context, subject, workflowID string, input map[string]any) (*models.Execution, error) {
	err := s.authorizer.CanExecute(ctx, subject, workflowID)
	if err != nil {
		return nil, err
	}

	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return s.runner.Run(ctx, workflow, input)
}

// FireTrigger ingests an external trigger event and starts every workflow
// bound to it. The event name must exist in the trigger catalog.
func (s *ExecutionService) FireTrigger(ctx context.Context, eventName string, payload map[string]any) ([]string, error) {
	if !s.knownEvent(eventName) {
		return nil, &ServiceError{Op: "fire trigger", Err: ErrUnknownTrigger}
	}

	return s.ingestor.FireTrigger(ctx, eventName, payload)
}

// ExecutionStatus returns the pollable snapshot of one execution.
func (s *ExecutionService) ExecutionStatus(ctx context.Context, executionID string) (*models.ExecutionSnapshot, error) {
	return s.reporter.GetExecutionStatus(ctx, executionID)
}

// ExecutionsByWorkflow returns a workflow's execution history.
func (s *ExecutionService) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return s.persistence.ExecutionRepository().ExecutionsByWorkflow(ctx, workflowID)
}

// SearchTriggers returns catalog descriptors matching the query text. An
// empty query lists the whole catalog.
func (s *ExecutionService) SearchTriggers(query string) []triggers.Descriptor {
	return s.catalog.Search(query)
}

func (s *ExecutionService) knownEvent(eventName string) bool {
	for _, descriptor := range s.catalog.Descriptors() {
		if descriptor.EventName == eventName {
			return true
		}
	}

	return false
}
