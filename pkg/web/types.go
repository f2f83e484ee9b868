// Package web provides the REST surface for workflow management, trigger
// ingestion and execution status polling.
package web

import "github.com/fieldflow/fieldflow/pkg/models"

// SaveWorkflowRequest is the body for creating a workflow.
type SaveWorkflowRequest struct {
	Name        string       `json:"name"        validate:"required,min=3"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	IsTemplate  bool         `json:"is_template"`
	Graph       models.Graph `json:"graph"`
}

// UpdateWorkflowRequest is the body for partial workflow updates. Only
// supplied fields change.
type UpdateWorkflowRequest struct {
	Name        *string       `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string       `json:"description,omitempty"`
	Category    *string       `json:"category,omitempty"`
	IsTemplate  *bool         `json:"is_template,omitempty"`
	Graph       *models.Graph `json:"graph,omitempty"`
}

// RunWorkflowRequest is the body for invoking a workflow directly.
type RunWorkflowRequest struct {
	Input map[string]any `json:"input"`
}

// FireTriggerRequest is the body for ingesting an external trigger event.
type FireTriggerRequest struct {
	Payload map[string]any `json:"payload"`
}

// FireTriggerResponse lists the executions started by one trigger event.
type FireTriggerResponse struct {
	ExecutionIDs []string `json:"execution_ids"`
}
