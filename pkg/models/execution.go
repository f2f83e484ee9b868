package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run. Transitions are
// one-directional: pending -> running -> completed | failed.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is final. A terminal execution record
// is immutable; history is append-only.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// StepStatus is the state of one node within one execution. It follows the
// same direction as ExecutionStatus, plus skipped for nodes that never
// started because an earlier step failed or the run was cancelled.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Channel identifies an external side-effect medium.
type Channel string

const (
	ChannelSMS        Channel = "sms"
	ChannelWhatsApp   Channel = "whatsapp"
	ChannelEmail      Channel = "email"
	ChannelSocial     Channel = "social"
	ChannelCalendar   Channel = "calendar"
	ChannelTelephony  Channel = "telephony"
	ChannelAutomation Channel = "automation"
)

// DispatchResult is the recorded outcome of one channel dispatch, attached to
// the step that triggered it. It is recorded verbatim even on failure.
type DispatchResult struct {
	Channel    Channel `json:"channel"`
	Success    bool    `json:"success"`
	ExternalID string  `json:"external_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// StepResult is the recorded outcome of one node within one execution. At
// most one StepResult exists per node id per execution.
type StepResult struct {
	NodeID      string          `json:"node_id"`
	Status      StepStatus      `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Output      map[string]any  `json:"output,omitempty"`
	Dispatch    *DispatchResult `json:"dispatch,omitempty"`
}

// Execution is one run of a workflow against a triggering input. Steps are
// ordered by the graph's topological order at start time.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	Steps       []*StepResult   `json:"steps"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Input       map[string]any  `json:"input,omitempty"`
	Output      map[string]any  `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Step returns the step result for the given node id, or nil.
func (e *Execution) Step(nodeID string) *StepResult {
	for _, step := range e.Steps {
		if step.NodeID == nodeID {
			return step
		}
	}

	return nil
}

// StepSnapshot is the per-node slice of an execution snapshot.
type StepSnapshot struct {
	NodeID string     `json:"node_id"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// ExecutionSnapshot is the pollable view of an execution. It is derived
// deterministically from the execution record: two snapshots taken with no
// intervening engine progress are identical.
type ExecutionSnapshot struct {
	ExecutionID string          `json:"execution_id"`
	Status      ExecutionStatus `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Error       string          `json:"error,omitempty"`
	Steps       []StepSnapshot  `json:"steps"`
}

// Snapshot derives the pollable view from the execution record.
func (e *Execution) Snapshot() *ExecutionSnapshot {
	steps := make([]StepSnapshot, 0, len(e.Steps))
	for _, step := range e.Steps {
		steps = append(steps, StepSnapshot{
			NodeID: step.NodeID,
			Status: step.Status,
			Error:  step.Error,
		})
	}

	return &ExecutionSnapshot{
		ExecutionID: e.ID,
		Status:      e.Status,
		Progress:    e.Progress,
		CurrentStep: e.CurrentStep,
		Error:       e.Error,
		Steps:       steps,
	}
}
