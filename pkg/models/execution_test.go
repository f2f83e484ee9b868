package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionStatusTerminal(t *testing.T) {
	assert.False(t, ExecutionStatusPending.Terminal())
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.True(t, ExecutionStatusCompleted.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
}

func TestExecutionSnapshotIsDeterministic(t *testing.T) {
	execution := &Execution{
		ID:          "exec-1",
		WorkflowID:  "wf-1",
		Status:      ExecutionStatusRunning,
		Progress:    50,
		CurrentStep: "Send SMS",
		Steps: []*StepResult{
			{NodeID: "a", Status: StepStatusCompleted},
			{NodeID: "b", Status: StepStatusFailed, Error: "provider rejected request"},
		},
	}

	first := execution.Snapshot()
	second := execution.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, "exec-1", first.ExecutionID)
	assert.Equal(t, 50, first.Progress)
	assert.Len(t, first.Steps, 2)
	assert.Equal(t, "provider rejected request", first.Steps[1].Error)
}

func TestExecutionStepLookup(t *testing.T) {
	execution := &Execution{
		Steps: []*StepResult{
			{NodeID: "a", Status: StepStatusPending},
			{NodeID: "b", Status: StepStatusPending},
		},
	}

	assert.NotNil(t, execution.Step("a"))
	assert.Nil(t, execution.Step("missing"))
}
