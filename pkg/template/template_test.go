package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/models"
)

func TestRender_SimpleExpression(t *testing.T) {
	data := map[string]any{
		"name":  "John",
		"age":   30,
		"isNew": true,
	}

	result, err := Render("{{ .name }}", data)
	require.NoError(t, err)
	assert.Equal(t, "John", result)

	result, err = Render("{{ .isNew }}", data)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	// Numbers always come back as float64.
	result, err = Render("{{ .age }}", data)
	require.NoError(t, err)
	assert.Equal(t, 30.0, result)
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{ .name", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestRenderWithExecution(t *testing.T) {
	execution := &models.Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Input:      map[string]any{"customer_name": "Dana"},
		Steps: []*models.StepResult{
			{
				NodeID: "quote-1",
				Status: models.StepStatusCompleted,
				Output: map[string]any{"total": "420.00"},
			},
		},
	}

	result, err := RenderWithExecution("Hi {{ .input.customer_name }}, your quote is {{ index .steps \"quote-1\" \"total\" }}", execution)
	require.NoError(t, err)
	assert.Equal(t, "Hi Dana, your quote is 420.00", result)

	result, err = RenderWithExecution("{{ .execution.id }}", execution)
	require.NoError(t, err)
	assert.Equal(t, "exec-1", result)
}

func TestRenderString_PassthroughWithoutExpressions(t *testing.T) {
	result, err := RenderString("plain text, no templating", &models.Execution{})
	require.NoError(t, err)
	assert.Equal(t, "plain text, no templating", result)
}

func TestNeedsTemplating(t *testing.T) {
	assert.True(t, NeedsTemplating("Hello {{ .input.name }}"))
	assert.False(t, NeedsTemplating("Hello there"))
}
