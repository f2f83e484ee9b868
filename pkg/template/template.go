// Package template provides templating functionality for dynamic message and
// payload content.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// RenderWithExecution renders a template string against one execution's
// context: the triggering input, prior step outputs keyed by node id, and the
// execution identity.
func RenderWithExecution(input string, execution *models.Execution) (any, error) {
	steps := make(map[string]any, len(execution.Steps))
	for _, step := range execution.Steps {
		steps[step.NodeID] = step.Output
	}

	data := map[string]any{
		"input": execution.Input,
		"steps": steps,
		"env":   envVars(),
		"execution": map[string]any{
			"id":          execution.ID,
			"workflow_id": execution.WorkflowID,
		},
	}

	return Render(input, data)
}

// NeedsTemplating checks if a string contains expressions that need
// rendering.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("transform").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return jsonResult, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders a template and returns the result as a string. Message
// bodies and subjects always go through this form.
func RenderString(templateStr string, execution *models.Execution) (string, error) {
	if !NeedsTemplating(templateStr) {
		return templateStr, nil
	}

	result, err := RenderWithExecution(templateStr, execution)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func envVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
