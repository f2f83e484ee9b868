package graph

import (
	"encoding/json"
	"fmt"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// payloadSchemas maps node types to the JSON schema their payload must
// satisfy. Passive step nodes only carry advisory fields, so everything is
// optional for them; action payloads declare their required channel
// parameters.
func payloadSchemas() map[models.NodeType]map[string]any {
	stepSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"target":      targetSchema(),
		},
	}

	messageSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label": map[string]any{"type": "string"},
			"to":    map[string]any{"type": "string", "minLength": 1},
			"body":  map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"to", "body"},
	}

	return map[models.NodeType]map[string]any{
		models.NodeTypeCustomer: stepSchema,
		models.NodeTypeJob:      stepSchema,
		models.NodeTypeTask:     stepSchema,
		models.NodeTypeQuote:    stepSchema,
		models.NodeTypeCustom:   stepSchema,
		models.NodeTypeVision:   stepSchema,
		models.NodeTypeAutomation: {
			"type": "object",
			"properties": map[string]any{
				"label":         map[string]any{"type": "string"},
				"description":   map[string]any{"type": "string"},
				"automation_id": map[string]any{"type": "string", "minLength": 1},
				"target":        targetSchema(),
			},
			"required": []string{"automation_id"},
		},
		models.NodeTypeMessaging: messageSchema,
		models.NodeTypeWhatsApp:  messageSchema,
		models.NodeTypeEmail: {
			"type": "object",
			"properties": map[string]any{
				"label":   map[string]any{"type": "string"},
				"to":      map[string]any{"type": "string", "format": "email"},
				"subject": map[string]any{"type": "string", "minLength": 1},
				"html":    map[string]any{"type": "string"},
			},
			"required": []string{"to", "subject"},
		},
		models.NodeTypeSocial: {
			"type": "object",
			"properties": map[string]any{
				"label": map[string]any{"type": "string"},
				"platforms": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 1,
				},
				"content": map[string]any{"type": "string", "minLength": 1},
				"images": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"platforms", "content"},
		},
	}
}

func targetSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{"job", "quote", "customer", "message", "social", "calendar"},
			},
			"id": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"type", "id"},
	}
}

// validatePayload checks a node's payload against the schema declared for its
// type.
func validatePayload(node *models.Node) error {
	schema, ok := payloadSchemas()[node.Type]
	if !ok {
		return newNodeError(KindUnknownType, node, fmt.Sprintf("no payload schema for node type %q", node.Type))
	}

	payload := node.Data
	if payload == nil {
		var err error

		payload, err = models.EmptyPayload(node.Type)
		if err != nil {
			return newNodeError(KindUnknownType, node, err.Error())
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return newNodeError(KindBadPayload, node, err.Error())
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return newNodeError(KindBadPayload, node, err.Error())
	}

	if !result.Valid() {
		detail := "payload does not match the node type's shape"
		if len(result.Errors()) > 0 {
			detail = result.Errors()[0].String()
		}

		return newNodeError(KindBadPayload, node, detail)
	}

	return nil
}
