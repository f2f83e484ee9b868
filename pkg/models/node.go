package models

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies the kind of a workflow node. The set is closed: the
// engine matches exhaustively on it and rejects anything else at validation
// time.
type NodeType string

const (
	NodeTypeCustomer   NodeType = "customer"
	NodeTypeJob        NodeType = "job"
	NodeTypeTask       NodeType = "task"
	NodeTypeQuote      NodeType = "quote"
	NodeTypeCustom     NodeType = "custom"
	NodeTypeVision     NodeType = "vision"
	NodeTypeAutomation NodeType = "automation"
	NodeTypeMessaging  NodeType = "messaging"
	NodeTypeEmail      NodeType = "email"
	NodeTypeWhatsApp   NodeType = "whatsapp"
	NodeTypeSocial     NodeType = "social"
)

// NodeTypes lists every valid node type in a stable order.
func NodeTypes() []NodeType {
	return []NodeType{
		NodeTypeCustomer,
		NodeTypeJob,
		NodeTypeTask,
		NodeTypeQuote,
		NodeTypeCustom,
		NodeTypeVision,
		NodeTypeAutomation,
		NodeTypeMessaging,
		NodeTypeEmail,
		NodeTypeWhatsApp,
		NodeTypeSocial,
	}
}

// IsAction reports whether nodes of this type dispatch a side effect through
// a channel adapter. Non-action nodes are passive data-reference steps.
func (t NodeType) IsAction() bool {
	switch t {
	case NodeTypeAutomation, NodeTypeMessaging, NodeTypeEmail, NodeTypeWhatsApp, NodeTypeSocial:
		return true
	case NodeTypeCustomer, NodeTypeJob, NodeTypeTask, NodeTypeQuote, NodeTypeCustom, NodeTypeVision:
		return false
	}

	return false
}

// Valid reports whether t belongs to the closed node type set.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeCustomer, NodeTypeJob, NodeTypeTask, NodeTypeQuote,
		NodeTypeCustom, NodeTypeVision, NodeTypeAutomation, NodeTypeMessaging,
		NodeTypeEmail, NodeTypeWhatsApp, NodeTypeSocial:
		return true
	}

	return false
}

// Position is advisory canvas layout only; it carries no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one step in a workflow graph. Data is a tagged variant whose
// concrete type is determined by Type.
type Node struct {
	ID       string      `json:"id"       validate:"required"`
	Type     NodeType    `json:"type"     validate:"required"`
	Position Position    `json:"position"`
	Data     NodePayload `json:"data"`
}

// UnmarshalJSON decodes the payload into the concrete variant for the node's
// declared type. Unknown types are rejected here rather than at execution
// time.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var envelope struct {
		ID       string          `json:"id"`
		Type     NodeType        `json:"type"`
		Position Position        `json:"position"`
		Data     json.RawMessage `json:"data"`
	}

	err := json.Unmarshal(raw, &envelope)
	if err != nil {
		return err
	}

	payload, err := EmptyPayload(envelope.Type)
	if err != nil {
		return err
	}

	if len(envelope.Data) > 0 {
		err = json.Unmarshal(envelope.Data, payload)
		if err != nil {
			return fmt.Errorf("failed to decode %s node payload: %w", envelope.Type, err)
		}
	}

	n.ID = envelope.ID
	n.Type = envelope.Type
	n.Position = envelope.Position
	n.Data = payload

	return nil
}
