// Package models defines the core domain models for node-based workflow automation.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Workflow represents a saved automation graph owned by an operator.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required,min=3"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsTemplate  bool      `json:"is_template"`
	Graph       Graph     `json:"graph"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Graph is the node/edge set of a workflow.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Edge is a directed dependency between two nodes. Both endpoints must
// reference nodes present in the same graph.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// Clone returns a deep copy of the graph. The engine executes against a
// frozen copy so concurrent editor saves never mutate an in-flight
// execution's view.
func (g *Graph) Clone() (*Graph, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	clone := &Graph{}

	err = json.Unmarshal(raw, clone)
	if err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	return clone, nil
}
