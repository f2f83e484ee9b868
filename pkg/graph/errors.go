// Package graph provides structural validation and ordering over a workflow's
// node/edge set. All functions are pure.
package graph

import (
	"errors"
	"fmt"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// ValidationKind classifies a graph violation.
type ValidationKind string

const (
	KindCycle         ValidationKind = "cycle"
	KindDanglingEdge  ValidationKind = "dangling_edge"
	KindDuplicateNode ValidationKind = "duplicate_node"
	KindUnknownType   ValidationKind = "unknown_type"
	KindBadPayload    ValidationKind = "bad_payload"
)

// ValidationError describes the first violation found in a graph. A graph
// that fails validation never reaches the execution engine.
type ValidationError struct {
	Kind   ValidationKind
	NodeID string
	EdgeID string
	Detail string
}

func (e *ValidationError) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("invalid graph (%s) at node %s: %s", e.Kind, e.NodeID, e.Detail)
	case e.EdgeID != "":
		return fmt.Sprintf("invalid graph (%s) at edge %s: %s", e.Kind, e.EdgeID, e.Detail)
	}

	return fmt.Sprintf("invalid graph (%s): %s", e.Kind, e.Detail)
}

// IsValidationError reports whether err is a graph validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

func newNodeError(kind ValidationKind, node *models.Node, detail string) *ValidationError {
	return &ValidationError{Kind: kind, NodeID: node.ID, Detail: detail}
}
