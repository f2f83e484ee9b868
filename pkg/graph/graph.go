package graph

import (
	"fmt"
	"sort"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// Validate checks reference integrity, acyclicity and per-type payload shape.
// It returns the first violation found and does not attempt partial repair.
func Validate(g *models.Graph) error {
	seen := make(map[string]*models.Node, len(g.Nodes))

	for _, node := range g.Nodes {
		if _, duplicate := seen[node.ID]; duplicate {
			return newNodeError(KindDuplicateNode, node, "node id is not unique within the workflow")
		}

		seen[node.ID] = node

		if !node.Type.Valid() {
			return newNodeError(KindUnknownType, node, fmt.Sprintf("node type %q is not in the supported set", node.Type))
		}

		err := validatePayload(node)
		if err != nil {
			return err
		}
	}

	for _, edge := range g.Edges {
		if _, ok := seen[edge.Source]; !ok {
			return &ValidationError{
				Kind:   KindDanglingEdge,
				EdgeID: edge.ID,
				Detail: fmt.Sprintf("source node %q does not exist", edge.Source),
			}
		}

		if _, ok := seen[edge.Target]; !ok {
			return &ValidationError{
				Kind:   KindDanglingEdge,
				EdgeID: edge.ID,
				Detail: fmt.Sprintf("target node %q does not exist", edge.Target),
			}
		}
	}

	return detectCycle(g)
}

// TopologicalOrder returns a stable dependency order over the graph's nodes,
// ties broken by node id. The execution engine walks nodes in this order.
func TopologicalOrder(g *models.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	children := make(map[string][]string, len(g.Nodes))

	for _, node := range g.Nodes {
		inDegree[node.ID] = 0
	}

	for _, edge := range g.Edges {
		if _, ok := inDegree[edge.Target]; !ok {
			return nil, &ValidationError{
				Kind:   KindDanglingEdge,
				EdgeID: edge.ID,
				Detail: fmt.Sprintf("target node %q does not exist", edge.Target),
			}
		}

		if _, ok := inDegree[edge.Source]; !ok {
			return nil, &ValidationError{
				Kind:   KindDanglingEdge,
				EdgeID: edge.ID,
				Detail: fmt.Sprintf("source node %q does not exist", edge.Source),
			}
		}

		inDegree[edge.Target]++
		children[edge.Source] = append(children[edge.Source], edge.Target)
	}

	ready := make([]string, 0, len(g.Nodes))
	for id, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}

	sort.Strings(ready)

	order := make([]string, 0, len(g.Nodes))

	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		released := make([]string, 0, len(children[current]))

		for _, child := range children[current] {
			inDegree[child]--
			if inDegree[child] == 0 {
				released = append(released, child)
			}
		}

		if len(released) > 0 {
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, &ValidationError{Kind: KindCycle, Detail: "graph contains a cycle"}
	}

	return order, nil
}

// Dependencies returns, for each node id, the ids of its direct dependency
// sources.
func Dependencies(g *models.Graph) map[string][]string {
	deps := make(map[string][]string, len(g.Nodes))
	for _, edge := range g.Edges {
		deps[edge.Target] = append(deps[edge.Target], edge.Source)
	}

	return deps
}

func detectCycle(g *models.Graph) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(g.Nodes))
	children := make(map[string][]string, len(g.Nodes))

	for _, edge := range g.Edges {
		children[edge.Source] = append(children[edge.Source], edge.Target)
	}

	var visit func(id string) *models.Node

	// visit returns a node on the cycle, or nil.
	visit = func(id string) *models.Node {
		state[id] = visiting

		for _, child := range children[id] {
			switch state[child] {
			case visiting:
				return g.Node(child)
			case unvisited:
				if offender := visit(child); offender != nil {
					return offender
				}
			}
		}

		state[id] = done

		return nil
	}

	for _, node := range g.Nodes {
		if state[node.ID] != unvisited {
			continue
		}

		if offender := visit(node.ID); offender != nil {
			return newNodeError(KindCycle, offender, "node participates in a cycle")
		}
	}

	return nil
}
