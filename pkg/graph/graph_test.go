package graph

import (
	"testing"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNode(id string) *models.Node {
	return &models.Node{ID: id, Type: models.NodeTypeJob, Data: &models.StepPayload{Label: id}}
}

func smsNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeMessaging,
		Data: &models.MessagePayload{To: "+61400000000", Body: "hello"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		graph    *models.Graph
		wantKind ValidationKind
	}{
		{
			name:  "empty graph is valid",
			graph: &models.Graph{},
		},
		{
			name: "linear chain is valid",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a"), smsNode("b")},
				Edges: []*models.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
		},
		{
			name: "duplicate node id",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a"), stepNode("a")},
			},
			wantKind: KindDuplicateNode,
		},
		{
			name: "edge with missing target",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a")},
				Edges: []*models.Edge{{ID: "e1", Source: "a", Target: "ghost"}},
			},
			wantKind: KindDanglingEdge,
		},
		{
			name: "edge with missing source",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a")},
				Edges: []*models.Edge{{ID: "e1", Source: "ghost", Target: "a"}},
			},
			wantKind: KindDanglingEdge,
		},
		{
			name: "two node cycle",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a"), stepNode("b")},
				Edges: []*models.Edge{
					{ID: "e1", Source: "a", Target: "b"},
					{ID: "e2", Source: "b", Target: "a"},
				},
			},
			wantKind: KindCycle,
		},
		{
			name: "self loop",
			graph: &models.Graph{
				Nodes: []*models.Node{stepNode("a")},
				Edges: []*models.Edge{{ID: "e1", Source: "a", Target: "a"}},
			},
			wantKind: KindCycle,
		},
		{
			name: "unknown node type",
			graph: &models.Graph{
				Nodes: []*models.Node{{ID: "a", Type: models.NodeType("teleport")}},
			},
			wantKind: KindUnknownType,
		},
		{
			name: "messaging node without recipient",
			graph: &models.Graph{
				Nodes: []*models.Node{{
					ID:   "a",
					Type: models.NodeTypeMessaging,
					Data: &models.MessagePayload{Body: "hello"},
				}},
			},
			wantKind: KindBadPayload,
		},
		{
			name: "automation node without binding",
			graph: &models.Graph{
				Nodes: []*models.Node{{
					ID:   "a",
					Type: models.NodeTypeAutomation,
					Data: &models.AutomationPayload{Label: "unbound"},
				}},
			},
			wantKind: KindBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.graph)

			if tt.wantKind == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			require.True(t, IsValidationError(err))

			validationErr := &ValidationError{}
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantKind, validationErr.Kind)
		})
	}
}

func TestTopologicalOrder(t *testing.T) {
	graph := &models.Graph{
		Nodes: []*models.Node{
			stepNode("d"), stepNode("b"), stepNode("a"), stepNode("c"),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "c"},
			{ID: "e3", Source: "b", Target: "d"},
			{ID: "e4", Source: "c", Target: "d"},
		},
	}

	order, err := TopologicalOrder(graph)
	require.NoError(t, err)
	require.Len(t, order, 4)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	// Every edge's source precedes its target.
	for _, edge := range graph.Edges {
		assert.Less(t, position[edge.Source], position[edge.Target], "edge %s", edge.ID)
	}

	// Ties are broken by node id: b and c are both released by a.
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestTopologicalOrderIsStable(t *testing.T) {
	graph := &models.Graph{
		Nodes: []*models.Node{stepNode("z"), stepNode("m"), stepNode("a")},
	}

	first, err := TopologicalOrder(graph)
	require.NoError(t, err)

	for range 20 {
		again, err := TopologicalOrder(graph)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, []string{"a", "m", "z"}, first)
}

func TestTopologicalOrderRejectsCycle(t *testing.T) {
	graph := &models.Graph{
		Nodes: []*models.Node{stepNode("a"), stepNode("b")},
		Edges: []*models.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}

	_, err := TopologicalOrder(graph)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDependencies(t *testing.T) {
	graph := &models.Graph{
		Nodes: []*models.Node{stepNode("a"), stepNode("b"), stepNode("c")},
		Edges: []*models.Edge{
			{ID: "e1", Source: "a", Target: "c"},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}

	deps := Dependencies(graph)
	assert.ElementsMatch(t, []string{"a", "b"}, deps["c"])
	assert.Empty(t, deps["a"])
}
