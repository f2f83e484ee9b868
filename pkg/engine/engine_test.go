package engine_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/channels/sms"
	"github.com/fieldflow/fieldflow/pkg/engine"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/registry"
)

type memoryExecutions struct {
	mu       sync.Mutex
	byID     map[string]models.Execution
	progress []int
}

func newMemoryExecutions() *memoryExecutions {
	return &memoryExecutions{byID: make(map[string]models.Execution)}
}

func (m *memoryExecutions) SaveExecution(_ context.Context, execution *models.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[execution.ID]
	if ok && stored.Status.Terminal() {
		return persistence.NewExecutionError("save", execution.ID, persistence.ErrExecutionImmutable)
	}

	m.byID[execution.ID] = *execution
	m.progress = append(m.progress, execution.Progress)

	return nil
}

func (m *memoryExecutions) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[id]
	if !ok {
		return nil, persistence.NewExecutionError("get", id, persistence.ErrExecutionNotFound)
	}

	return &stored, nil
}

func (m *memoryExecutions) ExecutionsByWorkflow(_ context.Context, workflowID string) ([]*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*models.Execution, 0)

	for id := range m.byID {
		stored := m.byID[id]
		if stored.WorkflowID == workflowID {
			result = append(result, &stored)
		}
	}

	return result, nil
}

func (m *memoryExecutions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.byID)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *capturingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]events.EventType, 0, len(p.events))
	for _, event := range p.events {
		result = append(result, event.GetType())
	}

	return result
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smsRegistry(t *testing.T, apiURL string) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterAdapter(sms.NewAdapterFactory(), map[string]any{
		"account_sid": "AC123",
		"auth_token":  "secret",
		"from":        "+15550000000",
		"api_url":     apiURL,
	})

	return reg
}

func stepNode(id string, nodeType models.NodeType, label string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: nodeType,
		Data: &models.StepPayload{Label: label},
	}
}

func messageNode(id, to string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeMessaging,
		Data: &models.MessagePayload{Label: "notify " + id, To: to, Body: "on our way"},
	}
}

func edge(source, target string) *models.Edge {
	return &models.Edge{ID: source + "->" + target, Source: source, Target: target}
}

func TestRunSequentialChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "SM100"}`))
	}))
	defer server.Close()

	executions := newMemoryExecutions()
	publisher := &capturingPublisher{}
	eng := engine.NewEngine(executions, smsRegistry(t, server.URL), publisher, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "job reminder",
		Graph: models.Graph{
			Nodes: []*models.Node{
				stepNode("job-1", models.NodeTypeJob, "Boiler service"),
				messageNode("msg-1", "+15551234567"),
				stepNode("done-1", models.NodeTypeCustom, "Wrap up"),
			},
			Edges: []*models.Edge{
				edge("job-1", "msg-1"),
				edge("msg-1", "done-1"),
			},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, map[string]any{"customer": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, 100, execution.Progress)
	assert.Empty(t, execution.CurrentStep)
	assert.Empty(t, execution.Error)
	require.NotNil(t, execution.CompletedAt)

	for _, step := range execution.Steps {
		assert.Equal(t, models.StepStatusCompleted, step.Status, "step %s", step.NodeID)
	}

	msgStep := execution.Step("msg-1")
	require.NotNil(t, msgStep)
	require.NotNil(t, msgStep.Dispatch)
	assert.True(t, msgStep.Dispatch.Success)
	assert.Equal(t, "SM100", msgStep.Dispatch.ExternalID)
	assert.Equal(t, "SM100", execution.Output["external_id"])

	stored, err := executions.ExecutionByID(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)

	eventTypes := publisher.types()
	require.NotEmpty(t, eventTypes)
	assert.Equal(t, events.ExecutionStartedEvent, eventTypes[0])
	assert.Equal(t, events.ExecutionCompletedEvent, eventTypes[len(eventTypes)-1])
	assert.Len(t, eventTypes, 5)
}

func TestRunFailureSkipsDownstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "number blocked"}`))
	}))
	defer server.Close()

	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, smsRegistry(t, server.URL), nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-2",
		Graph: models.Graph{
			Nodes: []*models.Node{
				messageNode("msg-1", "+15551234567"),
				stepNode("after-1", models.NodeTypeTask, "Follow up"),
				stepNode("after-2", models.NodeTypeCustom, "Close out"),
			},
			Edges: []*models.Edge{
				edge("msg-1", "after-1"),
				edge("after-1", "after-2"),
			},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "msg-1")
	assert.Contains(t, execution.Error, "number blocked")
	assert.Equal(t, 100, execution.Progress)

	msgStep := execution.Step("msg-1")
	require.NotNil(t, msgStep)
	assert.Equal(t, models.StepStatusFailed, msgStep.Status)
	require.NotNil(t, msgStep.Dispatch)
	assert.False(t, msgStep.Dispatch.Success)
	assert.Equal(t, "number blocked", msgStep.Dispatch.Error)

	assert.Equal(t, models.StepStatusSkipped, execution.Step("after-1").Status)
	assert.Equal(t, models.StepStatusSkipped, execution.Step("after-2").Status)
}

// quietFailFactory builds adapters that report delivery failure with no
// error text, as an out-of-tree plugin adapter may.
type quietFailFactory struct{}

func (quietFailFactory) ID() models.Channel     { return models.ChannelSMS }
func (quietFailFactory) Name() string           { return "Quiet" }
func (quietFailFactory) Description() string    { return "fails without an error message" }
func (quietFailFactory) Schema() map[string]any { return map[string]any{} }

func (quietFailFactory) Create(_ context.Context, _ map[string]any) (channels.Adapter, error) {
	return quietFailAdapter{}, nil
}

type quietFailAdapter struct{}

func (quietFailAdapter) Channel() models.Channel { return models.ChannelSMS }

func (quietFailAdapter) Dispatch(_ context.Context, _ *models.Node, _ *models.Execution) (*models.DispatchResult, error) {
	return &models.DispatchResult{Channel: models.ChannelSMS, Success: false}, nil
}

func TestRunFailureWithoutErrorTextStillFails(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	reg.RegisterAdapter(quietFailFactory{}, nil)

	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, reg, nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-9",
		Graph: models.Graph{
			Nodes: []*models.Node{
				messageNode("msg-1", "+15551234567"),
				stepNode("after-1", models.NodeTypeTask, "Follow up"),
			},
			Edges: []*models.Edge{edge("msg-1", "after-1")},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "msg-1")
	assert.Equal(t, models.StepStatusFailed, execution.Step("msg-1").Status)
	assert.Equal(t, models.StepStatusSkipped, execution.Step("after-1").Status)
}

func TestRunContinueOnFailureRunsSiblingBranch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")

		if r.PostFormValue("To") == "+15559999999" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "number blocked"}`))

			return
		}

		_, _ = w.Write([]byte(`{"sid": "SM200"}`))
	}))
	defer server.Close()

	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, smsRegistry(t, server.URL), nil, testLogger(), nil, engine.Options{
		ContinueOnFailure: true,
	})

	workflow := &models.Workflow{
		ID: "wf-3",
		Graph: models.Graph{
			Nodes: []*models.Node{
				stepNode("root", models.NodeTypeCustomer, "Customer"),
				messageNode("bad", "+15559999999"),
				messageNode("good", "+15551234567"),
				stepNode("bad-child", models.NodeTypeTask, "After bad"),
				stepNode("good-child", models.NodeTypeTask, "After good"),
			},
			Edges: []*models.Edge{
				edge("root", "bad"),
				edge("root", "good"),
				edge("bad", "bad-child"),
				edge("good", "good-child"),
			},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, models.StepStatusFailed, execution.Step("bad").Status)
	assert.Equal(t, models.StepStatusSkipped, execution.Step("bad-child").Status)
	assert.Equal(t, models.StepStatusCompleted, execution.Step("good").Status)
	assert.Equal(t, models.StepStatusCompleted, execution.Step("good-child").Status)
	assert.Equal(t, 100, execution.Progress)
}

func TestRunCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "SM300"}`))
	}))
	defer server.Close()
	defer close(release)

	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, smsRegistry(t, server.URL), nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-4",
		Graph: models.Graph{
			Nodes: []*models.Node{
				messageNode("msg-1", "+15551234567"),
				stepNode("after-1", models.NodeTypeTask, "Follow up"),
			},
			Edges: []*models.Edge{edge("msg-1", "after-1")},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	execution, err := eng.Run(ctx, workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "execution cancelled")
	assert.Equal(t, models.StepStatusSkipped, execution.Step("after-1").Status)
}

func TestRunEmptyGraphCompletes(t *testing.T) {
	executions := newMemoryExecutions()
	publisher := &capturingPublisher{}
	eng := engine.NewEngine(executions, registry.NewRegistry(testLogger()), publisher, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{ID: "wf-5", Name: "empty"}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, 100, execution.Progress)
	assert.Empty(t, execution.Steps)
	require.NotNil(t, execution.CompletedAt)

	assert.Equal(t, []events.EventType{events.ExecutionCompletedEvent}, publisher.types())
}

func TestRunValidationFailureCreatesNoRecord(t *testing.T) {
	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, registry.NewRegistry(testLogger()), nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-6",
		Graph: models.Graph{
			Nodes: []*models.Node{stepNode("a", models.NodeTypeJob, "A")},
			Edges: []*models.Edge{edge("a", "ghost")},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.Error(t, err)
	assert.Nil(t, execution)
	assert.Zero(t, executions.count())
}

func TestRunProgressIsMonotonic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "SM400"}`))
	}))
	defer server.Close()

	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, smsRegistry(t, server.URL), nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-7",
		Graph: models.Graph{
			Nodes: []*models.Node{
				stepNode("a", models.NodeTypeCustomer, "A"),
				messageNode("b", "+15551234567"),
				stepNode("c", models.NodeTypeTask, "C"),
				stepNode("d", models.NodeTypeCustom, "D"),
			},
			Edges: []*models.Edge{
				edge("a", "b"),
				edge("b", "c"),
				edge("c", "d"),
			},
		},
	}

	_, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	previous := 0
	for _, progress := range executions.progress {
		assert.GreaterOrEqual(t, progress, previous)
		previous = progress
	}

	assert.Equal(t, 100, executions.progress[len(executions.progress)-1])
}

func TestRunPassiveOutputsFlowDownstream(t *testing.T) {
	executions := newMemoryExecutions()
	eng := engine.NewEngine(executions, registry.NewRegistry(testLogger()), nil, testLogger(), nil, engine.Options{})

	workflow := &models.Workflow{
		ID: "wf-8",
		Graph: models.Graph{
			Nodes: []*models.Node{
				{
					ID:   "quote-1",
					Type: models.NodeTypeQuote,
					Data: &models.StepPayload{
						Label:  "Quote",
						Target: &models.TargetRef{Type: models.TargetTypeQuote, ID: "q-42"},
					},
				},
				stepNode("task-1", models.NodeTypeTask, "Review"),
			},
			Edges: []*models.Edge{edge("quote-1", "task-1")},
		},
	}

	execution, err := eng.Run(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)

	quoteStep := execution.Step("quote-1")
	require.NotNil(t, quoteStep)
	assert.Equal(t, "q-42", quoteStep.Output["target_id"])

	// The downstream step inherits its parent's output and overlays its own
	// reference data.
	taskStep := execution.Step("task-1")
	require.NotNil(t, taskStep)
	assert.Equal(t, "q-42", taskStep.Output["target_id"])
	assert.Equal(t, "Review", taskStep.Output["label"])
}
