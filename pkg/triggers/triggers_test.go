package triggers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

func TestCatalog_Search(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{
			name:    "empty query returns everything",
			query:   "",
			wantIDs: []string{"form_submission", "new_customer", "job_created", "job_completed", "quote_approved", "invoice_overdue", "schedule", "manual"},
		},
		{
			name:    "case-insensitive name match",
			query:   "JOB",
			wantIDs: []string{"job_created", "job_completed"},
		},
		{
			name:    "description match",
			query:   "due date",
			wantIDs: []string{"invoice_overdue"},
		},
		{
			name:    "no match",
			query:   "zzz",
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.Search(tt.query)

			ids := make([]string, 0, len(got))
			for _, descriptor := range got {
				ids = append(ids, descriptor.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func automationNode(id, automationID string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeAutomation,
		Data: &models.AutomationPayload{Label: "auto", AutomationID: automationID},
	}
}

func TestRegistry_RebuildAndMatch(t *testing.T) {
	workflows := []*models.Workflow{
		{ID: "wf-b", Graph: models.Graph{Nodes: []*models.Node{automationNode("n1", "auto-1")}}},
		{ID: "wf-a", Graph: models.Graph{Nodes: []*models.Node{
			automationNode("n1", "auto-1"),
			automationNode("n2", "auto-1"), // duplicate binding collapses
		}}},
		{ID: "wf-c", Graph: models.Graph{Nodes: []*models.Node{automationNode("n1", "auto-2")}}},
		{ID: "wf-d", Graph: models.Graph{Nodes: []*models.Node{automationNode("n1", "auto-3")}}},
	}

	automations := []*models.Automation{
		{ID: "auto-1", IsActive: true, Trigger: models.TriggerBinding{EventName: "job.completed"}},
		{ID: "auto-2", IsActive: false, Trigger: models.TriggerBinding{EventName: "job.completed"}},
		{ID: "auto-3", IsActive: true, Trigger: models.TriggerBinding{Manual: true}},
	}

	registry := NewRegistry()
	registry.Rebuild(workflows, automations)

	// Sorted, set-semantic, disabled and manual-only bindings excluded.
	assert.Equal(t, []string{"wf-a", "wf-b"}, registry.Match("job.completed"))
	assert.Empty(t, registry.Match("quote.approved"))
}

func TestRegistry_BindUnbind(t *testing.T) {
	registry := NewRegistry()
	registry.Bind("quote.approved", "wf-1")
	registry.Bind("quote.approved", "wf-2")
	registry.Unbind("quote.approved", "wf-1")

	assert.Equal(t, []string{"wf-2"}, registry.Match("quote.approved"))
}

type workflowStore struct {
	records map[string]*models.Workflow
}

func (s *workflowStore) GetAll(_ context.Context) ([]*models.Workflow, error) { return nil, nil }

func (s *workflowStore) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	return record, nil
}

func (s *workflowStore) Save(_ context.Context, _ *models.Workflow) error { return nil }
func (s *workflowStore) Delete(_ context.Context, _ string) error         { return nil }

func (s *workflowStore) ListTemplates(_ context.Context) ([]*models.Workflow, error) {
	return nil, nil
}

type stubRunner struct {
	failFor map[string]error
	ran     []string
}

func (r *stubRunner) Run(_ context.Context, workflow *models.Workflow, _ map[string]any) (*models.Execution, error) {
	if err, ok := r.failFor[workflow.ID]; ok {
		return nil, err
	}

	r.ran = append(r.ran, workflow.ID)

	return &models.Execution{ID: "exec-" + workflow.ID, WorkflowID: workflow.ID}, nil
}

func TestIngestor_FireTrigger(t *testing.T) {
	store := &workflowStore{records: map[string]*models.Workflow{
		"wf-1": {ID: "wf-1"},
		"wf-2": {ID: "wf-2"},
	}}

	registry := NewRegistry()
	registry.Bind("job.completed", "wf-1")
	registry.Bind("job.completed", "wf-2")

	runner := &stubRunner{}
	ingestor := NewIngestor(registry, store, runner, slog.Default())

	ids, err := ingestor.FireTrigger(context.Background(), "job.completed", map[string]any{"job_id": "j-1"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"exec-wf-1", "exec-wf-2"}, ids)
	assert.ElementsMatch(t, []string{"wf-1", "wf-2"}, runner.ran)
}

func TestIngestor_FireTriggerFailureDoesNotBlockSiblings(t *testing.T) {
	store := &workflowStore{records: map[string]*models.Workflow{
		"wf-1": {ID: "wf-1"},
		"wf-2": {ID: "wf-2"},
	}}

	registry := NewRegistry()
	registry.Bind("job.completed", "wf-1")
	registry.Bind("job.completed", "wf-2")
	registry.Bind("job.completed", "wf-missing")

	runner := &stubRunner{failFor: map[string]error{"wf-1": assert.AnError}}
	ingestor := NewIngestor(registry, store, runner, slog.Default())

	ids, err := ingestor.FireTrigger(context.Background(), "job.completed", nil)
	require.Error(t, err)

	assert.Equal(t, []string{"exec-wf-2"}, ids)
	assert.Contains(t, err.Error(), "wf-missing")
	assert.Contains(t, err.Error(), "wf-1")
}

func TestIngestor_FireTriggerNoMatches(t *testing.T) {
	ingestor := NewIngestor(NewRegistry(), &workflowStore{}, &stubRunner{}, slog.Default())

	ids, err := ingestor.FireTrigger(context.Background(), "nothing.bound", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
