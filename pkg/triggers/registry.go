package triggers

import (
	"sort"
	"sync"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// Registry maps business event names to the workflows they trigger. It is
// rebuilt from workflow automation bindings and safe for concurrent reads.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]map[string]struct{}
}

// NewRegistry creates an empty trigger registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]map[string]struct{})}
}

// Rebuild replaces all bindings from the workflows' automation nodes.
// A workflow is bound to an event when it contains an automation node whose
// automation record is active and carries that event name.
func (r *Registry) Rebuild(workflows []*models.Workflow, automations []*models.Automation) {
	byID := make(map[string]*models.Automation, len(automations))
	for _, automation := range automations {
		byID[automation.ID] = automation
	}

	bindings := make(map[string]map[string]struct{})

	for _, workflow := range workflows {
		for _, node := range workflow.Graph.Nodes {
			payload, ok := node.Data.(*models.AutomationPayload)
			if !ok {
				continue
			}

			automation, ok := byID[payload.AutomationID]
			if !ok || !automation.IsActive || automation.Trigger.EventName == "" {
				continue
			}

			eventName := automation.Trigger.EventName
			if bindings[eventName] == nil {
				bindings[eventName] = make(map[string]struct{})
			}

			bindings[eventName][workflow.ID] = struct{}{}
		}
	}

	r.mu.Lock()
	r.bindings = bindings
	r.mu.Unlock()
}

// Bind adds one event-to-workflow binding.
func (r *Registry) Bind(eventName, workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bindings[eventName] == nil {
		r.bindings[eventName] = make(map[string]struct{})
	}

	r.bindings[eventName][workflowID] = struct{}{}
}

// Unbind removes one event-to-workflow binding.
func (r *Registry) Unbind(eventName, workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.bindings[eventName], workflowID)
}

// Match returns the ids of workflows bound to the event, sorted. A workflow
// appears at most once regardless of how many nodes bind it.
func (r *Registry) Match(eventName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.bindings[eventName]

	out := make([]string, 0, len(set))
	for workflowID := range set {
		out = append(out, workflowID)
	}

	sort.Strings(out)

	return out
}
