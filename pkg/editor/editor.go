// Package editor keeps an in-memory working copy of a workflow and syncs it
// to the store with debounced autosaves.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldflow/fieldflow/pkg/auth"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

const defaultDebounce = 2 * time.Second

// SyncState is the editor's observable sync status.
type SyncState struct {
	HasUnsavedChanges bool
	Syncing           bool
	SignInRequired    bool
	LastSavedAt       *time.Time
}

// Controller owns one workflow editing session. All methods are safe for
// concurrent use; saves are serialized.
type Controller struct {
	store      persistence.WorkflowRepository
	authorizer auth.Authorizer
	publisher  eventbus.EventPublisher
	logger     *slog.Logger
	debounce   time.Duration

	mu          sync.Mutex
	workflow    *models.Workflow
	subject     string
	state       SyncState
	revision    int
	changes     int
	pendingSave *time.Timer
}

// NewController creates an editor session controller. A zero debounce falls
// back to the default. The publisher may be nil.
func NewController(
	store persistence.WorkflowRepository,
	authorizer auth.Authorizer,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	debounce time.Duration,
) *Controller {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Controller{
		store:      store,
		authorizer: authorizer,
		publisher:  publisher,
		logger:     logger,
		debounce:   debounce,
	}
}

// SetWorkflow replaces the working copy and clears the dirty flag. Any
// pending autosave for the previous workflow is dropped.
func (c *Controller) SetWorkflow(workflow *models.Workflow, subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingSave != nil {
		c.pendingSave.Stop()
		c.pendingSave = nil
	}

	c.workflow = workflow
	c.subject = subject
	c.state = SyncState{}
}

// MarkChanged records an edit and (re)arms the debounced autosave. Rapid
// successive edits collapse into a single save.
func (c *Controller) MarkChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workflow == nil {
		return
	}

	c.changes++
	c.state.HasUnsavedChanges = true

	if c.pendingSave != nil {
		c.pendingSave.Reset(c.debounce)

		return
	}

	c.pendingSave = time.AfterFunc(c.debounce, func() {
		err := c.SaveNow(context.Background())
		if err != nil {
			c.logger.Warn("autosave failed", "error", err)
		}
	})
}

// SaveNow flushes the working copy to the store immediately. An
// unauthenticated subject sets SignInRequired and writes nothing. On store
// failure the dirty flag stays set so a later save retries.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()

	if c.workflow == nil || !c.state.HasUnsavedChanges {
		c.mu.Unlock()

		return nil
	}

	if c.pendingSave != nil {
		c.pendingSave.Stop()
		c.pendingSave = nil
	}

	workflow := c.workflow
	subject := c.subject
	captured := c.changes

	err := c.authorizer.CanSave(ctx, subject, workflow.ID)
	if err != nil {
		c.state.SignInRequired = true
		c.mu.Unlock()

		return err
	}

	c.state.SignInRequired = false
	c.state.Syncing = true
	c.mu.Unlock()

	saveErr := c.store.Save(ctx, workflow)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Syncing = false

	if saveErr != nil {
		c.logger.WarnContext(ctx, "workflow save failed", "workflow_id", workflow.ID, "error", saveErr)

		return saveErr
	}

	now := time.Now().UTC()

	// An edit that landed while the store call was in flight keeps the dirty
	// flag set so its own autosave still runs.
	if c.changes == captured {
		c.state.HasUnsavedChanges = false
	}

	c.state.LastSavedAt = &now
	c.revision++

	c.publishSaved(ctx, workflow, c.revision, now)

	return nil
}

// State returns the current sync state.
func (c *Controller) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Workflow returns the working copy.
func (c *Controller) Workflow() *models.Workflow {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.workflow
}

func (c *Controller) publishSaved(ctx context.Context, workflow *models.Workflow, revision int, savedAt time.Time) {
	if c.publisher == nil {
		return
	}

	err := c.publisher.Publish(ctx, workflow.ID, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, workflow.ID),
		Revision:  revision,
		SavedAt:   savedAt,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to publish workflow saved event", "workflow_id", workflow.ID, "error", err)
	}
}
