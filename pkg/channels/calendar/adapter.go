// Package calendar dispatches calendar-linked steps by syncing the linked
// event to the connected calendars.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

var (
	// ErrAPIURLMissing is returned when the calendar API URL is not configured.
	ErrAPIURLMissing = errors.New("missing 'api_url' in configuration")
	// ErrAPIKeyMissing is returned when the API key is not configured.
	ErrAPIKeyMissing = errors.New("missing 'api_key' in configuration")
	// ErrPayloadMismatch is returned when a node carries a non-step payload.
	ErrPayloadMismatch = errors.New("node payload is not a step payload")
	// ErrNoCalendarTarget is returned when the node has no calendar target.
	ErrNoCalendarTarget = errors.New("node has no calendar target")
)

// Adapter syncs one calendar event to every connected calendar.
type Adapter struct {
	calendars []string
	apiKey    string
	client    *channels.ProviderClient
}

// NewAdapter creates a calendar adapter from configuration.
func NewAdapter(config map[string]any) (*Adapter, error) {
	apiURL, _ := config["api_url"].(string)
	if apiURL == "" {
		return nil, ErrAPIURLMissing
	}

	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	var calendars []string

	if list, ok := config["calendars"].([]any); ok {
		for _, entry := range list {
			if name, ok := entry.(string); ok {
				calendars = append(calendars, name)
			}
		}
	}

	return &Adapter{
		calendars: calendars,
		apiKey:    apiKey,
		client:    channels.NewProviderClient(apiURL, 0, channels.RetryConfig{Attempts: 2, Delay: time.Second}),
	}, nil
}

// Channel returns the calendar channel.
func (a *Adapter) Channel() models.Channel {
	return models.ChannelCalendar
}

// Dispatch syncs the node's linked calendar event. The node must carry a
// step payload with a calendar target.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, _ *models.Execution) (*models.DispatchResult, error) {
	payload, ok := node.Data.(*models.StepPayload)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrPayloadMismatch)
	}

	if payload.Target == nil || payload.Target.Type != models.TargetTypeCalendar {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrNoCalendarTarget)
	}

	body := map[string]any{"calendars": a.calendars}

	var response struct {
		SyncID  string `json:"sync_id"`
		Message string `json:"message"`
	}

	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	status, err := a.client.PostJSON(ctx, "/events/"+payload.Target.ID+"/sync", body, headers, &response)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelCalendar,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	if status >= http.StatusBadRequest {
		message := response.Message
		if message == "" {
			message = fmt.Sprintf("provider returned status %d", status)
		}

		return &models.DispatchResult{
			Channel: models.ChannelCalendar,
			Success: false,
			Error:   message,
		}, nil
	}

	return &models.DispatchResult{
		Channel:    models.ChannelCalendar,
		Success:    true,
		ExternalID: response.SyncID,
	}, nil
}
