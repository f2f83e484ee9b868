// Package social dispatches social nodes by publishing one post per target
// platform through an aggregator API.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/template"
)

var (
	// ErrAPIURLMissing is returned when the aggregator URL is not configured.
	ErrAPIURLMissing = errors.New("missing 'api_url' in configuration")
	// ErrAPIKeyMissing is returned when the API key is not configured.
	ErrAPIKeyMissing = errors.New("missing 'api_key' in configuration")
	// ErrPayloadMismatch is returned when a node carries a non-social payload.
	ErrPayloadMismatch = errors.New("node payload is not a social payload")
)

// Adapter publishes posts through a social aggregator. A dispatch succeeds
// only when every requested platform accepts the post.
type Adapter struct {
	apiKey string
	client *channels.ProviderClient
}

// NewAdapter creates a social adapter from configuration.
func NewAdapter(config map[string]any) (*Adapter, error) {
	apiURL, _ := config["api_url"].(string)
	if apiURL == "" {
		return nil, ErrAPIURLMissing
	}

	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	return &Adapter{
		apiKey: apiKey,
		client: channels.NewProviderClient(apiURL, 0, channels.RetryConfig{Attempts: 2, Delay: time.Second}),
	}, nil
}

// Channel returns the social channel.
func (a *Adapter) Channel() models.Channel {
	return models.ChannelSocial
}

// Dispatch publishes the node's content to each platform. Post ids are
// recorded per platform; any platform failure fails the dispatch.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, execution *models.Execution) (*models.DispatchResult, error) {
	payload, ok := node.Data.(*models.SocialPayload)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrPayloadMismatch)
	}

	content, err := template.RenderString(payload.Content, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	var (
		postIDs  []string
		failures []string
	)

	for _, platform := range payload.Platforms {
		body := map[string]any{
			"platform": platform,
			"content":  content,
			"images":   payload.Images,
		}

		var response struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		}

		status, err := a.client.PostJSON(ctx, "/posts", body, headers, &response)
		if err != nil {
			failures = append(failures, platform+": "+err.Error())

			continue
		}

		if status >= http.StatusBadRequest {
			message := response.Message
			if message == "" {
				message = fmt.Sprintf("status %d", status)
			}

			failures = append(failures, platform+": "+message)

			continue
		}

		postIDs = append(postIDs, platform+":"+response.ID)
	}

	if len(failures) > 0 {
		return &models.DispatchResult{
			Channel:    models.ChannelSocial,
			Success:    false,
			ExternalID: strings.Join(postIDs, ","),
			Error:      strings.Join(failures, "; "),
		}, nil
	}

	return &models.DispatchResult{
		Channel:    models.ChannelSocial,
		Success:    true,
		ExternalID: strings.Join(postIDs, ","),
	}, nil
}
