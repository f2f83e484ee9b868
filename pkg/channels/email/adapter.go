// Package email dispatches email nodes through a Mailgun-style messages API.
package email

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/template"
)

const defaultAPIURL = "https://api.mailgun.net/v3"

var (
	// ErrDomainMissing is returned when the sending domain is not configured.
	ErrDomainMissing = errors.New("missing 'domain' in configuration")
	// ErrAPIKeyMissing is returned when the API key is not configured.
	ErrAPIKeyMissing = errors.New("missing 'api_key' in configuration")
	// ErrFromMissing is returned when the sender address is not configured.
	ErrFromMissing = errors.New("missing 'from' in configuration")
	// ErrPayloadMismatch is returned when a node carries a non-email payload.
	ErrPayloadMismatch = errors.New("node payload is not an email payload")
)

// Adapter sends email through the provider's messages endpoint.
type Adapter struct {
	domain string
	apiKey string
	from   string
	client *channels.ProviderClient
}

// NewAdapter creates an email adapter from configuration.
func NewAdapter(config map[string]any) (*Adapter, error) {
	domain, _ := config["domain"].(string)
	if domain == "" {
		return nil, ErrDomainMissing
	}

	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	from, _ := config["from"].(string)
	if from == "" {
		return nil, ErrFromMissing
	}

	apiURL, _ := config["api_url"].(string)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Adapter{
		domain: domain,
		apiKey: apiKey,
		from:   from,
		client: channels.NewProviderClient(apiURL, 0, channels.RetryConfig{Attempts: 3, Delay: time.Second}),
	}, nil
}

// Channel returns the email channel.
func (a *Adapter) Channel() models.Channel {
	return models.ChannelEmail
}

// Dispatch sends the node's email and records the provider's message id.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, execution *models.Execution) (*models.DispatchResult, error) {
	payload, ok := node.Data.(*models.EmailPayload)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrPayloadMismatch)
	}

	to, err := template.RenderString(payload.To, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	subject, err := template.RenderString(payload.Subject, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}

	html, err := template.RenderString(payload.HTML, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	form := url.Values{}
	form.Set("from", a.from)
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("html", html)

	var response struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}

	headers := map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("api:"+a.apiKey)),
	}

	status, err := a.client.PostForm(ctx, "/"+a.domain+"/messages", form, headers, &response)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelEmail,
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
			Channel: models.ChannelEmail,
			Success: false,
			Error:   message,
		}, nil
	}

	return &models.DispatchResult{
		Channel:    models.ChannelEmail,
		Success:    true,
		ExternalID: response.ID,
	}, nil
}
