// Package sms dispatches messaging and whatsapp nodes through a Twilio-style
// messaging API.
package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/template"
)

const defaultAPIURL = "https://api.twilio.com/2010-04-01"

var (
	// ErrAccountSIDMissing is returned when the account SID is not configured.
	ErrAccountSIDMissing = errors.New("missing 'account_sid' in configuration")
	// ErrAuthTokenMissing is returned when the auth token is not configured.
	ErrAuthTokenMissing = errors.New("missing 'auth_token' in configuration")
	// ErrFromMissing is returned when the sender number is not configured.
	ErrFromMissing = errors.New("missing 'from' in configuration")
	// ErrPayloadMismatch is returned when a node carries a non-message payload.
	ErrPayloadMismatch = errors.New("node payload is not a message payload")
)

// Adapter sends text messages. The same adapter serves the sms and whatsapp
// channels; whatsapp addresses are prefixed per the provider convention.
type Adapter struct {
	channel    models.Channel
	accountSID string
	authToken  string
	from       string
	client     *channels.ProviderClient
}

// NewAdapter creates a messaging adapter for the given channel from
// configuration.
func NewAdapter(channel models.Channel, config map[string]any) (*Adapter, error) {
	accountSID, _ := config["account_sid"].(string)
	if accountSID == "" {
		return nil, ErrAccountSIDMissing
	}

	authToken, _ := config["auth_token"].(string)
	if authToken == "" {
		return nil, ErrAuthTokenMissing
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
		channel:    channel,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     channels.NewProviderClient(apiURL, 0, channels.RetryConfig{Attempts: 3, Delay: time.Second}),
	}, nil
}

// Channel returns the channel this adapter serves.
func (a *Adapter) Channel() models.Channel {
	return a.channel
}

// Dispatch sends the node's message and records the provider's message SID.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, execution *models.Execution) (*models.DispatchResult, error) {
	payload, ok := node.Data.(*models.MessagePayload)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrPayloadMismatch)
	}

	to, err := template.RenderString(payload.To, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	body, err := template.RenderString(payload.Body, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	from := a.from
	if a.channel == models.ChannelWhatsApp {
		to = "whatsapp:" + to
		from = "whatsapp:" + from
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	var response struct {
		SID          string `json:"sid"`
		ErrorMessage string `json:"message"`
	}

	headers := map[string]string{
		"Authorization": "Basic " + basicAuth(a.accountSID, a.authToken),
	}

	status, err := a.client.PostForm(ctx, "/Accounts/"+a.accountSID+"/Messages.json", form, headers, &response)
	if err != nil {
		return &models.DispatchResult{
			Channel: a.channel,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	if status >= http.StatusBadRequest {
		message := response.ErrorMessage
		if message == "" {
			message = fmt.Sprintf("provider returned status %d", status)
		}

		return &models.DispatchResult{
			Channel: a.channel,
			Success: false,
			Error:   message,
		}, nil
	}

	return &models.DispatchResult{
		Channel:    a.channel,
		Success:    true,
		ExternalID: response.SID,
	}, nil
}
