// Package telephony provisions business phone numbers through a Twilio-style
// provisioning API.
package telephony

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
)

const defaultAPIURL = "https://api.twilio.com/2010-04-01"

var (
	// ErrAccountSIDMissing is returned when the account SID is not configured.
	ErrAccountSIDMissing = errors.New("missing 'account_sid' in configuration")
	// ErrAuthTokenMissing is returned when the auth token is not configured.
	ErrAuthTokenMissing = errors.New("missing 'auth_token' in configuration")
	// ErrNoNumbersAvailable is returned when the provider has no numbers for
	// the requested area code.
	ErrNoNumbersAvailable = errors.New("no phone numbers available")
)

// Adapter orders and queries phone numbers.
type Adapter struct {
	accountSID string
	authToken  string
	areaCode   string
	client     *channels.ProviderClient
}

// NewAdapter creates a telephony adapter from configuration.
func NewAdapter(config map[string]any) (*Adapter, error) {
	accountSID, _ := config["account_sid"].(string)
	if accountSID == "" {
		return nil, ErrAccountSIDMissing
	}

	authToken, _ := config["auth_token"].(string)
	if authToken == "" {
		return nil, ErrAuthTokenMissing
	}

	areaCode, _ := config["area_code"].(string)

	apiURL, _ := config["api_url"].(string)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Adapter{
		accountSID: accountSID,
		authToken:  authToken,
		areaCode:   areaCode,
		client:     channels.NewProviderClient(apiURL, 0, channels.RetryConfig{Attempts: 2, Delay: time.Second}),
	}, nil
}

// Channel returns the telephony channel.
func (a *Adapter) Channel() models.Channel {
	return models.ChannelTelephony
}

// AvailableNumbers queries the provider for numbers in the configured area
// code.
func (a *Adapter) AvailableNumbers(ctx context.Context) ([]string, error) {
	form := url.Values{}
	if a.areaCode != "" {
		form.Set("AreaCode", a.areaCode)
	}

	var response struct {
		AvailablePhoneNumbers []struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"available_phone_numbers"`
	}

	status, err := a.client.PostForm(ctx, "/Accounts/"+a.accountSID+"/AvailablePhoneNumbers/Local.json", form, a.headers(), &response)
	if err != nil {
		return nil, err
	}

	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("provider returned status %d", status)
	}

	numbers := make([]string, 0, len(response.AvailablePhoneNumbers))
	for _, entry := range response.AvailablePhoneNumbers {
		numbers = append(numbers, entry.PhoneNumber)
	}

	return numbers, nil
}

// Dispatch orders the first available number in the configured area code and
// records it as the dispatch's external id.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, _ *models.Execution) (*models.DispatchResult, error) {
	numbers, err := a.AvailableNumbers(ctx)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelTelephony,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	if len(numbers) == 0 {
		return &models.DispatchResult{
			Channel: models.ChannelTelephony,
			Success: false,
			Error:   fmt.Sprintf("node %s: %v", node.ID, ErrNoNumbersAvailable),
		}, nil
	}

	form := url.Values{}
	form.Set("PhoneNumber", numbers[0])

	var response struct {
		PhoneNumber string `json:"phone_number"`
		Message     string `json:"message"`
	}

	status, err := a.client.PostForm(ctx, "/Accounts/"+a.accountSID+"/IncomingPhoneNumbers.json", form, a.headers(), &response)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelTelephony,
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
			Channel: models.ChannelTelephony,
			Success: false,
			Error:   message,
		}, nil
	}

	return &models.DispatchResult{
		Channel:    models.ChannelTelephony,
		Success:    true,
		ExternalID: response.PhoneNumber,
	}, nil
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(a.accountSID+":"+a.authToken)),
	}
}
