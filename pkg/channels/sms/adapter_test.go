package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/models"
)

func testConfig(apiURL string) map[string]any {
	return map[string]any{
		"account_sid": "AC123",
		"auth_token":  "secret",
		"from":        "+15550001111",
		"api_url":     apiURL,
	}
}

func TestNewAdapter_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{
			name:    "missing account sid",
			config:  map[string]any{"auth_token": "t", "from": "+1"},
			wantErr: ErrAccountSIDMissing,
		},
		{
			name:    "missing auth token",
			config:  map[string]any{"account_sid": "AC1", "from": "+1"},
			wantErr: ErrAuthTokenMissing,
		},
		{
			name:    "missing from",
			config:  map[string]any{"account_sid": "AC1", "auth_token": "t"},
			wantErr: ErrFromMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(models.ChannelSMS, tt.config)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdapter_Dispatch(t *testing.T) {
	var gotForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM987"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(models.ChannelSMS, testConfig(server.URL))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "msg-1",
		Type: models.NodeTypeMessaging,
		Data: &models.MessagePayload{
			To:   "+15552223333",
			Body: "Hi {{ .input.name }}",
		},
	}

	execution := &models.Execution{
		ID:    "exec-1",
		Input: map[string]any{"name": "Dana"},
	}

	result, err := adapter.Dispatch(context.Background(), node, execution)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ChannelSMS, result.Channel)
	assert.Equal(t, "SM987", result.ExternalID)
	assert.Equal(t, "+15552223333", gotForm["To"])
	assert.Equal(t, "+15550001111", gotForm["From"])
	assert.Equal(t, "Hi Dana", gotForm["Body"])
}

func TestAdapter_DispatchWhatsAppPrefixesAddresses(t *testing.T) {
	var gotTo, gotFrom string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(models.ChannelWhatsApp, testConfig(server.URL))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "wa-1",
		Type: models.NodeTypeWhatsApp,
		Data: &models.MessagePayload{To: "+15552223333", Body: "hello"},
	}

	result, err := adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ChannelWhatsApp, result.Channel)
	assert.Equal(t, "whatsapp:+15552223333", gotTo)
	assert.Equal(t, "whatsapp:+15550001111", gotFrom)
}

func TestAdapter_DispatchProviderErrorIsRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(models.ChannelSMS, testConfig(server.URL))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "msg-1",
		Type: models.NodeTypeMessaging,
		Data: &models.MessagePayload{To: "bad", Body: "hello"},
	}

	result, err := adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "invalid recipient", result.Error)
	assert.Empty(t, result.ExternalID)
}

func TestAdapter_DispatchRejectsWrongPayload(t *testing.T) {
	adapter, err := NewAdapter(models.ChannelSMS, testConfig("http://localhost"))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "job-1",
		Type: models.NodeTypeJob,
		Data: &models.StepPayload{Label: "Job"},
	}

	_, err = adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.ErrorIs(t, err, ErrPayloadMismatch)
}
