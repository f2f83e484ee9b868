package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/models"
)

func testConfig(apiURL string) map[string]any {
	return map[string]any{
		"api_url":   apiURL,
		"api_key":   "key-1",
		"calendars": []any{"google", "outlook"},
	}
}

func calendarNode(id, eventID string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeJob,
		Data: &models.StepPayload{
			Label:  "Site visit",
			Target: &models.TargetRef{Type: models.TargetTypeCalendar, ID: eventID},
		},
	}
}

func TestNewAdapter_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{
			name:    "missing api url",
			config:  map[string]any{"api_key": "key-1"},
			wantErr: ErrAPIURLMissing,
		},
		{
			name:    "missing api key",
			config:  map[string]any{"api_url": "http://localhost"},
			wantErr: ErrAPIKeyMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.config)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdapter_DispatchSyncsAllCalendars(t *testing.T) {
	var (
		gotPath      string
		gotAuth      string
		gotCalendars []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Calendars []string `json:"calendars"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotCalendars = body.Calendars

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sync_id":"sync-77"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), calendarNode("job-1", "ev-9"), &models.Execution{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ChannelCalendar, result.Channel)
	assert.Equal(t, "sync-77", result.ExternalID)
	assert.Equal(t, "/events/ev-9/sync", gotPath)
	assert.Equal(t, "Bearer key-1", gotAuth)
	assert.Equal(t, []string{"google", "outlook"}, gotCalendars)
}

func TestAdapter_DispatchProviderErrorIsRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"calendar disconnected"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), calendarNode("job-1", "ev-9"), &models.Execution{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "calendar disconnected", result.Error)
	assert.Empty(t, result.ExternalID)
}

func TestAdapter_DispatchRejectsWrongPayload(t *testing.T) {
	adapter, err := NewAdapter(testConfig("http://localhost"))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "msg-1",
		Type: models.NodeTypeMessaging,
		Data: &models.MessagePayload{To: "+15552223333", Body: "hello"},
	}

	_, err = adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestAdapter_DispatchRequiresCalendarTarget(t *testing.T) {
	adapter, err := NewAdapter(testConfig("http://localhost"))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "quote-1",
		Type: models.NodeTypeQuote,
		Data: &models.StepPayload{
			Label:  "Quote",
			Target: &models.TargetRef{Type: models.TargetTypeQuote, ID: "q-1"},
		},
	}

	_, err = adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.ErrorIs(t, err, ErrNoCalendarTarget)
}
