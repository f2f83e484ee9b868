package telephony

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
		"area_code":   "415",
		"api_url":     apiURL,
	}
}

func provisionNode(id string) *models.Node {
	return &models.Node{
		ID:   id,
		Type: models.NodeTypeCustom,
		Data: &models.StepPayload{Label: "Business line"},
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
			config:  map[string]any{"auth_token": "t"},
			wantErr: ErrAccountSIDMissing,
		},
		{
			name:    "missing auth token",
			config:  map[string]any{"account_sid": "AC1"},
			wantErr: ErrAuthTokenMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.config)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdapter_AvailableNumbersPreservesProviderOrder(t *testing.T) {
	var gotAreaCode string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotAreaCode = r.PostFormValue("AreaCode")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_phone_numbers":[
			{"phone_number":"+14155550100"},
			{"phone_number":"+14155550101"},
			{"phone_number":"+14155550102"}
		]}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	numbers, err := adapter.AvailableNumbers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "415", gotAreaCode)
	assert.Equal(t, []string{"+14155550100", "+14155550101", "+14155550102"}, numbers)
}

func TestAdapter_DispatchOrdersFirstAvailableNumber(t *testing.T) {
	var gotOrdered string

	mux := http.NewServeMux()
	mux.HandleFunc("/Accounts/AC123/AvailablePhoneNumbers/Local.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_phone_numbers":[
			{"phone_number":"+14155550100"},
			{"phone_number":"+14155550101"}
		]}`))
	})
	mux.HandleFunc("/Accounts/AC123/IncomingPhoneNumbers.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotOrdered = r.PostFormValue("PhoneNumber")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"phone_number":"+14155550100"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), provisionNode("line-1"), &models.Execution{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ChannelTelephony, result.Channel)
	assert.Equal(t, "+14155550100", result.ExternalID)
	assert.Equal(t, "+14155550100", gotOrdered)
}

func TestAdapter_DispatchNoNumbersAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_phone_numbers":[]}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), provisionNode("line-1"), &models.Execution{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "line-1")
	assert.Contains(t, result.Error, "no phone numbers available")
}

func TestAdapter_DispatchOrderFailureIsRecorded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Accounts/AC123/AvailablePhoneNumbers/Local.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_phone_numbers":[{"phone_number":"+14155550100"}]}`))
	})
	mux.HandleFunc("/Accounts/AC123/IncomingPhoneNumbers.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"number already owned"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), provisionNode("line-1"), &models.Execution{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "number already owned", result.Error)
	assert.Empty(t, result.ExternalID)
}
