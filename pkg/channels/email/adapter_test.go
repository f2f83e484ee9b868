package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/models"
)

func testConfig(apiURL string) map[string]any {
	return map[string]any{
		"domain":  "mg.acme.com",
		"api_key": "key-123",
		"from":    "Acme <no-reply@acme.com>",
		"api_url": apiURL,
	}
}

func TestNewAdapter_ConfigValidation(t *testing.T) {
	_, err := NewAdapter(map[string]any{"api_key": "k", "from": "a@b.c"})
	require.ErrorIs(t, err, ErrDomainMissing)

	_, err = NewAdapter(map[string]any{"domain": "d", "from": "a@b.c"})
	require.ErrorIs(t, err, ErrAPIKeyMissing)

	_, err = NewAdapter(map[string]any{"domain": "d", "api_key": "k"})
	require.ErrorIs(t, err, ErrFromMissing)
}

func TestAdapter_Dispatch(t *testing.T) {
	var gotPath, gotTo, gotSubject string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		gotPath = r.URL.Path
		gotTo = r.PostFormValue("to")
		gotSubject = r.PostFormValue("subject")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<msg-1@mg.acme.com>","message":"Queued"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "email-1",
		Type: models.NodeTypeEmail,
		Data: &models.EmailPayload{
			To:      "dana@example.com",
			Subject: "Quote {{ index .steps \"quote-1\" \"number\" }}",
			HTML:    "<p>Your quote is ready.</p>",
		},
	}

	execution := &models.Execution{
		ID: "exec-1",
		Steps: []*models.StepResult{
			{NodeID: "quote-1", Status: models.StepStatusCompleted, Output: map[string]any{"number": "Q-77"}},
		},
	}

	result, err := adapter.Dispatch(context.Background(), node, execution)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ChannelEmail, result.Channel)
	assert.Equal(t, "<msg-1@mg.acme.com>", result.ExternalID)
	assert.Equal(t, "/mg.acme.com/messages", gotPath)
	assert.Equal(t, "dana@example.com", gotTo)
	assert.Equal(t, "Quote Q-77", gotSubject)
}

func TestAdapter_DispatchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<msg-2@mg.acme.com>"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(testConfig(server.URL))
	require.NoError(t, err)

	node := &models.Node{
		ID:   "email-1",
		Type: models.NodeTypeEmail,
		Data: &models.EmailPayload{To: "dana@example.com", Subject: "hi", HTML: "<p>hi</p>"},
	}

	result, err := adapter.Dispatch(context.Background(), node, &models.Execution{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int32(3), calls.Load())
}
