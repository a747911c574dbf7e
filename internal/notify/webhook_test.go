package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/roomcast/internal/config"
)

func TestWebhookMirrorSignsBody(t *testing.T) {
	var (
		body []byte
		sig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := NewWebhookMirror(config.WebhookConfig{URL: srv.URL, Secret: "s3cret"})
	require.True(t, m.IsConfigured())
	require.NoError(t, m.Send(context.Background(), 42, RoomAssigned(42, "B-12")))

	assert.Equal(t, "sha256="+Sign("s3cret", body), sig)
	var got struct {
		Type      string         `json:"type"`
		Recipient int64          `json:"recipient"`
		Data      map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, EventRoomAssigned, got.Type)
	assert.Equal(t, int64(42), got.Recipient)
	assert.Equal(t, "B-12", got.Data["roomNo"])
}

func TestWebhookMirrorReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewWebhookMirror(config.WebhookConfig{URL: srv.URL})
	err := m.Send(context.Background(), 1, NewEvent("x"))
	assert.ErrorContains(t, err, "502")
}

func TestWebhookMirrorUnconfiguredIsSkipped(t *testing.T) {
	d := NewDispatcher(NewRegistry(), WithMirror(NewWebhookMirror(config.WebhookConfig{})))
	assert.Empty(t, d.mirrors)
}
