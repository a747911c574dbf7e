package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hostelhub/roomcast/internal/config"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Roomcast-Signature"

// WebhookMirror posts published events to a generic HTTP endpoint with
// optional HMAC-SHA256 signing.
type WebhookMirror struct {
	cfg    config.WebhookConfig
	client *http.Client
}

// NewWebhookMirror creates a WebhookMirror from cfg.
func NewWebhookMirror(cfg config.WebhookConfig) *WebhookMirror {
	return &WebhookMirror{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *WebhookMirror) Name() string        { return "webhook" }
func (w *WebhookMirror) IsConfigured() bool { return w.cfg.URL != "" }

func (w *WebhookMirror) Send(ctx context.Context, recipient RecipientID, evt Event) error {
	payload := struct {
		Type      string  `json:"type"`
		Recipient int64   `json:"recipient"`
		Data      Payload `json:"data"`
		TS        string  `json:"ts"`
	}{
		Type:      evt.Name,
		Recipient: int64(recipient),
		Data:      evt.Payload,
		TS:        time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.cfg.Secret, b))
	}
	resp, err := w.client.Do(req) // #nosec G107 -- URL is an operator-configured webhook endpoint
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
