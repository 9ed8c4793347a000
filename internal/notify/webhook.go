// Package notify dispatches lifecycle events to a configured webhook. Delivery
// is best effort: failures are logged and never block the calling flow.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Dispatcher struct {
	URL    string
	Client *http.Client
}

func NewDispatcher(url string) *Dispatcher {
	return &Dispatcher{
		URL: url,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type event struct {
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// Notify fires the event in the background. Safe to call on a nil dispatcher
// or with no webhook configured.
func (d *Dispatcher) Notify(name string, payload any) {
	if d == nil || d.URL == "" {
		return
	}

	go func() {
		body, err := json.Marshal(event{
			Event:   name,
			At:      time.Now().UTC(),
			Payload: payload,
		})
		if err != nil {
			zap.L().Error("Failed to marshal webhook payload", zap.String("event", name), zap.Error(err))
			return
		}

		resp, err := d.Client.Post(d.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("Webhook delivery failed", zap.String("event", name), zap.Error(err))
			return
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			zap.L().Warn("Webhook rejected event", zap.String("event", name), zap.Int("status", resp.StatusCode))
		}
	}()
}
