// Package revalidate tells the frontend to rebuild pages after content changes.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type Notifier struct {
	url    string
	secret string
	client *http.Client
	log    *slog.Logger
}

// New returns a Notifier posting to url. An empty url disables it.
func New(url, secret string, log *slog.Logger) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (n *Notifier) Enabled() bool { return n != nil && n.url != "" }

// Trigger posts the revalidation request for collection and waits for the reply.
func (n *Notifier) Trigger(ctx context.Context, collection string) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(map[string]string{
		"secret":     n.secret,
		"collection": collection,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build revalidation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger revalidation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revalidation failed with status code %d", resp.StatusCode)
	}
	return nil
}

// TriggerAsync fires Trigger in the background and logs the outcome.
func (n *Notifier) TriggerAsync(collection string) {
	if !n.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.Trigger(ctx, collection); err != nil {
			n.log.Warn("revalidation failed", "collection", collection, "err", err)
			return
		}
		n.log.Debug("revalidation triggered", "collection", collection)
	}()
}
