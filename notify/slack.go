package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/pw-reporter/metrics"
	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// Notifier delivers run notifications to a Slack-compatible webhook
type Notifier struct {
	log        log.Logger
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

// NewNotifier creates a notifier for the given webhook. client may be nil,
// in which case http.DefaultClient is used; callers bound request latency
// through the context they pass to Notify.
func NewNotifier(logger log.Logger, webhookURL string, channel string, username string, client *http.Client) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{
		log:        logger,
		webhookURL: webhookURL,
		channel:    channel,
		username:   username,
		client:     client,
	}
}

// Send posts the message to the webhook. Anything but HTTP 200 is a
// failure; there are no retries.
func (n *Notifier) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Notify builds and delivers the notification for a finalized report.
// Failures are logged and counted, never propagated: a lost notification
// must not disturb the written artifacts or the exit status.
func (n *Notifier) Notify(ctx context.Context, report *types.FinalReport) {
	msg := BuildMessage(report, n.channel, n.username)
	if err := n.Send(ctx, msg); err != nil {
		n.log.Error("Failed to send notification", "error", err, "webhook", redactURL(n.webhookURL))
		metrics.RecordNotification(metrics.NotificationFailed)
		metrics.RecordErrorDetails("notify", err)
		return
	}
	n.log.Info("Notification sent", "channel", n.channel)
	metrics.RecordNotification(metrics.NotificationSent)
}

// redactURL reduces a webhook URL to its host. Webhook paths embed the
// shared secret and must never reach the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid-url"
	}
	return u.Host
}
