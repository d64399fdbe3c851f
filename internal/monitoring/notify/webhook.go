package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookNotifier posts alerts as text messages to a webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string        `json:"msgtype"`
	Text    webhookText   `json:"text"`
	Alert   OffTwiceAlert `json:"alert"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends an alert to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, alert OffTwiceAlert) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: FormatAlert(alert)},
		Alert:   alert,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}
	return nil
}

// FormatAlert renders the text body of an alert.
func FormatAlert(alert OffTwiceAlert) string {
	var b strings.Builder
	b.WriteString("[Sensor Monitor]\n")
	country := alert.Country
	if alert.CountryName != "" {
		country = fmt.Sprintf("%s (%s)", alert.CountryName, alert.Country)
	}
	fmt.Fprintf(&b, "Country: %s\n", country)
	if alert.Date != "" {
		fmt.Fprintf(&b, "Session: %s\n", alert.Date)
	}
	if alert.Period != "" {
		fmt.Fprintf(&b, "Period: %s\n", alert.Period)
	}
	fmt.Fprintf(&b, "Off for two consecutive sessions: %s\n", strings.Join(alert.Sensors, ", "))
	return strings.TrimSpace(b.String())
}
