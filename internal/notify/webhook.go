package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookSubscriber posts every event as JSON to a registered callback
// URL. A non-2xx response or transport error drops the subscription.
type WebhookSubscriber struct {
	id     string
	url    string
	client *resty.Client
}

// NewWebhookSubscriber builds a subscriber for the given callback URL.
func NewWebhookSubscriber(id, url string) *WebhookSubscriber {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WebhookSubscriber{id: id, url: url, client: client}
}

// ID implements Subscriber.
func (w *WebhookSubscriber) ID() string {
	return w.id
}

// URL exposes the callback target for listing registered subscriptions.
func (w *WebhookSubscriber) URL() string {
	return w.url
}

// Deliver implements Subscriber.
func (w *WebhookSubscriber) Deliver(ctx context.Context, event Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s answered %d", w.url, resp.StatusCode())
	}
	return nil
}
