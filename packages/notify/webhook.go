package notify

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// webhookTimeout bounds a single notification post.
const webhookTimeout = 10 * time.Second

func newWebhookClient() *resty.Client {
	return resty.New().
		SetTimeout(webhookTimeout).
		SetHeader("Content-Type", "application/json")
}

// postJSON posts msg to url and fails unless the status is one of accepted.
func postJSON(client *resty.Client, service, url string, msg any, accepted ...int) error {
	resp, err := client.R().SetBody(msg).Post(url)
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", service, err)
	}
	for _, code := range accepted {
		if resp.StatusCode() == code {
			return nil
		}
	}
	return fmt.Errorf("%s API returned status %d: %s", service, resp.StatusCode(), resp.String())
}
