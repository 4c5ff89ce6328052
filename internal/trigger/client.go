package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TriggerPath is the endpoint a deployed instance exposes for remote invocation.
const TriggerPath = "/api/v1/revalue"

// Client invokes a deployed revaluation instance with a signed request.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	secret  string
}

func NewClient(baseURL, apiKey, secret string) *Client {
	client := resty.New()
	client.SetTimeout(5 * time.Minute)
	client.SetHeader("User-Agent", "bountyrank/1.0")

	return &Client{
		http:    client,
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
	}
}

// Invoke POSTs the signed trigger request and returns the response body.
// Non-2xx responses are failures and carry the body for diagnosis.
func (c *Client) Invoke(ctx context.Context) (string, error) {
	body := "{}"
	timestamp := time.Now().Unix()
	signature := Sign(c.secret, "POST", TriggerPath, timestamp, body)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", c.apiKey).
		SetHeader("X-Timestamp", fmt.Sprintf("%d", timestamp)).
		SetHeader("X-Signature", signature).
		SetBody(body).
		Post(c.baseURL + TriggerPath)
	if err != nil {
		return "", fmt.Errorf("trigger request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return string(resp.Body()), fmt.Errorf("trigger status %s: %s", resp.Status(), resp.Body())
	}
	return string(resp.Body()), nil
}
