// Package translate calls the external translation service. The service is
// an opaque collaborator: it either returns translated text or an error.
package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type request struct {
	Text string `json:"text"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Client talks to the translator's HTTP endpoint.
type Client struct {
	http *resty.Client
	url  string
}

// New builds a client for the given endpoint URL. The timeout bounds the
// whole call; the service itself specifies none.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().SetTimeout(timeout),
		url:  url,
	}
}

// Translate submits text and returns the translated version.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	var result response
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request{Text: text}).
		SetResult(&result).
		Post(c.url)
	if err != nil {
		return "", fmt.Errorf("call translator: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("translator returned status %s", resp.Status())
	}
	if result.Error != "" {
		return "", fmt.Errorf("translator error: %s", result.Error)
	}
	return result.TranslatedText, nil
}
