// Package openai implements an assistant playground channel that answers
// locally with OpenAI chat completions instead of the dashboard backend.
package openai

import (
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client used to generate assistant replies.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewClient creates a client with the given API key. The HTTP client carries
// the configured request timeout.
func NewClient(apiKey string, httpClient http.Client) Client {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&httpClient),
	)

	return Client{
		client: &client,
		model:  openai.ChatModelGPT4_1Mini,
	}
}
